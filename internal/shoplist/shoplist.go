// Package shoplist prices a planned shopping list from purchase history.
package shoplist

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/normalize"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/store"
)

// recentPrices is how many of the latest prices make up a suggestion.
const recentPrices = 3

// Suggestion is the expected cost of one list entry.
type Suggestion struct {
	Name                string        `json:"name"`
	Quantity            int           `json:"quantity"`
	SuggestedPrice      float64       `json:"suggestedPrice"`
	LastPrice           float64       `json:"lastPrice"`
	CheapestSupermarket string        `json:"cheapestSupermarket"`
	CheapestPrice       float64       `json:"cheapestPrice"`
	Trend               pricing.Trend `json:"trend"`
	Subtotal            float64       `json:"subtotal"`
}

// Estimate prices a whole list. Entries never bought before are listed in
// Unknown and left out of Total.
type Estimate struct {
	Items   []Suggestion             `json:"items"`
	Unknown []model.ShoppingListItem `json:"unknown"`
	Total   float64                  `json:"total"`
}

// Planner reads carts.
type Planner struct {
	carts store.CartStore
}

func NewPlanner(carts store.CartStore) *Planner {
	return &Planner{carts: carts}
}

// Suggest prices each entry at the average of its last three recorded
// prices. Entries are validated before anything is read.
func (p *Planner) Suggest(ctx context.Context, items []model.ShoppingListItem) (*Estimate, error) {
	for _, item := range items {
		if err := model.Validate(item); err != nil {
			return nil, err
		}
	}

	est := &Estimate{Items: []Suggestion{}, Unknown: []model.ShoppingListItem{}}
	carts, err := p.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for shopping list", "err", err)
		est.Unknown = append(est.Unknown, items...)
		return est, nil
	}

	idx := pricing.BuildIndex(carts, normalize.ForPinning)
	total := decimal.Zero
	for _, item := range items {
		prod, ok := idx[normalize.ForPinning(item.Name)]
		if !ok {
			est.Unknown = append(est.Unknown, item)
			continue
		}
		s := suggest(item, prod)
		total = total.Add(decimal.NewFromFloat(s.Subtotal))
		est.Items = append(est.Items, s)
	}
	est.Total = total.InexactFloat64()
	return est, nil
}

func suggest(item model.ShoppingListItem, prod *pricing.Product) Suggestion {
	prices := pricing.Prices(prod.Points)
	last := prices[max(0, len(prices)-recentPrices):]
	avg := decimal.NewFromFloat(pricing.Average(last)).Round(2)

	s := Suggestion{
		Name:           item.Name,
		Quantity:       item.Quantity,
		SuggestedPrice: avg.InexactFloat64(),
		LastPrice:      prod.Latest().Price,
		Trend:          pricing.TrendOf(prices),
		Subtotal:       avg.Mul(decimal.NewFromInt(int64(item.Quantity))).InexactFloat64(),
	}
	for i, pt := range prod.LatestByStore() {
		if i == 0 || pt.Price < s.CheapestPrice {
			s.CheapestPrice = pt.Price
			s.CheapestSupermarket = pt.Supermarket
		}
	}
	return s
}
