// Package crossstore compares what the same product costs at different
// supermarkets.
package crossstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/tayloree/confere/internal/normalize"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/store"
)

// StorePrice is the latest price paid for a product at one supermarket.
type StorePrice struct {
	Supermarket string    `json:"supermarket"`
	Price       float64   `json:"price"`
	Date        time.Time `json:"date"`
	Quantity    int       `json:"quantity"`
}

// ProductPrice is a product bought at two or more supermarkets.
type ProductPrice struct {
	Key                    string       `json:"key"`
	Name                   string       `json:"productName"`
	Prices                 []StorePrice `json:"prices"`
	LowestPrice            float64      `json:"lowestPrice"`
	HighestPrice           float64      `json:"highestPrice"`
	BestSupermarket        string       `json:"bestSupermarket"`
	TotalPurchases         int          `json:"totalPurchases"`
	PotentialSavings       float64      `json:"potentialSavings"`
	PriceDifferencePercent float64      `json:"priceDifferencePercent"`
}

// Comparator reads carts.
type Comparator struct {
	carts store.CartStore
}

func NewComparator(carts store.CartStore) *Comparator {
	return &Comparator{carts: carts}
}

// ProductPrices returns every product with prices at two or more
// supermarkets, most purchased first. A storage failure yields no products.
func (c *Comparator) ProductPrices(ctx context.Context) []ProductPrice {
	carts, err := c.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for price comparison", "err", err)
		return []ProductPrice{}
	}

	out := make([]ProductPrice, 0)
	for key, p := range pricing.BuildIndex(carts, normalize.ForGrouping) {
		latest := p.LatestByStore()
		if len(latest) < 2 {
			continue
		}
		out = append(out, summarize(key, p, latest))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPurchases != out[j].TotalPurchases {
			return out[i].TotalPurchases > out[j].TotalPurchases
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Search returns the compared products whose key contains term once both
// are normalized. An empty term matches everything.
func (c *Comparator) Search(ctx context.Context, term string) []ProductPrice {
	all := c.ProductPrices(ctx)
	q := normalize.ForGrouping(term)
	if q == "" {
		return all
	}
	out := make([]ProductPrice, 0)
	for _, p := range all {
		if strings.Contains(p.Key, q) {
			out = append(out, p)
		}
	}
	return out
}

func summarize(key string, p *pricing.Product, latest []pricing.PricePoint) ProductPrice {
	pp := ProductPrice{Key: key, Name: p.Name}

	// Ties on the lowest price go to the later purchase.
	for i, pt := range p.Points {
		if i == 0 || pt.Price <= pp.LowestPrice {
			pp.LowestPrice = pt.Price
			pp.BestSupermarket = pt.Supermarket
		}
		if i == 0 || pt.Price > pp.HighestPrice {
			pp.HighestPrice = pt.Price
		}
		pp.TotalPurchases += pt.Quantity
	}

	low := decimal.NewFromFloat(pp.LowestPrice)
	spread := decimal.NewFromFloat(pp.HighestPrice).Sub(low)
	pp.PotentialSavings = spread.InexactFloat64()
	if !low.IsZero() {
		pp.PriceDifferencePercent = spread.Div(low).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	pp.Prices = make([]StorePrice, 0, len(latest))
	for _, pt := range latest {
		pp.Prices = append(pp.Prices, StorePrice{
			Supermarket: pt.Supermarket,
			Price:       pt.Price,
			Date:        pt.Date,
			Quantity:    pt.Quantity,
		})
	}
	sort.SliceStable(pp.Prices, func(i, j int) bool {
		return pp.Prices[i].Price < pp.Prices[j].Price
	})
	return pp
}
