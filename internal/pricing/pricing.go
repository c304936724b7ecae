// Package pricing aggregates line items from every cart into per-product
// price histories and the scalar statistics derived from them.
package pricing

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tayloree/confere/internal/model"
)

// KeyFunc maps a raw product name to its product key.
type KeyFunc func(string) string

// PricePoint is one recorded purchase of a product.
type PricePoint struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	Supermarket string    `json:"supermarket"`
	Quantity    int       `json:"quantity"`
	Name        string    `json:"-"`
}

// Product is every recorded purchase of one normalized product.
type Product struct {
	Key    string
	Name   string // display name of the most recent purchase
	Points []PricePoint
}

// Index maps product keys to their history.
type Index map[string]*Product

// BuildIndex groups every line item of every cart under key(item.Name).
// Points are kept chronologically; nothing is deduplicated.
func BuildIndex(carts []model.Cart, key KeyFunc) Index {
	idx := make(Index)
	for _, cart := range carts {
		for _, item := range cart.Items {
			k := key(item.Name)
			if k == "" {
				continue
			}
			p, ok := idx[k]
			if !ok {
				p = &Product{Key: k}
				idx[k] = p
			}
			p.Points = append(p.Points, PricePoint{
				Date:        cart.Date,
				Price:       item.Price,
				Supermarket: strings.TrimSpace(cart.Supermarket),
				Quantity:    item.Quantity,
				Name:        item.Name,
			})
		}
	}
	for _, p := range idx {
		sortChronological(p.Points)
		p.Name = p.Latest().Name
	}
	return idx
}

// Prices returns the prices of points, in order.
func Prices(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, pt := range points {
		out[i] = pt.Price
	}
	return out
}

// Latest returns the most recently dated point.
func (p *Product) Latest() PricePoint {
	if len(p.Points) == 0 {
		return PricePoint{}
	}
	return p.Points[len(p.Points)-1]
}

// LatestByStore keeps one point per supermarket: the most recent one.
// Earlier purchases at the same store are superseded, not averaged.
func (p *Product) LatestByStore() []PricePoint {
	latest := make(map[string]PricePoint)
	order := make([]string, 0)
	for _, pt := range p.Points {
		cur, ok := latest[pt.Supermarket]
		if !ok {
			order = append(order, pt.Supermarket)
		}
		if !ok || !pt.Date.Before(cur.Date) {
			latest[pt.Supermarket] = pt
		}
	}
	out := make([]PricePoint, 0, len(order))
	for _, store := range order {
		out = append(out, latest[store])
	}
	return out
}

// Stores returns the distinct supermarkets the product was bought at.
func (p *Product) Stores() int {
	seen := make(map[string]struct{})
	for _, pt := range p.Points {
		seen[pt.Supermarket] = struct{}{}
	}
	return len(seen)
}

// Since returns the points dated at or after from.
func Since(points []PricePoint, from time.Time) []PricePoint {
	var out []PricePoint
	for _, pt := range points {
		if !pt.Date.Before(from) {
			out = append(out, pt)
		}
	}
	return out
}

// Average returns the arithmetic mean, or 0 for no prices.
func Average(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// Min returns the lowest price, or 0 for no prices.
func Min(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	low := math.Inf(1)
	for _, p := range prices {
		low = math.Min(low, p)
	}
	return low
}

// Max returns the highest price, or 0 for no prices.
func Max(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	high := math.Inf(-1)
	for _, p := range prices {
		high = math.Max(high, p)
	}
	return high
}

// Chronological returns a copy of points sorted oldest first.
func Chronological(points []PricePoint) []PricePoint {
	out := append([]PricePoint(nil), points...)
	sortChronological(out)
	return out
}

// NewestFirst returns a copy of points sorted newest first.
func NewestFirst(points []PricePoint) []PricePoint {
	out := Chronological(points)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func sortChronological(points []PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}
