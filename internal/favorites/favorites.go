// Package favorites finds the products bought most often in recent carts
// and keeps the set of products the user pinned by hand.
package favorites

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/normalize"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/store"
)

const (
	DefaultMinFrequency = 2
	DefaultWindowSize   = 10
	DefaultMonths       = 6
)

// Product is a frequently bought or pinned product.
type Product struct {
	Key                 string               `json:"key"`
	Name                string               `json:"name"`
	Frequency           int                  `json:"frequency"`
	TotalPurchases      int                  `json:"totalPurchases"`
	FrequencyPercentage int                  `json:"frequencyPercentage"`
	AveragePrice        float64              `json:"averagePrice"`
	LowestPrice         float64              `json:"lowestPrice"`
	HighestPrice        float64              `json:"highestPrice"`
	LastPrice           float64              `json:"lastPrice"`
	LastDate            time.Time            `json:"lastDate"`
	LastSupermarket     string               `json:"lastSupermarket"`
	History             []pricing.PricePoint `json:"priceHistory"`
	Trend               pricing.Trend        `json:"trend"`
	IsMarkedFavorite    bool                 `json:"isMarkedFavorite"`
}

// Detector reads carts and pins.
type Detector struct {
	carts store.CartStore
	pins  store.FavoriteStore
	now   func() time.Time
}

// NewDetector builds a detector. now defaults to time.Now.
func NewDetector(carts store.CartStore, pins store.FavoriteStore, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{carts: carts, pins: pins, now: now}
}

// DetectFrequent looks at the windowSize most recent carts and returns the
// products present in at least minFrequency of them, plus any pinned product
// present in the window, most frequent first. A product counts once per
// cart however many lines it takes. Non-positive arguments use the defaults.
func (d *Detector) DetectFrequent(ctx context.Context, minFrequency, windowSize int) []Product {
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	carts, err := d.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for favorites", "err", err)
		return []Product{}
	}
	if len(carts) == 0 {
		return []Product{}
	}
	pinned, err := d.pins.PinnedFavorites(ctx)
	if err != nil {
		log.Warnw("reading pinned favorites", "err", err)
		pinned = map[string]bool{}
	}

	window := recent(carts, windowSize)
	frequency := make(map[string]int)
	for _, cart := range window {
		seen := make(map[string]bool)
		for _, item := range cart.Items {
			key := normalize.ForPinning(item.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			frequency[key]++
		}
	}

	total := len(window)
	out := make([]Product, 0)
	for key, p := range pricing.BuildIndex(window, normalize.ForPinning) {
		freq := frequency[key]
		if freq < minFrequency && !pinned[key] {
			continue
		}
		prices := pricing.Prices(p.Points)
		last := p.Latest()
		out = append(out, Product{
			Key:                 key,
			Name:                p.Name,
			Frequency:           freq,
			TotalPurchases:      total,
			FrequencyPercentage: int(math.Round(float64(freq) / float64(total) * 100)),
			AveragePrice:        pricing.Average(prices),
			LowestPrice:         pricing.Min(prices),
			HighestPrice:        pricing.Max(prices),
			LastPrice:           last.Price,
			LastDate:            last.Date,
			LastSupermarket:     last.Supermarket,
			History:             pricing.NewestFirst(p.Points),
			Trend:               pricing.PointsTrend(p.Points),
			IsMarkedFavorite:    pinned[key],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ToggleFavorite pins or unpins name and returns whether it is now pinned.
func (d *Detector) ToggleFavorite(ctx context.Context, name string) (bool, error) {
	key := normalize.ForPinning(name)
	if key == "" {
		return false, model.Invalid("name", "is required")
	}
	return d.pins.TogglePinned(ctx, key)
}

// PriceEvolution returns every purchase of name across all carts in the
// trailing months, oldest first.
func (d *Detector) PriceEvolution(ctx context.Context, name string, months int) []pricing.PricePoint {
	if months <= 0 {
		months = DefaultMonths
	}
	carts, err := d.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for price evolution", "name", name, "err", err)
		return []pricing.PricePoint{}
	}
	p, ok := pricing.BuildIndex(carts, normalize.ForPinning)[normalize.ForPinning(name)]
	if !ok {
		return []pricing.PricePoint{}
	}
	from := d.now().AddDate(0, -months, 0)
	points := pricing.Since(p.Points, from)
	if points == nil {
		return []pricing.PricePoint{}
	}
	return points
}

func recent(carts []model.Cart, n int) []model.Cart {
	sorted := append([]model.Cart(nil), carts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
