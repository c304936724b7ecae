// Package alert judges a shelf price against what the same product cost at
// the same supermarket over the last month.
package alert

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/normalize"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/store"
)

// Kind classifies a price against its recent average.
type Kind string

const (
	GreatDeal Kind = "great-deal"
	GoodDeal  Kind = "good-deal"
	Warning   Kind = "warning"
	Normal    Kind = "normal"
)

// Lookback is how far back prices are compared.
const Lookback = 30 * 24 * time.Hour

// Alert is the verdict on one price.
type Alert struct {
	Kind       Kind    `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
	Average    float64 `json:"averagePrice"`
	Savings    float64 `json:"savings"`
}

// Evaluator reads carts.
type Evaluator struct {
	carts store.CartStore
	now   func() time.Time
}

// NewEvaluator builds an evaluator. now defaults to time.Now.
func NewEvaluator(carts store.CartStore, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{carts: carts, now: now}
}

// Evaluate compares price with the average paid for name at supermarket in
// the last 30 days. It returns nil on a first visit to the supermarket, when
// the product has no recent history there, or when carts cannot be read.
func (e *Evaluator) Evaluate(ctx context.Context, name string, price float64, supermarket string) *Alert {
	carts, err := e.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for price alert", "name", name, "err", err)
		return nil
	}

	here := make([]model.Cart, 0)
	for _, c := range carts {
		if sameStore(c.Supermarket, supermarket) {
			here = append(here, c)
		}
	}
	if len(here) == 0 {
		return nil
	}

	p, ok := pricing.BuildIndex(here, normalize.ForPinning)[normalize.ForPinning(name)]
	if !ok {
		return nil
	}
	recent := pricing.Since(p.Points, e.now().Add(-Lookback))
	if len(recent) == 0 {
		return nil
	}
	avg := pricing.Average(pricing.Prices(recent))
	if avg == 0 {
		return nil
	}
	percentage := (price - avg) / avg * 100
	return build(classify(percentage), percentage, price, avg)
}

func sameStore(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func classify(percentage float64) Kind {
	switch {
	case percentage <= -20:
		return GreatDeal
	case percentage <= -10:
		return GoodDeal
	case percentage >= 15:
		return Warning
	default:
		return Normal
	}
}

func build(kind Kind, percentage, price, avg float64) *Alert {
	a := &Alert{
		Kind:       kind,
		Percentage: percentage,
		Average:    avg,
		Savings:    math.Round(avg - price),
	}
	average := math.Round(avg)
	off := math.Round(math.Abs(percentage))

	switch kind {
	case GreatDeal:
		a.Title = "Excelente preço!"
		a.Message = fmt.Sprintf("%.0f%% abaixo da média de %.0f Kz. Poupa %.0f Kz.", off, average, a.Savings)
	case GoodDeal:
		a.Title = "Bom preço"
		a.Message = fmt.Sprintf("%.0f%% abaixo da média de %.0f Kz. Poupa %.0f Kz.", off, average, a.Savings)
	case Warning:
		a.Savings = math.Round(price - avg)
		a.Title = "Preço acima do normal"
		a.Message = fmt.Sprintf("%.0f%% acima da média de %.0f Kz. Paga mais %.0f Kz.", off, average, a.Savings)
	case Normal:
		a.Title = "Preço normal"
		a.Message = fmt.Sprintf("Dentro da média de %.0f Kz nos últimos 30 dias.", average)
	default:
		panic(fmt.Sprintf("alert: unknown kind %q", kind))
	}
	return a
}
