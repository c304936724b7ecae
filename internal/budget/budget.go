// Package budget tracks spending against the monthly budget.
package budget

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
)

// Level is the budget alert state.
type Level string

const (
	LevelNone     Level = "none"
	LevelWarning  Level = "warning"
	LevelDanger   Level = "danger"
	LevelCritical Level = "critical"
)

// Stats describes the current month. Money figures are rounded to whole units.
type Stats struct {
	Budget              float64 `json:"budget"`
	Spent               float64 `json:"spent"`
	Remaining           float64 `json:"remaining"`
	Percentage          int     `json:"percentage"`
	DaysInMonth         int     `json:"daysInMonth"`
	DaysPassed          int     `json:"daysPassed"`
	DaysRemaining       int     `json:"daysRemaining"`
	AveragePerDay       float64 `json:"averagePerDay"`
	SuggestedDailyLimit float64 `json:"suggestedDailyLimit"`
	IsOverBudget        bool    `json:"isOverBudget"`
}

// Tracker reads carts and the budget slot.
type Tracker struct {
	carts   store.CartStore
	budgets store.BudgetStore
	now     func() time.Time
}

// NewTracker builds a tracker. now defaults to time.Now.
func NewTracker(carts store.CartStore, budgets store.BudgetStore, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{carts: carts, budgets: budgets, now: now}
}

// SetMonthlyBudget replaces any budget with amount for the current month.
func (t *Tracker) SetMonthlyBudget(ctx context.Context, amount float64) (*model.MonthlyBudget, error) {
	now := t.now()
	b := model.MonthlyBudget{Amount: amount, Month: model.MonthKey(now), CreatedAt: now}
	if err := model.Validate(b); err != nil {
		return nil, err
	}
	if err := t.budgets.SetBudget(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Budget returns the budget of the current month, or nil. A budget set in an
// earlier month is ignored but left in place.
func (t *Tracker) Budget(ctx context.Context) *model.MonthlyBudget {
	b, err := t.budgets.GetBudget(ctx)
	if err != nil {
		log.Warnw("reading budget", "err", err)
		return nil
	}
	if b == nil || b.Month != model.MonthKey(t.now()) {
		return nil
	}
	return b
}

// MonthlySpending sums the totals of the carts dated in the current month.
func (t *Tracker) MonthlySpending(ctx context.Context) float64 {
	carts, err := t.carts.ListCarts(ctx)
	if err != nil {
		log.Warnw("listing carts for spending", "err", err)
		return 0
	}
	now := t.now()
	sum := decimal.Zero
	for _, c := range carts {
		d := c.Date.In(now.Location())
		if d.Year() == now.Year() && d.Month() == now.Month() {
			sum = sum.Add(decimal.NewFromFloat(c.Total))
		}
	}
	return sum.InexactFloat64()
}

// Stats reports the month so far. It returns model.ErrNoBudget when no
// budget is set for the current month.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	b := t.Budget(ctx)
	if b == nil {
		return nil, model.ErrNoBudget
	}
	s := compute(b.Amount, t.MonthlySpending(ctx), t.now())
	return &s, nil
}

func compute(budget, spent float64, now time.Time) Stats {
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	daysPassed := now.Day()
	daysRemaining := daysInMonth - daysPassed
	remaining := budget - spent

	var avg, suggested float64
	if daysPassed > 0 {
		avg = spent / float64(daysPassed)
	}
	if daysRemaining > 0 {
		suggested = remaining / float64(daysRemaining)
	}

	return Stats{
		Budget:              math.Round(budget),
		Spent:               math.Round(spent),
		Remaining:           math.Round(remaining),
		Percentage:          int(math.Round(spent / budget * 100)),
		DaysInMonth:         daysInMonth,
		DaysPassed:          daysPassed,
		DaysRemaining:       daysRemaining,
		AveragePerDay:       math.Round(avg),
		SuggestedDailyLimit: math.Round(suggested),
		IsOverBudget:        spent > budget,
	}
}

// Classify picks the alert level. The first matching rule wins: over budget,
// then 90%, then 80%, then a daily limit below half the daily average in the
// last five days.
func Classify(s Stats) Level {
	switch {
	case s.IsOverBudget:
		return LevelCritical
	case s.Percentage >= 90:
		return LevelDanger
	case s.Percentage >= 80:
		return LevelWarning
	case s.DaysRemaining <= 5 && s.SuggestedDailyLimit < s.AveragePerDay*0.5:
		return LevelWarning
	default:
		return LevelNone
	}
}

// AlertLevel classifies the current month; LevelNone without a budget.
func (t *Tracker) AlertLevel(ctx context.Context) Level {
	s, err := t.Stats(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrNoBudget) {
			log.Warnw("computing budget stats", "err", err)
		}
		return LevelNone
	}
	return Classify(*s)
}

// CanAddPurchase reports whether amount fits in the budget. When it does not,
// overflow is how far past the budget it would go.
func (t *Tracker) CanAddPurchase(ctx context.Context, amount float64) (allowed bool, overflow float64) {
	b := t.Budget(ctx)
	if b == nil {
		return true, 0
	}
	total := decimal.NewFromFloat(t.MonthlySpending(ctx)).Add(decimal.NewFromFloat(amount))
	limit := decimal.NewFromFloat(b.Amount)
	if total.GreaterThan(limit) {
		return false, total.Sub(limit).InexactFloat64()
	}
	return true, 0
}
