package alert_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/alert"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/store"
	"github.com/tayloree/confere/internal/store/storetest"
)

var (
	ctx = context.Background()
	now = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
)

func clock() time.Time { return now }

func buy(t *testing.T, s *store.Store, supermarket string, daysAgo int, name string, price float64) {
	t.Helper()
	id := fmt.Sprintf("%s-%d-%s", supermarket, daysAgo, name)
	storetest.Seed(t, s, model.Cart{
		ID: id, Supermarket: supermarket, Date: now.AddDate(0, 0, -daysAgo),
		Items: []model.CartItem{{ID: id + "-i", Name: name, Price: price, Quantity: 1}},
	})
}

// withHistory has Arroz averaging 1000 at Kero in the last 30 days.
func withHistory(t *testing.T) *alert.Evaluator {
	t.Helper()
	s := storetest.New(t)
	buy(t, s, "Kero", 3, "Arroz", 900)
	buy(t, s, "Kero", 10, "arroz", 1100)
	buy(t, s, "Kero", 60, "Arroz", 5000)
	buy(t, s, "Shoprite", 2, "Arroz", 3000)
	return alert.NewEvaluator(s, clock)
}

func TestEvaluate_Classification(t *testing.T) {
	e := withHistory(t)
	tests := []struct {
		price float64
		want  alert.Kind
	}{
		{800, alert.GreatDeal},
		{799, alert.GreatDeal},
		{850, alert.GoodDeal},
		{900, alert.GoodDeal},
		{901, alert.Normal},
		{1000, alert.Normal},
		{1149, alert.Normal},
		{1150, alert.Warning},
		{2000, alert.Warning},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.price), func(t *testing.T) {
			a := e.Evaluate(ctx, "ARROZ", tt.price, " kero ")
			require.NotNil(t, a)
			assert.Equal(t, tt.want, a.Kind)
			assert.Equal(t, 1000.0, a.Average)
		})
	}
}

func TestEvaluate_SavingsSign(t *testing.T) {
	e := withHistory(t)

	deal := e.Evaluate(ctx, "Arroz", 750, "Kero")
	require.NotNil(t, deal)
	assert.Equal(t, 250.0, deal.Savings)
	assert.Equal(t, -25.0, deal.Percentage)
	assert.Equal(t, "Excelente preço!", deal.Title)
	assert.Contains(t, deal.Message, "25%")
	assert.Contains(t, deal.Message, "1000 Kz")

	warn := e.Evaluate(ctx, "Arroz", 1300, "Kero")
	require.NotNil(t, warn)
	assert.Equal(t, 300.0, warn.Savings, "overpaid amount")
	assert.Contains(t, warn.Message, "300 Kz")
}

func TestEvaluate_FirstVisitIsNil(t *testing.T) {
	e := withHistory(t)
	assert.Nil(t, e.Evaluate(ctx, "Arroz", 1, "Candando"))
	assert.Nil(t, e.Evaluate(ctx, "Arroz", 100000, "Candando"))
}

func TestEvaluate_NoRecentHistoryIsNil(t *testing.T) {
	e := withHistory(t)
	assert.Nil(t, e.Evaluate(ctx, "Feijão", 500, "Kero"), "never bought here")

	s := storetest.New(t)
	buy(t, s, "Kero", 45, "Leite", 400)
	assert.Nil(t, alert.NewEvaluator(s, clock).Evaluate(ctx, "Leite", 100, "Kero"), "only old purchases")
}

func TestEvaluate_OtherStoresIgnored(t *testing.T) {
	e := withHistory(t)
	a := e.Evaluate(ctx, "Arroz", 1000, "Shoprite")
	require.NotNil(t, a)
	assert.Equal(t, 3000.0, a.Average)
	assert.Equal(t, alert.GreatDeal, a.Kind)
}
