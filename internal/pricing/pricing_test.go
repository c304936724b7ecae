package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/normalize"
	"github.com/tayloree/confere/internal/pricing"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 10, 0, 0, 0, time.UTC)
}

func sampleCarts() []model.Cart {
	return []model.Cart{
		{
			ID: "3", Supermarket: "Kero", Date: day(20),
			Items: []model.CartItem{{Name: "Arroz Tio João 1kg", Price: 520, Quantity: 1}},
		},
		{
			ID: "1", Supermarket: "Kero", Date: day(1),
			Items: []model.CartItem{
				{Name: "arroz tio joao", Price: 500, Quantity: 2},
				{Name: "Leite Mimosa 1L", Price: 300, Quantity: 1},
			},
		},
		{
			ID: "2", Supermarket: " Shoprite ", Date: day(10),
			Items: []model.CartItem{{Name: "ARROZ TIO JOÃO", Price: 650, Quantity: 1}},
		},
	}
}

func TestBuildIndex_GroupsByKey(t *testing.T) {
	idx := pricing.BuildIndex(sampleCarts(), normalize.ForGrouping)

	require.Len(t, idx, 2)
	rice := idx["arroz tio joao"]
	require.NotNil(t, rice)
	assert.Len(t, rice.Points, 3)
	assert.Equal(t, []float64{500, 650, 520}, pricing.Prices(rice.Points))
	assert.Equal(t, "Arroz Tio João 1kg", rice.Name)
	assert.Equal(t, "Shoprite", rice.Points[1].Supermarket)
	assert.Equal(t, 2, rice.Stores())
}

func TestBuildIndex_KeyFuncMatters(t *testing.T) {
	idx := pricing.BuildIndex(sampleCarts(), normalize.ForPinning)

	// The strict key keeps the "1kg" suffix, so the first purchase splits off.
	assert.Len(t, idx, 3)
	assert.Len(t, idx["arroztiojoao"].Points, 2)
	assert.Len(t, idx["arroztiojoao1kg"].Points, 1)
}

func TestLatestByStore(t *testing.T) {
	idx := pricing.BuildIndex(sampleCarts(), normalize.ForGrouping)
	latest := idx["arroz tio joao"].LatestByStore()

	require.Len(t, latest, 2)
	assert.Equal(t, "Kero", latest[0].Supermarket)
	assert.Equal(t, 520.0, latest[0].Price)
	assert.Equal(t, "Shoprite", latest[1].Supermarket)
	assert.Equal(t, 650.0, latest[1].Price)
}

func TestScalarReductions(t *testing.T) {
	prices := []float64{500, 650, 520}
	assert.InDelta(t, 556.666, pricing.Average(prices), 0.001)
	assert.Equal(t, 500.0, pricing.Min(prices))
	assert.Equal(t, 650.0, pricing.Max(prices))

	assert.Zero(t, pricing.Average(nil))
	assert.Zero(t, pricing.Min(nil))
	assert.Zero(t, pricing.Max(nil))
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   pricing.Trend
	}{
		{"up six percent", []float64{100, 100, 100, 106, 106, 106}, pricing.TrendUp},
		{"down six percent", []float64{100, 100, 100, 94, 94, 94}, pricing.TrendDown},
		{"two percent is stable", []float64{100, 100, 100, 102, 102, 102}, pricing.TrendStable},
		{"exactly five percent is stable", []float64{100, 105}, pricing.TrendStable},
		{"single point", []float64{100}, pricing.TrendStable},
		{"empty", nil, pricing.TrendStable},
		{"two points up", []float64{100, 120}, pricing.TrendUp},
		{"odd length ignores oldest", []float64{1000, 100, 100, 110, 110}, pricing.TrendUp},
		{"window capped at three", []float64{50, 50, 100, 100, 100, 94, 94, 94}, pricing.TrendDown},
		{"zero base", []float64{0, 0, 10, 10}, pricing.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.TrendOf(tt.series))
		})
	}
}

func TestPointsTrend_SortsFirst(t *testing.T) {
	points := []pricing.PricePoint{
		{Date: day(5), Price: 106},
		{Date: day(1), Price: 100},
	}
	assert.Equal(t, pricing.TrendUp, pricing.PointsTrend(points))
}

func TestNewestFirstAndSince(t *testing.T) {
	points := []pricing.PricePoint{
		{Date: day(5), Price: 2},
		{Date: day(1), Price: 1},
		{Date: day(9), Price: 3},
	}
	newest := pricing.NewestFirst(points)
	assert.Equal(t, []float64{3, 2, 1}, pricing.Prices(newest))
	assert.Equal(t, []float64{2, 1, 3}, pricing.Prices(points), "input untouched")

	recent := pricing.Since(points, day(5))
	assert.Equal(t, []float64{2, 3}, pricing.Prices(recent))
}
