package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/model"
)

func cartWithTotal(total float64) model.Cart {
	return model.Cart{ID: "1", Supermarket: "Kero", Total: total}
}

func TestRecalculate(t *testing.T) {
	cart := model.Cart{
		Items: []model.CartItem{
			{Name: "Arroz", Price: 1250.50, Quantity: 2},
			{Name: "Leite", Price: 0.1, Quantity: 3},
		},
		Total: 99999,
	}
	cart.Recalculate()
	assert.Equal(t, 2501.3, cart.Total)
}

func TestRecalculate_Empty(t *testing.T) {
	cart := model.Cart{Total: 10}
	cart.Recalculate()
	assert.Zero(t, cart.Total)
}

func TestNewComparison_Tolerance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		charged float64
		matches bool
		diff    float64
	}{
		{"exact", 3250.00, true, 0},
		{"half a cent over", 3250.005, true, 0.005},
		{"two cents over", 3250.02, false, 0.02},
		{"one cent over", 3250.01, false, 0.01},
		{"undercharged", 3200, false, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.NewComparison(cartWithTotal(3250.00), tt.charged, now)
			assert.Equal(t, tt.matches, c.Matches)
			assert.Equal(t, tt.diff, c.Difference)
			assert.Equal(t, 3250.00, c.CalculatedTotal)
			assert.Equal(t, "1", c.CartID)
			assert.Equal(t, "Kero", c.Supermarket)
			assert.NotEmpty(t, c.ID)
			assert.NotNil(t, c.ReceiptPhotos)
		})
	}
}

func TestComparison_OverUnder(t *testing.T) {
	over := model.NewComparison(cartWithTotal(100), 120, time.Now())
	under := model.NewComparison(cartWithTotal(100), 80, time.Now())
	even := model.NewComparison(cartWithTotal(100), 100, time.Now())

	assert.True(t, over.Overcharged())
	assert.False(t, over.Undercharged())
	assert.True(t, under.Undercharged())
	assert.False(t, under.Overcharged())
	assert.False(t, even.Overcharged())
	assert.False(t, even.Undercharged())
}

func TestComparison_RecomputeIgnoresStoredFlags(t *testing.T) {
	c := model.Comparison{CalculatedTotal: 3250, ChargedTotal: 3250.005, Difference: 99, Matches: false}
	c.Recompute()
	assert.True(t, c.Matches)
	assert.InDelta(t, 0.005, c.Difference, 1e-9)
}

func TestNewCartID(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123", model.NewCartID(created))
}

func TestValidate_CartItem(t *testing.T) {
	err := model.Validate(model.CartItem{Name: "Arroz", Price: 0, Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)

	err = model.Validate(model.CartItem{Name: "Arroz", Price: 10, Quantity: 0})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)

	assert.NoError(t, model.Validate(model.CartItem{Name: "Arroz", Price: 10, Quantity: 1}))
}

func TestValidate_Budget(t *testing.T) {
	assert.ErrorIs(t, model.Validate(model.MonthlyBudget{Amount: -5}), model.ErrValidation)
	assert.NoError(t, model.Validate(model.MonthlyBudget{Amount: 5}))
}

func TestNotFound(t *testing.T) {
	err := model.NotFound("cart", "42")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), `cart "42"`)
}
