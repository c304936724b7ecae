package display_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tayloree/confere/internal/alert"
	"github.com/tayloree/confere/internal/budget"
	"github.com/tayloree/confere/internal/crossstore"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/favorites"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/shoplist"
)

const usd = display.Money("USD")

func sampleCart() model.Cart {
	cart := model.Cart{
		ID:          "1775150000000",
		Supermarket: "Kero Talatona",
		Date:        time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC),
		Items: []model.CartItem{
			{ID: "a", Name: "Arroz Tio João", Price: 1625.5, Quantity: 2},
			{ID: "b", Name: "Leite", Price: 400, Quantity: 1},
		},
	}
	cart.Recalculate()
	return cart
}

func TestMoney_Format(t *testing.T) {
	assert.Equal(t, "$3,250.50", usd.Format(3250.5))
	assert.Equal(t, "$0.29", usd.Format(0.29))
	assert.Equal(t, "+$0.02", usd.Signed(0.02))
	assert.Equal(t, "12.50 XYZ", display.Money("xyz").Format(12.5))
}

func TestPrintCart(t *testing.T) {
	var buf bytes.Buffer
	display.PrintCart(&buf, usd, sampleCart())
	out := buf.String()

	assert.Contains(t, out, "Kero Talatona")
	assert.Contains(t, out, "#1775150000000")
	assert.Contains(t, out, "Arroz Tio João")
	assert.Contains(t, out, "$3,251.00")
	assert.Contains(t, out, "$3,651.00")
}

func TestPrintCart_Empty(t *testing.T) {
	var buf bytes.Buffer
	display.PrintCart(&buf, usd, model.Cart{ID: "1", Supermarket: "Kero"})
	assert.Contains(t, buf.String(), "No items yet.")
}

func TestPrintComparison(t *testing.T) {
	cart := sampleCart()
	tests := []struct {
		charged float64
		want    string
	}{
		{cart.Total, "MATCH"},
		{cart.Total + 10, "OVERCHARGED"},
		{cart.Total - 10, "UNDERCHARGED"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		display.PrintComparison(&buf, usd, model.NewComparison(cart, tt.charged, time.Now()))
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestPrintHistory(t *testing.T) {
	comparisons := []model.Comparison{
		{Supermarket: "Kero", ChargedTotal: 100, Matches: true},
		{Supermarket: "Shoprite", ChargedTotal: 120, Difference: 20},
	}
	var buf bytes.Buffer
	display.PrintHistory(&buf, usd, comparisons, filter.Summarize(comparisons))
	out := buf.String()

	assert.Contains(t, out, "1 correct, 1 errors")
	assert.Contains(t, out, "+$20.00")
	assert.Contains(t, out, "Overcharged in total:")
}

func TestPrintFavorites(t *testing.T) {
	var buf bytes.Buffer
	display.PrintFavorites(&buf, usd, []favorites.Product{{
		Name: "Arroz", Frequency: 2, TotalPurchases: 10, FrequencyPercentage: 20,
		AveragePrice: 1045, LastSupermarket: "Kero", IsMarkedFavorite: true, Trend: pricing.TrendUp,
	}})
	out := buf.String()
	assert.Contains(t, out, "★")
	assert.Contains(t, out, "in 2 of 10 carts (20%)")
	assert.Contains(t, out, "$1,045.00")
	assert.Contains(t, out, "↑")
}

func TestPrintProductPrices(t *testing.T) {
	var buf bytes.Buffer
	display.PrintProductPrices(&buf, usd, []crossstore.ProductPrice{{
		Name: "arroz", BestSupermarket: "Kero", PotentialSavings: 150, PriceDifferencePercent: 30,
		Prices: []crossstore.StorePrice{{Supermarket: "Kero", Price: 500}, {Supermarket: "Shoprite", Price: 650}},
	}})
	out := buf.String()
	assert.Contains(t, out, "Shoprite")
	assert.Contains(t, out, "save up to $150.00 (30.0%) at Kero")
}

func TestPrintBudget(t *testing.T) {
	var buf bytes.Buffer
	display.PrintBudget(&buf, usd, budget.Stats{Budget: 1000, Spent: 950, Remaining: 50, Percentage: 95}, budget.LevelDanger)
	out := buf.String()
	assert.Contains(t, out, "$950.00 (95%)")
	assert.Contains(t, out, "90%+ spent")
}

func TestPrintPurchaseCheck(t *testing.T) {
	var buf bytes.Buffer
	display.PrintPurchaseCheck(&buf, usd, 150, false, 50)
	assert.Contains(t, buf.String(), "goes $50.00 over")
}

func TestPrintAlert(t *testing.T) {
	var buf bytes.Buffer
	display.PrintAlert(&buf, nil)
	assert.Contains(t, buf.String(), "No recent price history")

	buf.Reset()
	display.PrintAlert(&buf, &alert.Alert{Kind: alert.Warning, Title: "Preço acima do normal", Message: "msg"})
	assert.Contains(t, buf.String(), "Preço acima do normal")
}

func TestPrintEstimate(t *testing.T) {
	var buf bytes.Buffer
	display.PrintEstimate(&buf, usd, shoplist.Estimate{
		Items:   []shoplist.Suggestion{{Name: "Leite", Quantity: 2, Subtotal: 1300, SuggestedPrice: 650, CheapestSupermarket: "Shoprite"}},
		Unknown: []model.ShoppingListItem{{Name: "Pão", Quantity: 1}},
		Total:   1300,
	})
	out := buf.String()
	assert.Contains(t, out, "No price history: Pão")
	assert.Contains(t, out, "Estimated total:")
	assert.Contains(t, out, "$1,300.00")
}

func TestPrintJSON_CartShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.PrintJSON(&buf, sampleCart()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Kero Talatona", decoded["supermarket"])
	assert.Equal(t, 3651.0, decoded["total"])
	items := decoded["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Arroz Tio João", first["name"])
	assert.NotContains(t, first, "cartId")
	assert.NotContains(t, decoded, "dailyBudget")
}
