// Package model holds the records shared by every Confere service: carts,
// their line items, checkout comparisons and the monthly budget.
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchTolerance is the absolute currency difference below which a charged
// total is considered to confer with the calculated one.
const MatchTolerance = 0.01

var tolerance = decimal.NewFromFloat(MatchTolerance)

// CartItem is a single line of a cart.
type CartItem struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	CartID   string  `json:"-" gorm:"index"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Quantity int     `json:"quantity" validate:"min=1"`
	ImageURI string  `json:"imageUri,omitempty"`
	Position int     `json:"-"`
}

// LineTotal returns price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is one shopping trip at one supermarket.
type Cart struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Supermarket string     `json:"supermarket" validate:"required"`
	Date        time.Time  `json:"date" gorm:"index"`
	Items       []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" validate:"dive"`
	Total       float64    `json:"total"`
	DailyBudget *float64   `json:"dailyBudget,omitempty" validate:"omitempty,gt=0"`
}

// NewCartID derives a cart id from its creation time, in unix milliseconds.
func NewCartID(created time.Time) string {
	return strconv.FormatInt(created.UnixMilli(), 10)
}

// Recalculate sets Total from the line items. Total is never taken from input.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	c.Total = total.InexactFloat64()
}

// ItemIndex returns the position of the item with the given id, or -1.
func (c *Cart) ItemIndex(itemID string) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// Comparison is the recorded outcome of checking a cart against the amount
// charged at checkout. At most one comparison exists per cart.
type Comparison struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	CartID          string    `json:"cartId" gorm:"uniqueIndex"`
	Supermarket     string    `json:"supermarket"`
	Date            time.Time `json:"date"`
	CalculatedTotal float64   `json:"calculatedTotal"`
	ChargedTotal    float64   `json:"chargedTotal"`
	Difference      float64   `json:"difference"`
	Matches         bool      `json:"matches"`
	ReceiptPhotos   []string  `json:"receiptPhotos" gorm:"serializer:json"`
}

// NewComparison snapshots the cart total and derives Difference and Matches.
func NewComparison(cart Cart, charged float64, now time.Time) Comparison {
	c := Comparison{
		ID:              uuid.NewString(),
		CartID:          cart.ID,
		Supermarket:     cart.Supermarket,
		Date:            now,
		CalculatedTotal: cart.Total,
		ChargedTotal:    charged,
		ReceiptPhotos:   []string{},
	}
	c.Recompute()
	return c
}

// Recompute derives Difference and Matches from the two totals.
func (c *Comparison) Recompute() {
	diff := decimal.NewFromFloat(c.ChargedTotal).Sub(decimal.NewFromFloat(c.CalculatedTotal))
	c.Difference = diff.InexactFloat64()
	c.Matches = diff.Abs().LessThan(tolerance)
}

// Overcharged reports whether more was charged than calculated, beyond tolerance.
func (c Comparison) Overcharged() bool {
	return !c.Matches && c.Difference > 0
}

// Undercharged reports whether less was charged than calculated.
func (c Comparison) Undercharged() bool {
	return !c.Matches && c.Difference < 0
}

// MonthlyBudget is the spending ceiling for a calendar month ("2006-01").
type MonthlyBudget struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Amount    float64   `json:"amount" validate:"gt=0"`
	Month     string    `json:"month"`
	CreatedAt time.Time `json:"createdAt"`
}

// MonthKey formats t as the budget month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ShoppingListItem is a planned purchase.
type ShoppingListItem struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}
