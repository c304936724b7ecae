package display

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amounts in one currency.
type Money string

// Format renders v with the currency's symbol and separators. Unknown codes
// fall back to two decimals and the code.
func (m Money) Format(v float64) string {
	code := strings.ToUpper(string(m))
	cur := money.GetCurrency(code)
	if cur == nil {
		return decimal.NewFromFloat(v).StringFixed(2) + " " + code
	}
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// Signed is Format with an explicit + for positive amounts.
func (m Money) Signed(v float64) string {
	if v > 0 {
		return "+" + m.Format(v)
	}
	return m.Format(v)
}
