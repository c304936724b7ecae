package compare

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tayloree/confere/internal/model"
)

var reCurrency = regexp.MustCompile(`(?i)(kz|aoa|\$|€|r\$|\s)`)

// ParseAmount reads a user-typed amount. Both "." and "," are accepted as the
// decimal separator; when both appear, the last one is the decimal separator
// and the other groups thousands ("3.250,50", "3,250.50").
func ParseAmount(raw string) (float64, error) {
	s := reCurrency.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return 0, model.Invalid("amount", "is required")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, model.Invalid("amount", "not a number: "+raw)
	}
	return d.InexactFloat64(), nil
}
