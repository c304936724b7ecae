package pricing

// Trend is the direction of a product's recent price.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// trendThreshold is the percent change that counts as movement.
const trendThreshold = 5.0

// TrendOf compares the mean of the most recent min(3, n/2) prices against
// the mean of the same number of prices immediately before them. The series
// must be chronological.
func TrendOf(series []float64) Trend {
	window := min(3, len(series)/2)
	if window == 0 {
		return TrendStable
	}
	recent := series[len(series)-window:]
	older := series[len(series)-2*window : len(series)-window]

	base := Average(older)
	if len(older) == 0 || base == 0 {
		return TrendStable
	}
	change := (Average(recent) - base) / base * 100
	switch {
	case change > trendThreshold:
		return TrendUp
	case change < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}

// PointsTrend sorts points chronologically and classifies their prices.
func PointsTrend(points []PricePoint) Trend {
	return TrendOf(Prices(Chronological(points)))
}
