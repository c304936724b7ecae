package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tayloree/confere/internal/alert"
	"github.com/tayloree/confere/internal/budget"
	"github.com/tayloree/confere/internal/crossstore"
	"github.com/tayloree/confere/internal/favorites"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
	"github.com/tayloree/confere/internal/pricing"
	"github.com/tayloree/confere/internal/shoplist"
)

// Styles for terminal output.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	dealStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	badStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

const dateLayout = "2006-01-02 15:04"

// PrintJSON renders any value as JSON.
func PrintJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// PrintCart renders one cart with its items.
func PrintCart(w io.Writer, m Money, cart model.Cart) {
	fmt.Fprintf(w, "\n%s  %s  %s\n\n",
		headerStyle.Render(cart.Supermarket),
		cyanStyle.Render("#"+cart.ID),
		dimStyle.Render(cart.Date.Local().Format(dateLayout)),
	)
	if len(cart.Items) == 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("No items yet."))
	}
	for _, item := range cart.Items {
		fmt.Fprintf(w, "  %s\n", titleStyle.Render(item.Name))
		fmt.Fprintf(w, "    %d × %s = %s  %s\n",
			item.Quantity,
			m.Format(item.Price),
			priceStyle.Render(m.Format(item.LineTotal().InexactFloat64())),
			dimStyle.Render(item.ID),
		)
	}
	fmt.Fprintf(w, "\n  %s %s\n", titleStyle.Render("Total:"), priceStyle.Render(m.Format(cart.Total)))
	if cart.DailyBudget != nil {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Daily budget: "+m.Format(*cart.DailyBudget)))
	}
	fmt.Fprintln(w)
}

// PrintCarts renders a one-line summary per cart.
func PrintCarts(w io.Writer, m Money, carts []model.Cart) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("Carts"),
		cyanStyle.Render(fmt.Sprintf("%d carts", len(carts))),
	)
	for _, c := range carts {
		fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			cyanStyle.Render("#"+c.ID),
			titleStyle.Render(c.Supermarket),
			priceStyle.Render(m.Format(c.Total)),
			dimStyle.Render(fmt.Sprintf("%s, %d items", c.Date.Local().Format(dateLayout), len(c.Items))),
		)
	}
	fmt.Fprintln(w)
}

// PrintComparison renders the outcome of a checkout check.
func PrintComparison(w io.Writer, m Money, c model.Comparison) {
	verdict := okStyle.Render("MATCH")
	switch {
	case c.Overcharged():
		verdict = badStyle.Render("OVERCHARGED")
	case c.Undercharged():
		verdict = dealStyle.Render("UNDERCHARGED")
	}
	fmt.Fprintf(w, "\n%s  %s\n", verdict, titleStyle.Render(c.Supermarket))
	fmt.Fprintf(w, "  Calculated: %s\n", m.Format(c.CalculatedTotal))
	fmt.Fprintf(w, "  Charged:    %s\n", m.Format(c.ChargedTotal))
	if !c.Matches {
		fmt.Fprintf(w, "  Difference: %s\n", m.Signed(c.Difference))
	}
	if n := len(c.ReceiptPhotos); n > 0 {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("%d receipt photos", n)))
	}
	fmt.Fprintln(w)
}

// PrintHistory renders comparisons and their summary.
func PrintHistory(w io.Writer, m Money, comparisons []model.Comparison, sum filter.Summary) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("Checkout history"),
		cyanStyle.Render(fmt.Sprintf("%d correct, %d errors", sum.Correct, sum.Errors)),
	)
	for _, c := range comparisons {
		mark := okStyle.Render("✓")
		if !filter.Correct(c) {
			mark = badStyle.Render("✗")
		}
		line := fmt.Sprintf("  %s %s  %s", mark, titleStyle.Render(c.Supermarket), m.Format(c.ChargedTotal))
		if !c.Matches {
			line += "  " + dealStyle.Render(m.Signed(c.Difference))
		}
		fmt.Fprintf(w, "%s  %s\n", line, dimStyle.Render(c.Date.Local().Format(dateLayout)))
	}
	if sum.Overcharged > 0 {
		fmt.Fprintf(w, "\n  %s %s\n", titleStyle.Render("Overcharged in total:"), badStyle.Render(m.Format(sum.Overcharged)))
	}
	fmt.Fprintln(w)
}

// PrintFavorites renders the frequent products.
func PrintFavorites(w io.Writer, m Money, products []favorites.Product) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("Frequent products"),
		cyanStyle.Render(fmt.Sprintf("%d products", len(products))),
	)
	for _, p := range products {
		star := ""
		if p.IsMarkedFavorite {
			star = dealStyle.Render("★") + " "
		}
		fmt.Fprintf(w, "  %s%s %s\n", star, titleStyle.Render(p.Name), trendMark(p.Trend))
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(fmt.Sprintf("in %d of %d carts (%d%%)", p.Frequency, p.TotalPurchases, p.FrequencyPercentage)))
		fmt.Fprintf(w, "    avg %s | low %s | high %s\n",
			priceStyle.Render(m.Format(p.AveragePrice)), m.Format(p.LowestPrice), m.Format(p.HighestPrice))
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(fmt.Sprintf("last %s at %s", m.Format(p.LastPrice), p.LastSupermarket)))
	}
	fmt.Fprintln(w)
}

// PrintEvolution renders a product's prices over time.
func PrintEvolution(w io.Writer, m Money, name string, points []pricing.PricePoint) {
	fmt.Fprintf(w, "\n%s %s\n\n",
		headerStyle.Render("Price evolution:"),
		titleStyle.Render(name),
	)
	if len(points) == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No purchases in this period."))
		return
	}
	for _, pt := range points {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			dimStyle.Render(pt.Date.Local().Format("2006-01-02")),
			priceStyle.Render(m.Format(pt.Price)),
			pt.Supermarket,
		)
	}
	fmt.Fprintf(w, "\n  Trend: %s\n\n", trendMark(pricing.PointsTrend(points)))
}

// PrintProductPrices renders the cross-store comparison.
func PrintProductPrices(w io.Writer, m Money, products []crossstore.ProductPrice) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render("Prices across supermarkets"),
		cyanStyle.Render(fmt.Sprintf("%d products", len(products))),
	)
	for _, p := range products {
		fmt.Fprintf(w, "  %s\n", titleStyle.Render(p.Name))
		for i, sp := range p.Prices {
			label := sp.Supermarket
			if i == 0 {
				label = okStyle.Render(label)
			}
			fmt.Fprintf(w, "    %-24s %s\n", label, m.Format(sp.Price))
		}
		fmt.Fprintf(w, "    %s\n", dealStyle.Render(fmt.Sprintf("save up to %s (%.1f%%) at %s",
			m.Format(p.PotentialSavings), p.PriceDifferencePercent, p.BestSupermarket)))
	}
	fmt.Fprintln(w)
}

// PrintBudget renders the month's budget figures.
func PrintBudget(w io.Writer, m Money, s budget.Stats, level budget.Level) {
	fmt.Fprintf(w, "\n%s  %s\n\n", headerStyle.Render("Monthly budget"), levelMark(level))
	fmt.Fprintf(w, "  Budget:    %s\n", m.Format(s.Budget))
	fmt.Fprintf(w, "  Spent:     %s (%d%%)\n", m.Format(s.Spent), s.Percentage)
	fmt.Fprintf(w, "  Remaining: %s\n", m.Format(s.Remaining))
	fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("day %d of %d, %d left", s.DaysPassed, s.DaysInMonth, s.DaysRemaining)))
	fmt.Fprintf(w, "  Average per day:   %s\n", m.Format(s.AveragePerDay))
	fmt.Fprintf(w, "  Suggested per day: %s\n\n", m.Format(s.SuggestedDailyLimit))
}

// PrintPurchaseCheck renders whether a purchase fits the budget.
func PrintPurchaseCheck(w io.Writer, m Money, amount float64, allowed bool, overflow float64) {
	if allowed {
		fmt.Fprintf(w, "%s %s fits in the budget.\n", okStyle.Render("OK"), m.Format(amount))
		return
	}
	fmt.Fprintf(w, "%s %s goes %s over the budget.\n", badStyle.Render("OVER"), m.Format(amount), m.Format(overflow))
}

// PrintAlert renders a price verdict. A nil alert means there is nothing to
// compare against.
func PrintAlert(w io.Writer, a *alert.Alert) {
	if a == nil {
		fmt.Fprintln(w, dimStyle.Render("No recent price history for this product here."))
		return
	}
	var style lipgloss.Style
	switch a.Kind {
	case alert.GreatDeal, alert.GoodDeal:
		style = okStyle
	case alert.Warning:
		style = badStyle
	case alert.Normal:
		style = titleStyle
	}
	fmt.Fprintf(w, "%s\n  %s\n", style.Render(a.Title), a.Message)
}

// PrintEstimate renders a priced shopping list.
func PrintEstimate(w io.Writer, m Money, est shoplist.Estimate) {
	fmt.Fprintf(w, "\n%s\n\n", headerStyle.Render("Shopping list estimate"))
	for _, s := range est.Items {
		fmt.Fprintf(w, "  %s × %d  %s %s\n",
			titleStyle.Render(s.Name), s.Quantity, priceStyle.Render(m.Format(s.Subtotal)), trendMark(s.Trend))
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(fmt.Sprintf("~%s each, cheapest at %s (%s)",
			m.Format(s.SuggestedPrice), s.CheapestSupermarket, m.Format(s.CheapestPrice))))
	}
	if len(est.Unknown) > 0 {
		names := make([]string, len(est.Unknown))
		for i, u := range est.Unknown {
			names[i] = u.Name
		}
		fmt.Fprintf(w, "\n  %s %s\n", warningStyle.Render("No price history:"), strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "\n  %s %s\n\n", titleStyle.Render("Estimated total:"), priceStyle.Render(m.Format(est.Total)))
}

// PrintSupermarkets renders supermarket names with counts.
func PrintSupermarkets(w io.Writer, counts map[string]int) {
	type storeCount struct {
		Name  string
		Count int
	}
	sorted := make([]storeCount, 0, len(counts))
	for k, v := range counts {
		sorted = append(sorted, storeCount{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})
	for _, s := range sorted {
		fmt.Fprintf(w, "  %s: %d\n", cyanStyle.Render(s.Name), s.Count)
	}
}

// PrintError prints a styled error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render(msg))
}

// PrintWarning prints a styled warning message.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

// PrintSuccess prints a styled confirmation.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, okStyle.Render(msg))
}

func trendMark(t pricing.Trend) string {
	switch t {
	case pricing.TrendUp:
		return errorStyle.Render("↑")
	case pricing.TrendDown:
		return priceStyle.Render("↓")
	default:
		return dimStyle.Render("→")
	}
}

func levelMark(l budget.Level) string {
	switch l {
	case budget.LevelCritical:
		return badStyle.Render("OVER BUDGET")
	case budget.LevelDanger:
		return errorStyle.Render("90%+ spent")
	case budget.LevelWarning:
		return warningStyle.Render("watch your spending")
	default:
		return okStyle.Render("on track")
	}
}
