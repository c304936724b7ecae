package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List checkout comparisons, newest first",
	Long: "List checkout comparisons. Undercharges count as correct; only\n" +
		"overcharges show up under --status errors.",
	Example: `  confere history
  confere history --status errors --store kero
  confere history -n 5 --json`,
	Args: cobra.NoArgs,
	RunE: withApp(runHistory),
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List the supermarkets in your checkout history",
	Long:  "List every supermarket you have compared a checkout at, with how many checkouts each.",
	Example: `  confere stores
  confere stores --json`,
	Args: cobra.NoArgs,
	RunE: withApp(runStores),
}

func init() {
	rootCmd.AddCommand(historyCmd, storesCmd)
	registerHistoryFlags(historyCmd.Flags())
}

type historyJSON struct {
	Comparisons []model.Comparison `json:"comparisons"`
	Summary     filter.Summary     `json:"summary"`
}

func runHistory(cmd *cobra.Command, _ []string, a *app.App) error {
	opts, err := historyOptions()
	if err != nil {
		return err
	}

	all, err := a.Compare.List(cmd.Context())
	if err != nil {
		return err
	}
	items := filter.Apply(all, opts)
	sum := filter.Summarize(all)

	if flagJSON {
		if items == nil {
			items = []model.Comparison{}
		}
		return display.PrintJSON(cmd.OutOrStdout(), historyJSON{Comparisons: items, Summary: sum})
	}
	if len(all) == 0 {
		return notFoundError("no checkouts compared yet", "confere compare CART_ID AMOUNT")
	}
	if len(items) == 0 {
		return notFoundError(
			"no checkouts match your filters",
			"Relax filters like --store/--status.",
		)
	}
	display.PrintHistory(cmd.OutOrStdout(), a.Money, items, sum)
	return nil
}

func runStores(cmd *cobra.Command, _ []string, a *app.App) error {
	all, err := a.Compare.List(cmd.Context())
	if err != nil {
		return err
	}
	counts := filter.Supermarkets(all)

	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), counts)
	}
	if len(counts) == 0 {
		return notFoundError("no checkouts compared yet", "confere compare CART_ID AMOUNT")
	}
	display.PrintSupermarkets(cmd.OutOrStdout(), counts)
	return nil
}
