package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/alert"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/model"
)

var alertCmd = &cobra.Command{
	Use:   "alert NAME PRICE",
	Short: "Judge a shelf price against what you paid here recently",
	Long: "Compare PRICE with the average you paid for NAME at --store over the last 30 days.\n" +
		"NAME may span several words; PRICE is the last argument.",
	Example: `  confere alert "Óleo de soja" 1890 --store Kero
  confere alert leite 650 -s shoprite --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(runAlert),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Plan a shopping list",
}

var listSuggestCmd = &cobra.Command{
	Use:   "suggest NAME[:QTY]...",
	Short: "Estimate what a shopping list will cost",
	Long: "Price each entry at the average of its last three recorded prices and\n" +
		"name the supermarket with the cheapest latest price.",
	Example: `  confere list suggest arroz:2 leite:6 "oleo de soja"
  confere list suggest "Sabão em pó:1" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runListSuggest),
}

func init() {
	rootCmd.AddCommand(alertCmd, listCmd)
	listCmd.AddCommand(listSuggestCmd)

	alertCmd.Flags().StringVarP(&flagStore, "store", "s", "", "Supermarket you are shopping at")
	_ = alertCmd.MarkFlagRequired("store")
}

type alertJSON struct {
	Alert *alert.Alert `json:"alert"`
}

func runAlert(cmd *cobra.Command, args []string, a *app.App) error {
	price, err := parseAmountArg("price", args[len(args)-1], `confere alert leite 650 --store Kero`)
	if err != nil {
		return err
	}
	name := joinArgs(args[:len(args)-1])
	if strings.TrimSpace(flagStore) == "" {
		return invalidArgsError("--store must not be empty", `confere alert leite 650 --store Kero`)
	}

	result := a.Alerts.Evaluate(cmd.Context(), name, price, flagStore)
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), alertJSON{Alert: result})
	}
	display.PrintAlert(cmd.OutOrStdout(), result)
	return nil
}

// parseListEntries reads NAME or NAME:QTY tokens; QTY defaults to 1.
func parseListEntries(args []string) ([]model.ShoppingListItem, error) {
	items := make([]model.ShoppingListItem, 0, len(args))
	for _, arg := range args {
		name, qty := arg, 1
		if i := strings.LastIndex(arg, ":"); i >= 0 {
			n, err := strconv.Atoi(strings.TrimSpace(arg[i+1:]))
			if err != nil {
				return nil, invalidArgsError(
					fmt.Sprintf("invalid quantity in %q", arg),
					"confere list suggest arroz:2 leite:6",
				)
			}
			name, qty = arg[:i], n
		}
		items = append(items, model.ShoppingListItem{Name: strings.TrimSpace(name), Quantity: qty})
	}
	return items, nil
}

func runListSuggest(cmd *cobra.Command, args []string, a *app.App) error {
	items, err := parseListEntries(args)
	if err != nil {
		return err
	}
	est, err := a.Lists.Suggest(cmd.Context(), items)
	if err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), est)
	}
	display.PrintEstimate(cmd.OutOrStdout(), a.Money, *est)
	return nil
}
