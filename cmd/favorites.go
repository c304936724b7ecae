package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/crossstore"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/favorites"
	"github.com/tayloree/confere/internal/pricing"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Show the products you buy most often",
	Long: "Show products that appear in at least --min of your last --window carts,\n" +
		"plus any product you pinned with `confere favorites toggle`.",
	Example: `  confere favorites
  confere favorites --min 3 --window 20
  confere favorites toggle "Leite UHT"
  confere favorites evolution arroz --months 3`,
	Args: cobra.NoArgs,
	RunE: withApp(runFavorites),
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle NAME",
	Short: "Pin or unpin a product as a favorite",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runFavoritesToggle),
}

var favoritesEvolutionCmd = &cobra.Command{
	Use:   "evolution NAME",
	Short: "Show what a product cost over recent months",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runFavoritesEvolution),
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Compare product prices across supermarkets (premium)",
	Long:  "List products bought at two or more supermarkets with the cheapest latest price first.",
	Example: `  confere prices
  confere prices --query arroz --limit 5`,
	Args: cobra.NoArgs,
	RunE: withApp(runPrices),
}

func init() {
	rootCmd.AddCommand(favoritesCmd, pricesCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd, favoritesEvolutionCmd)

	favoritesCmd.Flags().IntVar(&flagMin, "min", favorites.DefaultMinFrequency, "Minimum number of carts a product must appear in")
	favoritesCmd.Flags().IntVar(&flagWindow, "window", favorites.DefaultWindowSize, "Number of recent carts to look at")
	favoritesEvolutionCmd.Flags().IntVar(&flagMonths, "months", favorites.DefaultMonths, "How many months back to look")

	pricesCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Only products whose name contains this text")
	pricesCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Limit number of results (0 = all)")
}

func runFavorites(cmd *cobra.Command, _ []string, a *app.App) error {
	products := a.Favorites.DetectFrequent(cmd.Context(), flagMin, flagWindow)

	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), products)
	}
	if len(products) == 0 {
		return notFoundError(
			"no frequent products yet",
			"Lower --min or widen --window.",
			"confere favorites --min 1",
		)
	}
	display.PrintFavorites(cmd.OutOrStdout(), a.Money, products)
	return nil
}

type toggleJSON struct {
	Name   string `json:"name"`
	Pinned bool   `json:"pinned"`
}

func runFavoritesToggle(cmd *cobra.Command, args []string, a *app.App) error {
	name := joinArgs(args)
	pinned, err := a.Favorites.ToggleFavorite(cmd.Context(), name)
	if err != nil {
		return err
	}

	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), toggleJSON{Name: name, Pinned: pinned})
	}
	if pinned {
		display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Pinned %s as a favorite.", name))
	} else {
		display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Unpinned %s.", name))
	}
	return nil
}

func runFavoritesEvolution(cmd *cobra.Command, args []string, a *app.App) error {
	name := joinArgs(args)
	points := a.Favorites.PriceEvolution(cmd.Context(), name, flagMonths)

	if flagJSON {
		if points == nil {
			points = []pricing.PricePoint{}
		}
		return display.PrintJSON(cmd.OutOrStdout(), points)
	}
	display.PrintEvolution(cmd.OutOrStdout(), a.Money, name, points)
	return nil
}

func runPrices(cmd *cobra.Command, _ []string, a *app.App) error {
	if !a.Premium.IsPremium(cmd.Context()) {
		return premiumError("cross-store price comparison")
	}

	products := a.Prices.Search(cmd.Context(), flagQuery)
	if flagLimit > 0 && len(products) > flagLimit {
		products = products[:flagLimit]
	}

	if flagJSON {
		if products == nil {
			products = []crossstore.ProductPrice{}
		}
		return display.PrintJSON(cmd.OutOrStdout(), products)
	}
	if len(products) == 0 {
		return notFoundError(
			"no product has been bought at two or more supermarkets",
			"Relax --query or compare more carts first.",
		)
	}
	display.PrintProductPrices(cmd.OutOrStdout(), a.Money, products)
	return nil
}
