package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/cart"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/model"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Create and edit shopping carts",
	Example: `  confere cart new Kero --daily-budget 15000
  confere cart add CART_ID "Leite 1L" 650 --qty 6
  confere cart edit CART_ID ITEM_ID --price 600
  confere cart list --store kero`,
}

var cartNewCmd = &cobra.Command{
	Use:   "new SUPERMARKET",
	Short: "Start a cart at a supermarket",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runCartNew),
}

var cartAddCmd = &cobra.Command{
	Use:   "add CART_ID NAME PRICE",
	Short: "Add an item to a cart",
	Long:  "Add an item to a cart. NAME may span several words; PRICE is the last argument and accepts typed amounts like \"Kz 1 250,50\".",
	Args:  cobra.MinimumNArgs(3),
	RunE:  withApp(runCartAdd),
}

var cartEditCmd = &cobra.Command{
	Use:   "edit CART_ID ITEM_ID",
	Short: "Change the name, price, quantity or photo of an item",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCartEdit),
}

var cartRmCmd = &cobra.Command{
	Use:   "rm CART_ID ITEM_ID",
	Short: "Remove an item from a cart",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCartRm),
}

var cartDeleteCmd = &cobra.Command{
	Use:   "delete CART_ID",
	Short: "Delete a cart and its item photos",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCartDelete),
}

var cartShowCmd = &cobra.Command{
	Use:   "show CART_ID",
	Short: "Show a cart with its items",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCartShow),
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List carts, newest first",
	Args:  cobra.NoArgs,
	RunE:  withApp(runCartList),
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartNewCmd, cartAddCmd, cartEditCmd, cartRmCmd, cartDeleteCmd, cartShowCmd, cartListCmd)

	cartNewCmd.Flags().StringVar(&flagDailyBudget, "daily-budget", "", "Spending target for this trip")

	cartAddCmd.Flags().IntVar(&flagQty, "qty", 1, "Quantity")
	cartAddCmd.Flags().StringVar(&flagImage, "image", "", "Photo of the item (path, file:// or s3:// URI)")

	ef := cartEditCmd.Flags()
	ef.StringVar(&flagName, "name", "", "New item name")
	ef.StringVar(&flagPrice, "price", "", "New unit price")
	ef.IntVar(&flagQty, "qty", 1, "New quantity")
	ef.StringVar(&flagImage, "image", "", "New photo URI (empty string clears it)")

	cartListCmd.Flags().StringVarP(&flagStore, "store", "s", "", "Only supermarkets whose name contains this text")
	cartListCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Limit number of results (0 = all)")
}

func printCart(cmd *cobra.Command, a *app.App, c *model.Cart) error {
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), c)
	}
	display.PrintCart(cmd.OutOrStdout(), a.Money, *c)
	return nil
}

func runCartNew(cmd *cobra.Command, args []string, a *app.App) error {
	var daily *float64
	if flagDailyBudget != "" {
		v, err := parseAmountArg("daily budget", flagDailyBudget, "confere cart new Kero --daily-budget 15000")
		if err != nil {
			return err
		}
		daily = &v
	}
	c, err := a.Carts.Create(cmd.Context(), joinArgs(args), daily)
	if err != nil {
		return err
	}
	return printCart(cmd, a, c)
}

func runCartAdd(cmd *cobra.Command, args []string, a *app.App) error {
	price, err := parseAmountArg("price", args[len(args)-1],
		`confere cart add CART_ID "Arroz 5kg" 4500`,
		`confere cart add CART_ID Leite "1 250,50" --qty 2`,
	)
	if err != nil {
		return err
	}
	c, err := a.Carts.AddItem(cmd.Context(), args[0], cart.ItemInput{
		Name:     joinArgs(args[1 : len(args)-1]),
		Price:    price,
		Quantity: flagQty,
		ImageURI: flagImage,
	})
	if err != nil {
		return err
	}
	return printCart(cmd, a, c)
}

func runCartEdit(cmd *cobra.Command, args []string, a *app.App) error {
	var patch cart.ItemPatch
	f := cmd.Flags()
	if f.Changed("name") {
		patch.Name = &flagName
	}
	if f.Changed("price") {
		price, err := parseAmountArg("price", flagPrice, "confere cart edit CART_ID ITEM_ID --price 600")
		if err != nil {
			return err
		}
		patch.Price = &price
	}
	if f.Changed("qty") {
		patch.Quantity = &flagQty
	}
	if f.Changed("image") {
		patch.ImageURI = &flagImage
	}
	if patch == (cart.ItemPatch{}) {
		return invalidArgsError(
			"nothing to change; pass at least one of --name, --price, --qty or --image",
			"confere cart edit CART_ID ITEM_ID --qty 3",
		)
	}

	c, err := a.Carts.UpdateItem(cmd.Context(), args[0], args[1], patch)
	if err != nil {
		return err
	}
	return printCart(cmd, a, c)
}

func runCartRm(cmd *cobra.Command, args []string, a *app.App) error {
	c, err := a.Carts.RemoveItem(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return printCart(cmd, a, c)
}

func runCartDelete(cmd *cobra.Command, args []string, a *app.App) error {
	if err := a.Carts.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
	}
	display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted cart %s.", args[0]))
	return nil
}

func runCartShow(cmd *cobra.Command, args []string, a *app.App) error {
	c, err := a.Carts.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printCart(cmd, a, c)
}

func runCartList(cmd *cobra.Command, _ []string, a *app.App) error {
	carts, err := a.Carts.List(cmd.Context())
	if err != nil {
		return err
	}

	if needle := strings.ToLower(strings.TrimSpace(flagStore)); needle != "" {
		kept := carts[:0]
		for _, c := range carts {
			if strings.Contains(strings.ToLower(c.Supermarket), needle) {
				kept = append(kept, c)
			}
		}
		carts = kept
	}
	if flagLimit > 0 && len(carts) > flagLimit {
		carts = carts[:flagLimit]
	}

	if flagJSON {
		if carts == nil {
			carts = []model.Cart{}
		}
		return display.PrintJSON(cmd.OutOrStdout(), carts)
	}
	if len(carts) == 0 {
		return notFoundError("no carts yet", "confere cart new Kero")
	}
	display.PrintCarts(cmd.OutOrStdout(), a.Money, carts)
	return nil
}
