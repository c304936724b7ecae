package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/model"
)

var compareCmd = &cobra.Command{
	Use:   "compare CART_ID AMOUNT",
	Short: "Compare a cart with the total the cashier charged",
	Long: "Compare a cart with the charged total. Totals that differ by less than one cent count as a match.\n" +
		"AMOUNT accepts typed forms like 3250, 3.250,50, 3,250.50 or \"Kz 3 250,50\".\n" +
		"Comparing the same cart again replaces the earlier result and keeps its receipt photos.",
	Example: `  confere compare 1760000000000 9000
  confere compare 1760000000000 Kz 9 000,00 --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(runCompare),
}

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Attach or remove receipt photos on a comparison",
	Long: "Attach or remove receipt photos on a comparison.\n" +
		"Local photos must live under IMAGE_DIR (default ~/.confere/images); relative paths are taken from there.",
	Example: `  confere photo add CART_ID talao.jpg
  confere photo rm CART_ID 1`,
}

var photoAddCmd = &cobra.Command{
	Use:   "add CART_ID URI",
	Short: "Attach a receipt photo",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runPhotoAdd),
}

var photoRmCmd = &cobra.Command{
	Use:   "rm CART_ID N",
	Short: "Remove the Nth receipt photo (1-based) and delete its file",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runPhotoRm),
}

func init() {
	rootCmd.AddCommand(compareCmd, photoCmd)
	photoCmd.AddCommand(photoAddCmd, photoRmCmd)
}

func printComparison(cmd *cobra.Command, a *app.App, c *model.Comparison) error {
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), c)
	}
	display.PrintComparison(cmd.OutOrStdout(), a.Money, *c)
	return nil
}

func runCompare(cmd *cobra.Command, args []string, a *app.App) error {
	charged, err := parseAmountArg("amount", joinArgs(args[1:]),
		"confere compare CART_ID 3250",
		`confere compare CART_ID "Kz 3 250,50"`,
	)
	if err != nil {
		return err
	}
	c, err := a.Compare.Compare(cmd.Context(), args[0], charged)
	if err != nil {
		return err
	}
	return printComparison(cmd, a, c)
}

func runPhotoAdd(cmd *cobra.Command, args []string, a *app.App) error {
	c, err := a.Compare.AttachReceiptPhoto(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return printComparison(cmd, a, c)
}

func runPhotoRm(cmd *cobra.Command, args []string, a *app.App) error {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return invalidArgsError(
			fmt.Sprintf("invalid photo number %q", args[1]),
			"confere photo rm CART_ID 1",
		)
	}
	c, err := a.Compare.RemoveReceiptPhoto(cmd.Context(), args[0], n-1)
	if err != nil {
		return err
	}
	return printComparison(cmd, a, c)
}
