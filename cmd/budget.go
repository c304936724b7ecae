package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/budget"
	"github.com/tayloree/confere/internal/display"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Set and track the monthly budget",
	Long: "A budget applies to the month it was set in. Spending is the sum of\n" +
		"the totals of carts dated in the current month.",
	Example: `  confere budget set 150000
  confere budget show
  confere budget check 12500`,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set AMOUNT",
	Short: "Set this month's budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runBudgetSet),
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show spending against this month's budget",
	Args:  cobra.NoArgs,
	RunE:  withApp(runBudgetShow),
}

var budgetCheckCmd = &cobra.Command{
	Use:   "check AMOUNT",
	Short: "Check whether a purchase still fits in the budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runBudgetCheck),
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd, budgetShowCmd, budgetCheckCmd)
}

func runBudgetSet(cmd *cobra.Command, args []string, a *app.App) error {
	amount, err := parseAmountArg("amount", joinArgs(args), "confere budget set 150000")
	if err != nil {
		return err
	}
	b, err := a.Budget.SetMonthlyBudget(cmd.Context(), amount)
	if err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), b)
	}
	display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Budget for %s set to %s.", b.Month, a.Money.Format(b.Amount)))
	return nil
}

type budgetJSON struct {
	Stats *budget.Stats `json:"stats"`
	Alert budget.Level  `json:"alert"`
}

func runBudgetShow(cmd *cobra.Command, _ []string, a *app.App) error {
	stats, err := a.Budget.Stats(cmd.Context())
	if err != nil {
		return err
	}
	level := budget.Classify(*stats)

	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), budgetJSON{Stats: stats, Alert: level})
	}
	display.PrintBudget(cmd.OutOrStdout(), a.Money, *stats, level)
	return nil
}

type purchaseCheckJSON struct {
	Amount   float64 `json:"amount"`
	Allowed  bool    `json:"allowed"`
	Overflow float64 `json:"overflow"`
}

func runBudgetCheck(cmd *cobra.Command, args []string, a *app.App) error {
	amount, err := parseAmountArg("amount", joinArgs(args), "confere budget check 12500")
	if err != nil {
		return err
	}
	allowed, overflow := a.Budget.CanAddPurchase(cmd.Context(), amount)

	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), purchaseCheckJSON{Amount: amount, Allowed: allowed, Overflow: overflow})
	}
	display.PrintPurchaseCheck(cmd.OutOrStdout(), a.Money, amount, allowed, overflow)
	return nil
}
