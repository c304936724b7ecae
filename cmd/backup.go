package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/backup"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/export"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore all carts and checkouts",
	Long: "Backups are JSON documents compatible with the mobile app. Restoring\n" +
		"replaces every cart and comparison in one step. Use - for stdin/stdout.",
	Example: `  confere backup export ~/confere-backup.json
  confere backup restore ~/confere-backup.json
  confere backup export - > backup.json`,
}

var backupExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a backup document",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runBackupExport),
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore FILE",
	Short: "Replace all data with a backup document",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runBackupRestore),
}

var exportCmd = &cobra.Command{
	Use:   "export FILE.xlsx",
	Short: "Export carts, checkouts and prices to a spreadsheet (premium)",
	Example: `  confere export ~/compras.xlsx`,
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runExport),
}

func init() {
	rootCmd.AddCommand(backupCmd, exportCmd)
	backupCmd.AddCommand(backupExportCmd, backupRestoreCmd)
}

type fileResultJSON struct {
	File        string `json:"file"`
	Carts       int    `json:"carts,omitempty"`
	Comparisons int    `json:"comparisons,omitempty"`
}

func runBackupExport(cmd *cobra.Command, args []string, a *app.App) error {
	doc, err := a.Backup.Export(cmd.Context())
	if err != nil {
		return err
	}
	if args[0] == "-" {
		return backup.Write(cmd.OutOrStdout(), doc)
	}

	if err := writeFile(args[0], func(w io.Writer) error { return backup.Write(w, doc) }); err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), fileResultJSON{File: args[0]})
	}
	display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Backup written to %s.", args[0]))
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string, a *app.App) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return invalidArgsError(fmt.Sprintf("opening backup: %v", err), "confere backup restore ~/confere-backup.json")
		}
		defer f.Close()
		in = f
	}

	doc, err := backup.Read(in)
	if err != nil {
		return err
	}
	if err := a.Backup.Restore(cmd.Context(), doc); err != nil {
		return err
	}

	carts, err := a.Carts.List(cmd.Context())
	if err != nil {
		return err
	}
	comparisons, err := a.Compare.List(cmd.Context())
	if err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), fileResultJSON{File: args[0], Carts: len(carts), Comparisons: len(comparisons)})
	}
	display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Restored %d carts and %d checkouts.", len(carts), len(comparisons)))
	return nil
}

func runExport(cmd *cobra.Command, args []string, a *app.App) error {
	if !strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
		return invalidArgsError("export file must end in .xlsx", "confere export ~/compras.xlsx")
	}
	if !a.Premium.IsPremium(cmd.Context()) {
		return premiumError("spreadsheet export")
	}

	carts, err := a.Carts.List(cmd.Context())
	if err != nil {
		return err
	}
	comparisons, err := a.Compare.List(cmd.Context())
	if err != nil {
		return err
	}
	data := export.Data{
		Carts:       carts,
		Comparisons: comparisons,
		Prices:      a.Prices.ProductPrices(cmd.Context()),
	}

	if err := writeFile(args[0], func(w io.Writer) error { return export.Write(w, data) }); err != nil {
		return err
	}
	if flagJSON {
		return display.PrintJSON(cmd.OutOrStdout(), fileResultJSON{File: args[0], Carts: len(carts), Comparisons: len(comparisons)})
	}
	display.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %d carts and %d checkouts to %s.", len(carts), len(comparisons), args[0]))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return invalidArgsError(fmt.Sprintf("creating %s: %v", path, err))
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
