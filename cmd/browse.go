package cmd

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/display"
	"github.com/tayloree/confere/internal/filter"
	"github.com/tayloree/confere/internal/model"
	"golang.org/x/term"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse checkouts interactively in the terminal",
	Example: `  confere browse
  confere browse --status errors --store kero`,
	Args: cobra.NoArgs,
	RunE: withApp(runBrowse),
}

func init() {
	rootCmd.AddCommand(browseCmd)
	registerHistoryFlags(browseCmd.Flags())
}

func runBrowse(cmd *cobra.Command, _ []string, a *app.App) error {
	opts, err := historyOptions()
	if err != nil {
		return err
	}

	if flagJSON {
		all, err := a.Compare.List(cmd.Context())
		if err != nil {
			return err
		}
		items := filter.Apply(all, opts)
		if items == nil {
			items = []model.Comparison{}
		}
		return display.PrintJSON(cmd.OutOrStdout(), items)
	}
	if !isInteractiveSession(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return invalidArgsError(
			"`confere browse` requires an interactive terminal",
			"Use `confere history --json` in pipelines.",
		)
	}

	m := newBrowseModel(browseLoadConfig{ctx: cmd.Context(), app: a, initialOpts: opts})
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if bm, ok := final.(browseModel); ok && bm.fatalErr != nil {
		return bm.fatalErr
	}
	return nil
}

func isInteractiveSession(stdin io.Reader, stdout io.Writer) bool {
	inputFile, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(inputFile.Fd())) {
		return false
	}
	return isTTY(stdout)
}
