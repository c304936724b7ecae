package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tayloree/confere/internal/app"
	"github.com/tayloree/confere/internal/compare"
	"github.com/tayloree/confere/internal/config"
	"github.com/tayloree/confere/internal/filter"
)

var (
	flagConfig      string
	flagJSON        bool
	flagStore       string
	flagStatus      string
	flagLimit       int
	flagQuery       string
	flagMin         int
	flagWindow      int
	flagMonths      int
	flagQty         int
	flagPrice       string
	flagName        string
	flagImage       string
	flagDailyBudget string
	flagAddr        string
)

var rootCmd = &cobra.Command{
	Use:   "confere",
	Short: "Check supermarket receipts against your own cart",
	Long: "Build a cart while you shop, compare it with what the cashier charged,\n" +
		"and track prices, favorites and your monthly budget across supermarkets.\n\n" +
		"Agent-friendly mode: minor syntax issues are auto-corrected when intent is clear " +
		"(for example: -store kero, store=kero, --stor kero).",
	Example: `  confere cart new Kero
  confere cart add 1760000000000 "Arroz 5kg" 4500 --qty 2
  confere compare 1760000000000 "Kz 9 000,00"
  confere history --status errors
  confere favorites --min 3 --json
  confere budget show`,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Path to confere.yaml (default ~/.confere/confere.yaml)")
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
}

// Execute runs the root command.
func Execute() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	resetCLIState()

	normalizedArgs, notes := normalizeCLIArgs(args)
	for _, note := range notes {
		fmt.Fprintf(stderr, "note: %s\n", note)
	}

	if len(normalizedArgs) == 0 {
		if err := printQuickStart(stdout, !isTTY(stdout)); err != nil {
			cliErr := classifyCLIError(err)
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
			return cliErr.ExitCode
		}
		return ExitSuccess
	}

	if shouldAutoJSON(normalizedArgs, isTTY(stdout)) {
		normalizedArgs = append(normalizedArgs, "--json")
	}

	setCommandIO(rootCmd, stdout, stderr)
	rootCmd.SetArgs(normalizedArgs)

	if err := rootCmd.Execute(); err != nil {
		cliErr := classifyCLIError(err)
		if hasJSONPreference(normalizedArgs) {
			if jerr := printCLIErrorJSON(stderr, cliErr); jerr != nil {
				fmt.Fprintln(stderr, formatCLIErrorText(classifyCLIError(jerr)))
				return ExitInternal
			}
		} else {
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
		}
		return cliErr.ExitCode
	}
	return ExitSuccess
}

func setCommandIO(cmd *cobra.Command, stdout, stderr io.Writer) {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	for _, child := range cmd.Commands() {
		setCommandIO(child, stdout, stderr)
	}
}

func resetCLIState() {
	flagConfig = ""
	flagJSON = false
	flagStore = ""
	flagStatus = ""
	flagLimit = 0
	flagQuery = ""
	flagMin = 0
	flagWindow = 0
	flagMonths = 0
	flagQty = 1
	flagPrice = ""
	flagName = ""
	flagImage = ""
	flagDailyBudget = ""
	flagAddr = ""
	resetFlags(rootCmd)
}

// resetFlags puts every flag back to its default and clears pflag's Changed
// marker, so a reused command tree does not remember a previous run. This
// includes cobra's own --help flag.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func registerHistoryFlags(f *pflag.FlagSet) {
	f.StringVarP(&flagStore, "store", "s", "", "Only supermarkets whose name contains this text")
	f.StringVar(&flagStatus, "status", "", "all, correct or errors")
	f.IntVarP(&flagLimit, "limit", "n", 0, "Limit number of results (0 = all)")
}

func historyOptions() (filter.Options, error) {
	status, ok := filter.ParseStatus(flagStatus)
	if !ok {
		return filter.Options{}, invalidArgsError(
			"invalid value for --status (use all, correct or errors)",
			"confere history --status errors",
			"confere history --status correct --store kero",
		)
	}
	if flagLimit < 0 {
		return filter.Options{}, invalidArgsError("--limit must not be negative", "confere history --limit 10")
	}
	return filter.Options{Supermarket: flagStore, Status: status, Limit: flagLimit}, nil
}

func parseAmountArg(field, raw string, examples ...string) (float64, error) {
	v, err := compare.ParseAmount(raw)
	if err != nil {
		return 0, invalidArgsError(fmt.Sprintf("invalid %s %q", field, raw), examples...)
	}
	return v, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

var openApp = app.New

type session struct {
	cfg  config.Config
	app  *app.App
	logs io.Closer
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, invalidArgsError(
			fmt.Sprintf("loading config: %v", err),
			"Check confere.yaml or the CONFERE_* environment variables.",
		)
	}
	logs, err := config.SetupLogging(cfg)
	if err != nil {
		return nil, invalidArgsError(fmt.Sprintf("setting up logging: %v", err), "Check LOG_FILE and LOG_LEVEL.")
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		_ = logs.Close()
		return nil, upstreamError("opening database", err)
	}
	return &session{cfg: cfg, app: a, logs: logs}, nil
}

func (s *session) Close() {
	_ = s.app.Close()
	_ = s.logs.Close()
}

// withApp opens the configured database for the duration of run.
func withApp(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, args, s.app)
	}
}
