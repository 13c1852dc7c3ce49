package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/vnictl/internal/config"
)

var (
	// cfg is the loaded configuration, initialized in PersistentPreRunE.
	cfg *config.Config

	// logger is the structured logger shared by all commands.
	logger *slog.Logger

	// configPath is the optional configuration file path.
	configPath string

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// showStats requests per-entry traffic counters on dumps.
	showStats bool
)

// rootCmd is the top-level cobra command for vnictl. Running it without
// a subcommand lists all VNI filter entries, like `bridge vni` does.
var rootCmd = &cobra.Command{
	Use:   "vnictl",
	Short: "Manage VXLAN VNI filtering via rtnetlink",
	Long: "vnictl installs, removes and lists per-VNI filtering entries on\n" +
		"vnifilter-enabled VXLAN devices through the rtnetlink tunnel policy API.",
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		// Flags win over the config file; apply config defaults only to
		// flags the user did not set.
		if !cmd.Flags().Changed("format") {
			outputFormat = cfg.Output.Format
		}
		if !cmd.Flags().Changed("stats") {
			showStats = cfg.Output.Stats
		}

		logger = newLogger(cfg.Log)

		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return runShow(nil)
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false,
		"show per-entry traffic statistics")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// newLogger builds the CLI logger. Output goes to stderr so it never
// interleaves with rendered records on stdout.
func newLogger(lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(lc.Level)}

	var handler slog.Handler
	switch lc.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
