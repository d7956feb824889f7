// NewsPulse: company news-sentiment reports.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/api"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/report"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "NewsPulse: company news-sentiment reports",
	Long: `NewsPulse fetches recent news about a company, labels each article's
sentiment, extracts topics, compares coverage with an LLM and narrates
the verdict as audio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "NewsPulse %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		hub := api.NewWSHub(nil)
		app, err := newApp(ctx, cfg, report.WithObserver(hub.ReportObserver()))
		if err != nil {
			return err
		}
		defer app.Close()

		srv := api.NewServer(cfg, app.builder,
			api.WithHub(hub),
			api.WithLogger(app.log),
			api.WithVersion(version),
		)
		app.log.WithField("providers", strings.Join(app.router.ProviderNames(), ",")).Info("LLM chain ready")
		return srv.ListenAndServe(ctx, cfg.API.Addr())
	},
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [company]",
	Short: "Build a report for a company",
	Long: `Build a news-sentiment report for a company and print it.

Examples:
  newspulse report Tesla
  newspulse report "Tata Motors" --format markdown
  newspulse report Tesla --format pdf --out tesla.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(name)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		app, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if d := cfg.API.RequestTimeout(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		rep, err := app.builder.Build(ctx, args[0])
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}
		if err := report.Render(out, rep, format); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		for _, d := range rep.Diagnostics {
			app.log.WithField("company", rep.Company).Warn(d)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().String("format", string(report.FormatJSON), "output format (json, markdown, html, pdf)")
	reportCmd.Flags().String("out", "", "write the report to a file instead of stdout")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  NewsPulse System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    LLM Primary:   %s\n", cfg.LLM.Primary)
		if len(cfg.LLM.Fallbacks) > 0 {
			fmt.Fprintf(out, "    LLM Fallbacks: %s\n", strings.Join(cfg.LLM.Fallbacks, ", "))
		}
		fmt.Fprintf(out, "    Source:        %s (max %d articles)\n", cfg.Source.Provider, cfg.Source.MaxArticles)
		audio := "disabled"
		if cfg.Audio.Enabled {
			audio = fmt.Sprintf("%s -> %s", cfg.Audio.Language, cfg.Audio.OutputDir)
		}
		fmt.Fprintf(out, "    Audio:         %s\n", audio)
		fmt.Fprintf(out, "    Cache:         %s\n", cfg.Cache.Backend)
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
