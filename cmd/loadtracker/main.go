// Package main provides the CLI entry point for loadtracker.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntoineGS/loadtracker/internal/client"
	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/server"
	"github.com/AntoineGS/loadtracker/internal/state"
	"github.com/AntoineGS/loadtracker/internal/tracker"
	"github.com/AntoineGS/loadtracker/internal/tui"
)

var version = "dev"

var (
	configPath string // Override from --config flag
	serverURL  string
	customer   string
	year       int
	month      int
	readOnly   bool
	verbose    bool
	plain      bool
	serveAddr  string
	serveDB    string
	seedRows   int
	logFile    *os.File
	logger     = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "loadtracker",
		Version: version,
		Short:   "Live view and editor for a customer's load table",
		Long: `loadtracker shows the loads of one customer for one month, keeps the
table current through push notifications and a refresh timer, and lets
you edit the exception flag, delay reason and comments of one load at a time.

Configuration is stored in ~/.config/loadtracker/config.yaml.
Run 'loadtracker init <server-url> --customer <name>' to create it.
Run without arguments to start the interactive TUI.`,
		RunE:              runInteractive,
		PersistentPreRunE: setupLogging,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logFile != nil {
				_ = logFile.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the app configuration file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Override the server base URL")
	rootCmd.PersistentFlags().StringVar(&customer, "customer", "", "Override the customer")
	rootCmd.PersistentFlags().IntVar(&year, "year", 0, "Year to show (default current)")
	rootCmd.PersistentFlags().IntVar(&month, "month", 0, "Month to show, 1-12 (default current)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Show the table without allowing edits")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	initCmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Initialize app configuration",
		Long: `Initialize the app configuration with the load server address and the
customer whose loads are shown.

This creates ~/.config/loadtracker/config.yaml (or the --config path).`,
		Args: cobra.ExactArgs(1),
		RunE: runInit,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the on-time summary for the period",
		Long:  `Fetch the table once, classify every load and print the counts per status.`,
		RunE:  runSummary,
	}
	summaryCmd.Flags().BoolVar(&plain, "plain", false, "Print tab-separated text instead of a table")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development load server",
		Long: `Serve the load table, row and update endpoints and the push hub from a
local SQLite database. Useful for trying the TUI without a real server.`,
		RunE: runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "loads.db", "Load database path")
	serveCmd.Flags().IntVar(&seedRows, "seed", 0, "Seed this many demo loads into an empty database")

	rootCmd.AddCommand(initCmd, summaryCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the logger for the command. The TUI owns the
// terminal, so its logs go to a file or nowhere.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cmd.Parent() == nil && tui.IsTerminal() {
		w = io.Discard
		if verbose {
			logPath := filepath.Join(os.TempDir(), "loadtracker.log")
			f, err := os.Create(logPath) //nolint:gosec // fixed name in the temp dir
			if err == nil {
				logFile = f
				w = f
				fmt.Fprintf(os.Stderr, "Verbose logs: %s\n", logPath)
			}
		}
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func runInit(_ *cobra.Command, args []string) error {
	cfg := &config.AppConfig{
		Server:   args[0],
		Customer: customer,
		ReadOnly: readOnly,
	}

	check := *cfg
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = config.AppConfigPath()
	}
	if path == "" {
		return fmt.Errorf("getting home directory: no home directory")
	}

	if err := config.SaveAppConfigTo(path, cfg); err != nil {
		return fmt.Errorf("saving app config: %w", err)
	}

	fmt.Printf("App configuration saved to %s\n", path)
	fmt.Printf("Server: %s\n", cfg.Server)
	fmt.Printf("Customer: %s\n", cfg.Customer)

	return nil
}

// loadConfig reads the app configuration and applies flag overrides.
func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadAppConfigFrom(configPath)
	} else {
		cfg, err = config.LoadAppConfig()
	}
	if err != nil {
		return nil, err
	}

	if serverURL != "" {
		cfg.Server = serverURL
	}
	if customer != "" {
		cfg.Customer = customer
	}
	if readOnly {
		cfg.ReadOnly = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePeriod is the period from --year and --month, defaulting each to
// the current one.
func resolvePeriod(now time.Time) (loads.Period, error) {
	p := loads.PeriodOf(now)
	if year != 0 {
		p.Year = year
	}
	if month != 0 {
		p.Month = month
	}
	if !p.Valid() {
		return loads.Period{}, fmt.Errorf("invalid period %04d-%02d", p.Year, p.Month)
	}
	return p, nil
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := resolvePeriod(time.Now())
	if err != nil {
		return err
	}

	// Check if we're in a terminal
	if !tui.IsTerminal() {
		return fmt.Errorf("interactive mode requires a terminal; use 'loadtracker summary' for non-interactive use")
	}

	return tui.Run(cmd.Context(), cfg, p, logger)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := resolvePeriod(time.Now())
	if err != nil {
		return err
	}

	return runWithCancellation(func(ctx context.Context) error {
		c, err := client.FromConfig(cfg, p)
		if err != nil {
			return err
		}
		s, err := fetchSummary(ctx, c, p)
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), cfg.Customer, p, s, plain)
	})
}

// fetchSummary loads the table once through a read-only tracker.
func fetchSummary(ctx context.Context, b tracker.Backend, p loads.Period) (loads.Summary, error) {
	body, err := b.FetchTable(ctx)
	if err != nil {
		return loads.Summary{}, err
	}
	t := tracker.New(b, p).WithLogger(logger).WithReadOnly(true)
	if err := t.LoadFragment(body); err != nil {
		return loads.Summary{}, fmt.Errorf("reading table: %w", err)
	}
	return t.Summary(), nil
}

func runServe(_ *cobra.Command, _ []string) error {
	p, err := resolvePeriod(time.Now())
	if err != nil {
		return err
	}
	cust := customer
	if cust == "" {
		cust = "DEMO"
	}

	store, err := state.Open(serveDB)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // best-effort cleanup

	return runWithCancellation(func(ctx context.Context) error {
		if seedRows > 0 {
			n, err := store.CountLoads(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				if err := store.SeedDemo(ctx, cust, p, seedRows, 1); err != nil {
					return fmt.Errorf("seeding demo loads: %w", err)
				}
				logger.Info("seeded demo loads", "count", seedRows, "customer", cust, "period", p.Key())
			}
		}

		srv := server.New(store, cust, p).WithLogger(logger)
		return srv.ListenAndServe(ctx, serveAddr)
	})
}

// runWithCancellation runs a context-aware function with signal-based cancellation.
// It sets up SIGINT/SIGTERM handling and cancels the context when a signal is received.
func runWithCancellation(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx)
}
