package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AntoineGS/loadtracker/internal/client"
	"github.com/AntoineGS/loadtracker/internal/config"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/push"
	"github.com/AntoineGS/loadtracker/internal/state"
	"github.com/AntoineGS/loadtracker/internal/tracker"
)

// Run starts the interactive table for the configured customer and period.
func Run(ctx context.Context, cfg *config.AppConfig, period loads.Period, logger *slog.Logger) error {
	backend, err := client.FromConfig(cfg, period)
	if err != nil {
		return err
	}

	var columns ColumnStore
	if cfg.PrefsDB != "" {
		store, err := state.Open(cfg.PrefsDB)
		if err != nil {
			// Non-fatal: column changes last for the session only
			fmt.Fprintf(os.Stderr, "Warning: could not open preferences: %v\n", err)
		} else {
			defer func() { _ = store.Close() }()
			prefs, err := state.LoadPrefs(ctx, store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read preferences: %v\n", err)
			} else {
				columns = prefs
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pushCh chan int64
	if hub, err := cfg.HubURL(); err == nil {
		pushCh = make(chan int64, 64)
		go push.NewListener(hub, cfg.Customer, period).WithLogger(logger).Run(ctx, pushCh)
	} else {
		logger.Warn("push disabled", "error", err)
	}

	t := tracker.New(backend, period).
		WithLogger(logger).
		WithReadOnly(cfg.ReadOnly).
		WithMessageLimit(cfg.MessageLimit)

	opts := Options{
		Columns:      columns,
		Customer:     cfg.Customer,
		PollInterval: cfg.PollInterval,
		Push:         pushCh,
	}
	model := NewModel(t, backend, opts)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	m, ok := finalModel.(Model)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if m.tracker.IsDirty() {
		fmt.Println("Unsaved changes were discarded.")
	}

	return nil
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
