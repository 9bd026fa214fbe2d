package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/shelf/internal/config"
	"github.com/abelbrown/shelf/internal/fetch"
	"github.com/abelbrown/shelf/internal/logging"
	"github.com/abelbrown/shelf/internal/ui"
)

func runBrowse(ctx context.Context) error {
	// Log to file; stdout belongs to the TUI.
	if err := logging.Init(config.DataDir()); err != nil {
		return err
	}
	defer logging.Close()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := ui.NewApp(ui.AppConfig{
		Load:         ui.SourceLoader(ctx, src, cfg.Timeout),
		ServerFilter: cfg.ServerFilter(),
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		logging.Error("program exited", "error", err)
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// newSource picks the HTTP source when a base URL is configured, otherwise
// the static fixture.
func newSource(cfg *config.Config) (fetch.Source, error) {
	if cfg.BaseURL != "" {
		logging.Info("using HTTP source", "url", cfg.BaseURL, "mode", cfg.FilterMode)
		return fetch.NewHTTPSource(cfg.BaseURL, fetch.HTTPOptions{
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			APIKey:        cfg.APIKey,
			ServerFilter:  cfg.ServerFilter(),
		}), nil
	}

	fixture := fetch.DefaultFixture()
	if cfg.Fixture != "" {
		f, err := fetch.LoadFixture(cfg.Fixture)
		if err != nil {
			return nil, err
		}
		fixture = f
	}
	logging.Info("using static source", "fixture", cfg.Fixture, "products", len(fixture.Products), "delay", cfg.MockDelay)
	return fetch.NewStaticSource(fixture, cfg.MockDelay), nil
}
