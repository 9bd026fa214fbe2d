package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/shelf/internal/catalog"
	"github.com/abelbrown/shelf/internal/fetch"
	"github.com/abelbrown/shelf/internal/logging"
	"github.com/abelbrown/shelf/internal/server"
	"github.com/abelbrown/shelf/internal/store"
)

func initStderrLogging() {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logging.InitWriter(os.Stderr, level)
}

// openStore opens the catalog database, creating its directory.
func openStore(path string) (*store.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return store.Open(path)
}

func runServe(ctx context.Context) error {
	initStderrLogging()

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		added, err := seedProducts(st, fetch.DefaultFixture().Products)
		if err != nil {
			return err
		}
		logging.Info("seeded empty catalog", "products", added)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := server.New(st, server.Options{APIKey: cfg.APIKey})
	return server.Run(ctx, e, cfg.Server.Addr)
}

func runSeed(paths []string) error {
	initStderrLogging()

	if len(paths) == 0 && cfg.Fixture != "" {
		paths = []string{cfg.Fixture}
	}
	products := fetch.DefaultFixture().Products
	if len(paths) > 0 {
		var err error
		if products, err = loadFixtures(paths); err != nil {
			return err
		}
	}

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	added, err := seedProducts(st, products)
	if err != nil {
		return err
	}
	total, err := st.Count()
	if err != nil {
		return err
	}
	logging.Info("seed complete", "fixtures", paths, "added", added, "updated", len(products)-added, "total", total)
	return nil
}

// loadFixtures parses every fixture concurrently and concatenates their
// products in argument order. The first failure aborts the seed.
func loadFixtures(paths []string) ([]catalog.Product, error) {
	fixtures := make([]fetch.Fixture, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			f, err := fetch.LoadFixture(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fixtures[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var products []catalog.Product
	for _, f := range fixtures {
		products = append(products, f.Products...)
	}
	return products, nil
}

// seedProducts upserts products. Products without an id get one derived
// from name and category, so re-seeding the same fixture is idempotent.
func seedProducts(st *store.Store, products []catalog.Product) (int, error) {
	withIDs := make([]catalog.Product, len(products))
	for i, p := range products {
		if p.ID == "" {
			p.ID = catalog.DeriveID(p.Name, p.Category)
		}
		withIDs[i] = p
	}
	return st.SaveProducts(withIDs)
}
