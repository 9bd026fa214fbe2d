// Package ui provides the Bubble Tea TUI for shelf.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/shelf/internal/catalog"
	"github.com/abelbrown/shelf/internal/fetch"
)

// ProductsLoaded is sent when a load finishes. Seq identifies the request;
// the App ignores any Seq other than the latest it issued.
type ProductsLoaded struct {
	Seq        uint64
	Products   []catalog.Product
	Categories []string
	Err        error
}

// LoadFunc returns a Cmd that loads products for params, tagged with seq.
type LoadFunc func(seq uint64, params catalog.ViewParameters) tea.Cmd

// SourceLoader adapts a fetch.Source into a LoadFunc. Each load gets its own
// timeout derived from ctx.
func SourceLoader(ctx context.Context, src fetch.Source, timeout time.Duration) LoadFunc {
	return func(seq uint64, params catalog.ViewParameters) tea.Cmd {
		return func() tea.Msg {
			loadCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				loadCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res, err := src.Load(loadCtx, params)
			if err != nil {
				return ProductsLoaded{Seq: seq, Err: err}
			}
			return ProductsLoaded{Seq: seq, Products: res.Products, Categories: res.Categories}
		}
	}
}
