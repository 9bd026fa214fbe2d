// Package server is the catalog HTTP service the browser's HTTP source
// talks to. It serves the stored products through the same derive pipeline
// the browser uses, so server-side and client-side filtering agree.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelbrown/shelf/internal/logging"
)

const (
	healthPath  = "/health"
	metricsPath = "/metrics"
)

// Options configures New.
type Options struct {
	APIKey string // empty disables authentication
}

// New builds the echo instance with every route and middleware wired.
func New(cat Catalog, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	duration := newRequestDuration(reg)

	e.Use(logRequest(healthPath, metricsPath))
	e.Use(metrics(duration, metricsPath))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			httpLogger().Error("panic recovered", "error", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(apiKeyAuth(opts.APIKey, healthPath, metricsPath))

	h := NewController(cat)
	e.GET(healthPath, h.Health)
	e.GET(metricsPath, echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	routes(e.Group(""), h)
	routes(e.Group("/api"), h)

	return e
}

func routes(g *echo.Group, h Controller) {
	g.GET("/products", h.ListProducts)
	g.POST("/products", h.CreateProduct)
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.GET("/categories", h.ListCategories)
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logging.Info("stopping HTTP server")
	return e.Shutdown(shutdownCtx)
}

var discard = log.New(io.Discard)

func httpLogger() *log.Logger {
	if l := logging.WithPrefix("http"); l != nil {
		return l
	}
	return discard
}
