// Package fetch retrieves the raw product list for the browser.
//
// A Source loads products (and the category list) from somewhere: a static
// fixture or a remote catalog endpoint. It does not store anything; the
// caller decides what to do with the Result. Every error a Source returns is
// a *FetchError.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/shelf/internal/catalog"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Result is what a successful load yields.
type Result struct {
	Products   []catalog.Product
	Categories []string // always starts with catalog.AllCategories
}

// Source loads products. params is only honoured by sources that filter
// server-side; others ignore it.
type Source interface {
	Load(ctx context.Context, params catalog.ViewParameters) (Result, error)
}

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	Timeout       time.Duration
	RatePerSecond float64 // <= 0 disables limiting
	APIKey        string  // sent as the Authorization header when set
	ServerFilter  bool    // send view parameters as query string
	Client        *http.Client
}

// HTTPSource loads products from GET {baseURL}/products.
type HTTPSource struct {
	baseURL      string
	apiKey       string
	serverFilter bool
	client       *http.Client
	limiter      *rate.Limiter
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL string, opts HTTPOptions) *HTTPSource {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &HTTPSource{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       opts.APIKey,
		serverFilter: opts.ServerFilter,
		client:       client,
		limiter:      limiter,
	}
}

// URL returns the request URL for params.
func (s *HTTPSource) URL(params catalog.ViewParameters) string {
	u := s.baseURL + "/products"
	if s.serverFilter {
		u += "?" + params.Query().Encode()
	}
	return u
}

// Load performs one GET and decodes the product array.
func (s *HTTPSource) Load(ctx context.Context, params catalog.ViewParameters) (Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Result{}, setupError(fmt.Errorf("rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(params), nil)
	if err != nil {
		return Result{}, setupError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "shelf/0.1")
	if s.apiKey != "" {
		req.Header.Set("Authorization", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, transportError(fmt.Errorf("GET %s: %w", req.URL.Path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, serverError(resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, transportError(fmt.Errorf("read body: %w", err))
	}

	products, err := DecodeProducts(body)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Products:   products,
		Categories: catalog.Categories(products),
	}, nil
}

// DecodeProducts parses body as a JSON array of products. Anything else,
// including an element that breaks the product invariants, is a
// KindMalformed error.
func DecodeProducts(body []byte) ([]catalog.Product, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformedError(errors.New("response body is not a JSON array"))
	}

	var products []catalog.Product
	if err := json.Unmarshal(trimmed, &products); err != nil {
		return nil, malformedError(fmt.Errorf("decode products: %w", err))
	}
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, malformedError(fmt.Errorf("element %d: %w", i, err))
		}
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}
