package fetch

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/shelf/internal/catalog"
)

// Fixture is the on-disk shape of a static catalog.
//
//	categories: [Electronics, Clothing]
//	products:
//	  - {id: "1", name: Laptop, category: Electronics, price: 1000}
type Fixture struct {
	Categories []string          `yaml:"categories"`
	Products   []catalog.Product `yaml:"products"`
}

// DefaultFixture is the built-in mock catalog.
func DefaultFixture() Fixture {
	return Fixture{
		Categories: []string{"Electronics", "Clothing"},
		Products: []catalog.Product{
			{ID: "1", Name: "Laptop", Category: "Electronics", Price: 1000},
			{ID: "2", Name: "Shirt", Category: "Clothing", Price: 50},
		},
	}
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i, p := range f.Products {
		if err := p.Validate(); err != nil {
			return Fixture{}, fmt.Errorf("fixture product %d: %w", i, err)
		}
	}
	return f, nil
}

// StaticSource serves a fixed catalog, optionally after a delay.
type StaticSource struct {
	fixture Fixture
	delay   time.Duration
}

// NewStaticSource creates a StaticSource. A non-zero delay simulates latency.
func NewStaticSource(f Fixture, delay time.Duration) *StaticSource {
	return &StaticSource{fixture: f, delay: delay}
}

// Load returns a copy of the fixture. params is ignored. If the fixture has
// no explicit categories they are derived from the products.
func (s *StaticSource) Load(ctx context.Context, _ catalog.ViewParameters) (Result, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, transportError(ctx.Err())
		case <-time.After(s.delay):
		}
	}

	products := make([]catalog.Product, len(s.fixture.Products))
	copy(products, s.fixture.Products)

	categories := catalog.Categories(products)
	if len(s.fixture.Categories) > 0 {
		categories = catalog.MergeCategories(s.fixture.Categories)
	}

	return Result{Products: products, Categories: categories}, nil
}
