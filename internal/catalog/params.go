package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// SortMode selects the price ordering of the display list.
type SortMode int

const (
	SortNone SortMode = iota
	SortPriceAsc
	SortPriceDesc
)

// Wire values, shared by the query string and the sort selector.
const (
	sortWireNone = ""
	sortWireAsc  = "priceLowHigh"
	sortWireDesc = "priceHighLow"
)

// ParseSortMode parses a wire value. Short aliases are accepted too.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.TrimSpace(s) {
	case sortWireNone, "none":
		return SortNone, nil
	case sortWireAsc, "asc", "price_asc":
		return SortPriceAsc, nil
	case sortWireDesc, "desc", "price_desc":
		return SortPriceDesc, nil
	default:
		return SortNone, fmt.Errorf("unknown sort mode %q", s)
	}
}

// String returns the wire value.
func (m SortMode) String() string {
	switch m {
	case SortPriceAsc:
		return sortWireAsc
	case SortPriceDesc:
		return sortWireDesc
	default:
		return sortWireNone
	}
}

// Label is the human readable name used by the sort selector.
func (m SortMode) Label() string {
	switch m {
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	default:
		return "Unsorted"
	}
}

// Next cycles none -> asc -> desc -> none.
func (m SortMode) Next() SortMode {
	switch m {
	case SortNone:
		return SortPriceAsc
	case SortPriceAsc:
		return SortPriceDesc
	default:
		return SortNone
	}
}

// ViewParameters are the three independent user controls.
type ViewParameters struct {
	Search   string
	Category string
	Sort     SortMode
}

// DefaultViewParameters returns the unfiltered, unsorted parameters.
func DefaultViewParameters() ViewParameters {
	return ViewParameters{Category: AllCategories}
}

// Normalize maps the empty category onto the All sentinel.
func (p ViewParameters) Normalize() ViewParameters {
	if p.Category == "" {
		p.Category = AllCategories
	}
	return p
}

// FiltersCategory reports whether a category filter is in effect.
func (p ViewParameters) FiltersCategory() bool {
	return p.Category != "" && p.Category != AllCategories
}

// Query encodes p for the server-filtering request. search and sort are
// always sent; category only when it actually filters.
func (p ViewParameters) Query() url.Values {
	q := url.Values{}
	q.Set("search", p.Search)
	q.Set("sort", p.Sort.String())
	if p.FiltersCategory() {
		q.Set("category", p.Category)
	}
	return q
}

// ParseViewParameters is the inverse of Query.
func ParseViewParameters(q url.Values) (ViewParameters, error) {
	mode, err := ParseSortMode(q.Get("sort"))
	if err != nil {
		return ViewParameters{}, err
	}
	p := ViewParameters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     mode,
	}
	return p.Normalize(), nil
}
