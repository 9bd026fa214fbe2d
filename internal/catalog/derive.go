package catalog

import (
	"sort"
	"strings"
)

// Derive computes the display list for products under params.
//
// Order of application is fixed: category filter, search filter, then a
// stable price sort. The input slice is never modified and the result is
// never nil.
func Derive(products []Product, params ViewParameters) []Product {
	out := make([]Product, len(products))
	copy(out, products)

	if params.FiltersCategory() {
		out = ByCategory(out, params.Category)
	}
	if params.Search != "" {
		out = BySearch(out, params.Search)
	}
	SortByPrice(out, params.Sort)
	return out
}

// ByCategory keeps products whose category equals category exactly.
func ByCategory(products []Product, category string) []Product {
	result := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			result = append(result, p)
		}
	}
	return result
}

// BySearch keeps products whose name contains search, ignoring case.
func BySearch(products []Product, search string) []Product {
	needle := strings.ToLower(search)
	result := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			result = append(result, p)
		}
	}
	return result
}

// SortByPrice stable-sorts products in place. SortNone leaves them alone.
func SortByPrice(products []Product, mode SortMode) {
	switch mode {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	}
}
