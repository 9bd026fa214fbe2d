// Package catalog holds the product model and the pure view derivation
// pipeline. Nothing in here does I/O: products in, products out.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AllCategories is the category sentinel meaning "no filter".
const AllCategories = "All"

// Product is a single catalog entry. Immutable once fetched.
type Product struct {
	ID       ID      `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Price    float64 `json:"price" yaml:"price"`
}

// Validate reports whether p satisfies the product invariants.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %q: missing name", p.ID)
	}
	if p.Price < 0 {
		return fmt.Errorf("product %q: negative price %v", p.ID, p.Price)
	}
	return nil
}

// ID is a product identifier. Backends disagree on whether ids are JSON
// strings or numbers, so both decode into the same string form.
type ID string

// UnmarshalJSON accepts "7", 7 and 7.0.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// NewID returns a random id for products that arrive without one.
func NewID() ID {
	return ID(uuid.NewString())
}

// productNamespace scopes DeriveID so its ids never collide with other
// name-based UUIDs.
var productNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shelf:product"))

// DeriveID returns an id determined by name and category, so loading the
// same id-less product twice updates one row.
func DeriveID(name, category string) ID {
	return ID(uuid.NewSHA1(productNamespace, []byte(category+"\x00"+name)).String())
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// FormatPrice renders a price the short way: 1000 -> "1000", 19.99 -> "19.99".
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatLine renders a product as "{name} - {category} - ${price}".
func FormatLine(p Product) string {
	return p.Name + " - " + p.Category + " - $" + FormatPrice(p.Price)
}

// Categories synthesizes the category list for products: the All sentinel
// followed by each distinct category in first-seen order.
func Categories(products []Product) []string {
	out := []string{AllCategories}
	seen := map[string]bool{AllCategories: true, "": true}
	for _, p := range products {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// MergeCategories prepends the All sentinel to an explicit category list,
// dropping any All (or empty) entries and duplicates already in it.
func MergeCategories(explicit []string) []string {
	out := make([]string, 0, len(explicit)+1)
	out = append(out, AllCategories)
	seen := map[string]bool{AllCategories: true, "": true}
	for _, c := range explicit {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
