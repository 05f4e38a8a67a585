// Package layout defines the registry of known tabular export formats and the
// classifier that matches a file's column set against them.
//
// A layout names the columns a marketplace export contains and maps them to
// internal listing fields. Adding a new export format is a data change (a new
// Definition registered at startup), not a code change.
package layout

import (
	"fmt"
	"strings"
	"sync"
)

// Internal field names used by layout field mappings.
// The import pipeline interprets these when validating and transforming rows.
const (
	FieldItemID    = "item_id"
	FieldTitle     = "title"
	FieldPrice     = "price"
	FieldQuantity  = "quantity"
	FieldStatus    = "status"
	FieldSKU       = "sku"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldCondition = "condition"
	FieldCategory  = "category"
)

// FieldOrder is the canonical iteration order for mapped fields.
// It keeps validation output and generated templates deterministic.
var FieldOrder = []string{
	FieldItemID, FieldTitle, FieldPrice, FieldQuantity, FieldStatus,
	FieldSKU, FieldStartDate, FieldEndDate, FieldCondition, FieldCategory,
}

// Definition describes one known export layout.
type Definition struct {
	// Name uniquely identifies the layout, e.g. "seller_hub".
	Name string

	// Version of the export format this definition tracks.
	Version string

	// Required columns; a file is only eligible for this layout when every
	// required column is present.
	Required []string

	// Optional columns; presence raises the confidence score.
	Optional []string

	// FieldMap maps internal field names (Field* constants) to source column
	// names as they appear in the file header.
	FieldMap map[string]string
}

// IsRequired reports whether col is one of the layout's required columns.
// Comparison is normalized (case and surrounding whitespace insensitive).
func (d Definition) IsRequired(col string) bool {
	norm := NormalizeColumn(col)
	for _, r := range d.Required {
		if NormalizeColumn(r) == norm {
			return true
		}
	}
	return false
}

// Columns returns all layout columns, required first, in definition order.
func (d Definition) Columns() []string {
	cols := make([]string, 0, len(d.Required)+len(d.Optional))
	cols = append(cols, d.Required...)
	cols = append(cols, d.Optional...)
	return cols
}

// SourceColumn returns the normalized source column for an internal field,
// or "" if the layout does not map it.
func (d Definition) SourceColumn(field string) string {
	col, ok := d.FieldMap[field]
	if !ok {
		return ""
	}
	return NormalizeColumn(col)
}

// NormalizeColumn canonicalizes a header cell for comparison: surrounding
// whitespace and a leading BOM are stripped, and the result is lowercased.
func NormalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(s))
}

// Registry holds layout definitions in registration order.
// Registration order matters: the classifier breaks confidence ties in favor
// of the first-registered layout.
type Registry struct {
	mu     sync.RWMutex
	defs   []Definition
	byName map[string]int
}

// NewRegistry creates an empty layout registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a layout definition.
// Returns an error if the name is empty, already registered, or the
// definition has no required columns.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("layout name is empty")
	}
	if len(def.Required) == 0 {
		return fmt.Errorf("layout %s has no required columns", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("layout already registered: %s", def.Name)
	}

	r.byName[def.Name] = len(r.defs)
	r.defs = append(r.defs, def)
	return nil
}

// MustRegister registers a definition and panics on error.
// Intended for built-in layouts wired at startup.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns a layout definition by name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[idx], true
}

// All returns all registered definitions in registration order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of registered layouts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
