package layout

import (
	"math"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	r.MustRegister(Definition{
		Name:     "alpha",
		Required: []string{"id", "title"},
		Optional: []string{"price", "qty"},
		FieldMap: map[string]string{
			FieldItemID: "id",
			FieldTitle:  "title",
			FieldPrice:  "price",
		},
	})
	r.MustRegister(Definition{
		Name:     "beta",
		Required: []string{"id", "name"},
		Optional: []string{"price", "qty"},
		FieldMap: map[string]string{
			FieldItemID: "id",
			FieldTitle:  "name",
		},
	})
	return r
}

func TestClassifyConfidenceFormula(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name       string
		columns    []string
		wantLayout string
		wantConf   float64
	}{
		{
			name:       "all required and optional present",
			columns:    []string{"id", "title", "price", "qty"},
			wantLayout: "alpha",
			wantConf:   1.0,
		},
		{
			name:       "required only",
			columns:    []string{"id", "title"},
			wantLayout: "alpha",
			wantConf:   4.0 / 6.0,
		},
		{
			name:       "required plus one optional",
			columns:    []string{"id", "title", "price"},
			wantLayout: "alpha",
			wantConf:   5.0 / 6.0,
		},
		{
			name:       "missing one required column for every layout",
			columns:    []string{"id", "price", "qty"},
			wantLayout: LayoutUnknown,
			wantConf:   0,
		},
		{
			name:       "empty header",
			columns:    nil,
			wantLayout: LayoutUnknown,
			wantConf:   0,
		},
		{
			name:       "extra unrecognized columns do not hurt",
			columns:    []string{"id", "title", "shoe size", "favorite color"},
			wantLayout: "alpha",
			wantConf:   4.0 / 6.0,
		},
		{
			name:       "header matching is case and whitespace insensitive",
			columns:    []string{"  ID ", "Title"},
			wantLayout: "alpha",
			wantConf:   4.0 / 6.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Classify(tt.columns)
			if m.Layout.Name != tt.wantLayout {
				t.Errorf("layout = %q, want %q", m.Layout.Name, tt.wantLayout)
			}
			if math.Abs(m.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %v, want %v", m.Confidence, tt.wantConf)
			}
		})
	}
}

func TestClassifyTieBreaksByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Definition{Name: "first", Required: []string{"id"}, Optional: []string{"x"}})
	r.MustRegister(Definition{Name: "second", Required: []string{"id"}, Optional: []string{"y"}})

	// Both layouts are eligible with identical confidence; the
	// first-registered one must win.
	m := r.Classify([]string{"id"})
	if m.Layout.Name != "first" {
		t.Errorf("tie broken to %q, want first-registered layout", m.Layout.Name)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	r := testRegistry(t)
	columns := []string{"id", "title", "qty"}

	a := r.Classify(columns)
	b := r.Classify(columns)

	if a.Layout.Name != b.Layout.Name || a.Confidence != b.Confidence {
		t.Errorf("classification not deterministic: %v vs %v", a, b)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "dup", Required: []string{"id"}}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(Definition{Name: "dup", Required: []string{"id"}}); err == nil {
		t.Error("expected error registering duplicate layout name")
	}
	if err := r.Register(Definition{Name: "bare"}); err == nil {
		t.Error("expected error registering layout without required columns")
	}
}

func TestBuiltinLayoutsClassify(t *testing.T) {
	r := Builtin()

	m := r.Classify([]string{"Item number", "Title", "Current price", "Available quantity", "Status"})
	if m.Layout.Name != "seller_hub" {
		t.Fatalf("layout = %q, want seller_hub", m.Layout.Name)
	}
	if m.Confidence < DefaultConfidenceThreshold {
		t.Errorf("confidence %v below default threshold", m.Confidence)
	}

	m = r.Classify([]string{"listing_id", "title", "price", "qty", "sku", "state"})
	if m.Layout.Name != "merchant_feed" {
		t.Errorf("layout = %q, want merchant_feed", m.Layout.Name)
	}
}
