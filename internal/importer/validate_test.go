package importer

import (
	"strings"
	"testing"

	"github.com/ormside/listflow/internal/layout"
)

func merchantFeedDef(t *testing.T) layout.Definition {
	t.Helper()
	def, ok := layout.Builtin().Get("merchant_feed")
	if !ok {
		t.Fatal("merchant_feed layout not registered")
	}
	return def
}

func cleanRow() Row {
	return Row{
		"listing_id": "1234567890",
		"title":      "Vintage Camera",
		"price":      "149.99",
		"qty":        "3",
	}
}

func TestValidateRowClean(t *testing.T) {
	if got := ValidateRow(1, cleanRow(), merchantFeedDef(t)); len(got) != 0 {
		t.Errorf("violations = %v, want none", got)
	}
}

func TestValidateRowViolations(t *testing.T) {
	def := merchantFeedDef(t)

	tests := []struct {
		name    string
		mutate  func(Row)
		wantSub string
	}{
		{"missing item id", func(r Row) { delete(r, "listing_id") }, `missing required field "listing_id"`},
		{"short item id", func(r Row) { r["listing_id"] = "12345" }, "invalid item ID"},
		{"non-numeric item id", func(r Row) { r["listing_id"] = "abc4567890" }, "invalid item ID"},
		{"missing title", func(r Row) { r["title"] = "" }, `missing required field "title"`},
		{"unparseable price", func(r Row) { r["price"] = "cheap" }, "unparseable price"},
		{"zero price", func(r Row) { r["price"] = "0" }, "price must be greater than zero"},
		{"negative price", func(r Row) { r["price"] = "(5.00)" }, "price must be greater than zero"},
		{"price over cap", func(r Row) { r["price"] = "1000000" }, "exceeds maximum"},
		{"unparseable quantity", func(r Row) { r["qty"] = "lots" }, "unparseable quantity"},
		{"negative quantity", func(r Row) { r["qty"] = "-1" }, "must not be negative"},
		{"quantity over cap", func(r Row) { r["qty"] = "100000" }, "exceeds maximum"},
		{"unknown status", func(r Row) { r["state"] = "archived" }, "unknown status"},
		{"bad start date", func(r Row) { r["listed_at"] = "someday" }, "unparseable date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := cleanRow()
			tt.mutate(row)

			got := ValidateRow(7, row, def)
			if len(got) == 0 {
				t.Fatal("want violations, got none")
			}
			found := false
			for _, v := range got {
				if !strings.HasPrefix(v, "row 7: ") {
					t.Errorf("violation %q missing row prefix", v)
				}
				if strings.Contains(v, tt.wantSub) {
					found = true
				}
			}
			if !found {
				t.Errorf("violations %v do not mention %q", got, tt.wantSub)
			}
		})
	}
}

func TestValidateRowCollectsAllViolations(t *testing.T) {
	row := Row{
		"listing_id": "nope",
		"title":      "",
		"price":      "-1",
		"qty":        "many",
	}

	got := ValidateRow(2, row, merchantFeedDef(t))
	if len(got) < 4 {
		t.Errorf("violations = %v, want at least 4", got)
	}
}

func TestValidateRowOptionalEmptyIsFine(t *testing.T) {
	row := cleanRow()
	row["state"] = ""
	row["sku"] = ""

	if got := ValidateRow(1, row, merchantFeedDef(t)); len(got) != 0 {
		t.Errorf("violations = %v, want none for empty optional fields", got)
	}
}

func TestValidateRowMaxBoundsInclusive(t *testing.T) {
	row := cleanRow()
	row["price"] = "999999.99"
	row["qty"] = "99999"

	if got := ValidateRow(1, row, merchantFeedDef(t)); len(got) != 0 {
		t.Errorf("violations = %v, want none at the inclusive bounds", got)
	}
}
