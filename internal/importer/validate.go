package importer

import (
	"fmt"

	"github.com/ormside/listflow/internal/layout"
)

// Price and quantity bounds enforced on imported rows.
const (
	MaxPrice    = 999999.99
	MaxQuantity = 99999
)

// ValidateRow checks one decoded row against a layout's field mapping and
// returns the violations found, each prefixed with the row's 1-based ordinal.
// A row with any violation is excluded from transformation whole; there is no
// partial field application.
func ValidateRow(ordinal int, row Row, def layout.Definition) []string {
	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf("row %d: %s", ordinal, fmt.Sprintf(format, args...)))
	}

	for _, field := range layout.FieldOrder {
		col, mapped := def.FieldMap[field]
		if !mapped {
			continue
		}

		raw, _ := row.Field(def, field)
		if raw == "" {
			if def.IsRequired(col) {
				add("missing required field %q", col)
			}
			continue
		}

		switch field {
		case layout.FieldItemID:
			if _, ok := parseItemID(raw); !ok {
				add("invalid item ID %q: want a 10-15 digit number", raw)
			}
		case layout.FieldPrice:
			price, ok := parseMoney(raw)
			if !ok {
				add("unparseable price %q", raw)
			} else if price <= 0 {
				add("price must be greater than zero, got %v", price)
			} else if price > MaxPrice {
				add("price %v exceeds maximum %v", price, MaxPrice)
			}
		case layout.FieldQuantity:
			qty, ok := parseQuantity(raw)
			if !ok {
				add("unparseable quantity %q", raw)
			} else if qty < 0 {
				add("quantity must not be negative, got %d", qty)
			} else if qty > MaxQuantity {
				add("quantity %d exceeds maximum %d", qty, MaxQuantity)
			}
		case layout.FieldStatus:
			if _, ok := parseStatus(raw); !ok {
				add("unknown status %q", raw)
			}
		case layout.FieldStartDate, layout.FieldEndDate:
			if _, ok := parseDate(raw); !ok {
				add("unparseable date %q for %q", raw, col)
			}
		}
	}

	return violations
}
