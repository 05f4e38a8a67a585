package layout

// builtin.go registers the export layouts the importer ships with.
//
// Column names track the actual headers each marketplace export produces.
// Registration order is significant: on a confidence tie the earlier layout
// wins, so the most common format goes first.

// Builtin returns a registry populated with the known export layouts.
func Builtin() *Registry {
	r := NewRegistry()

	// Seller Hub active-listings report.
	r.MustRegister(Definition{
		Name:    "seller_hub",
		Version: "2",
		Required: []string{
			"Item number", "Title", "Current price", "Available quantity",
		},
		Optional: []string{
			"Custom label (SKU)", "Status", "Start date", "End date",
			"Condition", "Category",
		},
		FieldMap: map[string]string{
			FieldItemID:    "Item number",
			FieldTitle:     "Title",
			FieldPrice:     "Current price",
			FieldQuantity:  "Available quantity",
			FieldSKU:       "Custom label (SKU)",
			FieldStatus:    "Status",
			FieldStartDate: "Start date",
			FieldEndDate:   "End date",
			FieldCondition: "Condition",
			FieldCategory:  "Category",
		},
	})

	// Merchant feed export (snake_case headers).
	r.MustRegister(Definition{
		Name:    "merchant_feed",
		Version: "1",
		Required: []string{
			"listing_id", "title", "price", "qty",
		},
		Optional: []string{
			"sku", "state", "listed_at", "ends_at", "condition",
		},
		FieldMap: map[string]string{
			FieldItemID:    "listing_id",
			FieldTitle:     "title",
			FieldPrice:     "price",
			FieldQuantity:  "qty",
			FieldSKU:       "sku",
			FieldStatus:    "state",
			FieldStartDate: "listed_at",
			FieldEndDate:   "ends_at",
			FieldCondition: "condition",
		},
	})

	// Inventory management export.
	r.MustRegister(Definition{
		Name:    "inventory_export",
		Version: "1",
		Required: []string{
			"Item ID", "Product Title", "Price", "Quantity", "SKU",
		},
		Optional: []string{
			"Listing Status", "Start Date", "End Date",
		},
		FieldMap: map[string]string{
			FieldItemID:    "Item ID",
			FieldTitle:     "Product Title",
			FieldPrice:     "Price",
			FieldQuantity:  "Quantity",
			FieldSKU:       "SKU",
			FieldStatus:    "Listing Status",
			FieldStartDate: "Start Date",
			FieldEndDate:   "End Date",
		},
	})

	return r
}
