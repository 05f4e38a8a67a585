package importer

import (
	"testing"

	"github.com/ormside/listflow/internal/store"
)

func TestTransformCreate(t *testing.T) {
	def := merchantFeedDef(t)
	row := Row{
		"listing_id": "1234567890",
		"title":      "Vintage Camera",
		"price":      "$149.99",
		"qty":        "3",
		"sku":        "CAM-01",
		"state":      "live",
		"listed_at":  "2024-03-15",
	}

	cmd := Transform(row, def, "acct-1", false)
	if cmd.Kind != KindCreate {
		t.Fatalf("Kind = %v, want KindCreate", cmd.Kind)
	}
	if cmd.ExternalID != "1234567890" {
		t.Errorf("ExternalID = %q", cmd.ExternalID)
	}

	c := cmd.Create
	if c.AccountID != "acct-1" || c.ExternalID != "1234567890" {
		t.Errorf("account/external = %q/%q", c.AccountID, c.ExternalID)
	}
	if c.Title != "Vintage Camera" || c.SKU != "CAM-01" {
		t.Errorf("title/sku = %q/%q", c.Title, c.SKU)
	}
	if c.Price != 149.99 || c.Quantity != 3 {
		t.Errorf("price/quantity = %v/%d", c.Price, c.Quantity)
	}
	if c.Status != store.StatusActive {
		t.Errorf("status = %s, want active (mapped from live)", c.Status)
	}
	if c.StartDate == nil || c.StartDate.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("start date = %v", c.StartDate)
	}
	if c.EndDate != nil {
		t.Errorf("end date = %v, want nil", c.EndDate)
	}
}

func TestTransformCreateDefaultsStatusActive(t *testing.T) {
	cmd := Transform(cleanRow(), merchantFeedDef(t), "acct-1", false)
	if cmd.Create.Status != store.StatusActive {
		t.Errorf("status = %s, want active default", cmd.Create.Status)
	}
}

func TestTransformUpdateSparsePatch(t *testing.T) {
	def := merchantFeedDef(t)
	row := Row{
		"listing_id": "1234567890",
		"price":      "99.00",
		"qty":        "7",
	}

	cmd := Transform(row, def, "acct-1", true)
	if cmd.Kind != KindUpdate {
		t.Fatalf("Kind = %v, want KindUpdate", cmd.Kind)
	}

	p := cmd.Patch
	if p.Price == nil || *p.Price != 99.00 {
		t.Errorf("Price = %v", p.Price)
	}
	if p.Quantity == nil || *p.Quantity != 7 {
		t.Errorf("Quantity = %v", p.Quantity)
	}
	if p.Title != nil || p.SKU != nil || p.Status != nil || p.StartDate != nil || p.EndDate != nil {
		t.Errorf("absent fields leaked into patch: %+v", p)
	}
}

func TestTransformUnparseableOptionalTreatedAsAbsent(t *testing.T) {
	def := merchantFeedDef(t)
	row := cleanRow()
	row["state"] = "???"
	row["listed_at"] = "someday"

	cmd := Transform(row, def, "acct-1", true)
	if cmd.Patch.Status != nil {
		t.Errorf("Status = %v, want nil for unmappable value", cmd.Patch.Status)
	}
	if cmd.Patch.StartDate != nil {
		t.Errorf("StartDate = %v, want nil for unparseable value", cmd.Patch.StartDate)
	}
}
