package importer

import (
	"time"

	"github.com/ormside/listflow/internal/layout"
	"github.com/ormside/listflow/internal/store"
)

// CommandKind distinguishes the two reconciliation outcomes.
type CommandKind int

const (
	KindCreate CommandKind = iota
	KindUpdate
)

// Command is the persistence action a clean row transforms into: a full
// create when the external ID is new to the account, or a sparse patch when
// it already exists.
type Command struct {
	Kind       CommandKind
	ExternalID string
	Create     store.CreateListing
	Patch      store.ListingPatch
}

// Transform maps a clean row into a Command. exists reports whether the
// external ID is already present for the account; the caller does that lookup.
// Pure function of row + layout + existence flag.
//
// Optional fields that fail to parse are treated as absent rather than
// errors: the validator has already gated hard failures, and a stray
// malformed optional cell must not block an otherwise clean row.
func Transform(row Row, def layout.Definition, accountID string, exists bool) Command {
	externalID, _ := row.Field(def, layout.FieldItemID)
	externalID, _ = parseItemID(externalID)

	if exists {
		return Command{Kind: KindUpdate, ExternalID: externalID, Patch: buildPatch(row, def)}
	}
	return Command{Kind: KindCreate, ExternalID: externalID, Create: buildCreate(row, def, accountID, externalID)}
}

func buildCreate(row Row, def layout.Definition, accountID, externalID string) store.CreateListing {
	cmd := store.CreateListing{
		AccountID:  accountID,
		ExternalID: externalID,
		Status:     store.StatusActive,
	}

	if v, _ := row.Field(def, layout.FieldTitle); v != "" {
		cmd.Title = v
	}
	if v, _ := row.Field(def, layout.FieldSKU); v != "" {
		cmd.SKU = v
	}
	if v, _ := row.Field(def, layout.FieldPrice); v != "" {
		if price, ok := parseMoney(v); ok {
			cmd.Price = price
		}
	}
	if v, _ := row.Field(def, layout.FieldQuantity); v != "" {
		if qty, ok := parseQuantity(v); ok {
			cmd.Quantity = qty
		}
	}
	if v, _ := row.Field(def, layout.FieldStatus); v != "" {
		if st, ok := parseStatus(v); ok {
			cmd.Status = st
		}
	}
	if v, _ := row.Field(def, layout.FieldCondition); v != "" {
		cmd.Condition = v
	}
	if v, _ := row.Field(def, layout.FieldCategory); v != "" {
		cmd.Category = v
	}
	cmd.StartDate = dateField(row, def, layout.FieldStartDate)
	cmd.EndDate = dateField(row, def, layout.FieldEndDate)

	return cmd
}

// buildPatch includes only fields present and parseable in the source row.
func buildPatch(row Row, def layout.Definition) store.ListingPatch {
	var patch store.ListingPatch

	if v, _ := row.Field(def, layout.FieldTitle); v != "" {
		patch.Title = &v
	}
	if v, _ := row.Field(def, layout.FieldSKU); v != "" {
		patch.SKU = &v
	}
	if v, _ := row.Field(def, layout.FieldPrice); v != "" {
		if price, ok := parseMoney(v); ok {
			patch.Price = &price
		}
	}
	if v, _ := row.Field(def, layout.FieldQuantity); v != "" {
		if qty, ok := parseQuantity(v); ok {
			patch.Quantity = &qty
		}
	}
	if v, _ := row.Field(def, layout.FieldStatus); v != "" {
		if st, ok := parseStatus(v); ok {
			patch.Status = &st
		}
	}
	if v, _ := row.Field(def, layout.FieldCondition); v != "" {
		patch.Condition = &v
	}
	if v, _ := row.Field(def, layout.FieldCategory); v != "" {
		patch.Category = &v
	}
	patch.StartDate = dateField(row, def, layout.FieldStartDate)
	patch.EndDate = dateField(row, def, layout.FieldEndDate)

	return patch
}

func dateField(row Row, def layout.Definition, field string) *time.Time {
	v, _ := row.Field(def, field)
	if v == "" {
		return nil
	}
	t, ok := parseDate(v)
	if !ok {
		return nil
	}
	return &t
}
