// Package mutate implements bulk mutations over listing and product ID sets:
// request preflight, typed operation commands, and batched execution with
// partial-failure tracking.
package mutate

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ormside/listflow/internal/store"
)

// EntityType selects the ID namespace a bulk mutation targets. The ceiling
// per request differs by entity type.
type EntityType string

const (
	EntityListing EntityType = "listing"
	EntityProduct EntityType = "product"
)

// Request ceilings per entity type.
const (
	MaxListingIDs = 500
	MaxProductIDs = 1000
)

// ParseEntityType validates an entity type from request input.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityListing:
		return EntityListing, nil
	case EntityProduct:
		return EntityProduct, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// MaxIDs returns the per-request ID ceiling for the entity type.
func (e EntityType) MaxIDs() int {
	if e == EntityProduct {
		return MaxProductIDs
	}
	return MaxListingIDs
}

// Operation is one typed bulk mutation command. Exactly three kinds exist:
// StatusChange, PriceChange, QuantityChange.
type Operation interface {
	// Name is the wire identifier, e.g. "price_change".
	Name() string

	// Validate checks the payload shape. No side effects.
	Validate() error
}

// StatusChange sets every targeted entity to the given status.
type StatusChange struct {
	Status store.ListingStatus `json:"status"`
}

func (StatusChange) Name() string { return "status_change" }

func (c StatusChange) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Status, validation.Required, validation.In(knownStatusValues()...)),
	)
}

// PriceChange sets every targeted entity's price.
type PriceChange struct {
	Price float64 `json:"price"`
}

func (PriceChange) Name() string { return "price_change" }

func (c PriceChange) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Price, validation.Required, validation.Min(0.01), validation.Max(999999.99)),
	)
}

// QuantityChange sets every targeted entity's available quantity.
type QuantityChange struct {
	Quantity int `json:"quantity"`
}

func (QuantityChange) Name() string { return "quantity_change" }

func (c QuantityChange) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Quantity, validation.Min(0), validation.Max(99999)),
	)
}

func knownStatusValues() []interface{} {
	vals := make([]interface{}, len(store.KnownStatuses))
	for i, s := range store.KnownStatuses {
		vals[i] = s
	}
	return vals
}
