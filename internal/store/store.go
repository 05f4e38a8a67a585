// Package store defines the persistence contracts the bulk pipelines consume:
// a listing store (create/read/update plus bulk status updates keyed by
// external marketplace ID) and an account lookup. A PostgreSQL implementation
// lives alongside the contracts; the pipelines only ever see the interfaces.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a listing or account does not exist.
var ErrNotFound = errors.New("not found")

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	StatusActive     ListingStatus = "active"
	StatusEnded      ListingStatus = "ended"
	StatusOutOfStock ListingStatus = "out_of_stock"
	StatusHidden     ListingStatus = "hidden"
)

// KnownStatuses lists every valid listing status, for request validation.
var KnownStatuses = []ListingStatus{StatusActive, StatusEnded, StatusOutOfStock, StatusHidden}

// Listing is a marketplace listing row.
type Listing struct {
	ID         string        `json:"id"`
	AccountID  string        `json:"accountId"`
	ExternalID string        `json:"externalId"`
	Title      string        `json:"title"`
	SKU        string        `json:"sku,omitempty"`
	Price      float64       `json:"price"`
	Quantity   int           `json:"quantity"`
	Status     ListingStatus `json:"status"`
	Condition  string        `json:"condition,omitempty"`
	Category   string        `json:"category,omitempty"`
	StartDate  *time.Time    `json:"startDate,omitempty"`
	EndDate    *time.Time    `json:"endDate,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// CreateListing is the command to create a listing.
type CreateListing struct {
	AccountID  string
	ExternalID string
	Title      string
	SKU        string
	Price      float64
	Quantity   int
	Status     ListingStatus
	Condition  string
	Category   string
	StartDate  *time.Time
	EndDate    *time.Time
}

// ListingPatch is a sparse update: nil fields are left untouched.
type ListingPatch struct {
	Title     *string
	SKU       *string
	Price     *float64
	Quantity  *int
	Status    *ListingStatus
	Condition *string
	Category  *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Empty reports whether the patch changes nothing.
func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.SKU == nil && p.Price == nil && p.Quantity == nil &&
		p.Status == nil && p.Condition == nil && p.Category == nil &&
		p.StartDate == nil && p.EndDate == nil
}

// ListingStore is the persistence contract for listings.
type ListingStore interface {
	// FindByExternalID looks up a listing by its marketplace item number
	// within an account. Returns ErrNotFound when absent.
	FindByExternalID(ctx context.Context, accountID, externalID string) (*Listing, error)

	// FindByID looks up a listing by its internal ID.
	FindByID(ctx context.Context, id string) (*Listing, error)

	// Create inserts a new listing.
	Create(ctx context.Context, cmd CreateListing) (*Listing, error)

	// Update applies a sparse patch to an existing listing.
	Update(ctx context.Context, id string, patch ListingPatch) (*Listing, error)

	// BulkUpdateStatus sets the status for every listed ID in one statement
	// and returns how many rows were updated.
	BulkUpdateStatus(ctx context.Context, ids []string, status ListingStatus) (int64, error)
}

// AccountLookup resolves whether a seller account exists.
type AccountLookup interface {
	Exists(ctx context.Context, accountID string) (bool, error)
}
