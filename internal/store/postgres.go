package store

// postgres.go implements the store contracts on PostgreSQL via pgx.
//
// Listings live in a single table keyed by a UUID primary key with a unique
// (account_id, external_id) pair. Updates build their SET clause dynamically
// from the sparse patch so untouched columns are never written.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations the stores need.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const listingColumns = `id, account_id, external_id, title, sku, price, quantity,
	status, condition, category, start_date, end_date, created_at, updated_at`

// PostgresListingStore implements ListingStore on PostgreSQL.
type PostgresListingStore struct {
	db DBTX
}

// NewPostgresListingStore creates a listing store backed by db.
func NewPostgresListingStore(db DBTX) *PostgresListingStore {
	return &PostgresListingStore{db: db}
}

func (s *PostgresListingStore) FindByExternalID(ctx context.Context, accountID, externalID string) (*Listing, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE account_id = $1 AND external_id = $2`,
		accountID, externalID)
	return scanListing(row)
}

func (s *PostgresListingStore) FindByID(ctx context.Context, id string) (*Listing, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

func (s *PostgresListingStore) Create(ctx context.Context, cmd CreateListing) (*Listing, error) {
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx,
		`INSERT INTO listings (id, account_id, external_id, title, sku, price, quantity,
			status, condition, category, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		 RETURNING `+listingColumns,
		uuid.New().String(), cmd.AccountID, cmd.ExternalID, cmd.Title,
		toPgText(cmd.SKU), cmd.Price, cmd.Quantity, string(cmd.Status),
		toPgText(cmd.Condition), toPgText(cmd.Category),
		toPgDate(cmd.StartDate), toPgDate(cmd.EndDate), now)

	listing, err := scanListing(row)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

func (s *PostgresListingStore) Update(ctx context.Context, id string, patch ListingPatch) (*Listing, error) {
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, next))
		args = append(args, val)
		next++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.SKU != nil {
		add("sku", toPgText(*patch.SKU))
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Condition != nil {
		add("condition", toPgText(*patch.Condition))
	}
	if patch.Category != nil {
		add("category", toPgText(*patch.Category))
	}
	if patch.StartDate != nil {
		add("start_date", toPgDate(patch.StartDate))
	}
	if patch.EndDate != nil {
		add("end_date", toPgDate(patch.EndDate))
	}

	query := fmt.Sprintf(
		`UPDATE listings SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), listingColumns)

	listing, err := scanListing(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update listing %s: %w", id, err)
	}
	return listing, nil
}

func (s *PostgresListingStore) BulkUpdateStatus(ctx context.Context, ids []string, status ListingStatus) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE listings SET status = $1, updated_at = now() WHERE id = ANY($2)`,
		string(status), ids)
	if err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanListing reads one listing row, mapping pgx.ErrNoRows to ErrNotFound.
func scanListing(row pgx.Row) (*Listing, error) {
	var (
		l         Listing
		sku       pgtype.Text
		condition pgtype.Text
		category  pgtype.Text
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := row.Scan(&l.ID, &l.AccountID, &l.ExternalID, &l.Title, &sku,
		&l.Price, &l.Quantity, &l.Status, &condition, &category,
		&startDate, &endDate, &l.CreatedAt, &l.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	l.SKU = sku.String
	l.Condition = condition.String
	l.Category = category.String
	if startDate.Valid {
		t := startDate.Time
		l.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		l.EndDate = &t
	}
	return &l, nil
}

func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

// PostgresAccountLookup implements AccountLookup on PostgreSQL.
type PostgresAccountLookup struct {
	db DBTX
}

// NewPostgresAccountLookup creates an account lookup backed by db.
func NewPostgresAccountLookup(db DBTX) *PostgresAccountLookup {
	return &PostgresAccountLookup{db: db}
}

func (s *PostgresAccountLookup) Exists(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("account lookup: %w", err)
	}
	return exists, nil
}

// interface guards
var (
	_ ListingStore  = (*PostgresListingStore)(nil)
	_ AccountLookup = (*PostgresAccountLookup)(nil)
	_ DBTX          = (*pgxpool.Pool)(nil)
)
