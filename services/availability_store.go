package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/models"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/sirupsen/logrus"
)

// AvailabilityKeeper is the persistence boundary of the stock lookup
// orchestrator. The concrete implementation is AvailabilityStore over
// Postgres; tests substitute an in-memory fake.
type AvailabilityKeeper interface {
	// QueryFresh returns all unexpired records for a product. An empty set is
	// the cache-miss signal, not an error.
	QueryFresh(ctx context.Context, productID string) ([]models.AvailabilityRecord, error)

	// UpsertMany writes the full store set for a product atomically, assigning
	// last_checked and expires_at from the database clock at commit time. It
	// returns the records as committed, including the assigned timestamps.
	UpsertMany(ctx context.Context, productID string, records []models.AvailabilityRecord) ([]models.AvailabilityRecord, error)

	// GetRecord returns one record by exact key regardless of freshness, or
	// nil when it does not exist. Stale records stay retrievable this way even
	// though freshness queries exclude them.
	GetRecord(ctx context.Context, productID, storeID string) (*models.AvailabilityRecord, error)
}

// AvailabilityStore persists per-store availability records in Postgres.
// Freshness is always evaluated against the database clock; upserts fully
// replace every column of an existing row (partial merges are not supported).
type AvailabilityStore struct {
	DB  *sql.DB
	ttl time.Duration
}

// NewAvailabilityStore creates an availability store with the given cache TTL.
func NewAvailabilityStore(db *sql.DB, ttl time.Duration) *AvailabilityStore {
	return &AvailabilityStore{
		DB:  db,
		ttl: ttl,
	}
}

const availabilityColumns = `product_id, store_id, store_name, store_address, in_stock, distance, last_checked, expires_at`

// QueryFresh returns all records for the product whose expiry is strictly in
// the future. Single consistent read; expires_at > NOW(), not >=.
func (s *AvailabilityStore) QueryFresh(ctx context.Context, productID string) ([]models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + `
              FROM store_stock_availability
              WHERE product_id = $1 AND expires_at > NOW()
              ORDER BY store_id`

	rows, err := s.DB.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to query fresh availability records", "availability-store", "query_fresh", true, err)
	}
	defer rows.Close()

	var records []models.AvailabilityRecord
	for rows.Next() {
		record, err := scanAvailabilityRecord(rows)
		if err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
				"failed to scan availability record", "availability-store", "query_fresh", false, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to read availability records", "availability-store", "query_fresh", true, err)
	}

	return records, nil
}

// UpsertMany writes all records for the product in one transaction so a reader
// can never observe a half-updated store set. Timestamps come from NOW() on
// the database side and are read back via RETURNING so the caller's response
// reflects the actual commit.
func (s *AvailabilityStore) UpsertMany(ctx context.Context, productID string, records []models.AvailabilityRecord) ([]models.AvailabilityRecord, error) {
	if len(records) == 0 {
		// A product with no nearby stock is a valid observation; there is
		// simply nothing to write.
		return []models.AvailabilityRecord{}, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to begin availability transaction", "availability-store", "upsert_many", true, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO store_stock_availability (
			product_id, store_id, store_name, store_address, in_stock, distance,
			last_checked, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW() + make_interval(secs => $7))
		ON CONFLICT (product_id, store_id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			store_address = EXCLUDED.store_address,
			in_stock = EXCLUDED.in_stock,
			distance = EXCLUDED.distance,
			last_checked = EXCLUDED.last_checked,
			expires_at = EXCLUDED.expires_at
		RETURNING last_checked, expires_at
	`

	committed := make([]models.AvailabilityRecord, 0, len(records))
	for _, record := range records {
		record.ProductID = productID
		err := tx.QueryRowContext(ctx, query,
			productID, record.StoreID, record.StoreName, record.StoreAddress,
			record.InStock, record.Distance, s.ttl.Seconds(),
		).Scan(&record.LastChecked, &record.ExpiresAt)
		if err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
				"failed to upsert availability record", "availability-store", "upsert_many", true, err)
		}
		committed = append(committed, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to commit availability records", "availability-store", "upsert_many", true, err)
	}

	logrus.WithFields(logrus.Fields{
		"component":    "AvailabilityStore",
		"product_id":   productID,
		"record_count": len(committed),
	}).Debug("Committed availability records")

	return committed, nil
}

// GetRecord returns one record by exact key regardless of expiry, or nil when
// no such record exists.
func (s *AvailabilityStore) GetRecord(ctx context.Context, productID, storeID string) (*models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + `
              FROM store_stock_availability
              WHERE product_id = $1 AND store_id = $2`

	row := s.DB.QueryRowContext(ctx, query, productID, storeID)
	record, err := scanAvailabilityRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to read availability record", "availability-store", "get_record", true, err)
	}

	return &record, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAvailabilityRecord(row rowScanner) (models.AvailabilityRecord, error) {
	var record models.AvailabilityRecord
	err := row.Scan(
		&record.ProductID, &record.StoreID, &record.StoreName, &record.StoreAddress,
		&record.InStock, &record.Distance, &record.LastChecked, &record.ExpiresAt,
	)
	return record, err
}
