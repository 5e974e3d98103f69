package models

import "time"

// AvailabilityRecord is one cached per-store stock observation for a product.
// LastChecked and ExpiresAt are assigned by the persistence layer at commit
// time so that freshness never depends on a client clock.
type AvailabilityRecord struct {
	ProductID    string    `json:"product_id"`
	StoreID      string    `json:"store_id"`
	StoreName    string    `json:"store_name"`
	StoreAddress *string   `json:"store_address,omitempty"`
	InStock      bool      `json:"in_stock"`
	Distance     *float64  `json:"distance,omitempty"`
	LastChecked  time.Time `json:"last_checked"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsFresh reports whether the record is still usable as a cache hit at the
// given instant. The boundary is strict: a record expiring exactly now is
// already stale.
func (r *AvailabilityRecord) IsFresh(now time.Time) bool {
	return r.ExpiresAt.After(now)
}
