package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Brand string    `json:"brand"`

	// External identifier in the retailer's numeric namespace. Nil when the
	// product has not been linked to the upstream catalog yet.
	ZaraProductID *string `json:"zara_product_id"`

	ImageURL *string `json:"image_url"`

	// Fixed-store availability flag, written only by the SoHo sweep. It is
	// independent of the per-store availability cache.
	InStockAtSoho     *bool      `json:"in_stock_at_soho"`
	SohoLastCheckedAt *time.Time `json:"soho_last_checked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasZaraProductID reports whether the product is linked to the upstream
// catalog. Products without a link are skipped by the sweep.
func (p *Product) HasZaraProductID() bool {
	return p.ZaraProductID != nil && *p.ZaraProductID != ""
}
