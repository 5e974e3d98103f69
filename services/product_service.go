package services

import (
	"context"
	"database/sql"

	"github.com/fenilmodi00/soho-stock-backend/models"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SohoFlagUpdate is one queued fixed-store flag write for a product.
type SohoFlagUpdate struct {
	ProductID uuid.UUID
	InStock   bool
}

// ProductCatalog is the catalog dependency of the SoHo sweep.
type ProductCatalog interface {
	ListByBrand(ctx context.Context, brand string) ([]models.Product, error)
	ApplySohoFlags(ctx context.Context, updates []SohoFlagUpdate) (int, error)
}

// ProductService provides read access to the product catalog and the batched
// SoHo flag write used by the sweep. Catalog records are seeded externally.
type ProductService struct {
	DB *sql.DB
}

func NewProductService(db *sql.DB) *ProductService {
	return &ProductService{DB: db}
}

const productColumns = `id, name, brand, zara_product_id, image_url,
              in_stock_at_soho, soho_last_checked_at, created_at, updated_at`

// ListProducts returns catalog products, optionally filtered by brand.
func (s *ProductService) ListProducts(ctx context.Context, brand string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
              FROM product_list ORDER BY name LIMIT 200`
	args := []interface{}{}
	if brand != "" {
		query = `SELECT ` + productColumns + `
              FROM product_list WHERE brand = $1 ORDER BY name LIMIT 200`
		args = append(args, brand)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to query products", "product-service", "list_products", true, err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetProductByID returns one product, or nil when it does not exist.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
			"invalid product id", "product-service", "get_product_by_id", false, err)
	}

	query := `SELECT ` + productColumns + `
              FROM product_list WHERE id = $1`

	var product models.Product
	err = s.DB.QueryRowContext(ctx, query, productID).Scan(
		&product.ID, &product.Name, &product.Brand, &product.ZaraProductID, &product.ImageURL,
		&product.InStockAtSoho, &product.SohoLastCheckedAt, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to query product", "product-service", "get_product_by_id", true, err)
	}

	return &product, nil
}

// ListByBrand returns all products tagged with the given brand, in a stable
// order for the sweep.
func (s *ProductService) ListByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
              FROM product_list WHERE brand = $1 ORDER BY created_at, id`

	rows, err := s.DB.QueryContext(ctx, query, brand)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to query products by brand", "product-service", "list_by_brand", true, err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ApplySohoFlags commits one batch of fixed-store flag updates in a single
// transaction, with the check timestamp assigned by the database clock. It
// returns the number of rows actually updated.
func (s *ProductService) ApplySohoFlags(ctx context.Context, updates []SohoFlagUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to begin flag update transaction", "product-service", "apply_soho_flags", true, err)
	}
	defer tx.Rollback()

	query := `UPDATE product_list
              SET in_stock_at_soho = $2, soho_last_checked_at = NOW(), updated_at = NOW()
              WHERE id = $1`

	updated := 0
	for _, update := range updates {
		result, err := tx.ExecContext(ctx, query, update.ProductID, update.InStock)
		if err != nil {
			return 0, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
				"failed to update product flag", "product-service", "apply_soho_flags", true, err)
		}
		if affected, err := result.RowsAffected(); err == nil {
			updated += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to commit flag updates", "product-service", "apply_soho_flags", true, err)
	}

	logrus.WithFields(logrus.Fields{
		"component":     "ProductService",
		"updated_count": updated,
	}).Debug("Committed SoHo flag updates")

	return updated, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID, &product.Name, &product.Brand, &product.ZaraProductID, &product.ImageURL,
			&product.InStockAtSoho, &product.SohoLastCheckedAt, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
				"failed to scan product row", "product-service", "scan", false, err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeStoreUnavailable,
			"failed to read product rows", "product-service", "scan", true, err)
	}
	return products, nil
}
