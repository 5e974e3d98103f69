package services

import (
	"context"
	"fmt"

	"github.com/fenilmodi00/soho-stock-backend/config"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/sirupsen/logrus"
)

// SweepDetail is one per-product outcome in the sweep summary. Either
// IsAvailable is set (the flag was computed) or Error explains why not.
type SweepDetail struct {
	ProductID     string `json:"productId"`
	ZaraProductID string `json:"zaraProductId,omitempty"`
	IsAvailable   *bool  `json:"isAvailable,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SweepSummary is the diagnostic payload of one sweep run. It reports what
// happened per product; it is not a transactional guarantee.
type SweepSummary struct {
	Message      string        `json:"message,omitempty"`
	UpdatedCount int           `json:"updatedCount"`
	Details      []SweepDetail `json:"details"`
}

// SohoSweepService refreshes the fixed SoHo store's stock flag across every
// product of one brand. Products are processed strictly sequentially with a
// pacing delay between upstream calls; per-product failures are recorded and
// never abort the sweep. Overlapping sweep invocations are not guarded
// against.
type SohoSweepService struct {
	catalog ProductCatalog
	fetcher StockFetcher
	limiter *shared.HTTPRequestRateLimiter
	cfg     config.SweepConfig
}

func NewSohoSweepService(catalog ProductCatalog, fetcher StockFetcher, cfg config.SweepConfig) *SohoSweepService {
	return &SohoSweepService{
		catalog: catalog,
		fetcher: fetcher,
		limiter: shared.NewHTTPRequestRateLimiter(cfg.Delay),
		cfg:     cfg,
	}
}

// Run executes one full sweep and returns its summary.
func (s *SohoSweepService) Run(ctx context.Context) (*SweepSummary, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component":     "SohoSweepService",
		"brand":         s.cfg.Brand,
		"soho_store_id": s.cfg.StoreID,
	})
	logger.Info("Starting SoHo availability sweep")

	products, err := s.catalog.ListByBrand(ctx, s.cfg.Brand)
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		logger.Info("No products to sweep")
		return &SweepSummary{
			Message: fmt.Sprintf("no %s products found, nothing to update", s.cfg.Brand),
		}, nil
	}

	summary := &SweepSummary{}
	detailIndexByProduct := make(map[string]int)
	var updates []SohoFlagUpdate
	var sampleErrors []error

	for _, product := range products {
		productID := product.ID.String()

		if !product.HasZaraProductID() {
			// Configuration gap, not a per-run failure.
			logger.WithField("product_id", productID).Warn("Skipping product without zara product id")
			summary.Details = append(summary.Details, SweepDetail{
				ProductID: productID,
				Error:     "missing zara product id",
			})
			continue
		}

		s.limiter.EnforceRateLimit()

		zaraProductID := *product.ZaraProductID
		available := false

		shops, err := s.fetcher.FetchStoreStock(ctx, zaraProductID, s.cfg.Latitude, s.cfg.Longitude)
		if err != nil {
			// The flag is treated as false for this cycle; the error is
			// recorded and the sweep continues.
			logger.WithFields(logrus.Fields{
				"product_id":      productID,
				"zara_product_id": zaraProductID,
			}).WithError(err).Warn("Upstream lookup failed during sweep")
			summary.Details = append(summary.Details, SweepDetail{
				ProductID: productID,
				Error:     err.Error(),
			})
			if len(sampleErrors) < 10 {
				sampleErrors = append(sampleErrors, err)
			}
		} else {
			for i := range shops {
				if shops[i].MatchesStore(s.cfg.StoreID) && shops[i].InStock {
					available = true
					break
				}
			}
			isAvailable := available
			summary.Details = append(summary.Details, SweepDetail{
				ProductID:     productID,
				ZaraProductID: zaraProductID,
				IsAvailable:   &isAvailable,
			})
		}

		detailIndexByProduct[productID] = len(summary.Details) - 1
		updates = append(updates, SohoFlagUpdate{ProductID: product.ID, InStock: available})
	}

	// Flag updates are committed in chunks so a catalog larger than one
	// batch-write limit still sweeps; each chunk is best-effort and a failed
	// chunk leaves its products one cycle staler.
	for start := 0; start < len(updates); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(updates) {
			end = len(updates)
		}
		chunk := updates[start:end]

		updated, err := s.catalog.ApplySohoFlags(ctx, chunk)
		if err != nil {
			logger.WithError(err).Error("Failed to commit sweep flag chunk")
			for _, update := range chunk {
				if idx, ok := detailIndexByProduct[update.ProductID.String()]; ok && summary.Details[idx].Error == "" {
					summary.Details[idx].Error = "flag update failed: " + shared.MessageOf(err)
					summary.Details[idx].IsAvailable = nil
				}
			}
			if len(sampleErrors) < 10 {
				sampleErrors = append(sampleErrors, err)
			}
			continue
		}
		summary.UpdatedCount += updated
	}

	errorCount := 0
	for _, detail := range summary.Details {
		if detail.Error != "" {
			errorCount++
		}
	}
	if errorCount > 0 {
		logger.Warn(shared.BuildSweepErrorSummary(summary.UpdatedCount, errorCount, sampleErrors))
	}

	logger.WithFields(logrus.Fields{
		"product_count": len(products),
		"updated_count": summary.UpdatedCount,
		"error_count":   errorCount,
	}).Info("Completed SoHo availability sweep")

	return summary, nil
}
