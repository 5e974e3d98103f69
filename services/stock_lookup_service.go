package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/models"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/sirupsen/logrus"
)

// LookupRequest is one on-demand stock lookup. ProductID addresses the cache
// partition (internal namespace); ZaraProductID addresses the retailer's API
// (external numeric namespace). Both are required.
type LookupRequest struct {
	ProductID     string
	ZaraProductID string
	Latitude      float64
	Longitude     float64
	ForceRefresh  bool
}

// StoreResult is one per-store entry in the public lookup response.
type StoreResult struct {
	StoreID     string    `json:"storeId"`
	StoreName   string    `json:"storeName"`
	Address     *string   `json:"address,omitempty"`
	InStock     bool      `json:"inStock"`
	Distance    *float64  `json:"distance,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// LookupResult is the unified result of a stock lookup, whether served from
// cache or refreshed from upstream.
type LookupResult struct {
	Cached bool
	Stores []StoreResult
}

// StockLookupService orchestrates on-demand lookups: freshness check against
// the availability store, upstream call on miss or forced refresh, atomic
// persistence, unified response.
//
// Concurrent cache-miss lookups for the same product are not deduplicated:
// both call upstream and both write, and the later commit wins. Upstream
// results are idempotent ground truth, so the races are benign.
type StockLookupService struct {
	fetcher StockFetcher
	store   AvailabilityKeeper
	metrics *shared.ServiceMetrics
}

func NewStockLookupService(fetcher StockFetcher, store AvailabilityKeeper) *StockLookupService {
	return &StockLookupService{
		fetcher: fetcher,
		store:   store,
		metrics: shared.NewServiceMetrics("stock-lookup-service"),
	}
}

// GetMetrics returns the service counters.
func (s *StockLookupService) GetMetrics() *shared.ServiceMetrics {
	return s.metrics
}

// Lookup runs one on-demand stock check.
func (s *StockLookupService) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	if err := validateLookupRequest(req); err != nil {
		s.metrics.RecordRequest(false)
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"component":       "StockLookupService",
		"product_id":      req.ProductID,
		"zara_product_id": req.ZaraProductID,
		"force_refresh":   req.ForceRefresh,
	})

	// Even one fresh record short-circuits the whole lookup: the store set is
	// refreshed together, not per store.
	if !req.ForceRefresh {
		fresh, err := s.store.QueryFresh(ctx, req.ProductID)
		if err != nil {
			s.metrics.RecordRequest(false)
			return nil, err
		}
		if len(fresh) > 0 {
			s.metrics.RecordCacheHit()
			s.metrics.RecordRequest(true)
			logger.WithField("store_count", len(fresh)).Debug("Lookup served from cache")
			return &LookupResult{
				Cached: true,
				Stores: recordsToResults(fresh),
			}, nil
		}
	}

	shops, err := s.fetcher.FetchStoreStock(ctx, req.ZaraProductID, req.Latitude, req.Longitude)
	if err != nil {
		// No cache write on any upstream failure.
		s.metrics.RecordCacheMiss()
		s.metrics.RecordRequest(false)
		return nil, err
	}

	records := make([]models.AvailabilityRecord, 0, len(shops))
	for _, shop := range shops {
		records = append(records, models.AvailabilityRecord{
			ProductID:    req.ProductID,
			StoreID:      shop.StoreID,
			StoreName:    shop.Name,
			StoreAddress: shop.Address,
			InStock:      shop.InStock,
			Distance:     shop.Distance,
		})
	}

	// Zero shops is a valid "not available anywhere nearby" observation, not
	// an error; the write is simply empty.
	committed, err := s.store.UpsertMany(ctx, req.ProductID, records)
	if err != nil {
		s.metrics.RecordCacheMiss()
		s.metrics.RecordRequest(false)
		return nil, err
	}

	s.metrics.RecordCacheMiss()
	s.metrics.RecordRequest(true)
	logger.WithField("store_count", len(committed)).Info("Lookup refreshed from upstream")

	return &LookupResult{
		Cached: false,
		Stores: recordsToResults(committed),
	}, nil
}

func validateLookupRequest(req LookupRequest) error {
	switch {
	case req.ProductID == "":
		return invalidLookup("productId is required")
	case req.ZaraProductID == "":
		return invalidLookup("zaraProductId is required")
	// Zero coordinates are rejected as missing; callers must not rely on
	// 0,0 being accepted.
	case req.Latitude == 0 || req.Latitude < -90 || req.Latitude > 90:
		return invalidLookup("latitude is required and must be a valid non-zero coordinate")
	case req.Longitude == 0 || req.Longitude < -180 || req.Longitude > 180:
		return invalidLookup("longitude is required and must be a valid non-zero coordinate")
	}
	return nil
}

func invalidLookup(message string) error {
	return shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
		message, "stock-lookup-service", "lookup", false, nil)
}

func recordsToResults(records []models.AvailabilityRecord) []StoreResult {
	results := make([]StoreResult, 0, len(records))
	for _, record := range records {
		results = append(results, StoreResult{
			StoreID:     record.StoreID,
			StoreName:   record.StoreName,
			Address:     record.StoreAddress,
			InStock:     record.InStock,
			Distance:    record.Distance,
			LastChecked: record.LastChecked,
		})
	}
	return results
}
