package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/config"
	"github.com/fenilmodi00/soho-stock-backend/models"
	"github.com/fenilmodi00/soho-stock-backend/services"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// stubFetcher returns a fixed shop set or error for every product.
type stubFetcher struct {
	shops []services.ShopStock
	err   error
	calls int
}

func (f *stubFetcher) FetchStoreStock(ctx context.Context, zaraProductID string, latitude, longitude float64) ([]services.ShopStock, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.shops, nil
}

// stubKeeper is a minimal in-memory availability keeper.
type stubKeeper struct {
	records map[string][]models.AvailabilityRecord
}

func newStubKeeper() *stubKeeper {
	return &stubKeeper{records: make(map[string][]models.AvailabilityRecord)}
}

func (k *stubKeeper) QueryFresh(ctx context.Context, productID string) ([]models.AvailabilityRecord, error) {
	now := time.Now()
	var fresh []models.AvailabilityRecord
	for _, record := range k.records[productID] {
		if record.IsFresh(now) {
			fresh = append(fresh, record)
		}
	}
	return fresh, nil
}

func (k *stubKeeper) UpsertMany(ctx context.Context, productID string, records []models.AvailabilityRecord) ([]models.AvailabilityRecord, error) {
	now := time.Now()
	committed := make([]models.AvailabilityRecord, 0, len(records))
	for _, record := range records {
		record.ProductID = productID
		record.LastChecked = now
		record.ExpiresAt = now.Add(time.Hour)
		committed = append(committed, record)
	}
	k.records[productID] = committed
	return committed, nil
}

func (k *stubKeeper) GetRecord(ctx context.Context, productID, storeID string) (*models.AvailabilityRecord, error) {
	for _, record := range k.records[productID] {
		if record.StoreID == storeID {
			return &record, nil
		}
	}
	return nil, nil
}

func newStockTestApp(fetcher services.StockFetcher) *fiber.App {
	app := fiber.New()
	lookupService := services.NewStockLookupService(fetcher, newStubKeeper())
	handler := NewStockHandler(lookupService)
	app.All("/api/v1/stock/check", handler.CheckStock)
	return app
}

func checkStockRequest(t *testing.T, app *fiber.App, method, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	request := httptest.NewRequest(method, "/api/v1/stock/check", reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	response.Body.Close()
	return response, payload
}

func TestCheckStockRejectsNonPost(t *testing.T) {
	app := newStockTestApp(&stubFetcher{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		response, payload := checkStockRequest(t, app, method, "")
		if response.StatusCode != fiber.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, response.StatusCode)
		}
		if payload["success"] != false {
			t.Errorf("%s: expected success=false, got %v", method, payload["success"])
		}
	}
}

func TestCheckStockRejectsMalformedBody(t *testing.T) {
	app := newStockTestApp(&stubFetcher{})

	response, payload := checkStockRequest(t, app, http.MethodPost, `{"productId":`)
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", response.StatusCode)
	}
	if payload["success"] != false {
		t.Errorf("expected success=false, got %v", payload["success"])
	}
}

func TestCheckStockRejectsMissingCoordinates(t *testing.T) {
	fetcher := &stubFetcher{}
	app := newStockTestApp(fetcher)

	body := `{"productId": "p1", "zaraProductId": "1845", "longitude": -74.0}`
	response, payload := checkStockRequest(t, app, http.MethodPost, body)

	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing latitude, got %d", response.StatusCode)
	}
	if payload["code"] != shared.CodeInvalidRequest {
		t.Errorf("expected code %s, got %v", shared.CodeInvalidRequest, payload["code"])
	}
	if fetcher.calls != 0 {
		t.Error("invalid requests must not reach upstream")
	}
}

func TestCheckStockSuccess(t *testing.T) {
	address := "503 Broadway"
	fetcher := &stubFetcher{
		shops: []services.ShopStock{
			{StoreID: "5731", Name: "SoHo", Address: &address, StockStatus: "in_stock", InStock: true},
		},
	}
	app := newStockTestApp(fetcher)

	body := `{"productId": "p1", "zaraProductId": 1845, "latitude": 40.7243, "longitude": -74.0018}`
	response, payload := checkStockRequest(t, app, http.MethodPost, body)

	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	if payload["success"] != true {
		t.Errorf("expected success=true, got %v", payload["success"])
	}
	if payload["cached"] != false {
		t.Errorf("first lookup should not be cached, got %v", payload["cached"])
	}

	stores, ok := payload["stores"].([]interface{})
	if !ok || len(stores) != 1 {
		t.Fatalf("expected 1 store in response, got %v", payload["stores"])
	}
	store, ok := stores[0].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected store shape: %v", stores[0])
	}
	if store["storeId"] != "5731" || store["inStock"] != true {
		t.Errorf("unexpected store payload: %v", store)
	}
	if store["lastChecked"] == nil {
		t.Error("store payload should carry the committed check timestamp")
	}
}

func TestCheckStockSecondCallServedFromCache(t *testing.T) {
	fetcher := &stubFetcher{
		shops: []services.ShopStock{
			{StoreID: "5731", Name: "SoHo", StockStatus: "in_stock", InStock: true},
		},
	}
	app := newStockTestApp(fetcher)

	body := `{"productId": "p1", "zaraProductId": "1845", "latitude": 40.7243, "longitude": -74.0018}`
	checkStockRequest(t, app, http.MethodPost, body)
	response, payload := checkStockRequest(t, app, http.MethodPost, body)

	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	if payload["cached"] != true {
		t.Errorf("repeat lookup should be cached, got %v", payload["cached"])
	}
	if fetcher.calls != 1 {
		t.Errorf("cache hit must not call upstream again, got %d calls", fetcher.calls)
	}
}

func TestCheckStockErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"product not found",
			shared.NewServiceError(shared.ErrorCategoryNotFound, shared.CodeProductNotFound,
				"product 1845 not found upstream", "zara-stock-client", "fetch_store_stock", false, nil),
			fiber.StatusNotFound, shared.CodeProductNotFound,
		},
		{
			"upstream timeout",
			shared.NewServiceError(shared.ErrorCategoryTimeout, shared.CodeUpstreamTimeout,
				"upstream stock lookup timed out", "zara-stock-client", "fetch_store_stock", true, nil),
			fiber.StatusGatewayTimeout, shared.CodeUpstreamTimeout,
		},
		{
			"upstream unavailable",
			shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeUpstreamUnavailable,
				"upstream returned HTTP 502", "zara-stock-client", "fetch_store_stock", true, nil),
			fiber.StatusInternalServerError, shared.CodeUpstreamUnavailable,
		},
	}

	body := `{"productId": "p1", "zaraProductId": "1845", "latitude": 40.7243, "longitude": -74.0018}`
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newStockTestApp(&stubFetcher{err: tc.err})

			response, payload := checkStockRequest(t, app, http.MethodPost, body)
			if response.StatusCode != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, response.StatusCode)
			}
			if payload["code"] != tc.wantCode {
				t.Errorf("expected code %s, got %v", tc.wantCode, payload["code"])
			}
			if payload["success"] != false {
				t.Errorf("expected success=false, got %v", payload["success"])
			}
		})
	}
}

// sweepStubCatalog backs the sweep handler tests.
type sweepStubCatalog struct {
	products []models.Product
	flags    map[uuid.UUID]bool
}

func (c *sweepStubCatalog) ListByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return c.products, nil
}

func (c *sweepStubCatalog) ApplySohoFlags(ctx context.Context, updates []services.SohoFlagUpdate) (int, error) {
	if c.flags == nil {
		c.flags = make(map[uuid.UUID]bool)
	}
	for _, update := range updates {
		c.flags[update.ProductID] = update.InStock
	}
	return len(updates), nil
}

func newSweepTestApp(catalog *sweepStubCatalog, fetcher services.StockFetcher) *fiber.App {
	app := fiber.New()
	sweepService := services.NewSohoSweepService(catalog, fetcher, config.SweepConfig{
		Brand:     "Zara",
		StoreID:   "5731",
		Latitude:  40.7243,
		Longitude: -74.0018,
		ChunkSize: 200,
	})
	handler := NewSweepHandler(sweepService)
	app.All("/api/v1/stock/soho-sweep", handler.TriggerSweep)
	return app
}

func TestTriggerSweepEmptyCatalogMessage(t *testing.T) {
	app := newSweepTestApp(&sweepStubCatalog{}, &stubFetcher{})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/stock/soho-sweep", nil)
	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if payload["message"] == nil || payload["message"] == "" {
		t.Errorf("expected an explanatory message, got %v", payload)
	}
	if _, hasDetails := payload["details"]; hasDetails {
		t.Errorf("empty-catalog response should omit details: %v", payload)
	}
}

func TestTriggerSweepReportsSummary(t *testing.T) {
	zaraID := "1845"
	catalog := &sweepStubCatalog{
		products: []models.Product{
			{ID: uuid.New(), Name: "Jacket", Brand: "Zara", ZaraProductID: &zaraID},
		},
	}
	fetcher := &stubFetcher{
		shops: []services.ShopStock{
			{StoreID: "5731", Name: "SoHo", StockStatus: "in_stock", InStock: true},
		},
	}
	app := newSweepTestApp(catalog, fetcher)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/stock/soho-sweep", nil)
	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}

	var payload struct {
		Success      bool                   `json:"success"`
		UpdatedCount int                    `json:"updatedCount"`
		Details      []services.SweepDetail `json:"details"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if !payload.Success {
		t.Error("expected success=true")
	}
	if payload.UpdatedCount != 1 {
		t.Errorf("expected 1 updated product, got %d", payload.UpdatedCount)
	}
	if len(payload.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(payload.Details))
	}
	detail := payload.Details[0]
	if detail.IsAvailable == nil || !*detail.IsAvailable {
		t.Errorf("expected the product flagged available: %+v", detail)
	}
}
