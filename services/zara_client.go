package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/sirupsen/logrus"
)

// ShopStock is the canonical per-shop entry normalized from the upstream
// stock-by-location response.
type ShopStock struct {
	StoreID     string
	Name        string
	Address     *string
	Distance    *float64
	StockStatus string
	InStock     bool

	// rawIDs keeps every identifier representation the upstream sent for this
	// shop (numeric id, string shopId). The upstream is inconsistent about
	// which field it uses and whether it is a number or a string, so store
	// matching compares against all of them.
	rawIDs []string
}

// MatchesStore reports whether this shop entry refers to the given store,
// comparing the canonical identifier and every raw representation.
func (s *ShopStock) MatchesStore(storeID string) bool {
	target := strings.TrimSpace(storeID)
	if target == "" {
		return false
	}
	if s.StoreID == target {
		return true
	}
	for _, raw := range s.rawIDs {
		if raw == target {
			return true
		}
	}
	return false
}

// StockFetcher is the outbound dependency of both orchestrators. The concrete
// implementation is ZaraStockClient; tests substitute a fake.
type StockFetcher interface {
	FetchStoreStock(ctx context.Context, zaraProductID string, latitude, longitude float64) ([]ShopStock, error)
}

// ZaraStockClient issues single lookups against Zara's public stock-by-location
// endpoint. It is stateless and never retries; retry policy belongs to callers.
type ZaraStockClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewZaraStockClient creates a stock client with the given endpoint base URL
// and hard request timeout.
func NewZaraStockClient(baseURL string, timeout time.Duration) *ZaraStockClient {
	factory := shared.NewHTTPClientFactory(timeout)
	return &ZaraStockClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: factory.CreateOptimizedHTTPClient(timeout),
	}
}

type upstreamShop struct {
	ID          json.RawMessage `json:"id"`
	ShopID      json.RawMessage `json:"shopId"`
	Name        string          `json:"name"`
	Address     *string         `json:"address"`
	Distance    *float64        `json:"distance"`
	StockStatus string          `json:"stockStatus"`
}

type upstreamStockResponse struct {
	Shops []upstreamShop `json:"shops"`
}

// FetchStoreStock performs one GET against the stock endpoint for the given
// upstream product identifier and coordinate, and normalizes the response.
func (c *ZaraStockClient) FetchStoreStock(ctx context.Context, zaraProductID string, latitude, longitude float64) ([]ShopStock, error) {
	if zaraProductID == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
			"zara product id is required", "zara-stock-client", "fetch_store_stock", false, nil)
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
			"coordinates must be valid decimal degrees", "zara-stock-client", "fetch_store_stock", false, nil)
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%g", latitude))
	query.Set("longitude", fmt.Sprintf("%g", longitude))
	query.Set("productIds", zaraProductID)
	requestURL := c.baseURL + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, shared.CodeUpstreamUnavailable,
			"zara-stock-client", "fetch_store_stock", false)
	}
	shared.SetBrowserLikeHeaders(request, "application/json")

	logrus.WithFields(logrus.Fields{
		"component":       "ZaraStockClient",
		"zara_product_id": zaraProductID,
		"latitude":        latitude,
		"longitude":       longitude,
	}).Debug("Requesting store stock from upstream")

	response, err := c.httpClient.Do(request)
	if err != nil {
		if isTimeoutError(err) {
			return nil, shared.NewServiceError(shared.ErrorCategoryTimeout, shared.CodeUpstreamTimeout,
				"upstream stock lookup timed out", "zara-stock-client", "fetch_store_stock", true, err)
		}
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeUpstreamUnavailable,
			fmt.Sprintf("upstream request failed: %v", err), "zara-stock-client", "fetch_store_stock", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, shared.NewServiceError(shared.ErrorCategoryNotFound, shared.CodeProductNotFound,
			fmt.Sprintf("product %s not found upstream", zaraProductID), "zara-stock-client", "fetch_store_stock", false, nil)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned HTTP %d: %s", response.StatusCode, strings.TrimSpace(string(body))),
			"zara-stock-client", "fetch_store_stock", true, nil)
	}

	var payload upstreamStockResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeUpstreamUnavailable,
			fmt.Sprintf("failed to decode upstream response: %v", err), "zara-stock-client", "fetch_store_stock", false, err)
	}

	shops := make([]ShopStock, 0, len(payload.Shops))
	for _, raw := range payload.Shops {
		shops = append(shops, normalizeShop(raw))
	}

	logrus.WithFields(logrus.Fields{
		"component":       "ZaraStockClient",
		"zara_product_id": zaraProductID,
		"shop_count":      len(shops),
	}).Debug("Normalized upstream store stock response")

	return shops, nil
}

// normalizeShop converts a raw upstream shop entry into the canonical shape.
// The canonical store identifier prefers the explicit shop identifier; shops
// without one get a deterministic slug of the store name so that re-runs
// address the same synthetic key.
func normalizeShop(raw upstreamShop) ShopStock {
	shop := ShopStock{
		Name:        strings.TrimSpace(raw.Name),
		Address:     raw.Address,
		Distance:    raw.Distance,
		StockStatus: raw.StockStatus,
		InStock:     raw.StockStatus == "in_stock",
	}

	for _, candidate := range []json.RawMessage{raw.ID, raw.ShopID} {
		if id := NormalizeIdentifier(candidate); id != "" {
			shop.rawIDs = append(shop.rawIDs, id)
		}
	}

	if len(shop.rawIDs) > 0 {
		shop.StoreID = shop.rawIDs[0]
	} else {
		shop.StoreID = SlugifyStoreName(shop.Name)
	}

	return shop
}

// NormalizeIdentifier converts an identifier that may arrive as a JSON string
// or number into one canonical string form.
func NormalizeIdentifier(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}

	return ""
}

// SlugifyStoreName derives a deterministic synthetic store identifier from a
// display name, for shops the upstream returns without any identifier.
func SlugifyStoreName(name string) string {
	var builder strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			builder.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimRight(builder.String(), "-")
	if slug == "" {
		return "store-unknown"
	}
	return "store-" + slug
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}
