package handlers

import (
	"encoding/json"

	"github.com/fenilmodi00/soho-stock-backend/services"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	LookupService *services.StockLookupService
}

func NewStockHandler(lookupService *services.StockLookupService) *StockHandler {
	return &StockHandler{LookupService: lookupService}
}

// stockCheckRequest is the inbound lookup body. zaraProductId arrives as a
// string or a number depending on the mobile client version, so it is decoded
// raw and normalized.
type stockCheckRequest struct {
	ProductID     string          `json:"productId"`
	ZaraProductID json.RawMessage `json:"zaraProductId"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	ForceRefresh  bool            `json:"forceRefresh"`
}

// CheckStock handles POST /api/v1/stock/check. The route is registered for
// all methods so non-POST requests get an explicit 405.
func (h *StockHandler) CheckStock(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"success": false,
			"error":   "method not allowed, use POST",
		})
	}

	var req stockCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	result, err := h.LookupService.Lookup(c.Context(), services.LookupRequest{
		ProductID:     req.ProductID,
		ZaraProductID: services.NormalizeIdentifier(req.ZaraProductID),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		ForceRefresh:  req.ForceRefresh,
	})
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"success": false,
			"code":    shared.CodeOf(err),
			"error":   shared.MessageOf(err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cached":  result.Cached,
		"stores":  result.Stores,
	})
}

// statusForError maps the error taxonomy onto HTTP statuses: caller errors are
// 4xx, upstream timeouts are gateway timeouts, everything else is a 500.
func statusForError(err error) int {
	switch shared.CodeOf(err) {
	case shared.CodeInvalidRequest:
		return fiber.StatusBadRequest
	case shared.CodeProductNotFound:
		return fiber.StatusNotFound
	case shared.CodeUpstreamTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
