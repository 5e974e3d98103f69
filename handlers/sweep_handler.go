package handlers

import (
	"github.com/fenilmodi00/soho-stock-backend/services"
	"github.com/fenilmodi00/soho-stock-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type SweepHandler struct {
	SweepService *services.SohoSweepService
}

func NewSweepHandler(sweepService *services.SohoSweepService) *SweepHandler {
	return &SweepHandler{SweepService: sweepService}
}

// TriggerSweep handles the manual sweep trigger. Any HTTP method is accepted
// and no body is required; the response is the sweep's diagnostic summary.
func (h *SweepHandler) TriggerSweep(c *fiber.Ctx) error {
	summary, err := h.SweepService.Run(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    shared.CodeOf(err),
			"error":   shared.MessageOf(err),
		})
	}

	if summary.Message != "" && len(summary.Details) == 0 {
		return c.JSON(fiber.Map{
			"message": summary.Message,
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"updatedCount": summary.UpdatedCount,
		"details":      summary.Details,
	})
}
