// Package charts exposes NAV chart rendering over HTTP.
package charts

import (
	"errors"
	"fmt"

	chartsvc "fundtrack-backend/internal/application/charts"
	holdingsvc "fundtrack-backend/internal/application/holdings"
	holdingshttp "fundtrack-backend/internal/interfaces/handlers/holdings"
	"fundtrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers renders PNG charts from stored NAV history.
type Handlers struct {
	Holdings *holdingsvc.Service
}

// NavChart handles GET /charts/:code/nav.png?ma=5,10.
func (h *Handlers) NavChart(c *fiber.Ctx) error {
	code := c.Params("code")
	windows, err := holdingshttp.ParseMAWindows(c.Query("ma"))
	if err != nil {
		return response.Error(c, "ma must be a comma-separated list of positive integers", fiber.StatusBadRequest, nil)
	}

	points, err := h.Holdings.History(c.Context(), code, nil, nil, windows)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}

	png, err := chartsvc.RenderNav(fmt.Sprintf("Fund %s NAV", code), points)
	if err != nil {
		if errors.Is(err, chartsvc.ErrNotEnoughData) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
