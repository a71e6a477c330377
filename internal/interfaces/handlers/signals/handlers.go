// Package signals exposes strategy evaluation over HTTP.
package signals

import (
	"errors"

	signalsvc "fundtrack-backend/internal/application/signals"
	"fundtrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers wires the signal service to Fiber routes.
type Handlers struct {
	Service *signalsvc.Service
}

// Evaluate handles GET /signals/:kind/:code?holding=true.
func (h *Handlers) Evaluate(c *fiber.Ctx) error {
	var holdingFlag *bool
	if c.Query("holding") != "" {
		v := c.QueryBool("holding")
		holdingFlag = &v
	}

	result, err := h.Service.Evaluate(c.Context(), c.Params("kind"), c.Params("code"), holdingFlag)
	if err != nil {
		if errors.Is(err, signalsvc.ErrUnknownKind) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Signal evaluated", result, nil)
}

// Runs handles GET /signals/runs/:code?limit=.
func (h *Handlers) Runs(c *fiber.Ctx) error {
	runs, err := h.Service.Runs(c.Context(), c.Params("code"), c.QueryInt("limit"))
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Signal runs retrieved", runs, nil)
}
