// Package holdings exposes the holding lifecycle over HTTP.
package holdings

import (
	"errors"
	"strconv"
	"strings"
	"time"

	holdingsvc "fundtrack-backend/internal/application/holdings"
	"fundtrack-backend/internal/domain"
	"fundtrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handlers wires the lifecycle service to Fiber routes.
type Handlers struct {
	Service *holdingsvc.Service
}

type createRequest struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
}

// Create handles POST /holdings.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.Code == "" || req.Amount == nil || *req.Amount <= 0 {
		return response.Error(c, "code and a positive amount are required", fiber.StatusBadRequest, nil)
	}

	holding, err := h.Service.Create(c.Context(), holdingsvc.CreateInput{
		Code:   req.Code,
		Name:   req.Name,
		Amount: decimal.NewFromFloat(*req.Amount),
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return response.SuccessCreated(c, "Holding created", holding, nil)
}

// List handles GET /holdings.
func (h *Handlers) List(c *fiber.Ctx) error {
	holdings, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Holdings retrieved", holdings, nil)
}

type updateAmountRequest struct {
	Amount *float64 `json:"amount"`
}

// UpdateAmount handles PATCH /holdings/:code/amount.
func (h *Handlers) UpdateAmount(c *fiber.Ctx) error {
	var req updateAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.Amount == nil || *req.Amount <= 0 {
		return response.Error(c, "a positive amount is required", fiber.StatusBadRequest, nil)
	}

	holding, err := h.Service.UpdateAmount(c.Context(), c.Params("code"), decimal.NewFromFloat(*req.Amount))
	if err != nil {
		return mapServiceError(c, err)
	}
	return response.Success(c, "Holding amount updated", holding, nil)
}

// Delete handles DELETE /holdings/:code.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.Context(), c.Params("code")); err != nil {
		return mapServiceError(c, err)
	}
	return response.Success(c, "Holding deleted", nil, nil)
}

// Export handles GET /holdings/export.
func (h *Handlers) Export(c *fiber.Ctx) error {
	records, err := h.Service.Export(c.Context())
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Holdings exported", records, nil)
}

// Import handles POST /holdings/import?overwrite=true.
func (h *Handlers) Import(c *fiber.Ctx) error {
	var records []holdingsvc.ExportRecord
	if err := c.BodyParser(&records); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	overwrite := c.QueryBool("overwrite")

	imported, skipped, err := h.Service.Import(c.Context(), records, overwrite)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Holdings imported", fiber.Map{
		"imported": imported,
		"skipped":  skipped,
	}, nil)
}

// History handles GET /holdings/:code/history?start=&end=&ma=5,10.
func (h *Handlers) History(c *fiber.Ctx) error {
	start, err := parseDateQuery(c.Query("start"))
	if err != nil {
		return response.Error(c, "start must be YYYY-MM-DD", fiber.StatusBadRequest, nil)
	}
	end, err := parseDateQuery(c.Query("end"))
	if err != nil {
		return response.Error(c, "end must be YYYY-MM-DD", fiber.StatusBadRequest, nil)
	}
	windows, err := ParseMAWindows(c.Query("ma"))
	if err != nil {
		return response.Error(c, "ma must be a comma-separated list of positive integers", fiber.StatusBadRequest, nil)
	}

	points, err := h.Service.History(c.Context(), c.Params("code"), start, end, windows)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "History retrieved", points, nil)
}

func parseDateQuery(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseMAWindows parses a "5,10,20" query value.
func ParseMAWindows(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	windows := make([]int, 0, len(parts))
	for _, part := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || w <= 0 {
			return nil, errors.New("invalid moving average window")
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrHoldingExists):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, domain.ErrHoldingNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, domain.ErrInvalidNav), errors.Is(err, domain.ErrNameResolutionFailed):
		return response.Error(c, err.Error(), fiber.StatusUnprocessableEntity, nil)
	default:
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
}
