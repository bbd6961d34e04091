package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
)

type PayoutHandler struct {
	Service *payout.Service
}

// RegisterRoutes mounts the payout endpoints on the router group.
func (h *PayoutHandler) RegisterRoutes(api fiber.Router) {
	api.Post("/payouts", h.Create)
	api.Get("/payouts", h.List)
	api.Get("/payouts/:id", h.Get)
	api.Patch("/payouts/:id", h.Update)
	api.Put("/payouts/:id", h.Update)
	api.Delete("/payouts/:id", h.Delete)
}

type createPayoutRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	RecipientDetails map[string]any  `json:"recipient_details"`
	Description      string          `json:"description"`
}

type updatePayoutRequest struct {
	Amount           *decimal.Decimal `json:"amount"`
	Currency         *string          `json:"currency"`
	RecipientDetails map[string]any   `json:"recipient_details"`
	Description      *string          `json:"description"`
}

type payoutResponse struct {
	ID               uuid.UUID      `json:"id"`
	Amount           string         `json:"amount"`
	Currency         string         `json:"currency"`
	RecipientDetails map[string]any `json:"recipient_details"`
	Status           string         `json:"status"`
	Description      *string        `json:"description"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toResponse(p *domain.Payout) payoutResponse {
	var desc *string
	if p.Description != "" {
		desc = &p.Description
	}

	return payoutResponse{
		ID:               p.ID,
		Amount:           p.Amount.StringFixed(2),
		Currency:         string(p.Currency),
		RecipientDetails: p.RecipientDetails,
		Status:           string(p.Status),
		Description:      desc,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (h *PayoutHandler) Create(c *fiber.Ctx) error {
	var req createPayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body."})
	}

	created, err := h.Service.Create(c.Context(), payout.CreateInput{
		Amount:           req.Amount,
		Currency:         req.Currency,
		RecipientDetails: req.RecipientDetails,
		Description:      req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toResponse(created))
}

func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Payout not found."})
	}

	p, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toResponse(p))
}

func (h *PayoutHandler) List(c *fiber.Ctx) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	payouts, err := h.Service.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	results := make([]payoutResponse, 0, len(payouts))
	for _, p := range payouts {
		results = append(results, toResponse(p))
	}

	return c.JSON(fiber.Map{"count": len(results), "results": results})
}

func (h *PayoutHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Payout not found."})
	}

	var req updatePayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body."})
	}

	updated, err := h.Service.Update(c.Context(), id, payout.UpdateInput{
		Amount:           req.Amount,
		Currency:         req.Currency,
		RecipientDetails: req.RecipientDetails,
		Description:      req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toResponse(updated))
}

func (h *PayoutHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Payout not found."})
	}

	if err := h.Service.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseListFilter(c *fiber.Ctx) (payout.ListFilter, error) {
	var filter payout.ListFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return filter, errors.New("invalid status filter")
		}

		filter.Status = status
	}

	filter.Currency = c.Query("currency")

	if raw := c.Query("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("created_after must be an RFC 3339 timestamp")
		}

		filter.CreatedAfter = t
	}

	if raw := c.Query("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("created_before must be an RFC 3339 timestamp")
		}

		filter.CreatedBefore = t
	}

	if raw := c.Query("min_amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.New("min_amount must be a decimal number")
		}

		filter.MinAmount = &d
	}

	if raw := c.Query("max_amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.New("max_amount must be a decimal number")
		}

		filter.MaxAmount = &d
	}

	filter.Limit = c.QueryInt("limit")
	filter.Offset = c.QueryInt("offset")

	return filter, nil
}

func respondError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": ve.Error()})
	case errors.Is(err, payout.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Payout not found."})
	case errors.Is(err, payout.ErrNotUpdatable):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "Only PENDING payouts can be updated."})
	default:
		slog.Error("payout request failed", "path", c.Path(), "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "Internal server error."})
	}
}
