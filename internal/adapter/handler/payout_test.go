package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhebs/payout-service/internal/adapter/handler"
	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/payout"
	"github.com/arhebs/payout-service/internal/core/payout/payouttest"
)

func newTestApp(t *testing.T) (*fiber.App, *payout.Service, *payouttest.Store) {
	t.Helper()

	store := payouttest.NewStore()
	svc := payout.NewService(store, payouttest.NewQueue())

	app := fiber.New()
	h := &handler.PayoutHandler{Service: svc}
	h.RegisterRoutes(app.Group("/api"))

	return app, svc, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp, decoded
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	require.NoError(t, err)

	return d
}

func createPayload() map[string]any {
	return map[string]any{
		"amount":            "100.00",
		"currency":          "USD",
		"recipient_details": map[string]any{"account_number": "1234567890"},
		"description":       "Contractor payment",
	}
}

func TestCreatePayout(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/payouts", createPayload())

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "100.00", body["amount"])
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "Contractor payment", body["description"])
	assert.NotEmpty(t, body["id"])

	_, err := uuid.Parse(body["id"].(string))
	assert.NoError(t, err)
}

func TestCreatePayoutAcceptsNumericAmount(t *testing.T) {
	app, _, _ := newTestApp(t)

	payload := createPayload()
	payload["amount"] = 250.5

	resp, body := doJSON(t, app, http.MethodPost, "/api/payouts", payload)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "250.50", body["amount"])
}

func TestCreatePayoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(payload map[string]any)
	}{
		{"zero amount", func(p map[string]any) { p["amount"] = "0" }},
		{"negative amount", func(p map[string]any) { p["amount"] = "-5.00" }},
		{"amount too large", func(p map[string]any) { p["amount"] = "1000000000.00" }},
		{"unknown currency", func(p map[string]any) { p["currency"] = "JPY" }},
		{"missing recipient details", func(p map[string]any) { delete(p, "recipient_details") }},
		{"short account number", func(p map[string]any) {
			p["recipient_details"] = map[string]any{"account_number": "1234"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp(t)

			payload := createPayload()
			tt.mutate(payload)

			resp, body := doJSON(t, app, http.MethodPost, "/api/payouts", payload)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestGetPayout(t *testing.T) {
	app, svc, _ := newTestApp(t)

	created, err := svc.Create(context.Background(), payout.CreateInput{
		Amount:           mustDecimal(t, "42.00"),
		Currency:         "GBP",
		RecipientDetails: map[string]any{"account_number": "1234567890"},
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/payouts/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID.String(), body["id"])
	assert.Equal(t, "42.00", body["amount"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/payouts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/payouts/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPayouts(t *testing.T) {
	app, svc, _ := newTestApp(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), payout.CreateInput{
			Amount:           mustDecimal(t, fmt.Sprintf("%d.00", (i+1)*100)),
			Currency:         "USD",
			RecipientDetails: map[string]any{"account_number": "1234567890"},
		})
		require.NoError(t, err)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/payouts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["count"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/payouts?status=PENDING&min_amount=150", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["count"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/payouts?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["detail"])
}

func TestUpdatePayout(t *testing.T) {
	app, svc, store := newTestApp(t)

	created, err := svc.Create(context.Background(), payout.CreateInput{
		Amount:           mustDecimal(t, "100.00"),
		Currency:         "USD",
		RecipientDetails: map[string]any{"account_number": "1234567890"},
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPatch, "/api/payouts/"+created.ID.String(),
		map[string]any{"amount": "200.00"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200.00", body["amount"])

	// The same request against a COMPLETED payout is rejected and nothing
	// is written.
	require.NoError(t, store.SetStatus(context.Background(), created.ID, domain.StatusCompleted))

	resp, body = doJSON(t, app, http.MethodPatch, "/api/payouts/"+created.ID.String(),
		map[string]any{"amount": "300.00"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only PENDING payouts can be updated.", body["detail"])

	stored, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", stored.Amount.StringFixed(2))
}

func TestDeletePayout(t *testing.T) {
	app, svc, _ := newTestApp(t)

	created, err := svc.Create(context.Background(), payout.CreateInput{
		Amount:           mustDecimal(t, "10.00"),
		Currency:         "USD",
		RecipientDetails: map[string]any{"account_number": "1234567890"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/payouts/"+created.ID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/payouts/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
