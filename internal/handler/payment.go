package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/gateway"
	"storefront/internal/service"
)

type checkoutRequest struct {
	Cart   map[string]int `json:"cart"`
	Method string         `json:"method"`
}

// CheckoutHandler creates an order from the cart and immediately initiates
// payment for it.
func CheckoutHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		o, err := engine.Create(r.Context(), req.Cart)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		url, o, err := engine.InitiatePayment(r.Context(), o.ID, req.Method)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"redirect_url": url,
			"order_id":     o.ID,
			"amount":       o.Amount,
		})
	}
}

type initiatePaymentRequest struct {
	Method string `json:"method"`
}

func InitiatePaymentHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req initiatePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		url, o, err := engine.InitiatePayment(r.Context(), id, req.Method)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"redirect_url": url,
			"order_id":     o.ID,
			"amount":       o.Amount,
		})
	}
}

// WebhookHandler receives the gateway's signed payment callbacks. The
// signature check is the authentication boundary: 403 on mismatch, 200 for
// everything else so the gateway does not retry into a dead end.
func WebhookHandler(engine *service.Lifecycle, gw *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		if !gw.VerifyWebhook(payload) {
			writeError(w, http.StatusForbidden, "invalid_signature", "signature verification failed")
			return
		}

		orderID, _ := payload["order_id"].(string)
		status, _ := payload["status"].(string)

		var success bool
		switch status {
		case "success", "paid":
			success = true
		case "fail", "failed", "error":
			success = false
		default:
			slog.Warn("webhook with unknown status ignored", "order_id", orderID, "status", status)
			writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
			return
		}

		_, err := engine.ApplyPayment(r.Context(), orderID, success)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
		case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrOrderFinalized):
			// Nothing meaningful for the gateway to retry into.
			slog.Warn("webhook ignored", "order_id", orderID, "reason", err)
			writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		default:
			// Storage failure: let the gateway retry.
			writeServiceError(w, err)
		}
	}
}
