package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/gateway"
	"storefront/internal/service"
	"storefront/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps service/store/gateway errors onto the HTTP error
// taxonomy. Unrecognized errors are logged and surface as internal_error.
func writeServiceError(w http.ResponseWriter, err error) {
	var up *gateway.UpstreamError

	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, "duplicate_id", err.Error())
	case errors.Is(err, service.ErrEmailMismatch):
		writeError(w, http.StatusConflict, "email_mismatch", err.Error())
	case errors.Is(err, service.ErrOrderFinalized):
		writeError(w, http.StatusConflict, "order_finalized", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid_email", err.Error())
	case errors.Is(err, service.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, "email_required", err.Error())
	case errors.Is(err, service.ErrCodeRequired):
		writeError(w, http.StatusBadRequest, "code_required", err.Error())
	case errors.Is(err, service.ErrInvalidCart):
		writeError(w, http.StatusBadRequest, "invalid_cart", err.Error())
	case errors.Is(err, service.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, service.ErrCartLimitExceeded):
		writeError(w, http.StatusBadRequest, "cart_limit_exceeded", err.Error())
	case errors.Is(err, service.ErrPaymentNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "payment_not_configured", err.Error())
	case errors.As(err, &up):
		writeError(w, http.StatusBadGateway, "gateway_error", up.Error())
	case errors.Is(err, gateway.ErrNoRedirectURL):
		writeError(w, http.StatusBadGateway, "gateway_protocol_error", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		// Distinct code so operators can decide on a manual retry; the
		// adapter never retries on its own.
		writeError(w, http.StatusGatewayTimeout, "gateway_timeout", "upstream call timed out")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
