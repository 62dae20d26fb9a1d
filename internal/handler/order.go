package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/service"
)

type createOrderRequest struct {
	Cart map[string]int `json:"cart"`
}

func CreateOrderHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		o, err := engine.Create(r.Context(), req.Cart)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"order_id": o.ID,
			"amount":   o.Amount,
			"status":   o.Status,
		})
	}
}

type submitEmailRequest struct {
	OrderID string         `json:"order_id"`
	Email   string         `json:"email"`
	Cart    map[string]int `json:"cart,omitempty"`
}

func SubmitEmailHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if req.OrderID == "" {
			writeError(w, http.StatusBadRequest, "order_id_required", "order_id is required")
			return
		}

		o, notified, err := engine.SubmitEmail(r.Context(), req.OrderID, req.Email, req.Cart)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"order_id": o.ID,
			"email":    o.Email,
			"amount":   o.Amount,
			"notified": notified,
		})
	}
}

type submitCodeRequest struct {
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
	Code    string `json:"code"`
}

func SubmitCodeHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if req.OrderID == "" {
			writeError(w, http.StatusBadRequest, "order_id_required", "order_id is required")
			return
		}

		o, _, err := engine.SubmitCode(r.Context(), req.OrderID, req.Email, req.Code)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"order_id": o.ID,
			"status":   "pending",
		})
	}
}

func GetOrderHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		o, err := engine.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, o.Public())
	}
}
