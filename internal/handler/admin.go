package handler

import (
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/store"
)

type adminLoginRequest struct {
	Secret string `json:"secret"`
}

// AdminLoginHandler exchanges the shared secret for a short-lived bearer
// token so the dashboard does not have to hold the raw secret in every tab.
func AdminLoginHandler(adminSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		if adminSecret == "" ||
			subtle.ConstantTimeCompare([]byte(req.Secret), []byte(adminSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid secret")
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": "admin",
			"exp":  jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
		})
		tokenString, err := token.SignedString([]byte(adminSecret))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "token generation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
	}
}

func listFilterFromQuery(r *http.Request) store.ListFilter {
	f := store.ListFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		f.Status = model.Status(s)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	return f
}

func AdminListOrdersHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := engine.List(r.Context(), listFilterFromQuery(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if orders == nil {
			orders = []model.Order{}
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func AdminExportOrdersHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := engine.List(r.Context(), listFilterFromQuery(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"id", "status", "amount", "email", "payment_status", "payment_method", "created_at", "updated_at", "admin_comment"})
		for _, o := range orders {
			_ = cw.Write([]string{
				o.ID,
				string(o.Status),
				strconv.FormatInt(o.Amount, 10),
				o.Email,
				string(o.PaymentStatus),
				o.PaymentMethod,
				o.CreatedAt.Format(time.RFC3339),
				o.UpdatedAt.Format(time.RFC3339),
				o.AdminComment,
			})
		}
		cw.Flush()
	}
}

type setStatusRequest struct {
	Status  model.Status `json:"status"`
	Comment string       `json:"comment,omitempty"`
}

func AdminSetStatusHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if req.Status != model.StatusCompleted && req.Status != model.StatusRejected {
			writeError(w, http.StatusBadRequest, "invalid_status",
				fmt.Sprintf("status must be %q or %q", model.StatusCompleted, model.StatusRejected))
			return
		}

		o, err := engine.Decide(r.Context(), id, req.Status, req.Comment)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func AdminCommentHandler(engine *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}

		o, err := engine.Comment(r.Context(), id, req.Comment)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func AdminGetSettingsHandler(settings store.SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ceiling, err := settings.CartCeiling(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"cart_ceiling": ceiling})
	}
}

type settingsRequest struct {
	CartCeiling int64 `json:"cart_ceiling"`
}

func AdminSetSettingsHandler(settings store.SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if req.CartCeiling < 0 {
			writeError(w, http.StatusBadRequest, "invalid_setting", "cart_ceiling must not be negative")
			return
		}

		if err := settings.SetCartCeiling(r.Context(), req.CartCeiling); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"cart_ceiling": req.CartCeiling})
	}
}
