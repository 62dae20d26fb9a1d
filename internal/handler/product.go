package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/store"
)

func ListProductsHandler(catalog *service.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := catalog.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if products == nil {
			products = []model.Product{}
		}
		writeJSON(w, http.StatusOK, products)
	}
}

type productRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func (p productRequest) validate() (string, bool) {
	if p.Name == "" {
		return "name is required", false
	}
	if p.Price < 0 {
		return "price must not be negative", false
	}
	return "", true
}

func CreateProductHandler(products store.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "id_required", "id is required")
			return
		}
		if msg, ok := req.validate(); !ok {
			writeError(w, http.StatusBadRequest, "invalid_product", msg)
			return
		}

		p := &model.Product{ID: req.ID, Name: req.Name, Price: req.Price, CreatedAt: time.Now().UTC()}
		if err := products.Create(r.Context(), p); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func UpdateProductHandler(products store.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if msg, ok := req.validate(); !ok {
			writeError(w, http.StatusBadRequest, "invalid_product", msg)
			return
		}

		p := &model.Product{ID: id, Name: req.Name, Price: req.Price}
		if err := products.Update(r.Context(), p); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func DeleteProductHandler(products store.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := products.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
