package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dvoss/catalog/internal/metrics"
	"github.com/dvoss/catalog/internal/models"
	"github.com/dvoss/catalog/internal/repo"
)

// ProductHandler serves the /api/products routes.
type ProductHandler struct {
	Repo *repo.ProductRepo
}

// productInput is the JSON body for create and partial update. Every field
// is a pointer so an absent field is distinguishable from a zero value; on
// update, nil fields retain the stored value.
type productInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	SKU           *string  `json:"sku"`
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stock_quantity"`
	Category      *string  `json:"category"`
	ImageURL      *string  `json:"image_url"`
	Dimensions    *string  `json:"dimensions"`
	Weight        *float64 `json:"weight"`
}

// validationError carries field-level messages out of a repo.Update apply
// callback so the transaction rolls back with no partial write.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string { return "validation failed" }

// checkProduct validates a fully assembled record. Weight range is
// deliberately unchecked.
func checkProduct(p *models.Product) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "required"
	} else if len(p.Name) > models.MaxProductNameLen {
		fields["name"] = "too long"
	}
	if strings.TrimSpace(p.SKU) == "" {
		fields["sku"] = "required"
	} else if len(p.SKU) > models.MaxSKULen {
		fields["sku"] = "too long"
	}
	if p.Price < 0 {
		fields["price"] = "must be non-negative"
	}
	if p.Category != nil && len(*p.Category) > models.MaxCategoryLen {
		fields["category"] = "too long"
	}
	if p.ImageURL != nil && len(*p.ImageURL) > models.MaxImageURLLen {
		fields["image_url"] = "too long"
	}
	if p.Dimensions != nil && len(*p.Dimensions) > models.MaxDimensionsLen {
		fields["dimensions"] = "too long"
	}
	return fields
}

// applyInput overlays the supplied fields onto p.
func (in *productInput) applyTo(p *models.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Category != nil {
		p.Category = in.Category
	}
	if in.ImageURL != nil {
		p.ImageURL = in.ImageURL
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Dimensions != nil {
		p.Dimensions = in.Dimensions
	}
}

// ==========================
// List Products (public)
// ==========================
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	products, err := h.Repo.List(r.Context(), search)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products)
}

// ==========================
// Get Product (public)
// ==========================
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	p, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "product not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// ==========================
// Create Product
// ==========================
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Name == nil {
		fields["name"] = "required"
	}
	if input.SKU == nil {
		fields["sku"] = "required"
	}
	if input.Price == nil {
		fields["price"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	// Unsupplied optional fields stay NULL; stock_quantity defaults to 0.
	p := &models.Product{}
	input.applyTo(p)

	if fields := checkProduct(p); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	created, err := h.Repo.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			JSONValidationError(w, "validation failed", map[string]string{"sku": "already exists"}, http.StatusBadRequest)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.RecordMutation("create")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ==========================
// Update Product (partial merge)
// ==========================
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	updated, err := h.Repo.Update(r.Context(), id, func(p *models.Product) error {
		input.applyTo(p)
		if fields := checkProduct(p); len(fields) > 0 {
			return &validationError{fields: fields}
		}
		return nil
	})
	if err != nil {
		var verr *validationError
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, "product not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrConflict):
			JSONValidationError(w, "validation failed", map[string]string{"sku": "already exists"}, http.StatusBadRequest)
		case errors.As(err, &verr):
			JSONValidationError(w, "validation failed", verr.fields, http.StatusBadRequest)
		default:
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	metrics.RecordMutation("update")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// ==========================
// Delete Product
// ==========================
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "product not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.RecordMutation("delete")
	w.WriteHeader(http.StatusNoContent)
}
