package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dvoss/catalog/internal/metrics"
	"github.com/dvoss/catalog/internal/models"
	"github.com/dvoss/catalog/internal/repo"
)

// ==========================
// Index (public list + search)
// ==========================

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	products, err := h.Products.List(r.Context(), search)
	if err != nil {
		h.render(w, r, "index.html", map[string]interface{}{
			"Error":       "Could not load products",
			"SearchQuery": search,
		})
		return
	}

	h.render(w, r, "index.html", map[string]interface{}{
		"Products":    products,
		"SearchQuery": search,
	})
}

// ==========================
// Add product
// ==========================

func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "product_form.html", map[string]interface{}{
		"Action":     "Add",
		"FormAction": "/add",
		"Form":       map[string]string{},
	})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	fail := func(msg string) {
		h.render(w, r, "product_form.html", map[string]interface{}{
			"Error":      msg,
			"Action":     "Add",
			"FormAction": "/add",
			"Form":       formValues(r),
		})
	}

	p, errMsg := productFromForm(r)
	if errMsg != "" {
		fail(errMsg)
		return
	}

	if _, err := h.Products.Create(r.Context(), p); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			fail("SKU already exists")
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.RecordMutation("create")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Edit product (full replacement)
// ==========================

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, err := h.Products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "product_form.html", map[string]interface{}{
		"Action":     "Edit",
		"FormAction": "/edit/" + chi.URLParam(r, "id"),
		"Form":       formFromProduct(p),
	})
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	fail := func(msg string) {
		h.render(w, r, "product_form.html", map[string]interface{}{
			"Error":      msg,
			"Action":     "Edit",
			"FormAction": "/edit/" + idStr,
			"Form":       formValues(r),
		})
	}

	in, errMsg := productFromForm(r)
	if errMsg != "" {
		fail(errMsg)
		return
	}

	// Full replacement: every editable field is overwritten with the form
	// value, so a blanked optional field clears to NULL.
	_, err = h.Products.Update(r.Context(), id, func(p *models.Product) error {
		p.Name = in.Name
		p.Description = in.Description
		p.SKU = in.SKU
		p.Price = in.Price
		p.StockQuantity = in.StockQuantity
		p.Category = in.Category
		p.ImageURL = in.ImageURL
		p.Dimensions = in.Dimensions
		p.Weight = in.Weight
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, repo.ErrConflict) {
			fail("SKU already exists")
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.RecordMutation("update")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Delete product
// ==========================

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.Products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.RecordMutation("delete")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Form coercion
// ==========================

// productFromForm builds a product from the posted form. Malformed numeric
// input fails the whole request; nothing is written. Empty optional fields
// become NULL, and an empty stock quantity defaults to 0.
func productFromForm(r *http.Request) (*models.Product, string) {
	p := &models.Product{
		Name: strings.TrimSpace(r.FormValue("name")),
		SKU:  strings.TrimSpace(r.FormValue("sku")),
	}

	if p.Name == "" {
		return nil, "Name is required"
	}
	if len(p.Name) > models.MaxProductNameLen {
		return nil, "Name is too long"
	}
	if p.SKU == "" {
		return nil, "SKU is required"
	}
	if len(p.SKU) > models.MaxSKULen {
		return nil, "SKU is too long"
	}

	priceStr := strings.TrimSpace(r.FormValue("price"))
	if priceStr == "" {
		return nil, "Price is required"
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, "Price must be a number"
	}
	if price < 0 {
		return nil, "Price must be non-negative"
	}
	p.Price = price

	if stockStr := strings.TrimSpace(r.FormValue("stock_quantity")); stockStr != "" {
		stock, err := strconv.Atoi(stockStr)
		if err != nil {
			return nil, "Stock quantity must be an integer"
		}
		p.StockQuantity = stock
	}

	p.Description = optionalField(r, "description")
	p.Category = optionalField(r, "category")
	if p.Category != nil && len(*p.Category) > models.MaxCategoryLen {
		return nil, "Category is too long"
	}
	p.ImageURL = optionalField(r, "image_url")
	if p.ImageURL != nil && len(*p.ImageURL) > models.MaxImageURLLen {
		return nil, "Image URL is too long"
	}
	p.Dimensions = optionalField(r, "dimensions")
	if p.Dimensions != nil && len(*p.Dimensions) > models.MaxDimensionsLen {
		return nil, "Dimensions are too long"
	}

	if weightStr := strings.TrimSpace(r.FormValue("weight")); weightStr != "" {
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, "Weight must be a number"
		}
		p.Weight = &weight
	}

	return p, ""
}

// optionalField returns nil for an empty form value so it stores as NULL.
func optionalField(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}

// formValues echoes the submitted form back into the template after a failure.
func formValues(r *http.Request) map[string]string {
	return map[string]string{
		"Name":          r.FormValue("name"),
		"Description":   r.FormValue("description"),
		"SKU":           r.FormValue("sku"),
		"Price":         r.FormValue("price"),
		"StockQuantity": r.FormValue("stock_quantity"),
		"Category":      r.FormValue("category"),
		"ImageURL":      r.FormValue("image_url"),
		"Dimensions":    r.FormValue("dimensions"),
		"Weight":        r.FormValue("weight"),
	}
}

// formFromProduct prefills the edit form from the stored record.
func formFromProduct(p *models.Product) map[string]string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	form := map[string]string{
		"Name":          p.Name,
		"Description":   deref(p.Description),
		"SKU":           p.SKU,
		"Price":         strconv.FormatFloat(p.Price, 'f', -1, 64),
		"StockQuantity": strconv.Itoa(p.StockQuantity),
		"Category":      deref(p.Category),
		"ImageURL":      deref(p.ImageURL),
		"Dimensions":    deref(p.Dimensions),
	}
	if p.Weight != nil {
		form["Weight"] = strconv.FormatFloat(*p.Weight, 'f', -1, 64)
	} else {
		form["Weight"] = ""
	}
	return form
}
