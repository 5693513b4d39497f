package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/dvoss/catalog/internal/repo"
)

var productColumns = []string{"id", "name", "description", "sku", "price", "stock_quantity", "category", "image_url", "dimensions", "weight"}

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

func newProductHandler(t *testing.T) (*ProductHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &ProductHandler{Repo: repo.NewProductRepo(db)}
	return h, mock, func() { db.Close() }
}

func TestProductHandler_ListProducts(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`FROM products ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", nil, "W1", 9.99, 5, nil, nil, nil, nil))

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()
	h.ListProducts(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("ListProducts status: got %d, want 200", rr.Code)
	}
	var list []struct {
		ID   int     `json:"id"`
		Name string  `json:"name"`
		SKU  string  `json:"sku"`
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Widget" || list[0].SKU != "W1" {
		t.Errorf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_ListProducts_Empty(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`FROM products ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(productColumns))

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()
	h.ListProducts(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	// An empty catalog is an empty JSON array, never null.
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body: got %q, want []", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_GetProduct(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", nil, "W1", 9.99, 5, nil, nil, nil, nil))

	req := requestWithChiURLParams("GET", "/api/products/1", nil, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.GetProduct(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var p struct {
		ID  int    `json:"id"`
		SKU string `json:"sku"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if p.ID != 1 || p.SKU != "W1" {
		t.Errorf("unexpected product: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	req := requestWithChiURLParams("GET", "/api/products/999", nil, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.GetProduct(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_CreateProduct(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("Widget", nil, "W1", 9.99, 5, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", nil, "W1", 9.99, 5, nil, nil, nil, nil))

	body := []byte(`{"name":"Widget","sku":"W1","price":9.99,"stock_quantity":5}`)
	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateProduct(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateProduct status: got %d, want 201, body %s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID != 1 || created.Name != "Widget" {
		t.Errorf("unexpected product: %+v", created)
	}
	if created.Description != nil {
		t.Errorf("description should be null, got %v", *created.Description)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_CreateProduct_MissingFields(t *testing.T) {
	h, _, closeDB := newProductHandler(t)
	defer closeDB()

	body := []byte(`{"name":"Widget"}`)
	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateProduct(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fields["sku"] != "required" || resp.Fields["price"] != "required" {
		t.Errorf("unexpected fields: %+v", resp.Fields)
	}
	if _, ok := resp.Fields["name"]; ok {
		t.Errorf("name was supplied, should not be flagged: %+v", resp.Fields)
	}
}

func TestProductHandler_CreateProduct_NegativePrice(t *testing.T) {
	h, _, closeDB := newProductHandler(t)
	defer closeDB()

	body := []byte(`{"name":"Widget","sku":"W1","price":-1}`)
	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateProduct(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fields["price"] != "must be non-negative" {
		t.Errorf("unexpected fields: %+v", resp.Fields)
	}
}

func TestProductHandler_CreateProduct_DuplicateSKU(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs("Widget", nil, "W1", 9.99, 0, nil, nil, nil, nil).
		WillReturnError(&pq.Error{Code: "23505"})

	body := []byte(`{"name":"Widget","sku":"W1","price":9.99}`)
	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateProduct(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fields["sku"] != "already exists" {
		t.Errorf("unexpected fields: %+v", resp.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_UpdateProduct_PartialMerge(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", "desc", "W1", 9.99, 5, "tools", nil, nil, nil))
	mock.ExpectQuery(`UPDATE products`).
		WithArgs("Widget", "desc", "W1", 12.5, 5, "tools", nil, nil, nil, 1).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", "desc", "W1", 12.5, 5, "tools", nil, nil, nil))
	mock.ExpectCommit()

	body := []byte(`{"price":12.5}`)
	req := requestWithChiURLParams("PUT", "/api/products/1", body, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.UpdateProduct(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateProduct status: got %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var updated struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category *string `json:"category"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Price != 12.5 || updated.Name != "Widget" {
		t.Errorf("unexpected product: %+v", updated)
	}
	if updated.Category == nil || *updated.Category != "tools" {
		t.Errorf("unspecified category should survive the update: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_UpdateProduct_NotFound(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	req := requestWithChiURLParams("PUT", "/api/products/999", []byte(`{"price":1}`), map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.UpdateProduct(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_UpdateProduct_InvalidMerge(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Widget", nil, "W1", 9.99, 5, nil, nil, nil, nil))
	mock.ExpectRollback()

	// Clearing the name on update fails validation and rolls back.
	req := requestWithChiURLParams("PUT", "/api/products/1", []byte(`{"name":""}`), map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.UpdateProduct(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fields["name"] != "required" {
		t.Errorf("unexpected fields: %+v", resp.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_UpdateProduct_BadID(t *testing.T) {
	h, _, closeDB := newProductHandler(t)
	defer closeDB()

	req := requestWithChiURLParams("PUT", "/api/products/abc", []byte(`{}`), map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.UpdateProduct(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := requestWithChiURLParams("DELETE", "/api/products/1", nil, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.DeleteProduct(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("204 response should have no body, got %q", rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestProductHandler_DeleteProduct_NotFound(t *testing.T) {
	h, mock, closeDB := newProductHandler(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := requestWithChiURLParams("DELETE", "/api/products/999", nil, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.DeleteProduct(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "product not found" {
		t.Errorf("unexpected error message: %q", resp.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
