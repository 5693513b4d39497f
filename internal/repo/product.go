package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvoss/catalog/internal/models"
)

const productCols = "id, name, description, sku, price, stock_quantity, category, image_url, dimensions, weight"

// ==========================
// ProductRepo
// ==========================
type ProductRepo struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db}
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.SKU,
		&p.Price,
		&p.StockQuantity,
		&p.Category,
		&p.ImageURL,
		&p.Dimensions,
		&p.Weight,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ==========================
// List / Search
// ==========================

// List returns products in insertion order. When search is non-empty only
// products whose name or category contains it as a case-sensitive substring
// are returned (LIKE, not ILIKE).
func (r *ProductRepo) List(ctx context.Context, search string) ([]models.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if search != "" {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+productCols+` FROM products
			 WHERE name LIKE '%' || $1 || '%' OR category LIKE '%' || $1 || '%'
			 ORDER BY id`,
			search,
		)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+productCols+` FROM products ORDER BY id`,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ==========================
// Get By ID
// ==========================
func (r *ProductRepo) Get(ctx context.Context, id int) (*models.Product, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// ==========================
// Create
// ==========================

// Create persists a new product in a single commit and returns it with the
// assigned id. A SKU collision surfaces as ErrConflict.
func (r *ProductRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO products (name, description, sku, price, stock_quantity, category, image_url, dimensions, weight)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+productCols,
		p.Name, p.Description, p.SKU, p.Price, p.StockQuantity,
		p.Category, p.ImageURL, p.Dimensions, p.Weight,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

// ==========================
// Update
// ==========================

// Update loads the product inside a transaction, lets apply mutate it, and
// writes the result back in the same commit. apply sees the current record,
// so callers implement either full replacement (web form) or a partial merge
// (API) without losing atomicity. An apply error rolls back with no write.
func (r *ProductRepo) Update(ctx context.Context, id int, apply func(*models.Product) error) (*models.Product, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}

	if err := apply(p); err != nil {
		return nil, err
	}

	row = tx.QueryRowContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, sku = $3, price = $4, stock_quantity = $5,
		     category = $6, image_url = $7, dimensions = $8, weight = $9
		 WHERE id = $10
		 RETURNING `+productCols,
		p.Name, p.Description, p.SKU, p.Price, p.StockQuantity,
		p.Category, p.ImageURL, p.Dimensions, p.Weight, id,
	)
	updated, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product update: %w", err)
	}
	return updated, nil
}

// ==========================
// Delete
// ==========================

// Delete removes the product. A missing id is ErrNotFound, not a no-op.
func (r *ProductRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
