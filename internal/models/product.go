package models

// Field length limits, matching the products table columns.
const (
	MaxProductNameLen = 100
	MaxSKULen         = 50
	MaxCategoryLen    = 50
	MaxImageURLLen    = 255
	MaxDimensionsLen  = 100
)

// Product is a catalog record. Optional columns are pointers so an absent
// value round-trips as JSON null.
type Product struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	SKU           string   `json:"sku"`
	Price         float64  `json:"price"`
	StockQuantity int      `json:"stock_quantity"`
	Category      *string  `json:"category"`
	ImageURL      *string  `json:"image_url"`
	Dimensions    *string  `json:"dimensions"`
	Weight        *float64 `json:"weight"`
}
