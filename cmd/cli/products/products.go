package products

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dvoss/catalog/cmd/cli/config"
	"github.com/dvoss/catalog/cmd/cli/output"
	"github.com/dvoss/catalog/internal/models"
)

// ==========================
// Init Products
// ==========================
func InitProducts(rootCmd *cobra.Command) {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Manage catalog products",
	}

	productsCmd.AddCommand(
		listProductsCmd(),
		getProductCmd(),
		createProductCmd(),
		updateProductCmd(),
		deleteProductCmd(),
	)

	rootCmd.AddCommand(productsCmd)
}

// ==========================
// LIST
// ==========================
func listProductsCmd() *cobra.Command {
	var search string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := config.APIURL() + "/api/products"
			if search != "" {
				target += "?search=" + url.QueryEscape(search)
			}

			resp, err := http.Get(target)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return statusError(resp)
			}

			var products []models.Product
			if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
				return err
			}

			if asJSON {
				return printJSON(products)
			}

			rows := make([][]interface{}, 0, len(products))
			for _, p := range products {
				rows = append(rows, []interface{}{
					p.ID, p.Name, p.SKU, p.Price, p.StockQuantity, deref(p.Category),
				})
			}
			output.RenderTable([]string{"ID", "Name", "SKU", "Price", "Stock", "Category"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by name or category substring")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")

	return cmd
}

// ==========================
// GET
// ==========================
func getProductCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(config.APIURL() + "/api/products/" + args[0])
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return statusError(resp)
			}

			var p models.Product
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				return err
			}

			if asJSON {
				return printJSON(p)
			}

			output.RenderTable(
				[]string{"Field", "Value"},
				[][]interface{}{
					{"ID", p.ID},
					{"Name", p.Name},
					{"Description", deref(p.Description)},
					{"SKU", p.SKU},
					{"Price", p.Price},
					{"Stock", p.StockQuantity},
					{"Category", deref(p.Category)},
					{"Image URL", deref(p.ImageURL)},
					{"Dimensions", deref(p.Dimensions)},
					{"Weight", derefFloat(p.Weight)},
				},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")

	return cmd
}

// ==========================
// CREATE
// ==========================
func createProductCmd() *cobra.Command {
	flags := productFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := flags.payload(cmd)
			created, err := sendProduct("POST", "/api/products", payload)
			if err != nil {
				return err
			}
			fmt.Printf("Created product %d (%s)\n", created.ID, created.SKU)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// ==========================
// UPDATE
// ==========================
func updateProductCmd() *cobra.Command {
	flags := productFlags{}

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a product (only the supplied flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := flags.payload(cmd)
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			updated, err := sendProduct("PUT", "/api/products/"+args[0], payload)
			if err != nil {
				return err
			}
			fmt.Printf("Updated product %d\n", updated.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := authedRequest("DELETE", "/api/products/"+args[0], nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				return statusError(resp)
			}
			fmt.Println("Product deleted")
			return nil
		},
	}
}

// ==========================
// Helpers
// ==========================

// productFlags mirrors the product fields as CLI flags. payload only emits
// the flags the caller actually set, so update stays a partial merge.
type productFlags struct {
	name        string
	description string
	sku         string
	price       float64
	stock       int
	category    string
	imageURL    string
	dimensions  string
	weight      float64
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.sku, "sku", "", "stock keeping unit")
	cmd.Flags().Float64Var(&f.price, "price", 0, "price")
	cmd.Flags().IntVar(&f.stock, "stock", 0, "stock quantity")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "image URL")
	cmd.Flags().StringVar(&f.dimensions, "dimensions", "", "dimensions")
	cmd.Flags().Float64Var(&f.weight, "weight", 0, "weight")
}

func (f *productFlags) payload(cmd *cobra.Command) map[string]interface{} {
	payload := map[string]interface{}{}
	set := func(flag, field string, value interface{}) {
		if cmd.Flags().Changed(flag) {
			payload[field] = value
		}
	}
	set("name", "name", f.name)
	set("description", "description", f.description)
	set("sku", "sku", f.sku)
	set("price", "price", f.price)
	set("stock", "stock_quantity", f.stock)
	set("category", "category", f.category)
	set("image-url", "image_url", f.imageURL)
	set("dimensions", "dimensions", f.dimensions)
	set("weight", "weight", f.weight)
	return payload
}

func sendProduct(method, path string, payload map[string]interface{}) (*models.Product, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := authedRequest(method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	var p models.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// authedRequest builds a request carrying the stored session token as a
// Bearer header. Mutating routes reject requests without one.
func authedRequest(method, path string, body io.Reader) (*http.Request, error) {
	token, err := config.ReadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}
	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
