package root

import (
	"github.com/spf13/cobra"

	"github.com/dvoss/catalog/cmd/cli/auth"
	"github.com/dvoss/catalog/cmd/cli/products"
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Product catalog CLI",
	Long:  "Command line interface for the product catalog API",
}

func init() {
	auth.InitAuth(rootCmd)
	products.InitProducts(rootCmd)
}

// GetRoot returns the root command with all subcommands registered.
func GetRoot() *cobra.Command {
	return rootCmd
}
