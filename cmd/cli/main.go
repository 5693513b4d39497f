package main

import (
	"fmt"
	"os"

	"github.com/dvoss/catalog/cmd/cli/root"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
