package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		productsDir = fs.String("products-dir", "products", "Path to product definitions directory")
		platform    = fs.String("platform", "", "Filter by platform (e.g., darwin-arm64)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: decant list [options]

List all available product definitions.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  decant list
  decant list --platform darwin-arm64
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewProductRepository(*productsDir)

	var products []*entities.Product
	var err error
	if *platform != "" {
		products, err = repo.GetProductsByPlatform(ctx, *platform)
	} else {
		products, err = repo.ListProducts(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing products: %v\n", err)
		os.Exit(1)
	}

	if *platform != "" {
		fmt.Printf("Products for platform %s (%d total):\n\n", *platform, len(products))
	} else {
		fmt.Printf("Available products (%d total):\n\n", len(products))
	}

	for _, product := range products {
		platforms := make([]string, 0, len(product.Platforms))
		for p := range product.Platforms {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)

		fmt.Printf("  %-20s %s\n", product.Name, product.DisplayName)
		fmt.Printf("  %-20s Index: %s\n", "", product.Index.BaseURL)
		fmt.Printf("  %-20s Platforms: %v\n", "", platforms)
		if product.Signature.Method != "" {
			fmt.Printf("  %-20s Signatures: %s\n", "", product.Signature.Method)
		}
		fmt.Println()
	}
}
