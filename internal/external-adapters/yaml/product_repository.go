package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/decant/internal/domain/entities"
)

// ProductRepository implements repositories.ProductRepository using YAML
// definition files, one product per <name>.yml.
type ProductRepository struct {
	productsDir string
	parser      *ProductParser
}

// NewProductRepository creates a new YAML-based product repository
func NewProductRepository(productsDir string) *ProductRepository {
	return &ProductRepository{
		productsDir: productsDir,
		parser:      NewProductParser(),
	}
}

// GetProduct retrieves a product definition by name
func (r *ProductRepository) GetProduct(_ context.Context, name string) (*entities.Product, error) {
	filePath := filepath.Join(r.productsDir, name+".yml")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, entities.NewError(entities.KindNotFound, "product not found: %s", name).
			WithHint(fmt.Sprintf("add a definition at %s", filePath))
	}

	return r.parser.ParseFile(filePath)
}

// ListProducts returns all available product definitions
func (r *ProductRepository) ListProducts(_ context.Context) ([]*entities.Product, error) {
	entries, err := os.ReadDir(r.productsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read products directory: %w", err)
	}

	products := make([]*entities.Product, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		filePath := filepath.Join(r.productsDir, entry.Name())
		product, err := r.parser.ParseFile(filePath)
		if err != nil {
			// A broken definition must not hide the healthy ones.
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", entry.Name(), err)
			continue
		}

		products = append(products, product)
	}

	return products, nil
}

// GetProductsByPlatform returns products that support a specific platform
func (r *ProductRepository) GetProductsByPlatform(ctx context.Context, platform string) ([]*entities.Product, error) {
	all, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Product, 0)
	for _, product := range all {
		if _, ok := product.Platforms[platform]; ok {
			filtered = append(filtered, product)
		}
	}

	return filtered, nil
}
