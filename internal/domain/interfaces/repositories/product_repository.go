// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/decant/internal/domain/entities"
)

// ProductRepository defines the interface for accessing product definitions
type ProductRepository interface {
	// GetProduct retrieves a product definition by name
	GetProduct(ctx context.Context, name string) (*entities.Product, error)

	// ListProducts returns all available product definitions
	ListProducts(ctx context.Context) ([]*entities.Product, error)

	// GetProductsByPlatform returns products that support a specific platform
	GetProductsByPlatform(ctx context.Context, platform string) ([]*entities.Product, error)
}
