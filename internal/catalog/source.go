package catalog

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

// Source is where listed products live between restarts.
type Source interface {
	List(ctx context.Context) ([]domain.Product, error)
	Insert(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
}
