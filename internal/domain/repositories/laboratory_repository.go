package repositories

import (
	"context"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
)

// LaboratoryFilter narrows laboratory listings.
type LaboratoryFilter struct {
	IsActive *bool
	Limit    int
	Offset   int
}

// LaboratoryRepository is the persistence boundary for laboratories.
type LaboratoryRepository interface {
	Create(ctx context.Context, lab *entities.Laboratory) error
	GetByID(ctx context.Context, id string) (*entities.Laboratory, error)
	List(ctx context.Context, filter LaboratoryFilter) ([]*entities.Laboratory, error)
	Update(ctx context.Context, lab *entities.Laboratory) error
	// Deactivate soft-deletes a laboratory; its entries stop appearing in
	// comparisons but remain for audit.
	Deactivate(ctx context.Context, id string) error
}
