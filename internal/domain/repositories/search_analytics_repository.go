package repositories

import (
	"context"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
)

// SearchAnalyticsRepository persists search events and surfaces the queries
// that found nothing, the main input for curating new aliases and synonyms.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
