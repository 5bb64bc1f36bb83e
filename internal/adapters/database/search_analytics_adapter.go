package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
)

type SearchAnalyticsAdapter struct {
	client *postgres.Client
}

func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO search_events
		(id, query, normalized_query, matched_term, laboratory_id, category, result_count, top_score, cache_hit, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.Query,
		event.NormalizedQuery,
		event.MatchedTerm,
		event.LaboratoryID,
		event.Category,
		event.ResultCount,
		event.TopScore,
		event.CacheHit,
		event.LatencyMs,
		event.CreatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, query, normalized_query, matched_term, laboratory_id, category, result_count, top_score, cache_hit, latency_ms, created_at
		FROM search_events
		WHERE result_count = 0
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.NormalizedQuery,
			&e.MatchedTerm,
			&e.LaboratoryID,
			&e.Category,
			&e.ResultCount,
			&e.TopScore,
			&e.CacheHit,
			&e.LatencyMs,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		events = append(events, e)
	}

	return events, nil
}
