package services

import (
	"context"
	"sync"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/rs/zerolog/log"
)

// SearchAnalyticsService records search events without blocking the caller.
type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
	wg   sync.WaitGroup
}

func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch logs the event in the background. The request context may be
// cancelled before the write lands, so a fresh one is used.
func (s *SearchAnalyticsService) TrackSearch(event *entities.SearchEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			log.Warn().Err(err).Str("query", event.Query).Msg("failed to log search event")
		}
	}()
}

// Flush blocks until every pending event write has finished.
func (s *SearchAnalyticsService) Flush() {
	s.wg.Wait()
}

// ZeroResultQueries lists recent queries that matched nothing.
func (s *SearchAnalyticsService) ZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultQueries(ctx, limit)
}
