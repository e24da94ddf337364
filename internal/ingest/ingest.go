// Package ingest periodically syncs broad-category provider events into the
// document store so the store-backed discovery path has candidates without a
// live API round-trip per request.
package ingest

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/discovery"
	"github.com/orbitlabs/orbit-backend/internal/metrics"
	"github.com/orbitlabs/orbit-backend/internal/model"
	"github.com/orbitlabs/orbit-backend/internal/predicthq"
)

// Fetcher pulls candidate events from the provider.
type Fetcher interface {
	FetchEvents(ctx context.Context, q predicthq.Query) []model.Event
}

// EventWriter persists normalized events into the store.
type EventWriter interface {
	UpsertEvent(ctx context.Context, e model.Event) error
}

// Syncer runs the provider-to-store sync.
type Syncer struct {
	fetcher Fetcher
	store   EventWriter
	logger  zerolog.Logger
}

// NewSyncer constructs a Syncer.
func NewSyncer(fetcher Fetcher, store EventWriter, logger zerolog.Logger) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// Run performs one sync cycle. Individual upsert failures are logged and
// skipped; the cycle itself never fails.
func (s *Syncer) Run(ctx context.Context) {
	events := s.fetcher.FetchEvents(ctx, predicthq.Query{
		Categories: discovery.DefaultCategories,
		Date:       predicthq.DateNow,
	})
	if len(events) == 0 {
		s.logger.Info().Msg("sync cycle: no provider events")
		return
	}

	synced := 0
	for _, e := range events {
		if err := s.store.UpsertEvent(ctx, e); err != nil {
			s.logger.Error().Err(err).Str("event", e.ID).Msg("upsert failed")
			continue
		}
		synced++
	}
	metrics.IngestedEvents.Add(float64(synced))
	s.logger.Info().Int("synced", synced).Int("fetched", len(events)).Msg("sync cycle complete")
}

// Start schedules Run on the given cron spec and returns the started
// scheduler; callers stop it on shutdown.
func (s *Syncer) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		s.Run(context.Background())
	}); err != nil {
		return nil, err
	}
	c.Start()
	s.logger.Info().Str("schedule", spec).Msg("ingest scheduler started")
	return c, nil
}
