package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/model"
	"github.com/orbitlabs/orbit-backend/internal/predicthq"
)

// liveSource feeds classification from the external events API.
type liveSource struct {
	client *predicthq.Client
}

// NewLiveSource adapts the PredictHQ client into a CandidateSource.
func NewLiveSource(client *predicthq.Client) CandidateSource {
	return &liveSource{client: client}
}

func (s *liveSource) Candidates(ctx context.Context, q SourceQuery) []model.Event {
	return s.client.FetchEvents(ctx, predicthq.Query{
		Categories: q.Categories,
		Date:       q.Date,
		Title:      q.Title,
	})
}

// EventReader is the slice of the store the store-backed source needs.
type EventReader interface {
	EventRecords(ctx context.Context) ([]model.Event, error)
}

// storeSource feeds classification with every stored event document; the
// classifier does the filtering client-side, so the query is ignored.
type storeSource struct {
	events EventReader
	logger zerolog.Logger
}

// NewStoreSource adapts the document store into a CandidateSource. Read
// failures degrade to an empty candidate list, mirroring the live source.
func NewStoreSource(events EventReader, logger zerolog.Logger) CandidateSource {
	return &storeSource{
		events: events,
		logger: logger.With().Str("component", "store-source").Logger(),
	}
}

func (s *storeSource) Candidates(ctx context.Context, _ SourceQuery) []model.Event {
	events, err := s.events.EventRecords(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("fetch events for filtering failed, returning no events")
		return []model.Event{}
	}
	if events == nil {
		events = []model.Event{}
	}
	return events
}
