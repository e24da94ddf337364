// Package service implements the discovery orchestration between HTTP
// handlers, the candidate sources, and the pure classification logic.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/discovery"
	"github.com/orbitlabs/orbit-backend/internal/metrics"
	"github.com/orbitlabs/orbit-backend/internal/model"
	"github.com/orbitlabs/orbit-backend/internal/predicthq"
	"github.com/orbitlabs/orbit-backend/internal/session"
)

// surpriseHourUTC is the fixed hour-of-day the reconstructed surprise event
// start time lands on.
const surpriseHourUTC = 18

// Source names accepted by the discovery endpoints.
const (
	SourceStore = "store"
	SourceLive  = "live"
)

// SourceQuery describes the candidates a discovery bucket needs. The store
// source ignores it and returns everything for client-side filtering.
type SourceQuery struct {
	Categories string
	Date       string
	Title      string
}

// CandidateSource supplies candidate events for classification. Sources never
// fail: an unavailable backend yields an empty candidate list.
type CandidateSource interface {
	Candidates(ctx context.Context, q SourceQuery) []model.Event
}

// ProfileReader loads the user profile whose interests drive classification.
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (model.UserProfile, error)
}

// Discovery serves the four classification buckets over pluggable candidate
// sources, plus surprise-date selection and user-event vetting.
type Discovery struct {
	live     CandidateSource
	stored   CandidateSource
	profiles ProfileReader
	sessions *session.Store
	logger   zerolog.Logger
}

// NewDiscovery wires the discovery service. stored may be nil when no database
// is configured; requests for the store source then degrade to no candidates.
func NewDiscovery(live, stored CandidateSource, profiles ProfileReader, sessions *session.Store, logger zerolog.Logger) *Discovery {
	return &Discovery{
		live:     live,
		stored:   stored,
		profiles: profiles,
		sessions: sessions,
		logger:   logger.With().Str("component", "discovery").Logger(),
	}
}

func (d *Discovery) source(name string) CandidateSource {
	if name == SourceLive {
		return d.live
	}
	return d.stored
}

func (d *Discovery) interests(ctx context.Context, userID string) ([]string, discovery.InterestSet, error) {
	p, err := d.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	return p.Interests, discovery.NewInterestSet(p.Interests), nil
}

// Recommended returns events matching the user's interests, nearest first.
func (d *Discovery) Recommended(ctx context.Context, userID, sourceName string) ([]model.Event, error) {
	interests, set, err := d.interests(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := SourceQuery{Date: predicthq.DateNow}
	if sourceName == SourceLive {
		q.Categories = discovery.JoinedCategories(interests)
		if q.Categories == "" {
			return []model.Event{}, nil
		}
	}

	events := discovery.Recommended(d.candidates(ctx, sourceName, q), set)
	metrics.DiscoveryEvents.WithLabelValues("recommended").Add(float64(len(events)))
	return events, nil
}

// Mashup returns events where two of the user's interests align.
func (d *Discovery) Mashup(ctx context.Context, userID, sourceName string) ([]model.Event, error) {
	_, set, err := d.interests(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := d.candidates(ctx, sourceName, SourceQuery{
		Categories: discovery.DefaultCategories,
		Date:       predicthq.DateNow,
	})
	events := discovery.Mashup(candidates, set)
	metrics.DiscoveryEvents.WithLabelValues("mashup").Add(float64(len(events)))
	return events, nil
}

// DeepSpace returns events outside the user's interests, nearest first.
func (d *Discovery) DeepSpace(ctx context.Context, userID, sourceName string) ([]model.Event, error) {
	_, set, err := d.interests(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := d.candidates(ctx, sourceName, SourceQuery{
		Categories: discovery.DefaultCategories,
		Date:       predicthq.DateNow,
	})
	events := discovery.DeepSpace(candidates, set)
	metrics.DiscoveryEvents.WithLabelValues("deep_space").Add(float64(len(events)))
	return events, nil
}

// Surprise returns exactly one record: the best non-interest event for the
// user's selected date tagged SURPRISE_DAY, a PROMPT pseudo-event when no date
// has been selected, or an EMPTY pseudo-event when the date has no candidates.
// The surprise bucket always yields a renderable record, never an empty list.
func (d *Discovery) Surprise(ctx context.Context, userID, sourceName string) ([]model.Event, error) {
	_, set, err := d.interests(ctx, userID)
	if err != nil {
		return nil, err
	}

	date, ok := d.sessions.SurpriseDate(userID)
	if !ok {
		return []model.Event{promptEvent()}, nil
	}

	candidates := d.candidates(ctx, sourceName, SourceQuery{
		Categories: discovery.DefaultCategories,
		Date:       date,
	})
	best, found := discovery.BestSurprise(candidates, set)
	if !found {
		return []model.Event{emptyEvent(date)}, nil
	}

	best.Type = model.TypeSurpriseDay
	best.StartTime = surpriseStart(date)
	metrics.DiscoveryEvents.WithLabelValues("surprise_day").Inc()
	return []model.Event{best}, nil
}

// SelectSurpriseDate records the user's chosen surprise-day date.
func (d *Discovery) SelectSurpriseDate(userID, date string) error {
	if err := d.sessions.SelectSurpriseDate(userID, date); err != nil {
		return err
	}
	d.logger.Info().Str("user", userID).Str("date", date).Msg("surprise day scheduled")
	return nil
}

// ValidateEvent vets a user-submitted event: basic checks first, then a
// cross-reference search against the live provider for verified events with
// the same title. A failing cross-reference check never fails validation.
func (d *Discovery) ValidateEvent(ctx context.Context, req model.ValidateEventRequest) model.ValidationResult {
	if len(strings.TrimSpace(req.Title)) < 5 {
		return model.ValidationResult{Valid: false, Reason: "Title is too short or missing."}
	}
	if req.StartTime <= time.Now().UnixMilli() {
		return model.ValidationResult{Valid: false, Reason: "Event must be scheduled for a future date."}
	}

	existing := d.candidates(ctx, SourceLive, SourceQuery{
		Categories: discovery.CategoriesFor(req.PrimaryInterest),
		Date:       predicthq.DateNow,
		Title:      req.Title,
	})
	if len(existing) > 0 {
		return model.ValidationResult{
			Valid:              true,
			Reason:             "Event is valid but may require manual moderator review due to potential conflict with verified data.",
			RequiresModeration: true,
		}
	}

	return model.ValidationResult{
		Valid:  true,
		Reason: "Event passed automated verification and can be published.",
	}
}

func (d *Discovery) candidates(ctx context.Context, sourceName string, q SourceQuery) []model.Event {
	src := d.source(sourceName)
	if src == nil {
		d.logger.Warn().Str("source", sourceName).Msg("candidate source not configured")
		return []model.Event{}
	}
	return src.Candidates(ctx, q)
}

func promptEvent() model.Event {
	return model.Event{
		ID:          "prompt",
		Type:        model.TypePrompt,
		Title:       "Select a Date",
		Description: "Please pick a day on the calendar above to find a surprise event.",
	}
}

func emptyEvent(date string) model.Event {
	return model.Event{
		ID:          "empty",
		Type:        model.TypeEmpty,
		Title:       "No Events Found",
		Description: fmt.Sprintf("We couldn't find any surprise events for %s. Try another day!", date),
	}
}

func surpriseStart(date string) int64 {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return day.Add(surpriseHourUTC * time.Hour).UnixMilli()
}
