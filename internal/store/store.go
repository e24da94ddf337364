// Package store is the document-store facade: user profiles, public event
// documents, and per-event interest connections persisted as JSONB in
// Postgres, with push-style change subscriptions for the UI.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

// querier is the slice of pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned when the store has no database connection.
var ErrUnavailable = errors.New("store unavailable")

// seedProfile is written on first access for users without a profile document.
var seedProfile = model.UserProfile{
	Name:      "Astronaut",
	Interests: []string{"Rock Climbing", "Jazz Music", "Astrophysics"},
	Location:  model.LatLng{Lat: 34.0522, Lng: -118.2437},
}

// SeedProfiles serves the seed profile for every user. It stands in for the
// database-backed profile reader when no database is configured, so discovery
// still works in degraded mode.
type SeedProfiles struct{}

// Profile always returns the seed profile.
func (SeedProfiles) Profile(context.Context, string) (model.UserProfile, error) {
	return seedProfile, nil
}

// Store wraps all document reads, writes and change subscriptions.
//
// Profiles read through the store are cached in memory; LogInterest reads the
// cache and callers must tolerate it being unset before the first profile
// load. Subscriptions are delivered by an in-process hub in per-document write
// order; there is no ordering guarantee across collections. profileMu and
// connectionsMu serialize each collection's writes with their publishes and
// with subscription snapshots, so a new subscriber never misses a write that
// lands while its initial state is being loaded.
type Store struct {
	db     querier
	sb     sq.StatementBuilderType
	logger zerolog.Logger
	hub    *hub

	profileMu     sync.Mutex
	connectionsMu sync.Mutex

	profiles *profileCache
}

// New constructs a Store over the given connection pool.
func New(db *pgxpool.Pool, logger zerolog.Logger) *Store {
	var q querier
	if db != nil {
		q = db
	}
	return newStore(q, logger)
}

func newStore(db querier, logger zerolog.Logger) *Store {
	return &Store{
		db:       db,
		sb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:   logger.With().Str("component", "store").Logger(),
		hub:      newHub(),
		profiles: newProfileCache(),
	}
}

// ─── Profiles ─────────────────────────────────────────────────────────────────

// Profile returns the user's profile document, creating the seed profile on
// first access if none exists.
func (s *Store) Profile(ctx context.Context, userID string) (model.UserProfile, error) {
	if s.db == nil {
		return model.UserProfile{}, ErrUnavailable
	}

	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	return s.profileLocked(ctx, userID)
}

// profileLocked loads (or seeds) the profile. Callers hold profileMu.
func (s *Store) profileLocked(ctx context.Context, userID string) (model.UserProfile, error) {
	query, args, err := s.sb.Select("doc").From("profiles").
		Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("build profile query: %w", err)
	}

	var doc []byte
	err = s.db.QueryRow(ctx, query, args...).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.saveProfileLocked(ctx, userID, seedProfile); err != nil {
			return model.UserProfile{}, fmt.Errorf("seed profile: %w", err)
		}
		return seedProfile, nil
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return model.UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	s.profiles.put(userID, p)
	return p, nil
}

// SaveProfile creates or replaces the user's profile document and notifies
// profile subscribers.
func (s *Store) SaveProfile(ctx context.Context, userID string, p model.UserProfile) error {
	if s.db == nil {
		return ErrUnavailable
	}

	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	return s.saveProfileLocked(ctx, userID, p)
}

// saveProfileLocked writes the document and publishes it while still holding
// profileMu, so per-user publish order matches write order.
func (s *Store) saveProfileLocked(ctx context.Context, userID string, p model.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query, args, err := s.sb.Insert("profiles").
		Columns("user_id", "doc", "updated_at").
		Values(userID, doc, time.Now().UTC()).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build profile upsert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	s.profiles.put(userID, p)
	s.hub.publishProfile(userID, p)
	return nil
}

// SubscribeProfile registers a callback for the user's profile: it fires
// immediately with the current state (seeding the profile if absent) and then
// on every change. The returned function unsubscribes; after it returns the
// callback is never invoked again.
//
// The snapshot load, the registration, and the initial delivery all happen
// under profileMu, so a save landing while the subscription is being set up is
// delivered as a regular change instead of being lost.
func (s *Store) SubscribeProfile(ctx context.Context, userID string, fn func(model.UserProfile)) (func(), error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	s.profileMu.Lock()
	defer s.profileMu.Unlock()

	current, err := s.profileLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	unsub := s.hub.subscribeProfile(userID, fn)
	fn(current)
	return unsub, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// Events returns every event document as an opaque map plus its identifier,
// for client-side filtering.
func (s *Store) Events(ctx context.Context) ([]map[string]any, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	query, args, err := s.sb.Select("id", "doc").From("events").
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []map[string]any
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		m := map[string]any{}
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", id, err)
		}
		m["id"] = id
		events = append(events, m)
	}
	return events, rows.Err()
}

// EventRecords returns every event document decoded into the normalized event
// shape, as the candidate list for the store-backed discovery path.
func (s *Store) EventRecords(ctx context.Context) ([]model.Event, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	query, args, err := s.sb.Select("id", "doc").From("events").
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e model.Event
		if err := json.Unmarshal(doc, &e); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", id, err)
		}
		if e.ID == "" {
			e.ID = id
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateEvent persists an arbitrary event document, stamping a server-side
// creation time, and returns the stored document including its assigned id.
func (s *Store) CreateEvent(ctx context.Context, doc map[string]any) (map[string]any, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	stored := make(map[string]any, len(doc)+2)
	for k, v := range doc {
		stored[k] = v
	}
	now := time.Now().UTC()
	stored["createdAt"] = now.UnixMilli()

	id := uuid.New().String()
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	query, args, err := s.sb.Insert("events").
		Columns("id", "doc", "created_at").
		Values(id, raw, now).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event insert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	stored["id"] = id
	return stored, nil
}

// UpsertEvent writes a normalized event under its provider id, used by the
// scheduled ingest sync. Existing documents are replaced.
func (s *Store) UpsertEvent(ctx context.Context, e model.Event) error {
	if s.db == nil {
		return ErrUnavailable
	}
	if e.ID == "" {
		return fmt.Errorf("upsert event: missing id")
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	query, args, err := s.sb.Insert("events").
		Columns("id", "doc", "created_at").
		Values(e.ID, raw, time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc").
		ToSql()
	if err != nil {
		return fmt.Errorf("build event upsert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// ─── Interest connections ─────────────────────────────────────────────────────

func connectionID(eventID, userID string) string {
	return eventID + "_" + userID
}

// Connections returns every interest connection for the event.
func (s *Store) Connections(ctx context.Context, eventID string) ([]model.Connection, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	return s.listConnections(ctx, eventID)
}

func (s *Store) listConnections(ctx context.Context, eventID string) ([]model.Connection, error) {
	query, args, err := s.sb.Select("doc").From("event_connections").
		Where(sq.Eq{"event_id": eventID}).
		OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build connections query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []model.Connection
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		var c model.Connection
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("decode connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// SubscribeConnections registers a callback receiving the full connection list
// for the event: immediately with the current state, then after every change.
// Snapshot, registration, and initial delivery happen under connectionsMu so a
// write racing the subscription is delivered rather than lost.
func (s *Store) SubscribeConnections(ctx context.Context, eventID string, fn func([]model.Connection)) (func(), error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	s.connectionsMu.Lock()
	defer s.connectionsMu.Unlock()

	current, err := s.listConnections(ctx, eventID)
	if err != nil {
		return nil, err
	}
	unsub := s.hub.subscribeConnections(eventID, fn)
	fn(current)
	return unsub, nil
}

// LogInterest records that the user wants to attend the event. The user's
// display name comes from the cached profile: if no profile has been loaded
// yet the call is logged and dropped rather than surfaced to the caller.
func (s *Store) LogInterest(ctx context.Context, userID, eventID string) error {
	if s.db == nil {
		return ErrUnavailable
	}

	p, ok := s.profiles.get(userID)
	if !ok || p.Name == "" {
		s.logger.Error().Str("user", userID).Str("event", eventID).
			Msg("cannot log interest, user profile not loaded")
		return nil
	}

	s.connectionsMu.Lock()
	defer s.connectionsMu.Unlock()

	conn := model.Connection{
		EventID:   eventID,
		UserID:    userID,
		UserName:  p.Name,
		Timestamp: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("encode connection: %w", err)
	}

	query, args, err := s.sb.Insert("event_connections").
		Columns("id", "event_id", "user_id", "doc", "created_at").
		Values(connectionID(eventID, userID), eventID, userID, raw, time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc").
		ToSql()
	if err != nil {
		return fmt.Errorf("build connection upsert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("log interest: %w", err)
	}

	s.notifyConnectionsLocked(ctx, eventID)
	return nil
}

// RemoveInterest withdraws the user's interest in the event.
func (s *Store) RemoveInterest(ctx context.Context, userID, eventID string) error {
	if s.db == nil {
		return ErrUnavailable
	}

	s.connectionsMu.Lock()
	defer s.connectionsMu.Unlock()

	query, args, err := s.sb.Delete("event_connections").
		Where(sq.Eq{"id": connectionID(eventID, userID)}).ToSql()
	if err != nil {
		return fmt.Errorf("build connection delete: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("remove interest: %w", err)
	}

	s.notifyConnectionsLocked(ctx, eventID)
	return nil
}

// notifyConnectionsLocked reloads the event's list and publishes it. Callers
// hold connectionsMu, so lists are published in write order.
func (s *Store) notifyConnectionsLocked(ctx context.Context, eventID string) {
	conns, err := s.listConnections(ctx, eventID)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventID).Msg("reload connections for subscribers")
		return
	}
	s.hub.publishConnections(eventID, conns)
}
