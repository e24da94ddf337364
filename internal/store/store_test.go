package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

// memDB is an in-memory querier understanding the handful of statements the
// store issues, keyed by table name.
type memDB struct {
	mu          sync.Mutex
	profiles    map[string][]byte
	connections []memConnRow

	// profileReadGate, when set, is called before serving a profile select.
	profileReadGate func()
}

type memConnRow struct {
	id      string
	eventID string
	doc     []byte
}

func newMemDB() *memDB {
	return &memDB{profiles: map[string][]byte{}}
}

func (db *memDB) putProfile(t *testing.T, userID string, p model.UserProfile) {
	t.Helper()
	doc, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal profile: %v", err)
	}
	db.mu.Lock()
	db.profiles[userID] = doc
	db.mu.Unlock()
}

func (db *memDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	switch {
	case strings.Contains(sql, "INTO profiles"):
		db.profiles[args[0].(string)] = args[1].([]byte)
	case strings.Contains(sql, "INTO event_connections"):
		row := memConnRow{id: args[0].(string), eventID: args[1].(string), doc: args[3].([]byte)}
		for i, existing := range db.connections {
			if existing.id == row.id {
				db.connections[i] = row
				return pgconn.CommandTag{}, nil
			}
		}
		db.connections = append(db.connections, row)
	case strings.Contains(sql, "DELETE FROM event_connections"):
		id := args[0].(string)
		kept := db.connections[:0]
		for _, row := range db.connections {
			if row.id != id {
				kept = append(kept, row)
			}
		}
		db.connections = kept
	}
	return pgconn.CommandTag{}, nil
}

func (db *memDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "FROM profiles") {
		if gate := db.profileReadGate; gate != nil {
			gate()
		}
		db.mu.Lock()
		doc, ok := db.profiles[args[0].(string)]
		db.mu.Unlock()
		if !ok {
			return memRow{err: pgx.ErrNoRows}
		}
		return memRow{doc: doc}
	}
	return memRow{err: pgx.ErrNoRows}
}

func (db *memDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var rows [][]any
	if strings.Contains(sql, "FROM event_connections") {
		eventID := args[0].(string)
		for _, row := range db.connections {
			if row.eventID == eventID {
				rows = append(rows, []any{row.doc})
			}
		}
	}
	return &memRows{rows: rows}, nil
}

type memRow struct {
	doc []byte
	err error
}

func (r memRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.doc
	return nil
}

type memRows struct {
	rows [][]any
	idx  int
}

func (r *memRows) Close()                                       {}
func (r *memRows) Err() error                                   { return nil }
func (r *memRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *memRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *memRows) Values() ([]any, error)                       { return nil, nil }
func (r *memRows) RawValues() [][]byte                          { return nil }
func (r *memRows) Conn() *pgx.Conn                              { return nil }

func (r *memRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *memRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *[]byte:
			*v = row[i].([]byte)
		}
	}
	return nil
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestProfileSeedsOnFirstAccess(t *testing.T) {
	s := newStore(newMemDB(), zerolog.Nop())

	p, err := s.Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Name != "Astronaut" || len(p.Interests) != 3 {
		t.Fatalf("seeded profile = %+v", p)
	}

	again, err := s.Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second Profile: %v", err)
	}
	if again.Name != p.Name {
		t.Errorf("second read = %+v, want the seeded document", again)
	}
}

func TestSubscribeProfileDeliversWriteDuringSnapshotLoad(t *testing.T) {
	db := newMemDB()
	db.putProfile(t, "u1", model.UserProfile{Name: "before"})

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	db.profileReadGate = func() {
		once.Do(func() { close(started) })
		<-release
	}

	s := newStore(db, zerolog.Nop())

	var mu sync.Mutex
	var got []string
	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		_, err := s.SubscribeProfile(context.Background(), "u1", func(p model.UserProfile) {
			mu.Lock()
			got = append(got, p.Name)
			mu.Unlock()
		})
		if err != nil {
			t.Errorf("SubscribeProfile: %v", err)
		}
	}()

	// While the subscriber's snapshot load is in flight, another writer
	// replaces the profile. The subscriber must still end on the new state.
	<-started
	saved := make(chan struct{})
	go func() {
		defer close(saved)
		if err := s.SaveProfile(context.Background(), "u1", model.UserProfile{Name: "after"}); err != nil {
			t.Errorf("SaveProfile: %v", err)
		}
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	<-subscribed
	<-saved

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 || got[len(got)-1] != "after" {
		t.Fatalf("deliveries = %v, want the racing write as the final state", got)
	}
}

func TestLogInterestRequiresLoadedProfile(t *testing.T) {
	db := newMemDB()
	s := newStore(db, zerolog.Nop())

	// Before any profile load the call is dropped, not surfaced.
	if err := s.LogInterest(context.Background(), "u1", "e1"); err != nil {
		t.Fatalf("LogInterest without cached profile: %v", err)
	}
	conns, err := s.Connections(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Connections: %v", err)
	}
	if len(conns) != 0 {
		t.Fatalf("connection stored without a profile: %v", conns)
	}

	if _, err := s.Profile(context.Background(), "u1"); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if err := s.LogInterest(context.Background(), "u1", "e1"); err != nil {
		t.Fatalf("LogInterest: %v", err)
	}
	conns, err = s.Connections(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Connections: %v", err)
	}
	if len(conns) != 1 || conns[0].UserName != "Astronaut" {
		t.Fatalf("connections = %v, want one entry carrying the display name", conns)
	}
}

func TestSubscribeConnectionsDeliversChanges(t *testing.T) {
	s := newStore(newMemDB(), zerolog.Nop())
	if _, err := s.Profile(context.Background(), "u1"); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	var mu sync.Mutex
	var sizes []int
	unsub, err := s.SubscribeConnections(context.Background(), "e1", func(conns []model.Connection) {
		mu.Lock()
		sizes = append(sizes, len(conns))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("SubscribeConnections: %v", err)
	}
	defer unsub()

	if err := s.LogInterest(context.Background(), "u1", "e1"); err != nil {
		t.Fatalf("LogInterest: %v", err)
	}
	if err := s.RemoveInterest(context.Background(), "u1", "e1"); err != nil {
		t.Fatalf("RemoveInterest: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1, 0}
	if len(sizes) != len(want) {
		t.Fatalf("deliveries = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("deliveries = %v, want %v", sizes, want)
		}
	}
}
