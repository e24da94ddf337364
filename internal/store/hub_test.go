package store

import (
	"testing"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

func TestHubDeliversProfileChanges(t *testing.T) {
	h := newHub()

	var got []string
	unsub := h.subscribeProfile("u1", func(p model.UserProfile) {
		got = append(got, p.Name)
	})
	defer unsub()

	h.publishProfile("u1", model.UserProfile{Name: "first"})
	h.publishProfile("u1", model.UserProfile{Name: "second"})

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("got %v, want [first second] in publish order", got)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := newHub()

	calls := 0
	unsub := h.subscribeProfile("u1", func(model.UserProfile) { calls++ })

	h.publishProfile("u1", model.UserProfile{Name: "a"})
	unsub()
	h.publishProfile("u1", model.UserProfile{Name: "b"})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (none after unsubscribe)", calls)
	}
}

func TestHubScopesByKey(t *testing.T) {
	h := newHub()

	u1Calls, e1Calls := 0, 0
	defer h.subscribeProfile("u1", func(model.UserProfile) { u1Calls++ })()
	defer h.subscribeConnections("e1", func([]model.Connection) { e1Calls++ })()

	h.publishProfile("u2", model.UserProfile{})
	h.publishConnections("e2", nil)

	if u1Calls != 0 || e1Calls != 0 {
		t.Fatalf("cross-key delivery: profile=%d connections=%d", u1Calls, e1Calls)
	}

	h.publishProfile("u1", model.UserProfile{})
	h.publishConnections("e1", []model.Connection{{EventID: "e1"}})

	if u1Calls != 1 || e1Calls != 1 {
		t.Fatalf("missing delivery: profile=%d connections=%d", u1Calls, e1Calls)
	}
}

func TestHubMultipleSubscribers(t *testing.T) {
	h := newHub()

	a, b := 0, 0
	unsubA := h.subscribeConnections("e1", func([]model.Connection) { a++ })
	defer h.subscribeConnections("e1", func([]model.Connection) { b++ })()

	h.publishConnections("e1", nil)
	unsubA()
	h.publishConnections("e1", nil)

	if a != 1 || b != 2 {
		t.Fatalf("a=%d b=%d, want a=1 b=2", a, b)
	}
}

func TestProfileCache(t *testing.T) {
	c := newProfileCache()

	if _, ok := c.get("u1"); ok {
		t.Fatal("expected miss before put")
	}
	c.put("u1", model.UserProfile{Name: "Astronaut"})
	p, ok := c.get("u1")
	if !ok || p.Name != "Astronaut" {
		t.Fatalf("got (%+v, %v)", p, ok)
	}
}
