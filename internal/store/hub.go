package store

import (
	"sync"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

// hub is the in-process change stream: subscribers per profile document and
// per event-connection query. Callbacks run synchronously under the hub lock,
// which guarantees that after unsubscribe returns the callback is never
// invoked again; callbacks must therefore not call back into the hub.
type hub struct {
	mu             sync.Mutex
	nextID         int
	profileSubs    map[string]map[int]func(model.UserProfile)
	connectionSubs map[string]map[int]func([]model.Connection)
}

func newHub() *hub {
	return &hub{
		profileSubs:    make(map[string]map[int]func(model.UserProfile)),
		connectionSubs: make(map[string]map[int]func([]model.Connection)),
	}
}

func (h *hub) subscribeProfile(userID string, fn func(model.UserProfile)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.profileSubs[userID] == nil {
		h.profileSubs[userID] = make(map[int]func(model.UserProfile))
	}
	h.profileSubs[userID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.profileSubs[userID], id)
	}
}

func (h *hub) publishProfile(userID string, p model.UserProfile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, fn := range h.profileSubs[userID] {
		fn(p)
	}
}

func (h *hub) subscribeConnections(eventID string, fn func([]model.Connection)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.connectionSubs[eventID] == nil {
		h.connectionSubs[eventID] = make(map[int]func([]model.Connection))
	}
	h.connectionSubs[eventID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.connectionSubs[eventID], id)
	}
}

func (h *hub) publishConnections(eventID string, conns []model.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, fn := range h.connectionSubs[eventID] {
		fn(conns)
	}
}

// profileCache holds the most recently loaded profile per user. LogInterest
// reads it for the display name; it may be unset before the first load.
type profileCache struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

func newProfileCache() *profileCache {
	return &profileCache{profiles: make(map[string]model.UserProfile)}
}

func (c *profileCache) put(userID string, p model.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[userID] = p
}

func (c *profileCache) get(userID string) (model.UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[userID]
	return p, ok
}
