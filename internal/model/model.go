// Package model defines the core domain types for the Orbit event-discovery
// backend.
package model

// EventType classifies which discovery bucket an event was returned from.
// PROMPT and EMPTY are pseudo-events rendered by the surprise-day flow when no
// date has been selected or no candidate exists for the chosen date.
type EventType string

const (
	TypeRecommended EventType = "RECOMMENDED"
	TypeMashup      EventType = "MASHUP"
	TypeDeepSpace   EventType = "DEEP_SPACE"
	TypeSurpriseDay EventType = "SURPRISE_DAY"
	TypePrompt      EventType = "PROMPT"
	TypeEmpty       EventType = "EMPTY"
)

// NoSecondaryInterest is the sentinel stored when an event carries no usable
// secondary interest. Mashup matching must treat it as absent.
const NoSecondaryInterest = "N/A"

// LatLng is a WGS84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is an event venue: coordinates plus a display address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Event is the normalized event shape shared by the external-API path and the
// document-store path. StartTime is epoch milliseconds, matching the documents
// the web client reads.
type Event struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	PrimaryInterest   string    `json:"primaryInterest"`
	SecondaryInterest string    `json:"secondaryInterest,omitempty"`
	Location          Location  `json:"location"`
	StartTime         int64     `json:"startTime"`
	Distance          float64   `json:"distance"`
	Category          string    `json:"category,omitempty"`
	Rank              float64   `json:"rank"`
	Type              EventType `json:"type"`
	WebsiteURL        string    `json:"websiteUrl,omitempty"`
}

// UserProfile is the per-user document: display name, declared interests, and
// home location.
type UserProfile struct {
	Name      string   `json:"name"`
	Interests []string `json:"interests"`
	Location  LatLng   `json:"location"`
}

// Connection records that a user signalled interest in attending an event.
// Its document key is "{eventID}_{userID}", one document per user per event.
type Connection struct {
	EventID   string `json:"eventId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Timestamp int64  `json:"timestamp"`
}

// ChatRequest is the payload for the generative-AI chat proxy.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the model's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// SurpriseDateRequest selects the pending surprise-day date ("YYYY-MM-DD").
type SurpriseDateRequest struct {
	Date string `json:"date"`
}

// ConnectionRequest is the payload for logging interest in an event.
type ConnectionRequest struct {
	UserID string `json:"userId"`
}

// ValidateEventRequest is a user-submitted event awaiting vetting.
type ValidateEventRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PrimaryInterest string `json:"primaryInterest"`
	StartTime       int64  `json:"startTime"`
}

// ValidationResult summarises the outcome of vetting a user-submitted event.
type ValidationResult struct {
	Valid              bool   `json:"valid"`
	Reason             string `json:"reason"`
	RequiresModeration bool   `json:"requiresModeration,omitempty"`
}

// EventsResponse is the envelope for raw event-document listings. Error is set
// alongside an empty list when the backing store is unavailable.
type EventsResponse struct {
	Events []map[string]any `json:"events"`
	Error  string           `json:"error,omitempty"`
}

// DiscoveryResponse is the envelope for classified discovery buckets.
type DiscoveryResponse struct {
	Events []Event `json:"events"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
