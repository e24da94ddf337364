package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbitlabs/orbit-backend/internal/geo"
	"github.com/orbitlabs/orbit-backend/internal/model"
)

// RawEvent is an event record as returned by the external events API.
// Location is a GeoJSON-style [lng, lat] pair.
type RawEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Labels      []string   `json:"labels"`
	Location    [2]float64 `json:"location"`
	Start       string     `json:"start"`
	Entities    []Entity   `json:"entities"`
	URL         string     `json:"url"`
	Rank        float64    `json:"rank"`
}

// Entity is a venue or organisation attached to a raw event.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Transform normalizes a raw provider record into an Orbit event, assigning
// primary and secondary interests heuristically and computing the distance
// from the viewer's location.
//
// The interest assignment is a stand-in for a real content classifier: the
// primary interest is chosen from the raw category in a fixed priority order,
// and the secondary comes from a label heuristic kept for behavioural
// compatibility with the discovery buckets that consume it.
func Transform(raw RawEvent, viewer model.LatLng) model.Event {
	primary := "Community"
	switch {
	case strings.Contains(raw.Category, "concerts"):
		primary = "Jazz Music"
	case strings.Contains(raw.Category, "sports"):
		primary = "Rock Climbing"
	case strings.Contains(raw.Category, "food_drink"):
		primary = "Vegan Cooking"
	case strings.Contains(raw.Category, "arts"):
		primary = "Art"
	}

	secondary := model.NoSecondaryInterest
	if len(raw.Labels) > 1 {
		if strings.Contains(raw.Labels[0], "conference") {
			secondary = "Astrophysics"
		} else {
			secondary = "Yoga"
		}
		if secondary == primary {
			secondary = "Sci-Fi"
		}
	}

	loc := model.Location{
		Lat:     raw.Location[1],
		Lng:     raw.Location[0],
		Address: "Unknown Venue",
	}
	if len(raw.Entities) > 0 && raw.Entities[0].Name != "" {
		loc.Address = raw.Entities[0].Name
	}

	description := raw.Description
	if description == "" {
		description = fmt.Sprintf("A public event categorized as %s.", raw.Category)
	}

	return model.Event{
		ID:                raw.ID,
		Title:             raw.Title,
		Description:       description,
		PrimaryInterest:   primary,
		SecondaryInterest: secondary,
		Location:          loc,
		StartTime:         parseStartMillis(raw.Start),
		Distance:          geo.Distance(viewer, model.LatLng{Lat: loc.Lat, Lng: loc.Lng}),
		Category:          raw.Category,
		Rank:              raw.Rank,
		Type:              model.TypeRecommended,
		WebsiteURL:        raw.URL,
	}
}

// parseStartMillis converts the provider's start timestamp to epoch
// milliseconds, accepting RFC3339 or a bare date. Unparseable values yield 0.
func parseStartMillis(start string) int64 {
	if start == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, start); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse("2006-01-02", start); err == nil {
		return t.UnixMilli()
	}
	return 0
}
