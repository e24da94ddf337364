package discovery

import (
	"testing"
	"time"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

var viewer = model.LatLng{Lat: 34.0522, Lng: -118.2437}

func rawFixture() RawEvent {
	return RawEvent{
		ID:       "phq-1",
		Title:    "Downtown Jazz Night",
		Category: "concerts",
		Labels:   []string{"music", "entertainment"},
		Location: [2]float64{-118.25, 34.05},
		Start:    "2026-09-12T19:30:00Z",
		Entities: []Entity{{Name: "The Blue Room"}},
		URL:      "https://example.com/jazz",
		Rank:     72,
	}
}

func TestTransformPrimaryInterestPriority(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{"concerts", "Jazz Music"},
		{"sports", "Rock Climbing"},
		{"food_drink", "Vegan Cooking"},
		{"arts_culture", "Art"},
		{"expos", "Community"},
	}
	for _, tc := range cases {
		raw := rawFixture()
		raw.Category = tc.category
		got := Transform(raw, viewer)
		if got.PrimaryInterest != tc.want {
			t.Errorf("category %q: primary = %q, want %q", tc.category, got.PrimaryInterest, tc.want)
		}
	}
}

func TestTransformSingleLabelYieldsSentinel(t *testing.T) {
	raw := rawFixture()
	raw.Labels = []string{"music"}

	got := Transform(raw, viewer)
	if got.SecondaryInterest != model.NoSecondaryInterest {
		t.Errorf("secondary = %q, want %q", got.SecondaryInterest, model.NoSecondaryInterest)
	}
}

func TestTransformSecondaryNeverCollidesWithPrimary(t *testing.T) {
	// A conferences/expos record whose labels would pick Astrophysics; force a
	// primary that can collide via the community fallback paths.
	cases := []RawEvent{
		{Category: "concerts", Labels: []string{"conference", "expo"}},
		{Category: "concerts", Labels: []string{"music", "nightlife"}},
		{Category: "sports", Labels: []string{"conference", "expo"}},
		{Category: "community", Labels: []string{"festival", "outdoor"}},
	}
	for _, raw := range cases {
		got := Transform(raw, viewer)
		if got.SecondaryInterest == got.PrimaryInterest {
			t.Errorf("labels %v category %q: secondary %q collides with primary",
				raw.Labels, raw.Category, got.SecondaryInterest)
		}
	}
}

func TestTransformConferenceLabelHeuristic(t *testing.T) {
	raw := rawFixture()
	raw.Labels = []string{"conference", "expo"}
	if got := Transform(raw, viewer); got.SecondaryInterest != "Astrophysics" {
		t.Errorf("secondary = %q, want Astrophysics", got.SecondaryInterest)
	}

	raw.Labels = []string{"music", "nightlife"}
	if got := Transform(raw, viewer); got.SecondaryInterest != "Yoga" {
		t.Errorf("secondary = %q, want Yoga", got.SecondaryInterest)
	}
}

func TestTransformDefaultsDescription(t *testing.T) {
	raw := rawFixture()
	raw.Description = ""

	got := Transform(raw, viewer)
	want := "A public event categorized as concerts."
	if got.Description != want {
		t.Errorf("description = %q, want %q", got.Description, want)
	}
}

func TestTransformLocationAndDistance(t *testing.T) {
	got := Transform(rawFixture(), viewer)

	if got.Location.Lat != 34.05 || got.Location.Lng != -118.25 {
		t.Errorf("location = %+v, want lat 34.05 lng -118.25 ([lng, lat] source order)", got.Location)
	}
	if got.Location.Address != "The Blue Room" {
		t.Errorf("address = %q, want The Blue Room", got.Location.Address)
	}
	if got.Distance < 0 {
		t.Errorf("distance = %v, want non-negative", got.Distance)
	}
}

func TestTransformMissingEntitiesFallsBack(t *testing.T) {
	raw := rawFixture()
	raw.Entities = nil

	if got := Transform(raw, viewer); got.Location.Address != "Unknown Venue" {
		t.Errorf("address = %q, want Unknown Venue", got.Location.Address)
	}
}

func TestTransformStartTime(t *testing.T) {
	got := Transform(rawFixture(), viewer)

	want := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC).UnixMilli()
	if got.StartTime != want {
		t.Errorf("startTime = %d, want %d", got.StartTime, want)
	}
}

func TestCategoriesForFallback(t *testing.T) {
	if got := CategoriesFor("Jazz Music"); got != "concerts" {
		t.Errorf("CategoriesFor(Jazz Music) = %q, want concerts", got)
	}
	if got := CategoriesFor("Underwater Basket Weaving"); got != DefaultCategories {
		t.Errorf("unmapped interest = %q, want default set", got)
	}
}

func TestJoinedCategoriesDropsUnmapped(t *testing.T) {
	got := JoinedCategories([]string{"Jazz Music", "Underwater Basket Weaving", "Fishing"})
	if got != "concerts,sports" {
		t.Errorf("JoinedCategories = %q, want concerts,sports", got)
	}
	if got := JoinedCategories([]string{"Nope"}); got != "" {
		t.Errorf("all-unmapped = %q, want empty", got)
	}
}
