package predicthq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/config"
	"github.com/orbitlabs/orbit-backend/internal/model"
)

var testViewer = model.LatLng{Lat: 34.0522, Lng: -118.2437}

func testConfig(baseURL string) config.PredictHQConfig {
	return config.PredictHQConfig{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		RadiusKm: 50,
		Limit:    50,
	}
}

const sampleResponse = `{
	"results": [
		{
			"id": "phq-1",
			"title": "Harbor Jazz Festival",
			"category": "concerts",
			"labels": ["music", "festival"],
			"location": [-118.25, 34.05],
			"start": "2026-09-12T19:30:00Z",
			"entities": [{"name": "Harbor Stage"}],
			"url": "https://example.com/jazz",
			"rank": 85
		},
		{
			"id": "phq-2",
			"title": "Marathon",
			"category": "sports",
			"labels": ["running"],
			"location": [-118.30, 34.10],
			"start": "2026-09-13T08:00:00Z",
			"entities": [],
			"rank": 60
		}
	]
}`

func TestFetchEventsQueryParamsNow(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testViewer, zerolog.Nop())
	events := c.FetchEvents(context.Background(), Query{Categories: "concerts,sports", Date: DateNow})

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if got := gotQuery["category"]; len(got) != 1 || got[0] != "concerts,sports" {
		t.Errorf("category param = %v", got)
	}
	if got := gotQuery["active.from"]; len(got) != 1 || got[0] != "now" {
		t.Errorf("active.from param = %v", got)
	}
	if len(gotQuery["start.gte"]) != 0 || len(gotQuery["q"]) != 0 {
		t.Errorf("unset params sent: %v", gotQuery)
	}
	if got := gotQuery["sort"]; len(got) != 1 || got[0] != "rank" {
		t.Errorf("sort param = %v", got)
	}
	if got := gotQuery["within"]; len(got) != 1 || got[0] != "50km@34.0522,-118.2437" {
		t.Errorf("within param = %v", got)
	}
}

func TestFetchEventsDateBounds(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testViewer, zerolog.Nop())
	c.FetchEvents(context.Background(), Query{Categories: "community", Date: "2026-10-01", Title: "Chess Night"})

	if got := gotQuery["start.gte"]; len(got) != 1 || got[0] != "2026-10-01T00:00:00Z" {
		t.Errorf("start.gte param = %v", got)
	}
	if got := gotQuery["start.lte"]; len(got) != 1 || got[0] != "2026-10-01T23:59:59Z" {
		t.Errorf("start.lte param = %v", got)
	}
	if len(gotQuery["active.from"]) != 0 {
		t.Errorf("active.from sent alongside date bounds: %v", gotQuery)
	}
	if got := gotQuery["q"]; len(got) != 1 || got[0] != "Chess Night" {
		t.Errorf("q param = %v", got)
	}
}

func TestFetchEventsTransformsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testViewer, zerolog.Nop())
	events := c.FetchEvents(context.Background(), Query{Categories: "concerts", Date: DateNow})

	if events[0].PrimaryInterest != "Jazz Music" {
		t.Errorf("primary = %q, want Jazz Music", events[0].PrimaryInterest)
	}
	if events[0].Location.Address != "Harbor Stage" {
		t.Errorf("address = %q", events[0].Location.Address)
	}
	if events[1].SecondaryInterest != model.NoSecondaryInterest {
		t.Errorf("single-label secondary = %q, want N/A", events[1].SecondaryInterest)
	}
}

func TestFetchEventsDegradesOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testViewer, zerolog.Nop())
	events := c.FetchEvents(context.Background(), Query{Categories: "community", Date: DateNow})

	if events == nil || len(events) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", events)
	}
}

func TestFetchEventsDegradesWithoutAPIKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""

	c := NewClient(cfg, testViewer, zerolog.Nop())
	events := c.FetchEvents(context.Background(), Query{Categories: "community", Date: DateNow})

	if len(events) != 0 {
		t.Fatalf("got %v, want empty slice", events)
	}
}
