package discovery

import (
	"sort"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

// InterestSet is a user's declared interests as a membership set.
type InterestSet map[string]struct{}

// NewInterestSet builds an InterestSet from a list of labels, de-duplicating
// as it goes.
func NewInterestSet(interests []string) InterestSet {
	set := make(InterestSet, len(interests))
	for _, label := range interests {
		set[label] = struct{}{}
	}
	return set
}

// Contains reports whether the label is one of the user's interests.
func (s InterestSet) Contains(label string) bool {
	_, ok := s[label]
	return ok
}

// Recommended returns the candidates whose primary interest matches one of the
// user's interests, sorted ascending by distance and tagged RECOMMENDED.
// Candidates are copied, never mutated: the same underlying event may be
// classified differently by another bucket.
func Recommended(candidates []model.Event, interests InterestSet) []model.Event {
	return classify(candidates, model.TypeRecommended, func(e model.Event) bool {
		return interests.Contains(e.PrimaryInterest)
	})
}

// Mashup returns the candidates whose primary AND secondary interests are both
// in the user's interest set ("When Worlds Collide"). The "N/A" sentinel never
// qualifies as a secondary match. Sorted ascending by distance, tagged MASHUP.
func Mashup(candidates []model.Event, interests InterestSet) []model.Event {
	return classify(candidates, model.TypeMashup, func(e model.Event) bool {
		return e.SecondaryInterest != "" &&
			e.SecondaryInterest != model.NoSecondaryInterest &&
			interests.Contains(e.PrimaryInterest) &&
			interests.Contains(e.SecondaryInterest)
	})
}

// DeepSpace returns the candidates whose primary interest is outside the
// user's interest set, sorted ascending by distance and tagged DEEP_SPACE.
// Together with Recommended it partitions the candidates on primary interest.
func DeepSpace(candidates []model.Event, interests InterestSet) []model.Event {
	return classify(candidates, model.TypeDeepSpace, func(e model.Event) bool {
		return !interests.Contains(e.PrimaryInterest)
	})
}

// BestSurprise picks the single best surprise-day candidate: among events
// whose primary interest is outside the user's interests, the highest rank
// wins, with the smaller distance breaking ties. ok is false when no event is
// eligible; the caller decides how to render that.
func BestSurprise(candidates []model.Event, interests InterestSet) (model.Event, bool) {
	var best model.Event
	found := false
	for _, e := range candidates {
		if interests.Contains(e.PrimaryInterest) {
			continue
		}
		if !found || e.Rank > best.Rank || (e.Rank == best.Rank && e.Distance < best.Distance) {
			best = e
			found = true
		}
	}
	return best, found
}

func classify(candidates []model.Event, t model.EventType, match func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0, len(candidates))
	for _, e := range candidates {
		if match(e) {
			e.Type = t
			out = append(out, e)
		}
	}
	sortByDistance(out)
	return out
}

func sortByDistance(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Distance < events[j].Distance
	})
}
