// Package discovery implements Orbit's event classification: mapping user
// interests to external category codes, normalizing raw provider records, and
// partitioning candidate events into the discovery buckets.
package discovery

import "strings"

// DefaultCategories is the broad category set used when an interest has no
// dedicated mapping, and for mashup / deep-space / surprise candidate searches.
const DefaultCategories = "community,performing_arts,sports,conferences"

// interestCategories maps Orbit interest labels to provider category codes
// (comma-joined when an interest spans several).
var interestCategories = map[string]string{
	"Rock Climbing": "sports",
	"Jazz Music":    "concerts",
	"Vegan Cooking": "food_drink",
	"Gardening":     "community",
	"Art":           "arts_culture",
	"Yoga":          "community",
	"Astrophysics":  "conferences,expos",
	"Board Games":   "community",
	"Sci-Fi":        "movies",
	"Fishing":       "sports",
}

// CategoriesFor returns the provider categories for a single interest label,
// falling back to DefaultCategories when the label is unmapped.
func CategoriesFor(interest string) string {
	if c, ok := interestCategories[interest]; ok {
		return c
	}
	return DefaultCategories
}

// JoinedCategories maps each interest to its categories and joins them for a
// combined provider query. Unmapped interests are dropped; an empty result
// means none of the user's interests can be searched.
func JoinedCategories(interests []string) string {
	var cats []string
	for _, interest := range interests {
		if c, ok := interestCategories[interest]; ok {
			cats = append(cats, c)
		}
	}
	return strings.Join(cats, ",")
}
