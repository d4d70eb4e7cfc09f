// Package proximity ranks and buckets geo-tagged entities around an origin
// point. All passes are O(categories × entities) and sized for tens of rows;
// nothing here is indexed for large sets.
package proximity

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sahayakapp/sahayak-core/internal/domain"
	"github.com/sahayakapp/sahayak-core/internal/geo"
)

// SortMode selects the ordering of match results.
type SortMode string

const (
	SortDistance SortMode = "distance" // ascending
	SortRating   SortMode = "rating"   // descending
	SortPrice    SortMode = "price"    // ascending, parsed from free text
)

// categoryKeywords maps a category label to the keywords that pull an entity
// into it. Matching is case-insensitive substring over name, description and
// tags.
var categoryKeywords = map[string][]string{
	"Electricians": {"electrician", "electrical", "wiring"},
	"Plumbers":     {"plumber", "plumbing", "pipe", "leak"},
	"Mechanics":    {"mechanic", "garage", "engine", "repair"},
	"Carpenters":   {"carpenter", "carpentry", "furniture", "wood"},
	"Painters":     {"painter", "painting", "whitewash"},
	"Cleaners":     {"cleaner", "cleaning", "housekeeping"},
	"Tutors":       {"tutor", "tuition", "teacher", "coaching"},
	"Drivers":      {"driver", "driving", "chauffeur"},
}

var firstInt = regexp.MustCompile(`\d+`)

// farKm is the sort sentinel for distance text that cannot be parsed, so
// malformed rows sort after every real one.
const farKm = 1 << 20

// Match annotates every entity that carries a coordinate with its distance
// from origin, optionally keeps only entities matching a category's keywords,
// and sorts by the given mode. Entities without a coordinate are dropped, not
// errored. An empty input yields an empty result.
func Match(entities []domain.Entity, origin domain.Coordinate, category string, mode SortMode) []domain.DistanceResult {
	results := make([]domain.DistanceResult, 0, len(entities))
	for _, e := range entities {
		if e.Coordinate == nil {
			continue
		}
		if category != "" && !matchesCategory(e, category) {
			continue
		}
		results = append(results, domain.DistanceResult{
			Entity:     e,
			DistanceKm: geo.DistanceKm(origin, *e.Coordinate),
			Bucket:     category,
		})
	}
	SortResults(results, mode)
	return results
}

// SortResults orders results in place by the given mode. The sort is stable
// so equal keys keep their incoming (remote-defined) order.
func SortResults(results []domain.DistanceResult, mode SortMode) {
	switch mode {
	case SortRating:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Entity.Rating > results[j].Entity.Rating
		})
	case SortPrice:
		sort.SliceStable(results, func(i, j int) bool {
			return PriceValue(results[i].Entity.Price) < PriceValue(results[j].Entity.Price)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DistanceKm < results[j].DistanceKm
		})
	}
}

// AggregateByCategory buckets entities into categories by substring match of
// each category's singularized label against entity name and description,
// reporting a count and the nearest distance per category. Categories with no
// located match report HasNearest=false, rendered as "None" upstream.
func AggregateByCategory(entities []domain.Entity, origin domain.Coordinate, categories []domain.CategoryDef) []domain.CategoryStat {
	stats := make([]domain.CategoryStat, 0, len(categories))
	for _, cat := range categories {
		stat := domain.CategoryStat{Label: cat.Label}
		needle := strings.ToLower(singularize(cat.Label))

		for _, e := range entities {
			text := strings.ToLower(e.Name + " " + e.Description)
			if !strings.Contains(text, needle) && !matchesKeywords(e, cat.Keywords) {
				continue
			}
			stat.Count++
			if e.Coordinate == nil {
				continue
			}
			d := geo.DistanceKm(origin, *e.Coordinate)
			if !stat.HasNearest || d < stat.NearestKm {
				stat.NearestKm = d
				stat.HasNearest = true
			}
		}
		stats = append(stats, stat)
	}
	return stats
}

// PriceValue parses the first integer substring out of a free-text price or
// rate field ("₹500/day" → 500). Absent or unparseable text yields 0.
func PriceValue(s string) int {
	m := firstInt.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// longer than an int; cap rather than crash
		return farKm
	}
	return n
}

// DistanceFromLabel parses a numeric km value out of a display string such as
// "3.2 km away". Non-numeric input returns a large sentinel so malformed rows
// sort last instead of crashing or interleaving.
func DistanceFromLabel(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return farKm
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return farKm
	}
	return v
}

func matchesCategory(e domain.Entity, category string) bool {
	keywords, ok := categoryKeywords[category]
	if !ok {
		// Unknown category: fall back to matching the singularized
		// label itself, same heuristic as aggregation.
		keywords = []string{strings.ToLower(singularize(category))}
	}
	return matchesKeywords(e, keywords)
}

func matchesKeywords(e domain.Entity, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(e.Name + " " + e.Description + " " + strings.Join(e.Tags, " "))
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// singularize strips a plural "s" so "Electricians" matches "electrician".
func singularize(label string) string {
	if len(label) > 1 && strings.HasSuffix(label, "s") {
		return label[:len(label)-1]
	}
	return label
}
