package domain

import "time"

// Kind identifies what a geo-tagged entity represents.
type Kind string

const (
	KindPost    Kind = "post"
	KindHelper  Kind = "helper"
	KindService Kind = "service"
	KindJob     Kind = "job"
	KindPart    Kind = "part"
)

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Entity is an immutable snapshot of a remote document (post, helper, job,
// part, service). The core never mutates entities; derived fields such as
// distance live on DistanceResult instead.
type Entity struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`

	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Price is free text as entered by the lister (e.g. "₹500/day",
	// "Contact for price"). Numeric sorting parses the first integer out
	// of it and treats anything else as zero.
	Price  string  `json:"price,omitempty"`
	Rating float64 `json:"rating,omitempty"`

	// Attrs carries any remaining document fields so cached payloads
	// round-trip without loss.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// FeedPage is one page of a cursor-paginated feed. Cursor is opaque and is
// handed back verbatim to fetch the next page; empty means the remote
// returned no continuation. Item order is the remote's and must be preserved.
type FeedPage struct {
	Items  []Entity `json:"items"`
	Cursor string   `json:"cursor,omitempty"`
}

// DistanceResult is an entity annotated with locally derived proximity data.
// Computed fresh on every matching pass, never persisted.
type DistanceResult struct {
	Entity     Entity  `json:"entity"`
	DistanceKm float64 `json:"distanceKm"`
	Bucket     string  `json:"bucket,omitempty"`
}

// CategoryDef names a category and the keywords that map entities into it.
type CategoryDef struct {
	Label    string   `json:"label"`
	Keywords []string `json:"keywords,omitempty"`
}

// CategoryStat is the per-category aggregate over a set of entities.
// HasNearest is false when no matching entity carried a coordinate, which
// callers render as "None".
type CategoryStat struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	NearestKm  float64 `json:"nearestKm"`
	HasNearest bool    `json:"hasNearest"`
}
