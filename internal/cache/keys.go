package cache

import "fmt"

// Key builders give every cached query shape a single canonical signature, so
// callers cannot drift into ad hoc string concatenation. Search terms are
// deliberately absent from every builder: search results are ephemeral and
// must never land under a shared key.

// FeedKey is the signature for a first-page feed fetch of a collection with a
// category filter and sort mode.
func FeedKey(collection, category, sort string) string {
	if category == "" {
		category = "all"
	}
	if sort == "" {
		sort = "default"
	}
	return fmt.Sprintf("%s:%s:%s", collection, category, sort)
}

// EntityListKey is the signature for an unfiltered entity listing, used by
// screens that always load a whole collection (helpers, categories).
func EntityListKey(collection string) string {
	return FeedKey(collection, "", "")
}
