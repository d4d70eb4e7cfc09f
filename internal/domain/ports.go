package domain

import "context"

// EntityQuery describes one feed fetch against the remote document store.
// Sort and Category are part of the cache identity; Search is ephemeral and
// never cached.
type EntityQuery struct {
	// Collection is the remote collection name (e.g. "posts", "helpers").
	Collection string

	// Category filters by category label; empty means all.
	Category string

	// Search is a free-text substring filter. Results for a non-empty
	// search are never persisted.
	Search string

	// Sort is the remote sort mode (e.g. "newest", "score"). The remote
	// defines item order; the core preserves it.
	Sort string

	// Cursor is the opaque continuation token from a previous page.
	Cursor string

	// Limit is the requested page size.
	Limit int
}

// EntitySource lists entities from the remote document collaborator.
type EntitySource interface {
	// ListEntities performs one paginated fetch. The returned page's
	// cursor is opaque; an empty cursor means the remote offered no
	// continuation.
	ListEntities(ctx context.Context, q EntityQuery) (FeedPage, error)
}

// MessageStore reads and writes conversation messages on the remote
// document collaborator.
type MessageStore interface {
	// RecentMessages returns up to limit messages for a channel,
	// newest first.
	RecentMessages(ctx context.Context, channel string, limit int) ([]Message, error)

	// CreateMessage persists a new message. Delivery back to listeners
	// happens through the push stream, not through this call.
	CreateMessage(ctx context.Context, msg Message) error
}

// Connectivity reports whether the network is believed reachable. The signal
// is advisory: a fetch may still fail when Online reports true, and callers
// must handle that failure identically to the offline path.
type Connectivity interface {
	Online() bool
}
