package events

import "context"

// Filter selects documents. Zero-valued fields do not constrain the match.
type Filter struct {
	ID       string
	Approved *bool
}

// ByID matches the document with the given id.
func ByID(id string) Filter {
	return Filter{ID: id}
}

// ByApproval matches documents in the given approval state.
func ByApproval(approved bool) Filter {
	return Filter{Approved: &approved}
}

// Matches reports whether doc satisfies the filter. Backends that filter in
// process (the memory store) use it directly.
func (f Filter) Matches(doc Document) bool {
	if f.ID != "" && doc.ID != f.ID {
		return false
	}
	if f.Approved != nil && doc.IsApproved != *f.Approved {
		return false
	}
	return true
}

// FindOptions bounds a Find call. Zero means unbounded.
type FindOptions struct {
	Limit int64
	Skip  int64
}

// Update is the only mutation the store supports: the approval transition.
type Update struct {
	IsApproved     bool
	EventPublicKey string
}

// Store is the document store behind the repository. Results of Find are in
// insertion order. FindOne, UpdateOne and DeleteOne return ErrNotFound when
// nothing matches; UpdateOne and DeleteOne require a filter with an ID and
// act on at most one document atomically.
type Store interface {
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	FindOne(ctx context.Context, filter Filter) (*Document, error)
	InsertOne(ctx context.Context, doc Document) error
	UpdateOne(ctx context.Context, filter Filter, update Update) (*Document, error)
	DeleteOne(ctx context.Context, filter Filter) (*Document, error)
	ReplaceAll(ctx context.Context, docs []Document) error
	Ping(ctx context.Context) error
}
