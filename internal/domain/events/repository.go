package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PredictChain/server/internal/domain/ids"
	"golang.org/x/sync/errgroup"
)

// AdminChecker decides whether a caller identifier carries admin privilege.
type AdminChecker interface {
	IsAdmin(id string) bool
}

// PendingVisibility controls who may fetch a pending event by id.
type PendingVisibility string

const (
	// PendingVisibilityPublic lets anyone who knows the id read a pending event.
	PendingVisibilityPublic PendingVisibility = "public"
	// PendingVisibilityAdmin reports pending events as missing to non-admins.
	PendingVisibilityAdmin PendingVisibility = "admin"
)

// ParsePendingVisibility maps a configuration value onto a policy.
func ParsePendingVisibility(value string) (PendingVisibility, error) {
	switch PendingVisibility(strings.ToLower(strings.TrimSpace(value))) {
	case "", PendingVisibilityPublic:
		return PendingVisibilityPublic, nil
	case PendingVisibilityAdmin:
		return PendingVisibilityAdmin, nil
	default:
		return "", fmt.Errorf("unsupported pending visibility %q", value)
	}
}

// Page carries optional limit/offset bounds. Nil means absent.
type Page struct {
	Limit  *int
	Offset *int
}

func (p Page) findOptions() FindOptions {
	opts := FindOptions{}
	if p.Limit != nil && *p.Limit > 0 {
		opts.Limit = int64(*p.Limit)
	}
	if p.Offset != nil && *p.Offset > 0 {
		opts.Skip = int64(*p.Offset)
	}
	return opts
}

type ListResult struct {
	Events []Event
	Total  int64
}

// Repository is the only path to persisted event state. It owns every
// admin-privilege check for operations that touch pending events.
type Repository struct {
	store             Store
	admins            AdminChecker
	pendingVisibility PendingVisibility
}

type Option func(*Repository)

func WithPendingVisibility(v PendingVisibility) Option {
	return func(r *Repository) {
		r.pendingVisibility = v
	}
}

func NewRepository(store Store, admins AdminChecker, opts ...Option) *Repository {
	r := &Repository{
		store:             store,
		admins:            admins,
		pendingVisibility: PendingVisibilityPublic,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) isAdmin(callerID string) bool {
	return r.admins != nil && r.admins.IsAdmin(callerID)
}

// ListApproved returns approved events in insertion order together with the
// total number of approved events.
func (r *Repository) ListApproved(ctx context.Context, page Page) (ListResult, error) {
	return r.list(ctx, ByApproval(true), page)
}

// ListPending is ListApproved for pending events, restricted to admins.
func (r *Repository) ListPending(ctx context.Context, callerID string, page Page) (ListResult, error) {
	if !r.isAdmin(callerID) {
		return ListResult{}, ErrForbidden
	}
	return r.list(ctx, ByApproval(false), page)
}

// list runs the page query and the count concurrently. The two reads are not
// taken from a shared snapshot.
func (r *Repository) list(ctx context.Context, filter Filter, page Page) (ListResult, error) {
	var (
		docs  []Document
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := r.store.Find(gctx, filter, page.findOptions())
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		docs = found
		return nil
	})
	g.Go(func() error {
		count, err := r.store.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		total = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}

	items := make([]Event, 0, len(docs))
	for _, doc := range docs {
		items = append(items, FromDocument(doc))
	}
	return ListResult{Events: items, Total: total}, nil
}

// GetByID fetches one event. Whether non-admins can see pending events
// depends on the configured PendingVisibility.
func (r *Repository) GetByID(ctx context.Context, callerID string, id string) (*Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	doc, err := r.store.FindOne(ctx, ByID(id))
	if err != nil {
		return nil, err
	}
	event := FromDocument(*doc)
	if !event.IsApproved && r.pendingVisibility == PendingVisibilityAdmin && !r.isAdmin(callerID) {
		return nil, ErrNotFound
	}
	return &event, nil
}

// AddPending stores event as a new pending event, minting an id when the
// event has none. Approval state supplied by the caller is discarded.
func (r *Repository) AddPending(ctx context.Context, event Event) (*Event, error) {
	event.IsApproved = false
	event.EventPublicKey = ""
	if event.ID == "" {
		event.ID = ids.NewULID()
	}
	if err := r.store.InsertOne(ctx, ToDocument(event)); err != nil {
		return nil, fmt.Errorf("add pending event: %w", err)
	}
	return &event, nil
}

// Approve moves a pending event to approved and records its public key in
// one store update. Only pending events match the update, so an event that is
// already approved yields ErrConflict rather than a silent key overwrite.
func (r *Repository) Approve(ctx context.Context, callerID string, id string, eventPublicKey string) (*Event, error) {
	if !r.isAdmin(callerID) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(eventPublicKey) == "" {
		return nil, ValidationError{Field: "eventPublicKey", Message: "is required"}
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	pending := false
	doc, err := r.store.UpdateOne(ctx,
		Filter{ID: id, Approved: &pending},
		Update{IsApproved: true, EventPublicKey: eventPublicKey},
	)
	if err == nil {
		event := FromDocument(*doc)
		return &event, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("approve event: %w", err)
	}

	// Zero documents updated: either the id is unknown or it is already approved.
	if _, findErr := r.store.FindOne(ctx, ByID(id)); findErr != nil {
		if errors.Is(findErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("approve event: %w", findErr)
	}
	return nil, fmt.Errorf("%w: event %s is already approved", ErrConflict, id)
}

// Delete removes an event permanently and returns it as it was just before
// removal.
func (r *Repository) Delete(ctx context.Context, callerID string, id string) (*Event, error) {
	if !r.isAdmin(callerID) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	doc, err := r.store.DeleteOne(ctx, ByID(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete event: %w", err)
	}
	event := FromDocument(*doc)
	return &event, nil
}

// ResetFixtures replaces every stored event with the fixture set. Callers are
// responsible for keeping this away from production deployments.
func (r *Repository) ResetFixtures(ctx context.Context) ([]Event, error) {
	fixtures := Fixtures()
	docs := make([]Document, 0, len(fixtures))
	for _, f := range fixtures {
		docs = append(docs, ToDocument(f))
	}
	if err := r.store.ReplaceAll(ctx, docs); err != nil {
		return nil, fmt.Errorf("reset fixtures: %w", err)
	}
	return fixtures, nil
}

// Ping checks that the backing store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
