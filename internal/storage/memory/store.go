// Package memory is an in-process events.Store used for local development
// and tests. Contents are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PredictChain/server/internal/domain/events"
)

type Store struct {
	mu   sync.RWMutex
	docs []events.Document
}

var _ events.Store = (*Store)(nil)

func New(seed ...events.Document) *Store {
	return &Store{docs: cloneDocs(seed)}
}

func (s *Store) Find(ctx context.Context, filter events.Filter, opts events.FindOptions) ([]events.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]events.Document, 0)
	var skipped int64
	for _, doc := range s.docs {
		if !filter.Matches(doc) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		if opts.Limit > 0 && int64(len(out)) >= opts.Limit {
			break
		}
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, filter events.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, doc := range s.docs {
		if filter.Matches(doc) {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if filter.Matches(doc) {
			found := cloneDoc(doc)
			return &found, nil
		}
	}
	return nil, events.ErrNotFound
}

func (s *Store) InsertOne(ctx context.Context, doc events.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs {
		if existing.ID == doc.ID {
			return fmt.Errorf("insert event %s: %w", doc.ID, events.ErrConflict)
		}
	}
	s.docs = append(s.docs, cloneDoc(doc))
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, filter events.Filter, update events.Update) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("update requires an id filter")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.docs {
		if !filter.Matches(s.docs[i]) {
			continue
		}
		s.docs[i].IsApproved = update.IsApproved
		s.docs[i].EventPublicKey = update.EventPublicKey
		updated := cloneDoc(s.docs[i])
		return &updated, nil
	}
	return nil, events.ErrNotFound
}

func (s *Store) DeleteOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("delete requires an id filter")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.docs {
		if !filter.Matches(s.docs[i]) {
			continue
		}
		removed := s.docs[i]
		s.docs = append(s.docs[:i:i], s.docs[i+1:]...)
		return &removed, nil
	}
	return nil, events.ErrNotFound
}

func (s *Store) ReplaceAll(ctx context.Context, docs []events.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = cloneDocs(docs)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneDocs(docs []events.Document) []events.Document {
	out := make([]events.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, cloneDoc(doc))
	}
	return out
}

func cloneDoc(doc events.Document) events.Document {
	if doc.ImageLink != nil {
		link := *doc.ImageLink
		doc.ImageLink = &link
	}
	return doc
}
