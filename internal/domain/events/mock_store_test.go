package events

import (
	"context"
	"errors"
	"sync"
)

// MockStore is an in-memory Store for repository tests with hooks for
// injecting failures and observing calls.
type MockStore struct {
	mu    sync.Mutex
	docs  []Document
	calls []string

	findErr   error
	countErr  error
	updateErr error
}

func NewMockStore(docs ...Document) *MockStore {
	return &MockStore{docs: append([]Document(nil), docs...)}
}

func (m *MockStore) record(name string) {
	m.calls = append(m.calls, name)
}

func (m *MockStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockStore) Find(_ context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Find")
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []Document
	var skipped int64
	for _, doc := range m.docs {
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
		out = append(out, doc)
	}
	return out, nil
}

func (m *MockStore) Count(_ context.Context, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Count")
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, doc := range m.docs {
		if filter.Matches(doc) {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) FindOne(_ context.Context, filter Filter) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindOne")
	for _, doc := range m.docs {
		if filter.Matches(doc) {
			found := doc
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) InsertOne(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InsertOne")
	for _, existing := range m.docs {
		if existing.ID == doc.ID {
			return errors.New("duplicate id")
		}
	}
	m.docs = append(m.docs, doc)
	return nil
}

func (m *MockStore) UpdateOne(_ context.Context, filter Filter, update Update) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpdateOne")
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i := range m.docs {
		if filter.Matches(m.docs[i]) {
			m.docs[i].IsApproved = update.IsApproved
			m.docs[i].EventPublicKey = update.EventPublicKey
			updated := m.docs[i]
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) DeleteOne(_ context.Context, filter Filter) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteOne")
	for i := range m.docs {
		if filter.Matches(m.docs[i]) {
			removed := m.docs[i]
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return &removed, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) ReplaceAll(_ context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ReplaceAll")
	m.docs = append([]Document(nil), docs...)
	return nil
}

func (m *MockStore) Ping(_ context.Context) error {
	return nil
}

type allowlist map[string]bool

func (a allowlist) IsAdmin(id string) bool {
	return id != "" && a[id]
}
