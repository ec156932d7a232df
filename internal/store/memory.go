package store

import (
	"context"
	"sync"
	"time"

	"github.com/voyagen/m3uforge/internal/models"
)

// Memory is a process-local Store. It is used when no database is
// configured and in tests. Documents are deep-copied on the way in and out.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]*models.Document
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[int64]*models.Document)}
}

func (m *Memory) CreateDocument(_ context.Context, doc *models.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now().UTC()
	stored := copyDocument(doc)
	stored.ID = m.nextID
	stored.EntryCount = entryCount(stored.Playlist)
	stored.CreatedAt = &now
	stored.UpdatedAt = &now
	m.docs[stored.ID] = stored
	return stored.ID, nil
}

func (m *Memory) GetDocument(_ context.Context, id int64) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

func (m *Memory) ListDocuments(_ context.Context) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]models.Document, 0, len(m.docs))
	for id := int64(1); id <= m.nextID; id++ {
		doc, ok := m.docs[id]
		if !ok {
			continue
		}
		d := copyDocument(doc)
		d.Playlist = nil
		docs = append(docs, *d)
	}
	return docs, nil
}

func (m *Memory) SaveDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.docs[doc.ID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	stored := copyDocument(doc)
	stored.EntryCount = entryCount(stored.Playlist)
	stored.CreatedAt = old.CreatedAt
	stored.UpdatedAt = &now
	m.docs[doc.ID] = stored
	return nil
}

func (m *Memory) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func copyDocument(doc *models.Document) *models.Document {
	c := *doc
	if doc.SourceURL != nil {
		u := *doc.SourceURL
		c.SourceURL = &u
	}
	if doc.Playlist != nil {
		c.Playlist = doc.Playlist.Clone()
	} else {
		c.Playlist = models.NewPlaylist()
	}
	return &c
}
