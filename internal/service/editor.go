// Package service implements the playlist editing operations on top of the
// converter and a document store.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/voyagen/m3uforge/internal/fetcher"
	"github.com/voyagen/m3uforge/internal/m3u"
	"github.com/voyagen/m3uforge/internal/metrics"
	"github.com/voyagen/m3uforge/internal/models"
	"github.com/voyagen/m3uforge/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput is returned for out-of-range header or entry values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIndexOutOfRange is returned when an entry index does not exist.
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

const (
	defaultName       = "playlist"
	defaultEntryTitle = "New Channel"
)

// Options configures an Editor.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Locker    Locker      // nil = LocalLocker
	Logger    *zap.Logger // nil = no-op
}

// Editor loads, edits and stores playlist documents.
type Editor struct {
	store     store.Store
	locker    Locker
	userAgent string
	timeout   time.Duration
	log       *zap.Logger
}

// NewEditor returns an Editor backed by s.
func NewEditor(s store.Store, opts Options) *Editor {
	e := &Editor{
		store:     s,
		locker:    opts.Locker,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
	if e.locker == nil {
		e.locker = &LocalLocker{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.timeout <= 0 {
		e.timeout = 30 * time.Second
	}
	return e
}

// HeaderUpdate holds mutable playlist-level fields. Nil = leave unchanged.
// An empty URLTvg clears the attribute.
type HeaderUpdate struct {
	Name        *string
	URLTvg      *string
	Cache       *int
	Refresh     *int
	Deinterlace *models.Deinterlace
}

// Create stores a new, empty playlist.
func (e *Editor) Create(ctx context.Context, name string) (*models.Document, error) {
	return e.create(ctx, name, nil, models.NewPlaylist())
}

// Upload reads an M3U document from r and stores the parsed result. Input
// without the #EXTM3U header fails with an error wrapping m3u.ErrFormat;
// read errors (e.g. *http.MaxBytesError) are returned wrapped.
func (e *Editor) Upload(ctx context.Context, name string, r io.Reader) (*models.Document, error) {
	p, err := e.observe(m3u.DeserializeReader(r))
	if err != nil {
		return nil, err
	}
	return e.create(ctx, name, nil, p)
}

// ImportURL downloads and parses a remote playlist and stores it, keeping
// url for later refreshes.
func (e *Editor) ImportURL(ctx context.Context, name, url string) (*models.Document, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	p, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = nameFromURL(url)
	}
	return e.create(ctx, name, &url, p)
}

// CreateForURL stores an empty playlist that remembers url, to be filled
// later by Refresh (e.g. from the import worker).
func (e *Editor) CreateForURL(ctx context.Context, name, url string) (*models.Document, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if name == "" {
		name = nameFromURL(url)
	}
	return e.create(ctx, name, &url, models.NewPlaylist())
}

// Refresh replaces the playlist of document id with a fresh copy of url, or
// of the document's source URL when url is empty. Name is kept.
func (e *Editor) Refresh(ctx context.Context, id int64, url string) (*models.Document, error) {
	return e.mutate(ctx, id, func(doc *models.Document) error {
		if url == "" && doc.SourceURL != nil {
			url = *doc.SourceURL
		}
		if url == "" {
			return fmt.Errorf("%w: playlist %d has no source url", ErrInvalidInput, id)
		}
		p, err := e.fetch(ctx, url)
		if err != nil {
			return err
		}
		doc.SourceURL = &url
		doc.Playlist = p
		return nil
	})
}

// Get returns a document with its playlist.
func (e *Editor) Get(ctx context.Context, id int64) (*models.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// List returns all documents without their playlists.
func (e *Editor) List(ctx context.Context) ([]models.Document, error) {
	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// Delete removes a document.
func (e *Editor) Delete(ctx context.Context, id int64) error {
	return e.store.DeleteDocument(ctx, id)
}

// UpdateHeader applies u to the playlist header and document name.
func (e *Editor) UpdateHeader(ctx context.Context, id int64, u HeaderUpdate) (*models.Document, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	return e.mutate(ctx, id, func(doc *models.Document) error {
		p := doc.Playlist
		if u.Name != nil {
			doc.Name = *u.Name
		}
		if u.URLTvg != nil {
			if *u.URLTvg == "" {
				p.URLTvg = nil
			} else {
				v := *u.URLTvg
				p.URLTvg = &v
			}
		}
		if u.Cache != nil {
			p.Cache = *u.Cache
		}
		if u.Refresh != nil {
			p.Refresh = *u.Refresh
		}
		if u.Deinterlace != nil {
			p.Deinterlace = *u.Deinterlace
		}
		return nil
	})
}

func (u HeaderUpdate) validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if u.Cache != nil && *u.Cache < 0 {
		return fmt.Errorf("%w: cache must be >= 0", ErrInvalidInput)
	}
	if u.Refresh != nil && *u.Refresh < 0 {
		return fmt.Errorf("%w: refresh must be >= 0", ErrInvalidInput)
	}
	if u.Deinterlace != nil && !u.Deinterlace.Valid() {
		return fmt.Errorf("%w: unknown deinterlace mode %d", ErrInvalidInput, int(*u.Deinterlace))
	}
	return nil
}

// NewChannel is the entry AddEntry appends when no entry is given.
func NewChannel() models.Entry {
	return models.Entry{
		Duration: 0,
		Title:    defaultEntryTitle,
		FilePath: "",
		Metadata: &models.Metadata{},
	}
}

// AddEntry appends entry, or NewChannel() when entry is nil.
func (e *Editor) AddEntry(ctx context.Context, id int64, entry *models.Entry) (*models.Document, error) {
	add := NewChannel()
	if entry != nil {
		if err := validateEntry(*entry); err != nil {
			return nil, err
		}
		add = entry.Clone()
	}
	return e.mutate(ctx, id, func(doc *models.Document) error {
		doc.Playlist.Entries = append(doc.Playlist.Entries, add)
		return nil
	})
}

// UpdateEntry replaces the entry at index.
func (e *Editor) UpdateEntry(ctx context.Context, id int64, index int, entry models.Entry) (*models.Document, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}
	entry = entry.Clone()
	return e.mutate(ctx, id, func(doc *models.Document) error {
		if index < 0 || index >= len(doc.Playlist.Entries) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		doc.Playlist.Entries[index] = entry
		return nil
	})
}

// RemoveEntry removes the entry at index, keeping the order of the rest.
func (e *Editor) RemoveEntry(ctx context.Context, id int64, index int) (*models.Document, error) {
	return e.mutate(ctx, id, func(doc *models.Document) error {
		entries := doc.Playlist.Entries
		if index < 0 || index >= len(entries) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		doc.Playlist.Entries = append(entries[:index], entries[index+1:]...)
		return nil
	})
}

func validateEntry(entry models.Entry) error {
	if entry.Duration < models.UnknownDuration {
		return fmt.Errorf("%w: duration must be >= -1", ErrInvalidInput)
	}
	return nil
}

// Export serializes document id and returns a download filename with it.
func (e *Editor) Export(ctx context.Context, id int64) (filename, content string, err error) {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return "", "", err
	}
	content = m3u.Serialize(doc.Playlist)
	metrics.PlaylistsSerialized.Inc()
	return fileName(doc.Name), content, nil
}

// mutate runs fn on document id under the document lock and saves the result.
func (e *Editor) mutate(ctx context.Context, id int64, fn func(doc *models.Document) error) (*models.Document, error) {
	unlock, err := e.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Playlist == nil {
		doc.Playlist = models.NewPlaylist()
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	doc.EntryCount = len(doc.Playlist.Entries)
	if err := e.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	e.log.Debug("playlist saved", zap.Int64("id", id), zap.Int("entries", doc.EntryCount))
	return doc, nil
}

func (e *Editor) create(ctx context.Context, name string, sourceURL *string, p *models.Playlist) (*models.Document, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultName
	}
	doc := &models.Document{
		Name:       name,
		SourceURL:  sourceURL,
		Playlist:   p,
		EntryCount: len(p.Entries),
	}
	id, err := e.store.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	e.log.Info("playlist created", zap.Int64("id", id), zap.String("name", name), zap.Int("entries", doc.EntryCount))
	return doc, nil
}

func (e *Editor) parse(data []byte) (*models.Playlist, error) {
	return e.observe(m3u.DeserializeBytes(data))
}

// observe counts a parse result in the playlist metrics.
func (e *Editor) observe(p *models.Playlist, err error) (*models.Playlist, error) {
	if errors.Is(err, m3u.ErrFormat) {
		metrics.PlaylistsParsed.WithLabelValues("format_error").Inc()
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	metrics.PlaylistsParsed.WithLabelValues("ok").Inc()
	metrics.EntriesParsed.Add(float64(len(p.Entries)))
	return p, nil
}

func (e *Editor) fetch(ctx context.Context, url string) (*models.Playlist, error) {
	body, err := fetcher.Fetch(ctx, url, e.userAgent, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return e.parse(body)
}

// fileName turns a document name into a download filename ending in .m3u.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = defaultName
	}
	if ext := strings.ToLower(path.Ext(name)); ext == ".m3u" || ext == ".m3u8" {
		return name
	}
	return name + ".m3u"
}

// nameFromURL derives a document name from the last path segment of url.
func nameFromURL(url string) string {
	u := url
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	base := path.Base(strings.TrimRight(u, "/"))
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".m3u8"), ".m3u")
	if base == "" || base == "." || base == "/" || strings.Contains(base, ":") {
		return defaultName
	}
	return base
}
