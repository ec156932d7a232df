package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/models"
	"go.uber.org/zap"
)

func newCachedStore(t *testing.T) (*CachedStore, *Memory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rds, err := cache.New("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = rds.Close() })
	inner := NewMemory()
	return NewCachedStore(inner, rds, zap.NewNop()), inner, mr
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	c, inner, mr := newCachedStore(t)

	id, err := c.CreateDocument(ctx, &models.Document{Name: "first", Playlist: models.NewPlaylist()})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if _, err := c.GetDocument(ctx, id); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !mr.Exists(cache.Namespace + documentKey(id)) {
		t.Fatal("GetDocument did not populate the cache")
	}

	// A write that bypasses the cache is not seen until the entry is invalidated.
	behind, _ := inner.GetDocument(ctx, id)
	behind.Name = "behind the cache"
	if err := inner.SaveDocument(ctx, behind); err != nil {
		t.Fatal(err)
	}
	doc, err := c.GetDocument(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "first" {
		t.Errorf("GetDocument served %q, want the cached %q", doc.Name, "first")
	}

	doc.Name = "edited"
	if err := c.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if mr.Exists(cache.Namespace + documentKey(id)) {
		t.Error("SaveDocument did not invalidate the document key")
	}
	doc, _ = c.GetDocument(ctx, id)
	if doc.Name != "edited" {
		t.Errorf("after save GetDocument = %q, want %q", doc.Name, "edited")
	}
}

func TestCachedStoreListInvalidation(t *testing.T) {
	ctx := context.Background()
	c, inner, mr := newCachedStore(t)

	if _, err := c.CreateDocument(ctx, &models.Document{Name: "a", Playlist: models.NewPlaylist()}); err != nil {
		t.Fatal(err)
	}
	docs, err := c.ListDocuments(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments = %d docs, %v", len(docs), err)
	}
	if !mr.Exists(cache.Namespace + keyDocuments) {
		t.Fatal("ListDocuments did not populate the cache")
	}

	if _, err := inner.CreateDocument(ctx, &models.Document{Name: "b", Playlist: models.NewPlaylist()}); err != nil {
		t.Fatal(err)
	}
	if docs, _ := c.ListDocuments(ctx); len(docs) != 1 {
		t.Errorf("cached listing has %d docs, want the stale 1", len(docs))
	}

	id, err := c.CreateDocument(ctx, &models.Document{Name: "c", Playlist: models.NewPlaylist()})
	if err != nil {
		t.Fatal(err)
	}
	if docs, _ := c.ListDocuments(ctx); len(docs) != 3 {
		t.Errorf("after create listing has %d docs, want 3", len(docs))
	}

	if _, err := c.GetDocument(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteDocument(ctx, id); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := c.GetDocument(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument after delete err = %v, want ErrNotFound", err)
	}
	if docs, _ := c.ListDocuments(ctx); len(docs) != 2 {
		t.Errorf("after delete listing has %d docs, want 2", len(docs))
	}
}

func TestCachedStoreFlush(t *testing.T) {
	ctx := context.Background()
	c, _, mr := newCachedStore(t)

	id, _ := c.CreateDocument(ctx, &models.Document{Name: "a", Playlist: models.NewPlaylist()})
	_, _ = c.GetDocument(ctx, id)
	_, _ = c.ListDocuments(ctx)

	c.Flush(ctx)
	if mr.Exists(cache.Namespace+documentKey(id)) || mr.Exists(cache.Namespace+keyDocuments) {
		t.Error("Flush left cached entries")
	}
}

func TestCachedStoreWithoutRedis(t *testing.T) {
	ctx := context.Background()
	c, _, mr := newCachedStore(t)

	id, err := c.CreateDocument(ctx, &models.Document{Name: "a", Playlist: models.NewPlaylist()})
	if err != nil {
		t.Fatal(err)
	}
	mr.Close()

	doc, err := c.GetDocument(ctx, id)
	if err != nil || doc.Name != "a" {
		t.Errorf("GetDocument with Redis down = %+v, %v", doc, err)
	}
	if err := c.SaveDocument(ctx, doc); err != nil {
		t.Errorf("SaveDocument with Redis down: %v", err)
	}
}
