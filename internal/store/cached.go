package store

import (
	"context"
	"fmt"
	"time"

	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/models"
	"go.uber.org/zap"
)

// Cache TTLs.
const (
	ttlDocuments = 2 * time.Minute
	ttlDocument  = 5 * time.Minute
)

const keyDocuments = "playlists:all"

func documentKey(id int64) string { return fmt.Sprintf("playlist:%d", id) }

// CachedStore wraps a Store with a Redis caching layer.
// Reads are served from cache when possible; writes invalidate the
// affected keys. Cache failures are logged and never fail the call.
type CachedStore struct {
	inner Store
	cache *cache.Redis
	log   *zap.Logger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, log *zap.Logger) *CachedStore {
	return &CachedStore{inner: inner, cache: c, log: log}
}

func (c *CachedStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	v, found, err := cache.Get[[]models.Document](ctx, c.cache, keyDocuments)
	if err != nil {
		c.log.Warn("cache get", zap.String("key", keyDocuments), zap.Error(err))
	}
	if found {
		return v, nil
	}
	docs, err := c.inner.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, keyDocuments, docs, ttlDocuments); err != nil {
		c.log.Warn("cache set", zap.String("key", keyDocuments), zap.Error(err))
	}
	return docs, nil
}

func (c *CachedStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	key := documentKey(id)
	v, found, err := cache.Get[models.Document](ctx, c.cache, key)
	if err != nil {
		c.log.Warn("cache get", zap.String("key", key), zap.Error(err))
	}
	if found {
		return &v, nil
	}
	doc, err := c.inner.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, doc, ttlDocument); err != nil {
		c.log.Warn("cache set", zap.String("key", key), zap.Error(err))
	}
	return doc, nil
}

func (c *CachedStore) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	id, err := c.inner.CreateDocument(ctx, doc)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, keyDocuments)
	return id, nil
}

func (c *CachedStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	if err := c.inner.SaveDocument(ctx, doc); err != nil {
		return err
	}
	c.invalidate(ctx, documentKey(doc.ID), keyDocuments)
	return nil
}

func (c *CachedStore) DeleteDocument(ctx context.Context, id int64) error {
	if err := c.inner.DeleteDocument(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, documentKey(id), keyDocuments)
	return nil
}

// Flush drops every cached document, e.g. after migrations changed the schema.
func (c *CachedStore) Flush(ctx context.Context) {
	if err := cache.DelPattern(ctx, c.cache, "playlist:*"); err != nil {
		c.log.Warn("cache del pattern", zap.Error(err))
	}
	c.invalidate(ctx, keyDocuments)
}

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		c.log.Warn("cache del", zap.Strings("keys", keys), zap.Error(err))
	}
}
