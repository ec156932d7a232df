package service

import (
	"context"
	"sync"
	"time"

	"github.com/voyagen/m3uforge/internal/cache"
)

// Locker guards read-modify-write cycles on one document. Lock returns
// cache.ErrLocked when another edit of the same document is in progress.
type Locker interface {
	Lock(ctx context.Context, id int64) (unlock func(), err error)
}

// RedisLocker locks documents across processes with cache.TryLock.
type RedisLocker struct {
	Redis *cache.Redis
	TTL   time.Duration
}

func (l RedisLocker) Lock(ctx context.Context, id int64) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return cache.TryLock(ctx, l.Redis, cache.DocumentLockKey(id), ttl)
}

// LocalLocker locks documents within this process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func (l *LocalLocker) Lock(_ context.Context, id int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[int64]struct{})
	}
	if _, ok := l.held[id]; ok {
		return nil, cache.ErrLocked
	}
	l.held[id] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, id)
		l.mu.Unlock()
	}, nil
}
