package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// unlockScript deletes the lock only while it still holds our token.
const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// DocumentLockKey is the lock guarding edits of one playlist document.
func DocumentLockKey(id int64) string {
	return fmt.Sprintf("lock:playlist:%d", id)
}

// TryLock acquires the lock at key with SET NX EX. On success the returned
// unlock func must be called to release it; if the lock is held, ErrLocked
// is returned.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, nsKey(key), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// Background context: the lock must be released even after the request is cancelled.
		_ = r.client.Eval(context.Background(), unlockScript, []string{nsKey(key)}, token).Err()
	}, nil
}
