package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ImportJob asks the worker to (re)load a document from a remote playlist URL.
type ImportJob struct {
	DocumentID int64  `json:"document_id"`
	URL        string `json:"url"`
	Name       string `json:"name,omitempty"`
}

// DefaultQueue is the Redis list key used for the import job queue.
const DefaultQueue = "jobs:import"

// Enqueue pushes a job onto the left side of a Redis list.
func Enqueue(ctx context.Context, r *Redis, queue string, job ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, nsKey(queue), data).Err()
}

// Dequeue blocks until a job is available on the right side of the list or
// the timeout expires. On timeout or shutdown it returns (nil, nil) so the
// caller can loop and check ctx.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*ImportJob, error) {
	result, err := r.client.BRPop(ctx, timeout, nsKey(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job ImportJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}
