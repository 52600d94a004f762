package memory

import (
	"context"
	"fmt"
	"sync"

	"myLearnCore/pkg/kvstore"
)

// KVRepository keeps blobs in process memory. It is the default backend and
// the one tests run against.
type KVRepository struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ kvstore.Store = (*KVRepository)(nil)

func NewKVRepository() *KVRepository {
	return &KVRepository{data: make(map[string]string)}
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

// Keys returns a snapshot of stored keys.
func (r *KVRepository) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	return keys
}
