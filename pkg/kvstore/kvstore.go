// Package kvstore defines the string key-value contract every personalization
// service persists through, plus JSON helpers on top of it.
package kvstore

import (
	"context"
	"fmt"

	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/metrics"
	"myLearnCore/pkg/trace"

	"github.com/goccy/go-json"
)

// Store is a minimal async-style blob store. Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Load decodes the JSON blob at key into dst. It reports false when the key is
// missing or unreadable; read failures are logged and never returned, dst is
// left untouched in that case.
func Load(ctx context.Context, store Store, key string, dst any) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("kvstore read failed, using empty state",
			"trace_id", trace.TraceIDFromContext(ctx),
			"key", key,
			"error", err,
		)
		metrics.KVStoreReadFailures.WithLabelValues(key).Inc()
		return false
	}
	if !ok || raw == "" || raw == "null" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Warn("kvstore payload is not valid json, using empty state",
			"trace_id", trace.TraceIDFromContext(ctx),
			"key", key,
			"error", err,
		)
		metrics.KVStoreReadFailures.WithLabelValues(key).Inc()
		return false
	}
	return true
}

// Save encodes v as JSON and writes it under key.
func Save(ctx context.Context, store Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	logger.Debug("kvstore saved",
		"trace_id", trace.TraceIDFromContext(ctx),
		"key", key,
		"bytes", len(raw),
	)
	return nil
}

// RemoveAll removes every key, stopping at the first failure.
func RemoveAll(ctx context.Context, store Store, keys ...string) error {
	for _, key := range keys {
		if err := store.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}
