//go:build !integration

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository()

	require.NoError(t, repo.Set(ctx, "a", "1"))
	require.NoError(t, repo.Set(ctx, "a", "2"))

	v, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.ElementsMatch(t, []string{"a"}, repo.Keys())

	require.NoError(t, repo.Remove(ctx, "a"))
	require.NoError(t, repo.Remove(ctx, "a"))
	_, ok, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
