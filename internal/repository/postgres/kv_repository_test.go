//go:build !integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepo(t *testing.T) *KVRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo, err := NewKVRepository(db)
	require.NoError(t, err)
	return repo
}

func TestKVRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	require.NoError(t, repo.Set(ctx, "ml_models", `[{"id":"a"}]`))
	require.NoError(t, repo.Set(ctx, "ml_models", `[{"id":"b"}]`))

	v, found, err := repo.Get(ctx, "ml_models")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"b"}]`, v)

	var count int64
	require.NoError(t, repo.DB.Model(&KVEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestKVRepository_MissingAndRemove(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, found, err := repo.Get(ctx, "ml_user_features")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "ml_user_features", `[]`))
	require.NoError(t, repo.Remove(ctx, "ml_user_features"))
	require.NoError(t, repo.Remove(ctx, "ml_user_features"))

	_, found, err = repo.Get(ctx, "ml_user_features")
	require.NoError(t, err)
	assert.False(t, found)
}
