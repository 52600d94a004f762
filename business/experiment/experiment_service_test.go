//go:build !integration

package experiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"myLearnCore/domain"
	"myLearnCore/internal/repository/memory"
	"myLearnCore/pkg/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, store kvstore.Store) *Service {
	t.Helper()
	return NewService(context.Background(), store, WithClock(func() time.Time { return fixedNow }))
}

func twoArmExperiment(status domain.ExperimentStatus) domain.Experiment {
	return domain.Experiment{
		Name:   "checkout copy",
		Status: status,
		Variants: []domain.Variant{
			{ID: "control", Config: map[string]any{"algorithm": "content_based"}, TrafficPercentage: 50},
			{ID: "variant", Config: map[string]any{"algorithm": "content_based"}, TrafficPercentage: 50},
		},
		TrafficAllocation: 100,
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("io")
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("io")
}

func (brokenStore) Remove(context.Context, string) error {
	return errors.New("io")
}

func TestService_CreateTestAssignsID(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)
	assert.Regexp(t, `^ab_test_\d+_[0-9a-f]{9}$`, id)

	active, err := svc.GetActiveTests(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)

	pausedID, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentPaused))
	require.NoError(t, err)
	assert.NotEqual(t, id, pausedID)

	active, err = svc.GetActiveTests(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestService_GetVariantStable(t *testing.T) {
	store := memory.NewKVRepository()
	svc := newTestService(t, store)
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)

	first, err := svc.GetVariant(ctx, id, "user_1")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.GetVariant(ctx, id, "user_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// a restarted service reads the persisted assignment
	reloaded := newTestService(t, store)
	again, err := reloaded.GetVariant(ctx, id, "user_1")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)
}

func TestService_GetVariantInactiveOrUnknown(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentPaused))
	require.NoError(t, err)

	v, err := svc.GetVariant(ctx, id, "user_1")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = svc.GetVariant(ctx, "missing", "user_1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestService_RecordResultAndStats(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)

	require.NoError(t, svc.RecordResult(ctx, id, "control", "u1", map[string]float64{"conversion": 1, "engagement": 120}))
	require.NoError(t, svc.RecordResult(ctx, id, "control", "u2", map[string]float64{"conversion": 0, "engagement": 60}))
	require.NoError(t, svc.RecordResult(ctx, id, "variant", "u3", nil))

	stats, err := svc.GetTestStats(ctx, id)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	control := stats[0]
	assert.Equal(t, "control", control.VariantID)
	assert.Equal(t, 2, control.Impressions)
	assert.Equal(t, 1, control.Conversions)
	assert.InDelta(t, 50.0, control.ConversionRate, 1e-9)
	assert.InDelta(t, 90.0, control.AverageEngagement, 1e-9)
	assert.False(t, control.Winner)

	results, err := svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, fixedNow, results[0].Timestamp)
}

func TestService_RecordResultUnknownIsNoop(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	require.NoError(t, svc.RecordResult(ctx, "missing", "control", "u1", map[string]float64{"conversion": 1}))
	stats, err := svc.GetTestStats(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestService_UpdateTestStatus(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	first, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)
	second, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTestStatus(ctx, first, domain.ExperimentCompleted))
	exp, err := svc.GetExperiment(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.ExperimentCompleted, exp.Status)
	require.NotNil(t, exp.EndDate)
	assert.Equal(t, fixedNow, *exp.EndDate)

	// reactivating a completed experiment is allowed and moves it to the back
	require.NoError(t, svc.UpdateTestStatus(ctx, first, domain.ExperimentActive))
	active, err := svc.GetActiveTests(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second, active[0].ID)
	assert.Equal(t, first, active[1].ID)

	require.NoError(t, svc.UpdateTestStatus(ctx, "missing", domain.ExperimentPaused))

	_, err = svc.GetExperiment(ctx, "missing")
	assert.ErrorIs(t, err, ErrExperimentNotFound)
}

func TestService_GetUserConfig(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx := context.Background()

	ids, err := svc.SeedDemoTests(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	again, err := svc.SeedDemoTests(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	algo, ok, err := svc.GetUserConfig(ctx, "user_7", "algorithm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []any{"collaborative_filtering", "ml_enhanced"}, algo)

	theme, ok, err := svc.GetUserConfig(ctx, "user_7", "theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []any{"default", "adaptive"}, theme)

	_, ok, err = svc.GetUserConfig(ctx, "user_7", "missing_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_ClearAllData(t *testing.T) {
	store := memory.NewKVRepository()
	svc := newTestService(t, store)
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)
	_, err = svc.GetVariant(ctx, id, "user_1")
	require.NoError(t, err)
	require.NoError(t, svc.RecordResult(ctx, id, "control", "user_1", map[string]float64{"conversion": 1}))

	require.NoError(t, svc.ClearAllData(ctx))
	assert.Empty(t, store.Keys())

	active, err := svc.GetActiveTests(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	fresh := newTestService(t, store)
	all, err := fresh.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_ReadFailuresLoadEmpty(t *testing.T) {
	svc := newTestService(t, brokenStore{})
	ctx := context.Background()

	active, err := svc.GetActiveTests(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	assert.Error(t, err)
}

// keyFailStore rejects writes to the listed keys.
type keyFailStore struct {
	*memory.KVRepository
	fail map[string]bool
}

func (f *keyFailStore) Set(ctx context.Context, key, value string) error {
	if f.fail[key] {
		return errors.New("io")
	}
	return f.KVRepository.Set(ctx, key, value)
}

func TestService_FailedWritesLeaveStateUntouched(t *testing.T) {
	store := &keyFailStore{KVRepository: memory.NewKVRepository(), fail: map[string]bool{}}
	svc := newTestService(t, store)
	ctx := context.Background()

	store.fail[KeyExperiments] = true
	_, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.Error(t, err)
	all, err := svc.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	active, err := svc.GetActiveTests(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	store.fail[KeyExperiments] = false
	id, err := svc.CreateTest(ctx, twoArmExperiment(domain.ExperimentActive))
	require.NoError(t, err)

	t.Run("status", func(t *testing.T) {
		store.fail[KeyExperiments] = true
		defer delete(store.fail, KeyExperiments)

		require.Error(t, svc.UpdateTestStatus(ctx, id, domain.ExperimentCompleted))
		exp, err := svc.GetExperiment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ExperimentActive, exp.Status)
		assert.Nil(t, exp.EndDate)
	})

	t.Run("assignment", func(t *testing.T) {
		store.fail[KeyAssignments] = true
		defer delete(store.fail, KeyAssignments)

		_, err := svc.GetVariant(ctx, id, "u1")
		require.Error(t, err)
		assert.Empty(t, svc.assignments)
	})

	t.Run("result", func(t *testing.T) {
		store.fail[KeyResults] = true
		defer delete(store.fail, KeyResults)

		require.Error(t, svc.RecordResult(ctx, id, "control", "u1", map[string]float64{"conversion": 1}))
		results, err := svc.Results(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, results)
		stats, err := svc.GetTestStats(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})

	t.Run("stats", func(t *testing.T) {
		require.NoError(t, svc.RecordResult(ctx, id, "control", "u1", map[string]float64{"conversion": 1}))

		store.fail[KeyStats] = true
		defer delete(store.fail, KeyStats)

		require.Error(t, svc.RecordResult(ctx, id, "control", "u2", map[string]float64{"conversion": 0}))
		stats, err := svc.GetTestStats(ctx, id)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, 1, stats[0].Impressions)
		assert.Equal(t, 1, stats[0].Conversions)
	})
}

func TestService_CancelledContext(t *testing.T) {
	svc := newTestService(t, memory.NewKVRepository())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetVariant(ctx, "x", "u")
	assert.ErrorIs(t, err, context.Canceled)
}
