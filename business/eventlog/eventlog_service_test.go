//go:build !integration

package eventlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"myLearnCore/business/eventlog"
	"myLearnCore/domain"
	"myLearnCore/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestService_AppendAndList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewKVRepository()
	svc := eventlog.NewService(store, eventlog.WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))

	for _, typ := range []string{"app_open", "topic_start", "test_complete"} {
		_, err := svc.Append(ctx, typ, map[string]any{"source": "test"})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.NotEmpty(t, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	last, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "topic_start", last[0].Type)
	assert.Equal(t, "test_complete", last[1].Type)

	window, err := svc.Window(ctx, all[1].Timestamp, all[2].Timestamp)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "topic_start", window[0].Type)

	require.NoError(t, svc.Clear(ctx))
	raw, ok, err := store.Get(ctx, eventlog.KeyEvents)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestService_ReadFailureIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc := eventlog.NewService(brokenStore{})

	events, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	_, err = svc.Append(ctx, "app_open", nil)
	assert.Error(t, err)
}

func TestStreakDays(t *testing.T) {
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	at := func(daysAgo int, hour int) domain.Event {
		d := now.AddDate(0, 0, -daysAgo)
		return domain.Event{Timestamp: time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)}
	}

	tests := []struct {
		name   string
		events []domain.Event
		want   int
	}{
		{name: "no events", want: 0},
		{name: "today only", events: []domain.Event{at(0, 7)}, want: 1},
		{name: "three days", events: []domain.Event{at(2, 23), at(1, 0), at(0, 1), at(0, 2)}, want: 3},
		{name: "gap breaks streak", events: []domain.Event{at(3, 10), at(1, 10), at(0, 5)}, want: 2},
		{name: "nothing today", events: []domain.Event{at(1, 10), at(2, 10)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventlog.StreakDays(tt.events, now))
		})
	}
}
