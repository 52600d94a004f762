package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"myLearnCore/domain"
	"myLearnCore/pkg/kvstore"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/google/uuid"
)

const (
	KeyEvents = "user_events"

	maxStreakDays = 3650
)

// Service is an append-only log of client events kept under a single key.
// Every call reads through to storage so concurrent writers on the same
// backend see each other's events.
type Service struct {
	store kvstore.Store
	now   func() time.Time
	mu    sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store kvstore.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Append(ctx context.Context, eventType string, payload map[string]any) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := domain.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.now(),
		Payload:   payload,
	}
	events := append(s.read(ctx), event)
	if err := kvstore.Save(ctx, s.store, KeyEvents, events); err != nil {
		return domain.Event{}, fmt.Errorf("failed to append event: %w", err)
	}

	logger.Debug("event_logged",
		"trace_id", trace.TraceIDFromContext(ctx),
		"event_id", event.ID,
		"type", eventType,
	)
	return event, nil
}

// List returns every event, or only the last limit events when limit > 0.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.read(ctx)
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Window returns events with from <= timestamp < to.
func (s *Service) Window(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	events, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := []domain.Event{}
	for _, e := range events {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := kvstore.Save(ctx, s.store, KeyEvents, []domain.Event{}); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	return nil
}

// Streak is StreakDays over the stored events as of now.
func (s *Service) Streak(ctx context.Context) (int, error) {
	events, err := s.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	return StreakDays(events, s.now()), nil
}

func (s *Service) read(ctx context.Context) []domain.Event {
	events := []domain.Event{}
	kvstore.Load(ctx, s.store, KeyEvents, &events)
	return events
}

// StreakDays counts consecutive calendar days, ending with the day of now,
// that have at least one event. Days are taken in now's location.
func StreakDays(events []domain.Event, now time.Time) int {
	if len(events) == 0 {
		return 0
	}

	days := make(map[string]struct{}, len(events))
	for _, e := range events {
		days[e.Timestamp.In(now.Location()).Format(time.DateOnly)] = struct{}{}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	streak := 0
	for i := 0; i < maxStreakDays; i++ {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		if _, ok := days[day]; !ok {
			break
		}
		streak++
	}
	return streak
}
