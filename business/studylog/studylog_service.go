package studylog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"myLearnCore/domain"
	"myLearnCore/pkg/kvstore"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	KeySessions = "advanced_analytics_study_sessions"
	KeyAttempts = "advanced_analytics_test_attempts"
	KeyMistakes = "advanced_analytics_question_mistakes"

	topTopics       = 3
	strongThreshold = 80.0
	dayLayout       = "2006-01-02"
)

var (
	ErrSessionNotFound = errors.New("study session not found")
	ErrAttemptNotFound = errors.New("test attempt not found")
)

// Service records study sessions and test attempts per user. It is the
// session and attempt source of the behavior engine.
type Service struct {
	store kvstore.Store
	now   func() time.Time

	mu       sync.Mutex
	sessions []domain.StudySession
	attempts []domain.TestAttempt
	mistakes []domain.QuestionMistake
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(ctx context.Context, store kvstore.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func (s *Service) load(ctx context.Context) {
	var (
		sessions []domain.StudySession
		attempts []domain.TestAttempt
		mistakes []domain.QuestionMistake
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { kvstore.Load(gctx, s.store, KeySessions, &sessions); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyAttempts, &attempts); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyMistakes, &mistakes); return nil })
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.attempts = attempts
	s.mistakes = mistakes

	logger.Info("study log loaded",
		"sessions", len(s.sessions),
		"attempts", len(s.attempts),
		"mistakes", len(s.mistakes),
	)
}

func (s *Service) newID(prefix string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return prefix + "_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + random
}

func (s *Service) StartSession(ctx context.Context, userID, topicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := domain.StudySession{
		ID:        s.newID("session"),
		UserID:    userID,
		TopicID:   topicID,
		StartTime: now,
		Interactions: []domain.Interaction{{
			Type:      "topic_start",
			Timestamp: now,
			Data:      map[string]any{"topicId": topicID},
		}},
	}
	next := upsert(s.sessions, session, -1)
	if err := kvstore.Save(ctx, s.store, KeySessions, next); err != nil {
		return "", fmt.Errorf("failed to save study session: %w", err)
	}
	s.sessions = next

	logger.Debug("study_session_started",
		"trace_id", trace.TraceIDFromContext(ctx),
		"session_id", session.ID,
		"user_id", userID,
		"topic_id", topicID,
	)
	return session.ID, nil
}

// EndSession closes the session and stamps its duration in milliseconds.
func (s *Service) EndSession(ctx context.Context, sessionID string, blocksCompleted, totalBlocks int) (domain.StudySession, error) {
	if err := ctx.Err(); err != nil {
		return domain.StudySession{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.sessionIndex(sessionID)
	if i < 0 {
		return domain.StudySession{}, ErrSessionNotFound
	}

	now := s.now()
	session := s.sessions[i]
	session.EndTime = &now
	session.Duration = now.Sub(session.StartTime).Milliseconds()
	session.BlocksCompleted = blocksCompleted
	session.TotalBlocks = totalBlocks
	session.Interactions = append(slices.Clip(session.Interactions), domain.Interaction{
		Type:      "topic_complete",
		Timestamp: now,
		Data:      map[string]any{"blocksCompleted": blocksCompleted, "totalBlocks": totalBlocks},
	})

	next := upsert(s.sessions, session, i)
	if err := kvstore.Save(ctx, s.store, KeySessions, next); err != nil {
		return domain.StudySession{}, fmt.Errorf("failed to save study session: %w", err)
	}
	s.sessions = next
	return session, nil
}

// RecordSession imports a finished session recorded elsewhere. A missing id
// is generated.
func (s *Service) RecordSession(ctx context.Context, session domain.StudySession) (domain.StudySession, error) {
	if err := ctx.Err(); err != nil {
		return domain.StudySession{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = s.newID("session")
	}
	next := upsert(s.sessions, session, s.sessionIndex(session.ID))
	if err := kvstore.Save(ctx, s.store, KeySessions, next); err != nil {
		return domain.StudySession{}, fmt.Errorf("failed to save study session: %w", err)
	}
	s.sessions = next
	return session, nil
}

func (s *Service) StartAttempt(ctx context.Context, userID, topicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := domain.TestAttempt{
		ID:        s.newID("test"),
		UserID:    userID,
		TopicID:   topicID,
		StartTime: s.now(),
		Questions: []domain.QuestionAttempt{},
	}
	next := upsert(s.attempts, attempt, -1)
	if err := kvstore.Save(ctx, s.store, KeyAttempts, next); err != nil {
		return "", fmt.Errorf("failed to save test attempt: %w", err)
	}
	s.attempts = next
	return attempt.ID, nil
}

// AddQuestionAttempt appends an answer to the attempt. A wrong answer is also
// counted against the question in the user's mistake log.
func (s *Service) AddQuestionAttempt(ctx context.Context, attemptID, questionID, selected, correct string, timeSpent int64, hintsUsed int) (domain.QuestionAttempt, error) {
	if err := ctx.Err(); err != nil {
		return domain.QuestionAttempt{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.attemptIndex(attemptID)
	if i < 0 {
		return domain.QuestionAttempt{}, ErrAttemptNotFound
	}

	q := domain.QuestionAttempt{
		QuestionID:     questionID,
		SelectedAnswer: selected,
		CorrectAnswer:  correct,
		IsCorrect:      selected == correct,
		TimeSpent:      timeSpent,
		HintsUsed:      hintsUsed,
	}
	attempt := s.attempts[i]
	attempt.Questions = append(slices.Clip(attempt.Questions), q)

	if !q.IsCorrect {
		mistakes := withMistake(s.mistakes, domain.QuestionMistake{
			QuestionID:     questionID,
			TopicID:        attempt.TopicID,
			UserID:         attempt.UserID,
			SelectedAnswer: selected,
			CorrectAnswer:  correct,
			Timestamp:      s.now(),
			Attempts:       1,
		})
		if err := kvstore.Save(ctx, s.store, KeyMistakes, mistakes); err != nil {
			return domain.QuestionAttempt{}, fmt.Errorf("failed to save question mistakes: %w", err)
		}
		s.mistakes = mistakes
	}

	next := upsert(s.attempts, attempt, i)
	if err := kvstore.Save(ctx, s.store, KeyAttempts, next); err != nil {
		return domain.QuestionAttempt{}, fmt.Errorf("failed to save test attempt: %w", err)
	}
	s.attempts = next
	return q, nil
}

// withMistake returns a copy of list with m counted in. A repeat of the same
// user, question and topic bumps the existing entry.
func withMistake(list []domain.QuestionMistake, m domain.QuestionMistake) []domain.QuestionMistake {
	next := slices.Clone(list)
	for i := range next {
		existing := &next[i]
		if existing.UserID == m.UserID && existing.QuestionID == m.QuestionID && existing.TopicID == m.TopicID {
			existing.Attempts++
			existing.Timestamp = m.Timestamp
			existing.SelectedAnswer = m.SelectedAnswer
			return next
		}
	}
	return append(next, m)
}

// upsert returns a copy of list with item at index i, or appended when i is
// negative. The original slice is left untouched.
func upsert[T any](list []T, item T, i int) []T {
	next := slices.Clone(list)
	if i >= 0 {
		next[i] = item
		return next
	}
	return append(next, item)
}

// CompleteAttempt scores the attempt as the percentage of correct answers.
// An attempt without questions scores 0.
func (s *Service) CompleteAttempt(ctx context.Context, attemptID string) (domain.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.attemptIndex(attemptID)
	if i < 0 {
		return domain.TestAttempt{}, ErrAttemptNotFound
	}

	now := s.now()
	attempt := s.attempts[i]
	attempt.EndTime = &now
	attempt.Duration = now.Sub(attempt.StartTime).Milliseconds()
	attempt.TotalQuestions = len(attempt.Questions)
	attempt.CorrectAnswers = 0
	for _, q := range attempt.Questions {
		if q.IsCorrect {
			attempt.CorrectAnswers++
		}
	}
	attempt.Score = 0
	if attempt.TotalQuestions > 0 {
		attempt.Score = float64(attempt.CorrectAnswers) / float64(attempt.TotalQuestions) * 100
	}

	next := upsert(s.attempts, attempt, i)
	if err := kvstore.Save(ctx, s.store, KeyAttempts, next); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("failed to save test attempt: %w", err)
	}
	s.attempts = next

	logger.Debug("test_attempt_completed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"attempt_id", attemptID,
		"user_id", attempt.UserID,
		"score", attempt.Score,
	)
	return attempt, nil
}

// RecordAttempt imports a scored attempt as is. A missing id is generated.
func (s *Service) RecordAttempt(ctx context.Context, attempt domain.TestAttempt) (domain.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt.ID == "" {
		attempt.ID = s.newID("test")
	}
	next := upsert(s.attempts, attempt, s.attemptIndex(attempt.ID))
	if err := kvstore.Save(ctx, s.store, KeyAttempts, next); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("failed to save test attempt: %w", err)
	}
	s.attempts = next
	return attempt, nil
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]domain.StudySession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.StudySession{}
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *Service) Attempts(ctx context.Context, userID string) ([]domain.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.TestAttempt{}
	for _, attempt := range s.attempts {
		if attempt.UserID == userID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (s *Service) Mistakes(ctx context.Context, userID string) ([]domain.QuestionMistake, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.QuestionMistake{}
	for _, m := range s.mistakes {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

// WeakTopics returns up to three topics with the most recorded mistakes.
func (s *Service) WeakTopics(ctx context.Context, userID string) ([]domain.TopicMistakes, error) {
	mistakes, err := s.Mistakes(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := []domain.TopicMistakes{}
	index := make(map[string]int)
	for _, m := range mistakes {
		i, ok := index[m.TopicID]
		if !ok {
			i = len(out)
			index[m.TopicID] = i
			out = append(out, domain.TopicMistakes{TopicID: m.TopicID})
		}
		out[i].Mistakes += m.Attempts
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mistakes > out[j].Mistakes })
	if len(out) > topTopics {
		out = out[:topTopics]
	}
	return out, nil
}

// StrongTopics returns up to three topics whose mean attempt score is at
// least 80, best first.
func (s *Service) StrongTopics(ctx context.Context, userID string) ([]domain.TopicScore, error) {
	attempts, err := s.Attempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	type acc struct{ total, count float64 }
	order := []string{}
	byTopic := make(map[string]*acc)
	for _, a := range attempts {
		t, ok := byTopic[a.TopicID]
		if !ok {
			t = &acc{}
			byTopic[a.TopicID] = t
			order = append(order, a.TopicID)
		}
		t.total += a.Score
		t.count++
	}

	out := []domain.TopicScore{}
	for _, id := range order {
		avg := byTopic[id].total / byTopic[id].count
		if avg >= strongThreshold {
			out = append(out, domain.TopicScore{TopicID: id, AverageScore: avg})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore > out[j].AverageScore })
	if len(out) > topTopics {
		out = out[:topTopics]
	}
	return out, nil
}

// DailyStats aggregates the user's sessions and attempts that started on the
// calendar day of day, in day's location.
func (s *Service) DailyStats(ctx context.Context, userID string, day time.Time) (domain.DailyStats, error) {
	sessions, err := s.Sessions(ctx, userID)
	if err != nil {
		return domain.DailyStats{}, err
	}
	attempts, err := s.Attempts(ctx, userID)
	if err != nil {
		return domain.DailyStats{}, err
	}
	return dailyStats(sessions, attempts, day), nil
}

// WeeklyStats returns the last seven days ending today, oldest first.
func (s *Service) WeeklyStats(ctx context.Context, userID string) ([]domain.DailyStats, error) {
	sessions, err := s.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	out := make([]domain.DailyStats, 0, 7)
	for i := 6; i >= 0; i-- {
		out = append(out, dailyStats(sessions, attempts, today.AddDate(0, 0, -i)))
	}
	return out, nil
}

func dailyStats(sessions []domain.StudySession, attempts []domain.TestAttempt, day time.Time) domain.DailyStats {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	within := func(t time.Time) bool { return !t.Before(start) && t.Before(end) }

	stats := domain.DailyStats{Date: start.Format(dayLayout)}
	topics := make(map[string]struct{})
	for _, session := range sessions {
		if !within(session.StartTime) {
			continue
		}
		stats.SessionsCount++
		stats.StudyTime += session.Duration
		topics[session.TopicID] = struct{}{}
	}
	stats.TopicsStudied = len(topics)

	total := 0.0
	for _, attempt := range attempts {
		if !within(attempt.StartTime) {
			continue
		}
		stats.TestsCompleted++
		total += attempt.Score
	}
	if stats.TestsCompleted > 0 {
		stats.AverageScore = total / float64(stats.TestsCompleted)
	}
	return stats
}

func (s *Service) ClearAllData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{KeySessions, KeyAttempts, KeyMistakes} {
		g.Go(func() error { return kvstore.RemoveAll(gctx, s.store, key) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to clear study log: %w", err)
	}

	s.sessions = nil
	s.attempts = nil
	s.mistakes = nil
	logger.Info("study log cleared", "trace_id", trace.TraceIDFromContext(ctx))
	return nil
}

func (s *Service) sessionIndex(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) attemptIndex(id string) int {
	for i := range s.attempts {
		if s.attempts[i].ID == id {
			return i
		}
	}
	return -1
}
