package behavior

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"myLearnCore/domain"
	"myLearnCore/pkg/kvstore"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/metrics"
	"myLearnCore/pkg/trace"

	"golang.org/x/sync/errgroup"
)

const (
	KeyProfiles         = "enhanced_analytics_behavior_profiles"
	KeyInsights         = "enhanced_analytics_predictive_insights"
	KeyCohorts          = "enhanced_analytics_cohort_analysis"
	KeyEngagementEvents = "enhanced_analytics_engagement_events"
	KeyPerformanceData  = "enhanced_analytics_performance_data"
)

var ErrInvalidCohort = errors.New("cohort id and type are required")

// SessionSource supplies a user's raw study history.
type SessionSource interface {
	Sessions(ctx context.Context, userID string) ([]domain.StudySession, error)
	Attempts(ctx context.Context, userID string) ([]domain.TestAttempt, error)
}

// Service caches the derived behavior data. Profiles and insights are always
// recomputed from the session source, never updated incrementally.
type Service struct {
	store  kvstore.Store
	source SessionSource
	now    func() time.Time

	mu           sync.Mutex
	profiles     map[string]domain.UserBehaviorProfile
	profileOrder []string
	insights     map[string]domain.PredictiveInsights
	insightOrder []string
	cohorts      []domain.CohortAnalysis
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService loads cached analytics and seeds the default cohorts that are
// missing. A failed seed write is logged.
func NewService(ctx context.Context, store kvstore.Store, source SessionSource, opts ...Option) *Service {
	s := &Service{
		store:  store,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load(ctx)
	if err := s.seedDefaultCohorts(ctx); err != nil {
		logger.Error("failed to persist default cohorts", "error", err)
	}
	return s
}

func (s *Service) load(ctx context.Context) {
	var (
		profiles []domain.UserBehaviorProfile
		insights []domain.PredictiveInsights
		cohorts  []domain.CohortAnalysis
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyProfiles, &profiles); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyInsights, &insights); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyCohorts, &cohorts); return nil })
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for _, p := range profiles {
		s.putProfile(p)
	}
	for _, in := range insights {
		s.putInsights(in)
	}
	for _, c := range cohorts {
		s.putCohort(c)
	}

	logger.Info("behavior service loaded",
		"profiles", len(s.profiles),
		"insights", len(s.insights),
		"cohorts", len(s.cohorts),
	)
}

func (s *Service) reset() {
	s.profiles = make(map[string]domain.UserBehaviorProfile)
	s.profileOrder = nil
	s.insights = make(map[string]domain.PredictiveInsights)
	s.insightOrder = nil
	s.cohorts = nil
}

func (s *Service) seedDefaultCohorts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range defaultCohorts() {
		if s.cohortIndex(c.CohortID) < 0 {
			s.cohorts = append(s.cohorts, c)
		}
	}
	return kvstore.Save(ctx, s.store, KeyCohorts, s.cohorts)
}

// AnalyzeUserBehavior recomputes the user's profile from the session source
// and replaces the cached copy.
func (s *Service) AnalyzeUserBehavior(ctx context.Context, userID string) (domain.UserBehaviorProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserBehaviorProfile{}, fmt.Errorf("context error: %w", err)
	}

	sessions, attempts, err := s.history(ctx, userID)
	if err != nil {
		return domain.UserBehaviorProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzeLocked(ctx, userID, sessions, attempts)
}

func (s *Service) history(ctx context.Context, userID string) ([]domain.StudySession, []domain.TestAttempt, error) {
	sessions, err := s.source.Sessions(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read study sessions: %w", err)
	}
	attempts, err := s.source.Attempts(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read test attempts: %w", err)
	}
	return sessions, attempts, nil
}

func (s *Service) analyzeLocked(ctx context.Context, userID string, sessions []domain.StudySession, attempts []domain.TestAttempt) (domain.UserBehaviorProfile, error) {
	profile := ComputeProfile(userID, sessions, attempts, s.now())
	s.putProfile(profile)
	if err := kvstore.Save(ctx, s.store, KeyProfiles, s.profileList()); err != nil {
		return domain.UserBehaviorProfile{}, fmt.Errorf("failed to save behavior profile: %w", err)
	}

	metrics.BehaviorRecomputes.WithLabelValues("profile").Inc()
	logger.Debug("behavior_profile_computed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"user_id", userID,
		"sessions", len(sessions),
		"attempts", len(attempts),
		"engagement_score", profile.EngagementMetrics.EngagementScore,
	)
	return profile, nil
}

// GeneratePredictiveInsights refreshes the profile first, then derives and
// caches the user's insights.
func (s *Service) GeneratePredictiveInsights(ctx context.Context, userID string) (domain.PredictiveInsights, error) {
	if err := ctx.Err(); err != nil {
		return domain.PredictiveInsights{}, fmt.Errorf("context error: %w", err)
	}

	sessions, attempts, err := s.history(ctx, userID)
	if err != nil {
		return domain.PredictiveInsights{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.analyzeLocked(ctx, userID, sessions, attempts)
	if err != nil {
		return domain.PredictiveInsights{}, err
	}

	insights := ComputeInsights(profile, s.now())
	s.putInsights(insights)
	if err := kvstore.Save(ctx, s.store, KeyInsights, s.insightList()); err != nil {
		return domain.PredictiveInsights{}, fmt.Errorf("failed to save predictive insights: %w", err)
	}

	metrics.BehaviorRecomputes.WithLabelValues("insights").Inc()
	logger.Debug("predictive_insights_computed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"user_id", userID,
		"recommendations", len(insights.Recommendations),
		"risk_factors", len(insights.RiskFactors),
	)
	return insights, nil
}

// AnalyzeCohorts recomputes every cohort from the cached profiles.
func (s *Service) AnalyzeCohorts(ctx context.Context) ([]domain.CohortAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.profileList()
	now := s.now()
	for i := range s.cohorts {
		s.cohorts[i] = recomputeCohort(s.cohorts[i], profiles, now)
	}
	if err := kvstore.Save(ctx, s.store, KeyCohorts, s.cohorts); err != nil {
		return nil, fmt.Errorf("failed to save cohort analysis: %w", err)
	}

	metrics.BehaviorRecomputes.WithLabelValues("cohorts").Inc()
	logger.Debug("cohorts_recomputed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"cohorts", len(s.cohorts),
		"profiles", len(profiles),
	)
	return append([]domain.CohortAnalysis(nil), s.cohorts...), nil
}

// CreateCohort adds or replaces a cohort definition. Membership is filled in
// by the next AnalyzeCohorts.
func (s *Service) CreateCohort(ctx context.Context, c domain.CohortAnalysis) (domain.CohortAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.CohortAnalysis{}, fmt.Errorf("context error: %w", err)
	}
	if c.CohortID == "" || c.CohortType == "" {
		return domain.CohortAnalysis{}, ErrInvalidCohort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.Users = []string{}
	c.Metrics = domain.CohortMetrics{}
	c.Trends = []domain.CohortTrend{}
	s.putCohort(c)
	if err := kvstore.Save(ctx, s.store, KeyCohorts, s.cohorts); err != nil {
		return domain.CohortAnalysis{}, fmt.Errorf("failed to save cohort: %w", err)
	}
	return c, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (domain.UserBehaviorProfile, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserBehaviorProfile{}, false, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func (s *Service) Insights(ctx context.Context, userID string) (domain.PredictiveInsights, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PredictiveInsights{}, false, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.insights[userID]
	return in, ok, nil
}

func (s *Service) Cohorts(ctx context.Context) ([]domain.CohortAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CohortAnalysis{}, s.cohorts...), nil
}

// ClearAllData removes the five persisted keys. The in-memory cohorts go back
// to the unsaved defaults.
func (s *Service) ClearAllData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{KeyProfiles, KeyInsights, KeyCohorts, KeyEngagementEvents, KeyPerformanceData} {
		g.Go(func() error { return kvstore.RemoveAll(gctx, s.store, key) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to clear behavior analytics: %w", err)
	}

	s.reset()
	s.cohorts = defaultCohorts()
	logger.Info("behavior analytics cleared", "trace_id", trace.TraceIDFromContext(ctx))
	return nil
}

// RunCohortRecompute calls AnalyzeCohorts every interval until ctx is done.
func (s *Service) RunCohortRecompute(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.AnalyzeCohorts(ctx); err != nil {
				logger.Warn("scheduled cohort recompute failed", "error", err)
			}
		}
	}
}

func (s *Service) cohortIndex(id string) int {
	for i := range s.cohorts {
		if s.cohorts[i].CohortID == id {
			return i
		}
	}
	return -1
}

func (s *Service) putCohort(c domain.CohortAnalysis) {
	if i := s.cohortIndex(c.CohortID); i >= 0 {
		s.cohorts[i] = c
		return
	}
	s.cohorts = append(s.cohorts, c)
}

func (s *Service) putProfile(p domain.UserBehaviorProfile) {
	if _, ok := s.profiles[p.UserID]; !ok {
		s.profileOrder = append(s.profileOrder, p.UserID)
	}
	s.profiles[p.UserID] = p
}

func (s *Service) putInsights(in domain.PredictiveInsights) {
	if _, ok := s.insights[in.UserID]; !ok {
		s.insightOrder = append(s.insightOrder, in.UserID)
	}
	s.insights[in.UserID] = in
}

func (s *Service) profileList() []domain.UserBehaviorProfile {
	out := make([]domain.UserBehaviorProfile, 0, len(s.profileOrder))
	for _, id := range s.profileOrder {
		out = append(out, s.profiles[id])
	}
	return out
}

func (s *Service) insightList() []domain.PredictiveInsights {
	out := make([]domain.PredictiveInsights, 0, len(s.insightOrder))
	for _, id := range s.insightOrder {
		out = append(out, s.insights[id])
	}
	return out
}
