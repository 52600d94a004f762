package experiment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"myLearnCore/domain"
	"myLearnCore/pkg/kvstore"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/metrics"
	"myLearnCore/pkg/trace"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	KeyExperiments = "ab_tests"
	KeyResults     = "ab_test_results"
	KeyAssignments = "ab_user_assignments"
	KeyStats       = "ab_test_stats"
)

var ErrExperimentNotFound = errors.New("experiment not found")

// Service assigns users to experiment variants and accumulates outcome stats.
// The in-memory state is authoritative; it is loaded once at construction and
// written back after every mutation.
type Service struct {
	store kvstore.Store
	now   func() time.Time

	mu          sync.Mutex
	experiments []domain.Experiment
	active      []string
	assignments map[string]map[string]string
	results     []domain.ExperimentResult
	stats       map[string]map[string]domain.VariantStats
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
		experiments []domain.Experiment
		assignments map[string]map[string]string
		results     []domain.ExperimentResult
		stats       map[string]map[string]domain.VariantStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyExperiments, &experiments); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyAssignments, &assignments); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyResults, &results); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyStats, &stats); return nil })
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	if experiments != nil {
		s.experiments = experiments
	}
	if assignments != nil {
		s.assignments = assignments
	}
	if results != nil {
		s.results = results
	}
	if stats != nil {
		s.stats = stats
	}
	for _, exp := range s.experiments {
		if exp.Status == domain.ExperimentActive {
			s.active = append(s.active, exp.ID)
		}
	}

	logger.Info("experiment service loaded",
		"experiments", len(s.experiments),
		"active", len(s.active),
		"users_assigned", len(s.assignments),
	)
}

func (s *Service) reset() {
	s.experiments = []domain.Experiment{}
	s.active = nil
	s.assignments = make(map[string]map[string]string)
	s.results = []domain.ExperimentResult{}
	s.stats = make(map[string]map[string]domain.VariantStats)
}

// CreateTest stores a new experiment under a generated id. Traffic shares are
// not validated.
func (s *Service) CreateTest(ctx context.Context, def domain.Experiment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def.ID = s.newExperimentID()
	next := append(slices.Clip(s.experiments), def)
	if err := kvstore.Save(ctx, s.store, KeyExperiments, next); err != nil {
		return "", fmt.Errorf("failed to create experiment: %w", err)
	}
	s.experiments = next
	if def.Status == domain.ExperimentActive {
		s.activate(def.ID)
	}

	logger.Info("experiment created",
		"trace_id", trace.TraceIDFromContext(ctx),
		"experiment_id", def.ID,
		"name", def.Name,
		"status", def.Status,
		"variants", len(def.Variants),
	)
	return def.ID, nil
}

func (s *Service) newExperimentID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "ab_test_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + random
}

// GetVariant returns the user's variant, or nil when the experiment is not
// active. A first-time assignment is persisted before returning.
func (s *Service) GetVariant(ctx context.Context, experimentID, userID string) (*domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variantLocked(ctx, experimentID, userID)
}

func (s *Service) variantLocked(ctx context.Context, experimentID, userID string) (*domain.Variant, error) {
	exp := s.activeExperiment(experimentID)
	if exp == nil || !inTargetAudience(userID, exp.TargetAudience) {
		return nil, nil
	}

	variantID, ok := s.assignments[userID][experimentID]
	if !ok {
		variantID = assignVariant(userID, *exp)
		if variantID == "" {
			return nil, nil
		}
		if s.assignments[userID] == nil {
			s.assignments[userID] = make(map[string]string)
		}
		s.assignments[userID][experimentID] = variantID
		if err := kvstore.Save(ctx, s.store, KeyAssignments, s.assignments); err != nil {
			delete(s.assignments[userID], experimentID)
			if len(s.assignments[userID]) == 0 {
				delete(s.assignments, userID)
			}
			return nil, fmt.Errorf("failed to save assignment: %w", err)
		}
		logger.Debug("experiment_assignment",
			"trace_id", trace.TraceIDFromContext(ctx),
			"experiment_id", experimentID,
			"user_id", userID,
			"variant_id", variantID,
		)
	}

	for i := range exp.Variants {
		if exp.Variants[i].ID == variantID {
			v := exp.Variants[i]
			metrics.ExperimentAssignments.WithLabelValues(experimentID, variantID).Inc()
			return &v, nil
		}
	}
	return nil, nil
}

// inTargetAudience admits every user; audience conditions are stored but not
// evaluated yet.
func inTargetAudience(string, domain.TargetAudience) bool {
	return true
}

// RecordResult appends an outcome and updates the variant's running stats.
// Unknown experiments or variants are ignored.
func (s *Service) RecordResult(ctx context.Context, experimentID, variantID, userID string, m map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp := s.find(experimentID)
	if exp == nil || !hasVariant(*exp, variantID) {
		logger.Debug("experiment result ignored",
			"trace_id", trace.TraceIDFromContext(ctx),
			"experiment_id", experimentID,
			"variant_id", variantID,
		)
		return nil
	}
	if m == nil {
		m = map[string]float64{}
	}

	results := append(slices.Clip(s.results), domain.ExperimentResult{
		ExperimentID: experimentID,
		VariantID:    variantID,
		UserID:       userID,
		Timestamp:    s.now(),
		Metrics:      m,
	})
	if err := kvstore.Save(ctx, s.store, KeyResults, results); err != nil {
		return fmt.Errorf("failed to save experiment result: %w", err)
	}
	s.results = results

	byVariant, hadExperiment := s.stats[experimentID]
	if !hadExperiment {
		byVariant = make(map[string]domain.VariantStats)
		s.stats[experimentID] = byVariant
	}
	st, ok := byVariant[variantID]
	if !ok {
		st = domain.VariantStats{ExperimentID: experimentID, VariantID: variantID}
	}
	byVariant[variantID] = applyResult(st, m)
	if err := kvstore.Save(ctx, s.store, KeyStats, s.stats); err != nil {
		switch {
		case !hadExperiment:
			delete(s.stats, experimentID)
		case !ok:
			delete(byVariant, variantID)
		default:
			byVariant[variantID] = st
		}
		return fmt.Errorf("failed to save experiment stats: %w", err)
	}

	metrics.ExperimentResults.
		WithLabelValues(experimentID, variantID, strconv.FormatBool(m["conversion"] != 0)).
		Inc()
	return nil
}

// GetTestStats returns per-variant stats with the winner recomputed.
func (s *Service) GetTestStats(ctx context.Context, experimentID string) ([]domain.VariantStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := orderedStats(s.find(experimentID), s.stats[experimentID])
	markWinner(out)
	return out, nil
}

// UpdateTestStatus sets the status. Any transition is allowed; completing an
// experiment stamps its end date. Unknown ids are ignored.
func (s *Service) UpdateTestStatus(ctx context.Context, experimentID string, status domain.ExperimentStatus) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp := s.find(experimentID)
	if exp == nil {
		return nil
	}
	prev := *exp
	exp.Status = status
	if status == domain.ExperimentCompleted {
		end := s.now()
		exp.EndDate = &end
	}
	if err := kvstore.Save(ctx, s.store, KeyExperiments, s.experiments); err != nil {
		*exp = prev
		return fmt.Errorf("failed to update experiment status: %w", err)
	}

	if status == domain.ExperimentActive {
		s.activate(experimentID)
	} else {
		s.deactivate(experimentID)
	}

	logger.Info("experiment status updated",
		"trace_id", trace.TraceIDFromContext(ctx),
		"experiment_id", experimentID,
		"status", status,
	)
	return nil
}

// GetActiveTests returns active experiments in activation order.
func (s *Service) GetActiveTests(ctx context.Context) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Experiment, 0, len(s.active))
	for _, id := range s.active {
		if exp := s.find(id); exp != nil {
			out = append(out, *exp)
		}
	}
	return out, nil
}

// GetUserConfig scans active experiments in order and returns the first
// non-empty config value for key from the user's assigned variant.
func (s *Service) GetUserConfig(ctx context.Context, userID, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append([]string(nil), s.active...) {
		v, err := s.variantLocked(ctx, id, userID)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			continue
		}
		if val, ok := v.Config[key]; ok && isSet(val) {
			return val, true, nil
		}
	}
	return nil, false, nil
}

// isSet reports whether a decoded JSON value carries something: not null,
// not false, not zero and not an empty string.
func isSet(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func (s *Service) GetExperiment(ctx context.Context, experimentID string) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp := s.find(experimentID)
	if exp == nil {
		return domain.Experiment{}, ErrExperimentNotFound
	}
	return *exp, nil
}

func (s *Service) ListExperiments(ctx context.Context) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Experiment(nil), s.experiments...), nil
}

// Results returns the outcome records of one experiment in record order.
func (s *Service) Results(ctx context.Context, experimentID string) ([]domain.ExperimentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ExperimentResult, 0)
	for _, r := range s.results {
		if r.ExperimentID == experimentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ClearAllData removes every persisted experiment key and resets the cache.
func (s *Service) ClearAllData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{KeyExperiments, KeyResults, KeyAssignments, KeyStats} {
		g.Go(func() error { return kvstore.RemoveAll(gctx, s.store, key) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to clear experiment data: %w", err)
	}

	s.reset()
	logger.Info("experiment data cleared", "trace_id", trace.TraceIDFromContext(ctx))
	return nil
}

func (s *Service) find(id string) *domain.Experiment {
	for i := range s.experiments {
		if s.experiments[i].ID == id {
			return &s.experiments[i]
		}
	}
	return nil
}

func (s *Service) activeExperiment(id string) *domain.Experiment {
	for _, a := range s.active {
		if a == id {
			exp := s.find(id)
			if exp != nil && exp.Status == domain.ExperimentActive {
				return exp
			}
			return nil
		}
	}
	return nil
}

// activate appends id to the active index unless it is already there, which
// keeps its original position.
func (s *Service) activate(id string) {
	for _, a := range s.active {
		if a == id {
			return
		}
	}
	s.active = append(s.active, id)
}

func (s *Service) deactivate(id string) {
	for i, a := range s.active {
		if a == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

func hasVariant(exp domain.Experiment, variantID string) bool {
	for _, v := range exp.Variants {
		if v.ID == variantID {
			return true
		}
	}
	return false
}
