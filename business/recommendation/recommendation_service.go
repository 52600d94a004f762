package recommendation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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
	KeyUserFeatures  = "ml_user_features"
	KeyTopicFeatures = "ml_topic_features"
	KeyModels        = "ml_models"
	KeyTrainingData  = "ml_training_data"
	KeyPredictions   = "ml_predictions"

	algorithmConfigKey = "algorithm"
	defaultAlgorithm   = string(domain.ModelHybrid)
	strategyFallback   = "popularity_fallback"
)

var ErrModelNotFound = errors.New("model not found")

// AlgorithmSource supplies per-user configuration, normally the experiment
// service. A missing or failing source means the default algorithm.
type AlgorithmSource interface {
	GetUserConfig(ctx context.Context, userID, key string) (any, bool, error)
}

type Service struct {
	store kvstore.Store
	algo  AlgorithmSource
	now   func() time.Time

	mu         sync.Mutex
	rnd        *rand.Rand
	users      map[string]domain.UserFeatureVector
	userOrder  []string
	topics     map[string]domain.TopicFeatureVector
	topicOrder []string
	models     []domain.MLModel
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRand(rnd *rand.Rand) Option {
	return func(s *Service) { s.rnd = rnd }
}

// NewService loads features and models, then seeds the default models that are
// missing. A failed seed write is logged; the models stay usable in memory.
func NewService(ctx context.Context, store kvstore.Store, algo AlgorithmSource, opts ...Option) *Service {
	s := &Service{
		store: store,
		algo:  algo,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}

	s.load(ctx)
	if err := s.seedDefaultModels(ctx); err != nil {
		logger.Error("failed to persist default models", "error", err)
	}
	return s
}

func (s *Service) load(ctx context.Context) {
	var (
		users  []domain.UserFeatureVector
		topics []domain.TopicFeatureVector
		models []domain.MLModel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyUserFeatures, &users); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyTopicFeatures, &topics); return nil })
	g.Go(func() error { kvstore.Load(gctx, s.store, KeyModels, &models); return nil })
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for _, u := range users {
		s.putUser(u)
	}
	for _, t := range topics {
		s.putTopic(t)
	}
	for _, m := range models {
		s.putModel(m)
	}

	logger.Info("recommendation service loaded",
		"users", len(s.users),
		"topics", len(s.topics),
		"models", len(s.models),
	)
}

func (s *Service) reset() {
	s.users = make(map[string]domain.UserFeatureVector)
	s.userOrder = nil
	s.topics = make(map[string]domain.TopicFeatureVector)
	s.topicOrder = nil
	s.models = nil
}

func (s *Service) seedDefaultModels(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range defaultModels(s.now()) {
		if s.modelIndex(m.ID) < 0 {
			s.models = append(s.models, m)
		}
	}
	return kvstore.Save(ctx, s.store, KeyModels, s.models)
}

// GetRecommendations ranks topics for the user with the algorithm chosen by
// the user's experiment config. It never fails on missing data: without a
// matching active model or user features it falls back to popular topics.
func (s *Service) GetRecommendations(ctx context.Context, userID string, limit int, rc *domain.RecommendationContext) ([]domain.RecommendationScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = 10
	}
	start := time.Now()
	defer func() { metrics.RecommendationLatency.Observe(time.Since(start).Seconds()) }()

	algorithm := s.algorithmFor(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	model := s.activeModel(algorithm)
	user, hasUser := s.users[userID]
	if model == nil || !hasUser {
		metrics.RecommendationRequests.WithLabelValues(strategyFallback).Inc()
		logger.Debug("recommendation_fallback",
			"trace_id", trace.TraceIDFromContext(ctx),
			"user_id", userID,
			"algorithm", algorithm,
			"has_model", model != nil,
			"has_features", hasUser,
		)
		return popular(s.topicList(), limit), nil
	}

	var recs []domain.RecommendationScore
	switch model.Type {
	case domain.ModelCollaborative:
		recs = collaborative(user, s.userList())
	case domain.ModelContentBased:
		recs = contentBased(user, s.topicList(), s.now())
	case domain.ModelHybrid:
		cw := floatParam(model.Parameters, "collaborativeWeight", defaultCollaborativeWeight)
		tw := floatParam(model.Parameters, "contentWeight", defaultContentWeight)
		recs = hybrid(collaborative(user, s.userList()), contentBased(user, s.topicList(), s.now()), cw, tw)
	default:
		recs = popular(s.topicList(), limit)
	}
	metrics.RecommendationRequests.WithLabelValues(string(model.Type)).Inc()

	if rc != nil {
		recs = applyContextFilters(recs, *rc, s.topics)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	if recs == nil {
		recs = []domain.RecommendationScore{}
	}

	logger.Debug("recommendation_served",
		"trace_id", trace.TraceIDFromContext(ctx),
		"user_id", userID,
		"model_id", model.ID,
		"count", len(recs),
	)
	return recs, nil
}

func (s *Service) algorithmFor(ctx context.Context, userID string) string {
	if s.algo == nil {
		return defaultAlgorithm
	}
	val, ok, err := s.algo.GetUserConfig(ctx, userID, algorithmConfigKey)
	if err != nil {
		logger.Warn("algorithm config lookup failed, using default",
			"trace_id", trace.TraceIDFromContext(ctx),
			"user_id", userID,
			"error", err,
		)
		return defaultAlgorithm
	}
	name, isString := val.(string)
	if !ok || !isString || name == "" {
		return defaultAlgorithm
	}
	return name
}

// UpdateUserFeatures merges the patch into the stored vector and stamps it.
func (s *Service) UpdateUserFeatures(ctx context.Context, userID string, patch domain.UserFeaturesPatch) (domain.UserFeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserFeatureVector{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.users[userID]
	updated := domain.UserFeatureVector{
		UserID:      userID,
		Features:    mergeUserFeatures(existing.Features, patch),
		LastUpdated: s.now(),
	}
	s.putUser(updated)

	if err := kvstore.Save(ctx, s.store, KeyUserFeatures, s.userList()); err != nil {
		return domain.UserFeatureVector{}, fmt.Errorf("failed to save user features: %w", err)
	}
	return updated, nil
}

func (s *Service) UpdateTopicFeatures(ctx context.Context, topicID string, patch domain.TopicFeaturesPatch) (domain.TopicFeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return domain.TopicFeatureVector{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.topics[topicID]
	updated := domain.TopicFeatureVector{
		TopicID:     topicID,
		Features:    mergeTopicFeatures(existing.Features, patch),
		LastUpdated: s.now(),
	}
	s.putTopic(updated)

	if err := kvstore.Save(ctx, s.store, KeyTopicFeatures, s.topicList()); err != nil {
		return domain.TopicFeatureVector{}, fmt.Errorf("failed to save topic features: %w", err)
	}
	return updated, nil
}

func (s *Service) UserFeatures(ctx context.Context, userID string) (domain.UserFeatureVector, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserFeatureVector{}, false, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return u, ok, nil
}

// TrainModel refreshes the model's performance with synthetic values and
// stamps lastTrained. No fitting happens. Unknown models are ignored.
func (s *Service) TrainModel(ctx context.Context, modelID string, trainingData []map[string]any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.modelIndex(modelID)
	if i < 0 {
		return nil
	}
	s.models[i].Performance = syntheticPerformance(s.rnd)
	s.models[i].LastTrained = s.now()

	if err := kvstore.Save(ctx, s.store, KeyModels, s.models); err != nil {
		return fmt.Errorf("failed to save models: %w", err)
	}

	logger.Info("model retrained",
		"trace_id", trace.TraceIDFromContext(ctx),
		"model_id", modelID,
		"samples", len(trainingData),
		"accuracy", s.models[i].Performance.Accuracy,
	)
	return nil
}

func (s *Service) Models(ctx context.Context) ([]domain.MLModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MLModel(nil), s.models...), nil
}

func (s *Service) GetModel(ctx context.Context, modelID string) (domain.MLModel, error) {
	if err := ctx.Err(); err != nil {
		return domain.MLModel{}, fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.modelIndex(modelID)
	if i < 0 {
		return domain.MLModel{}, ErrModelNotFound
	}
	return s.models[i], nil
}

func (s *Service) SetModelActive(ctx context.Context, modelID string, active bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.modelIndex(modelID)
	if i < 0 {
		return ErrModelNotFound
	}
	s.models[i].IsActive = active
	if err := kvstore.Save(ctx, s.store, KeyModels, s.models); err != nil {
		return fmt.Errorf("failed to save models: %w", err)
	}
	return nil
}

// ClearAllData removes the five persisted keys and empties the cache. Default
// models are reseeded in memory only, the store stays empty.
func (s *Service) ClearAllData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{KeyUserFeatures, KeyTopicFeatures, KeyModels, KeyTrainingData, KeyPredictions} {
		g.Go(func() error { return kvstore.RemoveAll(gctx, s.store, key) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to clear recommendation data: %w", err)
	}

	s.reset()
	s.models = defaultModels(s.now())
	logger.Info("recommendation data cleared", "trace_id", trace.TraceIDFromContext(ctx))
	return nil
}

func (s *Service) activeModel(algorithm string) *domain.MLModel {
	for i := range s.models {
		if s.models[i].IsActive && string(s.models[i].Type) == algorithm {
			return &s.models[i]
		}
	}
	return nil
}

func (s *Service) modelIndex(id string) int {
	for i := range s.models {
		if s.models[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) putModel(m domain.MLModel) {
	if i := s.modelIndex(m.ID); i >= 0 {
		s.models[i] = m
		return
	}
	s.models = append(s.models, m)
}

func (s *Service) putUser(u domain.UserFeatureVector) {
	if _, ok := s.users[u.UserID]; !ok {
		s.userOrder = append(s.userOrder, u.UserID)
	}
	s.users[u.UserID] = u
}

func (s *Service) putTopic(t domain.TopicFeatureVector) {
	if _, ok := s.topics[t.TopicID]; !ok {
		s.topicOrder = append(s.topicOrder, t.TopicID)
	}
	s.topics[t.TopicID] = t
}

func (s *Service) userList() []domain.UserFeatureVector {
	out := make([]domain.UserFeatureVector, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out
}

func (s *Service) topicList() []domain.TopicFeatureVector {
	out := make([]domain.TopicFeatureVector, 0, len(s.topicOrder))
	for _, id := range s.topicOrder {
		out = append(out, s.topics[id])
	}
	return out
}
