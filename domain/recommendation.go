package domain

import "time"

type UserFeatures struct {
	Grade int    `json:"grade"`
	Goal  string `json:"goal"`

	TotalStudyTime         float64 `json:"totalStudyTime"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
	CompletionRate         float64 `json:"completionRate"`
	AverageScore           float64 `json:"averageScore"`
	StreakDays             int     `json:"streakDays"`

	PreferredTopics []string `json:"preferredTopics"`
	WeakTopics      []string `json:"weakTopics"`
	StrongTopics    []string `json:"strongTopics"`

	PreferredTimeOfDay string  `json:"preferredTimeOfDay"`
	StudyFrequency     float64 `json:"studyFrequency"`

	InteractionPatterns []InteractionPattern `json:"interactionPatterns"`
}

type UserFeatureVector struct {
	UserID      string       `json:"userId"`
	Features    UserFeatures `json:"features"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

type InteractionPattern struct {
	TopicID         string    `json:"topicId"`
	InteractionType string    `json:"interactionType"`
	Timestamp       time.Time `json:"timestamp"`
	Duration        *float64  `json:"duration,omitempty"`
	Score           *float64  `json:"score,omitempty"`
}

// UserFeaturesPatch is a partial update; nil fields keep their stored value.
type UserFeaturesPatch struct {
	Grade *int    `json:"grade,omitempty"`
	Goal  *string `json:"goal,omitempty"`

	TotalStudyTime         *float64 `json:"totalStudyTime,omitempty"`
	AverageSessionDuration *float64 `json:"averageSessionDuration,omitempty"`
	CompletionRate         *float64 `json:"completionRate,omitempty"`
	AverageScore           *float64 `json:"averageScore,omitempty"`
	StreakDays             *int     `json:"streakDays,omitempty"`

	PreferredTopics []string `json:"preferredTopics,omitempty"`
	WeakTopics      []string `json:"weakTopics,omitempty"`
	StrongTopics    []string `json:"strongTopics,omitempty"`

	PreferredTimeOfDay *string  `json:"preferredTimeOfDay,omitempty"`
	StudyFrequency     *float64 `json:"studyFrequency,omitempty"`

	InteractionPatterns []InteractionPattern `json:"interactionPatterns,omitempty"`
}

type TopicFeatures struct {
	Difficulty    float64  `json:"difficulty"`
	EstimatedTime float64  `json:"estimatedTime"`
	Section       string   `json:"section"`
	Tags          []string `json:"tags"`

	Popularity     float64 `json:"popularity"`
	AverageRating  float64 `json:"averageRating"`
	CompletionRate float64 `json:"completionRate"`

	AverageScore float64 `json:"averageScore"`
	RetryRate    float64 `json:"retryRate"`

	Prerequisites []string `json:"prerequisites"`
	RelatedTopics []string `json:"relatedTopics"`
}

type TopicFeatureVector struct {
	TopicID     string        `json:"topicId"`
	Features    TopicFeatures `json:"features"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

type TopicFeaturesPatch struct {
	Difficulty    *float64 `json:"difficulty,omitempty"`
	EstimatedTime *float64 `json:"estimatedTime,omitempty"`
	Section       *string  `json:"section,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	Popularity     *float64 `json:"popularity,omitempty"`
	AverageRating  *float64 `json:"averageRating,omitempty"`
	CompletionRate *float64 `json:"completionRate,omitempty"`

	AverageScore *float64 `json:"averageScore,omitempty"`
	RetryRate    *float64 `json:"retryRate,omitempty"`

	Prerequisites []string `json:"prerequisites,omitempty"`
	RelatedTopics []string `json:"relatedTopics,omitempty"`
}

type ScoreFactors struct {
	UserPreference    float64 `json:"userPreference"`
	ContentRelevance  float64 `json:"contentRelevance"`
	DifficultyMatch   float64 `json:"difficultyMatch"`
	ProgressAlignment float64 `json:"progressAlignment"`
	Recency           float64 `json:"recency"`
	Popularity        float64 `json:"popularity"`
}

type RecommendationScore struct {
	TopicID     string       `json:"topicId"`
	Score       float64      `json:"score"`
	Factors     ScoreFactors `json:"factors"`
	Explanation string       `json:"explanation"`
}

// RecommendationContext narrows results after scoring. Zero values disable a filter.
type RecommendationContext struct {
	AvailableTime        float64 `json:"availableTime,omitempty"`
	DifficultyPreference float64 `json:"difficultyPreference,omitempty"`
	Section              string  `json:"section,omitempty"`
}

type ModelType string

const (
	ModelCollaborative ModelType = "collaborative_filtering"
	ModelContentBased  ModelType = "content_based"
	ModelHybrid        ModelType = "hybrid"
	ModelDeepLearning  ModelType = "deep_learning"
)

type ModelPerformance struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

type MLModel struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Type        ModelType        `json:"type"`
	Parameters  map[string]any   `json:"parameters"`
	Performance ModelPerformance `json:"performance"`
	LastTrained time.Time        `json:"lastTrained"`
	IsActive    bool             `json:"isActive"`
}
