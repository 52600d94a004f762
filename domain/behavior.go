package domain

import "time"

type MotivationLevel string

const (
	MotivationHigh   MotivationLevel = "high"
	MotivationMedium MotivationLevel = "medium"
	MotivationLow    MotivationLevel = "low"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

type UserBehaviorProfile struct {
	UserID             string             `json:"userId"`
	LearningPatterns   []LearningPattern  `json:"learningPatterns"`
	EngagementMetrics  EngagementMetrics  `json:"engagementMetrics"`
	PerformanceTrends  []PerformanceTrend `json:"performanceTrends"`
	ContentPreferences ContentPreferences `json:"contentPreferences"`
	TimePatterns       TimePatterns       `json:"timePatterns"`
	SocialPatterns     SocialPatterns     `json:"socialPatterns"`
	LastUpdated        time.Time          `json:"lastUpdated"`
}

type LearningPattern struct {
	PatternID    string         `json:"patternId"`
	Type         string         `json:"type"`
	Description  string         `json:"description"`
	Confidence   float64        `json:"confidence"`
	Data         map[string]any `json:"data"`
	LastObserved time.Time      `json:"lastObserved"`
}

type EngagementMetrics struct {
	SessionFrequency       float64         `json:"sessionFrequency"`
	AverageSessionDuration float64         `json:"averageSessionDuration"`
	CompletionRate         float64         `json:"completionRate"`
	RetentionRate          float64         `json:"retentionRate"`
	EngagementScore        float64         `json:"engagementScore"`
	AverageScore           float64         `json:"averageScore"`
	MotivationLevel        MotivationLevel `json:"motivationLevel"`
	DropoffPoints          []DropoffPoint  `json:"dropoffPoints"`
}

type DropoffPoint struct {
	Screen                   string   `json:"screen"`
	Frequency                float64  `json:"frequency"`
	AverageTimeBeforeDropoff int64    `json:"averageTimeBeforeDropoff"`
	CommonReasons            []string `json:"commonReasons"`
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type PerformanceTrend struct {
	Metric     string         `json:"metric"`
	Values     []TrendPoint   `json:"values"`
	Trend      TrendDirection `json:"trend"`
	Slope      float64        `json:"slope"`
	Confidence float64        `json:"confidence"`
}

type ContentPreferences struct {
	FavoriteTopics       []string `json:"favoriteTopics"`
	AvoidedTopics        []string `json:"avoidedTopics"`
	PreferredDifficulty  float64  `json:"preferredDifficulty"`
	PreferredContentType string   `json:"preferredContentType"`
	LearningStyle        string   `json:"learningStyle"`
	PacePreference       string   `json:"pacePreference"`
}

type HourFrequency struct {
	Hour      int `json:"hour"`
	Frequency int `json:"frequency"`
}

type DaySessions struct {
	Day      int `json:"day"`
	Sessions int `json:"sessions"`
}

type SessionGap struct {
	GapHours  float64 `json:"gapHours"`
	Frequency int     `json:"frequency"`
}

type BreakPattern struct {
	Type          string  `json:"type"`
	Duration      float64 `json:"duration"`
	Frequency     float64 `json:"frequency"`
	Effectiveness float64 `json:"effectiveness"`
}

type TimePatterns struct {
	PreferredStudyTimes    []HourFrequency `json:"preferredStudyTimes"`
	WeeklyPattern          []DaySessions   `json:"weeklyPattern"`
	SessionGaps            []SessionGap    `json:"sessionGaps"`
	OptimalSessionDuration float64         `json:"optimalSessionDuration"`
	BreakPatterns          []BreakPattern  `json:"breakPatterns"`
}

type SocialPatterns struct {
	ComparisonGroup   string  `json:"comparisonGroup"`
	PercentileRank    float64 `json:"percentileRank"`
	CompetitiveSpirit string  `json:"competitiveSpirit"`
	SocialMotivation  float64 `json:"socialMotivation"`
	PeerInfluence     float64 `json:"peerInfluence"`
}

type PredictiveInsights struct {
	UserID          string                  `json:"userId"`
	Predictions     []Prediction            `json:"predictions"`
	Recommendations []InsightRecommendation `json:"recommendations"`
	RiskFactors     []RiskFactor            `json:"riskFactors"`
	Opportunities   []Opportunity           `json:"opportunities"`
	LastUpdated     time.Time               `json:"lastUpdated"`
}

type Prediction struct {
	Type       string   `json:"type"`
	Value      float64  `json:"value"`
	Confidence float64  `json:"confidence"`
	Timeframe  int      `json:"timeframe"`
	Factors    []string `json:"factors"`
}

type InsightRecommendation struct {
	Type           string  `json:"type"`
	Priority       string  `json:"priority"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	ExpectedImpact float64 `json:"expectedImpact"`
	Implementation string  `json:"implementation"`
}

type RiskFactor struct {
	Factor      string  `json:"factor"`
	Severity    string  `json:"severity"`
	Probability float64 `json:"probability"`
	Mitigation  string  `json:"mitigation"`
}

type Opportunity struct {
	Area        string  `json:"area"`
	Potential   float64 `json:"potential"`
	Effort      float64 `json:"effort"`
	ROI         float64 `json:"roi"`
	Description string  `json:"description"`
}

type CohortType string

const (
	CohortRegistrationDate CohortType = "registration_date"
	CohortGoal             CohortType = "goal"
	CohortGrade            CohortType = "grade"
	CohortBehavior         CohortType = "behavior"
)

type CohortAnalysis struct {
	CohortID    string        `json:"cohortId"`
	CohortType  CohortType    `json:"cohortType"`
	CohortValue string        `json:"cohortValue"`
	Users       []string      `json:"users"`
	Metrics     CohortMetrics `json:"metrics"`
	Trends      []CohortTrend `json:"trends"`
}

type CohortMetrics struct {
	Size              int     `json:"size"`
	RetentionRate     float64 `json:"retentionRate"`
	AverageEngagement float64 `json:"averageEngagement"`
	CompletionRate    float64 `json:"completionRate"`
	AverageScore      float64 `json:"averageScore"`
	ChurnRate         float64 `json:"churnRate"`
}

type CohortTrend struct {
	Period          string  `json:"period"`
	RetentionRate   float64 `json:"retentionRate"`
	EngagementScore float64 `json:"engagementScore"`
	CompletionRate  float64 `json:"completionRate"`
}
