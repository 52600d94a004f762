package domain

import "time"

type ExperimentStatus string

const (
	ExperimentActive    ExperimentStatus = "active"
	ExperimentPaused    ExperimentStatus = "paused"
	ExperimentCompleted ExperimentStatus = "completed"
)

type Experiment struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Status            ExperimentStatus   `json:"status"`
	StartDate         time.Time          `json:"startDate"`
	EndDate           *time.Time         `json:"endDate,omitempty"`
	Variants          []Variant          `json:"variants"`
	Metrics           []ExperimentMetric `json:"metrics"`
	TargetAudience    TargetAudience     `json:"targetAudience"`
	TrafficAllocation float64            `json:"trafficAllocation"`
}

// Variant is one treatment arm. Config carries arbitrary settings such as the
// recommendation "algorithm".
type Variant struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Config            map[string]any `json:"config"`
	TrafficPercentage float64        `json:"trafficPercentage"`
}

type ExperimentMetric struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Goal   string  `json:"goal"`
	Weight float64 `json:"weight"`
}

type TargetAudience struct {
	UserSegments []string            `json:"userSegments"`
	Conditions   []AudienceCondition `json:"conditions"`
}

type AudienceCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// ExperimentResult is one recorded observation for a user under a variant.
type ExperimentResult struct {
	ExperimentID string             `json:"testId"`
	VariantID    string             `json:"variantId"`
	UserID       string             `json:"userId"`
	Timestamp    time.Time          `json:"timestamp"`
	Metrics      map[string]float64 `json:"metrics"`
}

type VariantStats struct {
	ExperimentID      string  `json:"testId"`
	VariantID         string  `json:"variantId"`
	Impressions       int     `json:"impressions"`
	Conversions       int     `json:"conversions"`
	ConversionRate    float64 `json:"conversionRate"`
	AverageEngagement float64 `json:"averageEngagement"`
	ConfidenceLevel   float64 `json:"confidenceLevel"`
	IsSignificant     bool    `json:"isSignificant"`
	Winner            bool    `json:"winner"`
}
