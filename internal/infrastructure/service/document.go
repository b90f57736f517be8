package service

import (
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT DOCUMENT
// ══════════════════════════════════════════════════════════════════════════════

// SectionStatus reflects how a section's analysis went. Insufficient
// data is a rendered outcome, not an execution failure.
type SectionStatus string

const (
	SectionOK           SectionStatus = "ok"
	SectionInsufficient SectionStatus = "insufficient_data"
	SectionError        SectionStatus = "error"
)

// SeriesData is the rendered form of a metric series.
type SeriesData struct {
	Points []SeriesPoint `json:"points"`
}

// SeriesPoint is one rendered observation.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ForecastData is the rendered form of a predictive model.
type ForecastData struct {
	ModelID     string    `json:"model_id"`
	Predicted   float64   `json:"predicted"`
	Low         float64   `json:"low"`
	High        float64   `json:"high"`
	Horizon     string    `json:"horizon"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Section is one computed block of a report document.
type Section struct {
	Kind         report.SectionKind `json:"kind"`
	Metric       shared.MetricName  `json:"metric"`
	SecondMetric shared.MetricName  `json:"second_metric,omitempty"`
	Status       SectionStatus      `json:"status"`
	Detail       string             `json:"detail,omitempty"`

	Series      *SeriesData                     `json:"series,omitempty"`
	Trend       *analysis.TrendResult           `json:"trend,omitempty"`
	Anomalies   *analysis.AnomalyResult         `json:"anomalies,omitempty"`
	Forecast    *ForecastData                   `json:"forecast,omitempty"`
	Comparison  *comparison.ComparativeAnalysis `json:"comparison,omitempty"`
	Correlation *analysis.CorrelationResult     `json:"correlation,omitempty"`
}

// Document is the fully computed report, ready for rendering. Every
// output format renders from the same document, so formats can fail
// independently without recomputing analyses.
type Document struct {
	ReportID    string           `json:"report_id"`
	ExecutionID string           `json:"execution_id"`
	Name        string           `json:"name"`
	SubjectID   shared.SubjectID `json:"subject_id"`
	Range       shared.TimeRange `json:"range"`
	GeneratedAt time.Time        `json:"generated_at"`
	Sections    []Section        `json:"sections"`
}
