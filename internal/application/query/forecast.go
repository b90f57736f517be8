package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORECAST QUERY
// Projects a subject's metric forward with confidence bounds. The generated
// model is persisted so the validation loop can score it once the horizon
// passes; that write is the one side effect in the query package.
// ══════════════════════════════════════════════════════════════════════════════

// ForecastQuery contains the forecast request parameters.
type ForecastQuery struct {
	SubjectID string
	Metric    string

	// Horizon is how far ahead to project; zero uses the default. Requests
	// beyond the configured maximum are clamped, not rejected.
	Horizon time.Duration
}

// ForecastResult contains the forecast with its uncertainty bounds.
type ForecastResult struct {
	ModelID   string `json:"model_id"`
	SubjectID string `json:"subject_id"`
	Metric    string `json:"metric"`

	Predicted   float64   `json:"predicted"`
	Low         float64   `json:"low"`
	High        float64   `json:"high"`
	Horizon     string    `json:"horizon"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ForecastHandlerConfig bounds the forecast horizons.
type ForecastHandlerConfig struct {
	DefaultHorizon time.Duration
	MaxHorizon     time.Duration
	LookbackDays   int
}

// ForecastHandler handles the ForecastQuery.
type ForecastHandler struct {
	metrics metric.Repository
	models  prediction.Repository
	opts    analysis.Options
	cfg     ForecastHandlerConfig
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(metrics metric.Repository, models prediction.Repository, opts analysis.Options, cfg ForecastHandlerConfig) *ForecastHandler {
	if cfg.DefaultHorizon <= 0 {
		cfg.DefaultHorizon = 7 * 24 * time.Hour
	}
	if cfg.MaxHorizon <= 0 {
		cfg.MaxHorizon = 90 * 24 * time.Hour
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	return &ForecastHandler{metrics: metrics, models: models, opts: opts, cfg: cfg}
}

// Handle executes the forecast query.
func (h *ForecastHandler) Handle(ctx context.Context, q ForecastQuery) (*ForecastResult, error) {
	subjectID, err := shared.NewSubjectID(q.SubjectID)
	if err != nil {
		return nil, err
	}
	name, err := shared.NewMetricName(q.Metric)
	if err != nil {
		return nil, err
	}

	horizon := q.Horizon
	if horizon <= 0 {
		horizon = h.cfg.DefaultHorizon
	}
	if horizon > h.cfg.MaxHorizon {
		horizon = h.cfg.MaxHorizon
	}

	series, err := h.metrics.QuerySeries(ctx, subjectID, name, shared.LastNDays(h.cfg.LookbackDays))
	if err != nil {
		return nil, err
	}

	model, err := prediction.Forecast(uuid.NewString(), series, horizon, h.opts)
	if err != nil {
		return nil, err
	}

	if err := h.models.Save(ctx, model); err != nil {
		return nil, err
	}

	return &ForecastResult{
		ModelID:     model.ID,
		SubjectID:   string(model.SubjectID),
		Metric:      string(model.TargetMetric),
		Predicted:   model.Predicted,
		Low:         model.Interval.Low,
		High:        model.Interval.High,
		Horizon:     model.Horizon.String(),
		GeneratedAt: model.GeneratedAt,
	}, nil
}
