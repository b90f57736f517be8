package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/application/command"
	"github.com/prepwise/prepwise-analytics/internal/application/query"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates domain errors into HTTP status codes. Typed
// statistical outcomes (insufficient data, cohort too small) map to 422 so
// clients can distinguish "not enough data yet" from a malformed request.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrTickAlreadyClaimed) || shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidState) ||
		errors.Is(err, shared.ErrStateTransition) ||
		errors.Is(err, shared.ErrAlreadyProcessed):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsInsufficientData(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// observeQuery records query latency when metrics are enabled.
func (s *Server) observeQuery(kind string, start time.Time) {
	if s.deps.Monitor != nil {
		s.deps.Monitor.ObserveQuery(kind, time.Since(start))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns overall service health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "1.0.0",
	})
}

// handleReady returns readiness status, checking backend connectivity.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive returns liveness status.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot returns API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "PrepWise Analytics API",
		"version": "v1",
		"endpoints": []string{
			"POST /api/v1/subjects",
			"POST /api/v1/events",
			"POST /api/v1/metrics",
			"GET /api/v1/subjects/{id}/series",
			"GET /api/v1/subjects/{id}/trend",
			"GET /api/v1/subjects/{id}/anomalies",
			"GET /api/v1/subjects/{id}/correlation",
			"GET /api/v1/subjects/{id}/forecast",
			"GET /api/v1/subjects/{id}/comparison",
			"GET /api/v1/subjects/{id}/accuracy",
			"POST /api/v1/models/{id}/validate",
			"POST /api/v1/reports",
			"GET /api/v1/reports",
			"DELETE /api/v1/reports/{id}",
			"POST /api/v1/reports/{id}/trigger",
			"GET /api/v1/reports/{id}/executions",
			"GET /api/v1/executions/{id}",
			"POST /api/v1/executions/{id}/cancel",
			"POST /api/v1/exports",
			"GET /api/v1/exports/{id}",
			"GET /api/v1/artifacts/{ref}",
			"GET /api/v1/dashboards/{owner}",
			"PUT /api/v1/dashboards/{owner}",
		},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// INGESTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerSubjectRequest struct {
	SubjectID   string    `json:"subject_id"`
	ExternalRef string    `json:"external_ref"`
	Cohort      string    `json:"cohort"`
	Band        string    `json:"band"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// handleRegisterSubject registers a learner in the analytics registry.
func (s *Server) handleRegisterSubject(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterSubject == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Subject registration not available")
		return
	}

	var req registerSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.RegisterSubject.Handle(r.Context(), command.RegisterSubjectCommand{
		SubjectID:   req.SubjectID,
		ExternalRef: req.ExternalRef,
		Cohort:      req.Cohort,
		Band:        req.Band,
		EnrolledAt:  req.EnrolledAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type recordEventRequest struct {
	EventID    string            `json:"event_id"`
	SubjectID  string            `json:"subject_id"`
	Category   string            `json:"category"`
	OccurredAt time.Time         `json:"occurred_at"`
	Device     string            `json:"device,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// handleRecordEvent ingests one behavioral event. The client supplies the
// event ID, so retried submissions are accepted idempotently.
func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordEvent == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Event ingestion not available")
		return
	}

	var req recordEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.RecordEvent.Handle(r.Context(), command.RecordEventCommand{
		EventID:    req.EventID,
		SubjectID:  req.SubjectID,
		Category:   req.Category,
		OccurredAt: req.OccurredAt,
		Device:     req.Device,
		SessionID:  req.SessionID,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

type recordMetricRequest struct {
	MetricID   string            `json:"metric_id"`
	SubjectID  string            `json:"subject_id"`
	Name       string            `json:"name"`
	Module     string            `json:"module"`
	Value      float64           `json:"value"`
	RecordedAt time.Time         `json:"recorded_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// handleRecordMetric ingests one derived performance measurement.
func (s *Server) handleRecordMetric(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordMetric == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Metric ingestion not available")
		return
	}

	var req recordMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.RecordMetric.Handle(r.Context(), command.RecordMetricCommand{
		MetricID:   req.MetricID,
		SubjectID:  req.SubjectID,
		Name:       req.Name,
		Module:     req.Module,
		Value:      req.Value,
		RecordedAt: req.RecordedAt,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetSeries returns the raw metric series for one subject.
func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetSeries == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Series queries not available")
		return
	}

	defer s.observeQuery("series", time.Now())

	result, err := s.deps.GetSeries.Handle(r.Context(), query.GetSeriesQuery{
		SubjectID: r.PathValue("id"),
		Metric:    getQueryParam(r, "metric", ""),
		From:      getQueryParamTime(r, "from"),
		To:        getQueryParamTime(r, "to"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTrend returns the fitted trend for one subject's metric.
func (s *Server) handleGetTrend(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTrend == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Trend queries not available")
		return
	}

	defer s.observeQuery("trend", time.Now())

	result, err := s.deps.GetTrend.Handle(r.Context(), query.GetTrendQuery{
		SubjectID: r.PathValue("id"),
		Metric:    getQueryParam(r, "metric", ""),
		From:      getQueryParamTime(r, "from"),
		To:        getQueryParamTime(r, "to"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetAnomalies returns flagged observations for one subject's metric.
func (s *Server) handleGetAnomalies(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetAnomalies == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Anomaly queries not available")
		return
	}

	defer s.observeQuery("anomalies", time.Now())

	result, err := s.deps.GetAnomalies.Handle(r.Context(), query.GetAnomaliesQuery{
		SubjectID: r.PathValue("id"),
		Metric:    getQueryParam(r, "metric", ""),
		From:      getQueryParamTime(r, "from"),
		To:        getQueryParamTime(r, "to"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetCorrelation correlates two metric series of one subject.
func (s *Server) handleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetCorrelation == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Correlation queries not available")
		return
	}

	defer s.observeQuery("correlation", time.Now())

	result, err := s.deps.GetCorrelation.Handle(r.Context(), query.GetCorrelationQuery{
		SubjectID:    r.PathValue("id"),
		Metric:       getQueryParam(r, "metric", ""),
		SecondMetric: getQueryParam(r, "second_metric", ""),
		From:         getQueryParamTime(r, "from"),
		To:           getQueryParamTime(r, "to"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleForecast projects a subject's metric forward with confidence bounds.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.deps.Forecast == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Forecasting not available")
		return
	}

	defer s.observeQuery("forecast", time.Now())

	result, err := s.deps.Forecast.Handle(r.Context(), query.ForecastQuery{
		SubjectID: r.PathValue("id"),
		Metric:    getQueryParam(r, "metric", ""),
		Horizon:   getQueryParamDuration(r, "horizon"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompareSubject benchmarks a subject against a peer cohort.
func (s *Server) handleCompareSubject(w http.ResponseWriter, r *http.Request) {
	if s.deps.CompareSubject == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Comparisons not available")
		return
	}

	defer s.observeQuery("comparison", time.Now())

	result, err := s.deps.CompareSubject.Handle(r.Context(), query.CompareSubjectQuery{
		SubjectID: r.PathValue("id"),
		Metric:    getQueryParam(r, "metric", ""),
		Cohort:    getQueryParam(r, "cohort", ""),
		Band:      getQueryParam(r, "band", ""),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePredictionAccuracy summarizes how past forecasts fared.
func (s *Server) handlePredictionAccuracy(w http.ResponseWriter, r *http.Request) {
	if s.deps.PredictionAccuracy == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Accuracy queries not available")
		return
	}

	defer s.observeQuery("accuracy", time.Now())

	result, err := s.deps.PredictionAccuracy.Handle(r.Context(), query.PredictionAccuracyQuery{
		SubjectID: r.PathValue("id"),
		ModelType: getQueryParam(r, "model_type", ""),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type validatePredictionRequest struct {
	ActualValue float64   `json:"actual_value"`
	ObservedAt  time.Time `json:"observed_at"`
}

// handleValidatePrediction records the observed outcome on a model.
func (s *Server) handleValidatePrediction(w http.ResponseWriter, r *http.Request) {
	if s.deps.ValidatePrediction == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Prediction validation not available")
		return
	}

	var req validatePredictionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.ValidatePrediction.Handle(r.Context(), command.ValidatePredictionCommand{
		ModelID:     r.PathValue("id"),
		ActualValue: req.ActualValue,
		ObservedAt:  req.ObservedAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createReportRequest struct {
	OwnerID      string                  `json:"owner_id"`
	SubjectID    string                  `json:"subject_id"`
	Name         string                  `json:"name"`
	Selectors    []command.SelectorInput `json:"selectors"`
	LookbackDays int                     `json:"lookback_days,omitempty"`
	Formats      []string                `json:"formats,omitempty"`
	Schedule     string                  `json:"schedule,omitempty"`
	Recipients   []string                `json:"recipients,omitempty"`
}

// handleCreateReport creates a report definition.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateReport == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report creation not available")
		return
	}

	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.CreateReport.Handle(r.Context(), command.CreateReportCommand{
		OwnerID:      req.OwnerID,
		SubjectID:    req.SubjectID,
		Name:         req.Name,
		Selectors:    req.Selectors,
		LookbackDays: req.LookbackDays,
		Formats:      req.Formats,
		Schedule:     req.Schedule,
		Recipients:   req.Recipients,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListReports lists the report definitions owned by a user.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListReports == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report listing not available")
		return
	}

	ownerID := getQueryParam(r, "owner_id", "")
	if ownerID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_parameter", "owner_id query parameter is required")
		return
	}

	result, err := s.deps.ListReports.Handle(r.Context(), query.ListReportsQuery{OwnerID: ownerID})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDeleteReport removes a report definition.
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.DeleteReport == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report deletion not available")
		return
	}

	ownerID := getQueryParam(r, "owner_id", "")
	if ownerID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_parameter", "owner_id query parameter is required")
		return
	}

	err := s.deps.DeleteReport.Handle(r.Context(), command.DeleteReportCommand{
		ReportID: r.PathValue("id"),
		OwnerID:  ownerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleTriggerReport runs a report ad hoc, outside its schedule.
func (s *Server) handleTriggerReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.TriggerReport == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report triggering not available")
		return
	}

	result, err := s.deps.TriggerReport.Handle(r.Context(), command.TriggerReportCommand{
		ReportID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListExecutions lists a report's executions, newest first.
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListExecutions == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Execution listing not available")
		return
	}

	result, err := s.deps.ListExecutions.Handle(r.Context(), query.ListExecutionsQuery{
		ReportID: r.PathValue("id"),
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", 20),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetExecution returns one execution by ID.
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetExecution == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Execution lookup not available")
		return
	}

	result, err := s.deps.GetExecution.Handle(r.Context(), query.GetExecutionQuery{
		ExecutionID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCancelExecution cancels a pending execution.
func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	if s.deps.CancelExecution == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Execution cancellation not available")
		return
	}

	result, err := s.deps.CancelExecution.Handle(r.Context(), command.CancelExecutionCommand{
		ExecutionID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT & ARTIFACT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type requestExportRequest struct {
	RequesterID string    `json:"requester_id"`
	Kind        string    `json:"kind"`
	SubjectID   string    `json:"subject_id"`
	Metric      string    `json:"metric,omitempty"`
	Category    string    `json:"category,omitempty"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Format      string    `json:"format"`
}

// handleRequestExport enqueues a raw-data export.
func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.RequestExport == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Exports not available")
		return
	}

	var req requestExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	result, err := s.deps.RequestExport.Handle(r.Context(), command.RequestExportCommand{
		RequesterID: req.RequesterID,
		Kind:        req.Kind,
		SubjectID:   req.SubjectID,
		Metric:      req.Metric,
		Category:    req.Category,
		From:        req.From,
		To:          req.To,
		Format:      req.Format,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// handleGetExport returns an export job's status.
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetExport == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Export lookup not available")
		return
	}

	result, err := s.deps.GetExport.Handle(r.Context(), query.GetExportQuery{
		ExportID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetArtifact streams a rendered artifact by content-addressed ref.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if s.deps.Artifacts == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Artifact retrieval not available")
		return
	}

	ref := r.PathValue("ref")
	data, err := s.deps.Artifacts.Get(ref)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Artifact not found")
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(ref, ".json"):
		contentType = "application/json; charset=utf-8"
	case strings.HasSuffix(ref, ".csv"):
		contentType = "text/csv; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard returns the owner's dashboard configuration.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDashboard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboards not available")
		return
	}

	result, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{
		OwnerID: r.PathValue("owner"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type saveDashboardRequest struct {
	Widgets         []command.WidgetInput `json:"widgets"`
	RefreshInterval string                `json:"refresh_interval"`
}

// handleSaveDashboard upserts the owner's dashboard configuration.
func (s *Server) handleSaveDashboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.SaveDashboard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboards not available")
		return
	}

	var req saveDashboardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}

	refresh := time.Duration(0)
	if req.RefreshInterval != "" {
		parsed, err := time.ParseDuration(req.RefreshInterval)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "refresh_interval must be a duration string")
			return
		}
		refresh = parsed
	}

	result, err := s.deps.SaveDashboard.Handle(r.Context(), command.SaveDashboardCommand{
		OwnerID:         r.PathValue("owner"),
		Widgets:         req.Widgets,
		RefreshInterval: refresh,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

