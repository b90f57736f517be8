package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RENDERERS
// ══════════════════════════════════════════════════════════════════════════════

// Render materializes a document in the requested format.
func Render(doc *Document, format report.OutputFormat) ([]byte, error) {
	switch format {
	case report.FormatJSON:
		return renderJSON(doc)
	case report.FormatCSV:
		return renderCSV(doc)
	default:
		return nil, shared.NewDomainError("report", "Render", shared.ErrInvalidInput, "unsupported output format")
	}
}

func renderJSON(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render JSON: %w", err)
	}
	return data, nil
}

// renderCSV flattens the document into (section, metric, field, value)
// rows. Series sections additionally emit one row per observation.
func renderCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"section", "metric", "field", "value"}); err != nil {
		return nil, err
	}

	for _, sec := range doc.Sections {
		kind := string(sec.Kind)
		name := string(sec.Metric)

		row := func(field, value string) {
			w.Write([]string{kind, name, field, value})
		}

		row("status", string(sec.Status))
		if sec.Status != SectionOK {
			if sec.Detail != "" {
				row("detail", sec.Detail)
			}
			continue
		}

		switch {
		case sec.Series != nil:
			for _, p := range sec.Series.Points {
				row(p.Timestamp.UTC().Format(time.RFC3339), formatFloat(p.Value))
			}
		case sec.Trend != nil:
			row("classification", string(sec.Trend.Classification))
			row("slope_per_hour", formatFloat(sec.Trend.Slope))
			row("r_squared", formatFloat(sec.Trend.RSquared))
			row("sample_size", strconv.Itoa(sec.Trend.SampleSize))
		case sec.Anomalies != nil:
			row("count", strconv.Itoa(len(sec.Anomalies.Anomalies)))
			for _, a := range sec.Anomalies.Anomalies {
				row(a.Timestamp.UTC().Format(time.RFC3339), formatFloat(a.ZScore))
			}
		case sec.Forecast != nil:
			row("predicted", formatFloat(sec.Forecast.Predicted))
			row("low", formatFloat(sec.Forecast.Low))
			row("high", formatFloat(sec.Forecast.High))
			row("horizon", sec.Forecast.Horizon)
		case sec.Comparison != nil:
			row("percentile", formatFloat(float64(sec.Comparison.Percentile)))
			row("cohort_size", strconv.Itoa(sec.Comparison.Stats.Size))
			row("cohort_mean", formatFloat(sec.Comparison.Stats.Mean))
			row("cohort_median", formatFloat(sec.Comparison.Stats.Median))
		case sec.Correlation != nil:
			row("second_metric", string(sec.SecondMetric))
			row("coefficient", formatFloat(sec.Correlation.Coefficient))
			row("p_value", formatFloat(sec.Correlation.PValue))
			row("significant", strconv.FormatBool(sec.Correlation.Significant))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
