package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE REPORT COMMAND
// Creates a report definition. Cron syntax is validated here, at the edge,
// so the scheduler never sees an unparseable expression.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleValidator checks cron expression syntax. Wired to the scheduler's
// parser so definitions and the evaluation loop agree on the dialect.
type ScheduleValidator func(expr string) error

// SelectorInput is one requested report section.
type SelectorInput struct {
	Kind         string `json:"kind"`
	Metric       string `json:"metric"`
	SecondMetric string `json:"second_metric,omitempty"`
}

// CreateReportCommand contains the data to create a report definition.
type CreateReportCommand struct {
	// OwnerID is the user creating the report.
	OwnerID string

	// SubjectID is the learner the report is about.
	SubjectID string

	// Name is a human-readable label.
	Name string

	// Selectors name the sections to compute.
	Selectors []SelectorInput

	// LookbackDays bounds the data window; 0 uses the default.
	LookbackDays int

	// Formats are the output formats; empty defaults to JSON.
	Formats []string

	// Schedule is an optional 5-field cron expression.
	Schedule string

	// Recipients receive completed artifacts.
	Recipients []string
}

// CreateReportResult contains the created definition's identity.
type CreateReportResult struct {
	ReportID  string `json:"report_id"`
	Name      string `json:"name"`
	Scheduled bool   `json:"scheduled"`
}

// CreateReportHandler handles the CreateReportCommand.
type CreateReportHandler struct {
	defs             report.DefinitionRepository
	validateSchedule ScheduleValidator
}

// NewCreateReportHandler creates a new CreateReportHandler.
func NewCreateReportHandler(defs report.DefinitionRepository, validateSchedule ScheduleValidator) *CreateReportHandler {
	return &CreateReportHandler{defs: defs, validateSchedule: validateSchedule}
}

// Handle executes the create report command.
func (h *CreateReportHandler) Handle(ctx context.Context, cmd CreateReportCommand) (*CreateReportResult, error) {
	ownerID, err := shared.NewSubjectID(cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	subjectID, err := shared.NewSubjectID(cmd.SubjectID)
	if err != nil {
		return nil, err
	}

	selectors := make([]report.MetricSelector, 0, len(cmd.Selectors))
	for _, in := range cmd.Selectors {
		selectors = append(selectors, report.MetricSelector{
			Kind:         report.SectionKind(in.Kind),
			Metric:       shared.MetricName(in.Metric),
			SecondMetric: shared.MetricName(in.SecondMetric),
		})
	}

	formats := make([]report.OutputFormat, 0, len(cmd.Formats))
	for _, f := range cmd.Formats {
		parsed, err := report.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		formats = append(formats, parsed)
	}

	def, err := report.NewDefinition(uuid.NewString(), ownerID, subjectID, cmd.Name, selectors, formats)
	if err != nil {
		return nil, err
	}
	if cmd.LookbackDays > 0 {
		def.LookbackDays = cmd.LookbackDays
	}
	def.Recipients = cmd.Recipients

	if cmd.Schedule != "" {
		if h.validateSchedule == nil {
			return nil, shared.ErrInvalidSchedule
		}
		if err := h.validateSchedule(cmd.Schedule); err != nil {
			return nil, shared.ErrInvalidSchedule
		}
		def.Schedule = cmd.Schedule
	}

	if err := h.defs.Save(ctx, def); err != nil {
		return nil, err
	}

	return &CreateReportResult{
		ReportID:  def.ID,
		Name:      def.Name,
		Scheduled: def.IsScheduled(),
	}, nil
}
