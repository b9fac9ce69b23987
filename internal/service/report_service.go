package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
	"github.com/edusphere/core-api/pkg/export"
)

type gradeReportReader interface {
	ReportByAssessment(ctx context.Context, assessmentID string) ([]models.GradeReportRow, error)
}

type assessmentTitleReader interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
}

// ReportFormat selects the export encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report bundles rendered bytes with transport metadata.
type Report struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ReportService exports an assessment's graded submissions as CSV or PDF.
type ReportService struct {
	grades      gradeReportReader
	assessments assessmentTitleReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(grades gradeReportReader, assessments assessmentTitleReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		grades:      grades,
		assessments: assessments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// AssessmentReport renders the grade table for one assessment.
func (s *ReportService) AssessmentReport(ctx context.Context, assessmentID string, format ReportFormat) (*Report, error) {
	assessment, err := s.assessments.FindByID(ctx, assessmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	rows, err := s.grades.ReportByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade report")
	}

	table := export.Table{
		Headers: []string{"Submission", "User", "Submitted At", "Score", "Max Score", "Percentage"},
		Rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		submittedAt := ""
		if row.SubmittedAt != nil {
			submittedAt = row.SubmittedAt.UTC().Format("2006-01-02 15:04")
		}
		table.Rows[i] = []string{
			row.SubmissionID,
			row.UserID,
			submittedAt,
			formatScore(row.TotalScore),
			formatScore(row.MaxScore),
			formatScore(row.Percentage) + "%",
		}
	}

	switch format {
	case ReportFormatPDF:
		content, err := s.pdf.Render(table, assessment.Title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &Report{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("assessment-%s-grades.pdf", assessmentID),
		}, nil
	case ReportFormatCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &Report{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("assessment-%s-grades.csv", assessmentID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
