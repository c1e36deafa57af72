package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
	"github.com/noah-isme/assessment-api/pkg/export"
)

// ExportFormat names a supported rendering.
type ExportFormat string

const (
	ExportPDF ExportFormat = "pdf"
	ExportCSV ExportFormat = "csv"
)

// ExportFile is a rendered exam ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type examGetter interface {
	Get(ctx context.Context, ownerID, id string) (*models.Exam, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(paper export.Paper) ([]byte, error)
}

// ExportService renders owned exams as a printable paper or an answer-key sheet.
type ExportService struct {
	exams  examGetter
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(exams examGetter, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{exams: exams, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the owner's exam in the requested format.
func (s *ExportService) Export(ctx context.Context, ownerID, id, format string) (*ExportFile, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = ExportPDF
	}
	if f != ExportPDF && f != ExportCSV {
		return nil, appErrors.Validation("format must be pdf or csv")
	}

	exam, err := s.exams.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var data []byte
	var contentType string
	switch f {
	case ExportCSV:
		data, err = s.csv.Render(examDataset(exam))
		contentType = "text/csv; charset=utf-8"
	default:
		data, err = s.pdf.Render(examPaper(exam))
		contentType = "application/pdf"
	}
	if err != nil {
		s.logger.Error("failed to render exam export", zap.String("exam", exam.ID), zap.String("format", string(f)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", slug(exam.ExamTitle, exam.ID), f),
		ContentType: contentType,
		Data:        data,
	}, nil
}

var csvHeaders = []string{"number", "type", "prompt", "choices", "answer", "rubric"}

func examDataset(exam *models.Exam) export.Dataset {
	rows := make([]map[string]string, 0, len(exam.Questions))
	for i, q := range exam.Questions {
		rows = append(rows, map[string]string{
			"number":  strconv.Itoa(i + 1),
			"type":    string(q.Type),
			"prompt":  q.Prompt,
			"choices": strings.Join(q.Choices, " | "),
			"answer":  answerText(q),
			"rubric":  q.Rubric,
		})
	}
	return export.Dataset{Headers: csvHeaders, Rows: rows}
}

func examPaper(exam *models.Exam) export.Paper {
	paper := export.Paper{
		Title: exam.ExamTitle,
		Subtitle: []string{
			"Department: " + exam.Department,
			"Duration: " + strconv.FormatFloat(exam.DurationMinutes, 'f', -1, 64) + " minutes",
			fmt.Sprintf("Questions: %d", len(exam.Questions)),
		},
	}
	for _, q := range exam.Questions {
		item := export.PaperItem{Heading: q.Type.Label(), Body: q.Prompt}
		switch q.Type {
		case models.QuestionMultipleChoice:
			for _, c := range q.Choices {
				if c != "" {
					item.Options = append(item.Options, c)
				}
			}
		case models.QuestionTrueFalse:
			item.Options = []string{"True", "False"}
		case models.QuestionNarrative:
			item.Notes = []string{"Rubric: " + q.Rubric}
		}
		paper.Items = append(paper.Items, item)
	}
	return paper
}

func answerText(q models.Question) string {
	switch q.Type {
	case models.QuestionMultipleChoice:
		if q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(q.Choices) {
			return q.Choices[*q.CorrectIndex]
		}
	case models.QuestionTrueFalse:
		if q.CorrectBoolean != nil {
			return strconv.FormatBool(*q.CorrectBoolean)
		}
	}
	return ""
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(title, fallback string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "exam-" + fallback
	}
	return s
}
