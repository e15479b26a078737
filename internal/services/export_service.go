package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/models"
	"github.com/xuri/excelize/v2"
)

const ExportSheetName = "Submissions"

var exportHeader = []interface{}{
	"Message ID", "Received", "Name", "Email", "Alternate names", "Message", "Email sent",
}

// SubmissionLister reads every stored submission.
type SubmissionLister interface {
	Submissions(ctx context.Context) ([]*models.Submission, error)
}

// ExportService writes stored contact submissions to a spreadsheet.
type ExportService struct {
	store SubmissionLister
	log   *logrus.Logger
}

func NewExportService(store SubmissionLister, log *logrus.Logger) *ExportService {
	return &ExportService{store: store, log: log}
}

// WriteXLSX writes one row per message, oldest first, and returns the number
// of rows written.
func (s *ExportService) WriteXLSX(ctx context.Context, w io.Writer) (int, error) {
	submissions, err := s.store.Submissions(ctx)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(ExportSheetName, "A1", "G1", bold); err != nil {
		return 0, err
	}
	if err := f.SetColWidth(ExportSheetName, "F", "F", 80); err != nil {
		return 0, err
	}

	for i, sub := range submissions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(ExportSheetName, cell, exportRow(sub)); err != nil {
			return 0, fmt.Errorf("failed to write message %d: %w", sub.Message.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.log.WithField("rows", len(submissions)).Info("Exported submissions")
	return len(submissions), nil
}

func exportRow(sub *models.Submission) *[]interface{} {
	alternates := ""
	if sub.Person.AlternateNames != nil {
		alternates = *sub.Person.AlternateNames
	}
	sent := "no"
	if sub.Message.EmailSent {
		sent = "yes"
	}

	return &[]interface{}{
		sub.Message.ID,
		sub.Message.CreatedAt.UTC().Format(time.RFC3339),
		sub.Person.Name,
		sub.Person.Email,
		alternates,
		sub.Message.Contents,
		sent,
	}
}
