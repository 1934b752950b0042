package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

const (
	SheetAttempts     = "Test_Attempts"
	SheetResponses    = "Question_Responses"
	SheetUnsubscribes = "Unsubscribes"

	defaultSheet = "Sheet1"
)

// SpreadsheetSink keeps attempts, responses and unsubscribes as sheets of one workbook.
// Every write reopens and saves the file, so the workbook on disk is always complete.
type SpreadsheetSink struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

func NewSpreadsheetSink(path string) *SpreadsheetSink {
	return &SpreadsheetSink{path: path, now: time.Now}
}

func (s *SpreadsheetSink) Append(_ context.Context, a AttemptRow, rs []ResponseRow) error {
	return s.update(func(f *excelize.File) error {
		if err := appendRow(f, SheetAttempts, attemptHeaders, []any{
			a.AttemptID, a.Timestamp, a.StudentName, a.StudentEmail, a.StudentPhone,
			a.TotalScore, a.MaxScore, a.Percentage, a.DurationSeconds, a.CEFRLevel,
			a.StudyPlanSummary, a.StudyPlanLink,
		}); err != nil {
			return err
		}

		for _, r := range rs {
			if err := appendRow(f, SheetResponses, responseHeaders, []any{
				r.AttemptID, r.QuestionID, r.GrammarTopic, r.IsCorrect, r.StudentAnswer, r.TimeSpentMS,
			}); err != nil {
				return err
			}
		}

		return nil
	})
}

// Unsubscribe adds email to the unsubscribe sheet unless it is already there.
func (s *SpreadsheetSink) Unsubscribe(_ context.Context, email string) error {
	return s.update(func(f *excelize.File) error {
		ok, err := containsEmail(f, email)
		if err != nil || ok {
			return err
		}
		return appendRow(f, SheetUnsubscribes, unsubscribeHeaders, []any{email, s.now()})
	})
}

func (s *SpreadsheetSink) IsUnsubscribed(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("spreadsheet: open %s: %w", s.path, err)
	}
	defer f.Close()

	return containsEmail(f, email)
}

func (s *SpreadsheetSink) update(fn func(f *excelize.File) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("spreadsheet: %w", err)
	}

	if idx, _ := f.GetSheetIndex(defaultSheet); idx >= 0 && f.SheetCount > 1 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("spreadsheet: delete %s: %w", defaultSheet, err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("spreadsheet: save %s: %w", s.path, err)
	}

	return nil
}

func (s *SpreadsheetSink) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open %s: %w", s.path, err)
	}
	return f, nil
}

// ensureSheet creates the sheet with a frozen header row when it is missing.
func ensureSheet(f *excelize.File, sheet string, headers []string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	row := make([]any, 0, len(headers))
	for _, h := range headers {
		row = append(row, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write %s headers: %w", sheet, err)
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func appendRow(f *excelize.File, sheet string, headers []string, row []any) error {
	if err := ensureSheet(f, sheet, headers); err != nil {
		return err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", sheet, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("append %s row: %w", sheet, err)
	}

	return nil
}

func containsEmail(f *excelize.File, email string) (bool, error) {
	idx, err := f.GetSheetIndex(SheetUnsubscribes)
	if err != nil || idx < 0 {
		return false, err
	}

	rows, err := f.GetRows(SheetUnsubscribes)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", SheetUnsubscribes, err)
	}

	want := foldEmail(email)
	for _, r := range rows[min(1, len(rows)):] {
		if len(r) > 0 && foldEmail(r[0]) == want {
			return true, nil
		}
	}

	return false, nil
}

// foldEmail returns the case-folded form used to compare addresses.
func foldEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

