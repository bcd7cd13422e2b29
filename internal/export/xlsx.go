// internal/export/xlsx.go
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"commit-miner/internal/model"
)

const (
	sheetName = "Commits"
	// Excel rejects cells longer than this.
	maxCellChars = 32767
	maxColWidth  = 255
	minColWidth  = 8
)

var headers = []string{"Repository URL", "Commit ID", "Author Name", "Date", "Commit Message"}

// XLSXSink writes commit records to a single-sheet workbook.
type XLSXSink struct {
	path   string
	logger *slog.Logger
}

// NewXLSXSink creates a sink that writes to path, replacing any previous file.
func NewXLSXSink(path string, logger *slog.Logger) *XLSXSink {
	return &XLSXSink{path: path, logger: logger}
}

func (s *XLSXSink) Name() string { return "xlsx" }

// Export writes the header row in bold followed by one row per record and sizes
// each column to its longest cell.
func (s *XLSXSink) Export(ctx context.Context, run model.Run, records []model.CommitRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	widths := make([]int, len(headers))
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, bold); err != nil {
		return err
	}

	for i, r := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := []string{r.RepositoryURL, r.CommitID, r.AuthorName, r.Date, truncate(r.Message, maxCellChars)}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
			if n := utf8.RuneCountInString(v); n > widths[j] {
				widths[j] = n
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, columnWidth(w)); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.logger.Info("Excel file generated", "path", s.path, "rows", len(records), "run_id", run.ID)
	return nil
}

func columnWidth(chars int) float64 {
	w := chars + 2
	if w < minColWidth {
		w = minColWidth
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return float64(w)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
