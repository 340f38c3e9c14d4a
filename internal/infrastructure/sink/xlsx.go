package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/pricelens/backend/internal/domain"
)

const (
	headerColor = "003366"
	urlColWidth = 30
)

// Highlight colors rows whose confidence reaches a threshold
type Highlight struct {
	Threshold float64
	Color     string
}

// DefaultHighlights marks the more promising rows of the weak and unmatched tables
func DefaultHighlights() map[domain.Tier]Highlight {
	return map[domain.Tier]Highlight{
		domain.TierWeak:      {Threshold: 30, Color: "FFFACD"},
		domain.TierUnmatched: {Threshold: 10, Color: "FF9999"},
	}
}

// XLSXWriter writes one workbook per (category, tier)
type XLSXWriter struct {
	dir          string
	byConfidence bool
	highlights   map[domain.Tier]Highlight
	logger       zerolog.Logger
}

// NewXLSXWriter creates a workbook writer for the given output directory
func NewXLSXWriter(dir string, byConfidence bool, highlights map[domain.Tier]Highlight, logger zerolog.Logger) *XLSXWriter {
	return &XLSXWriter{
		dir:          dir,
		byConfidence: byConfidence,
		highlights:   highlights,
		logger:       logger.With().Str("sink", "xlsx").Logger(),
	}
}

// Write implements domain.ResultSink. Empty tables produce no file.
func (w *XLSXWriter) Write(ctx context.Context, report *domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for i := range report.Categories {
		c := &report.Categories[i]
		for _, tier := range domain.Tiers {
			if err := ctx.Err(); err != nil {
				return err
			}

			table := c.Table(tier, w.byConfidence)
			if len(table.Rows) == 0 {
				w.logger.Info().Str("category", c.Category).Str("tier", string(tier)).Msg("no data to export")
				continue
			}

			path := filepath.Join(w.dir, FileName(c.Category, tier, "xlsx"))
			highlight, ok := w.highlights[tier]
			if err := writeWorkbook(path, table, highlight, ok); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			w.logger.Info().Str("path", path).Int("rows", len(table.Rows)).Msg("saved")
		}
	}

	return nil
}

func writeWorkbook(path string, table domain.Table, highlight Highlight, highlighted bool) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	lastCol, err := excelize.ColumnNumberToName(len(table.Header))
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	markStyle := bodyStyle
	if highlighted {
		markStyle, err = f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{highlight.Color}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return err
		}
	}

	// row 1: merged title, row 2: header, data from row 3
	if err := f.SetCellValue(sheet, "A1", table.Title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"2", titleStyle); err != nil {
		return err
	}

	confidenceCol := len(table.Header) - 4
	for i, row := range table.Rows {
		line := i + 3
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		start, _ := excelize.CoordinatesToCellName(1, line)
		end, _ := excelize.CoordinatesToCellName(len(table.Header), line)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return err
		}

		style := bodyStyle
		if conf, ok := row[confidenceCol].(float64); ok && highlighted && conf >= highlight.Threshold {
			style = markStyle
		}
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
	}

	for i, h := range table.Header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(urlColWidth)
		if !strings.Contains(h, "Product URL") {
			width = float64(columnWidth(h, table.Rows, i) + 2)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// columnWidth is the longest rendered value of a column, header included
func columnWidth(header string, rows [][]any, col int) int {
	width := len(header)
	for _, row := range rows {
		if n := len(formatCell(row[col])); n > width {
			width = n
		}
	}
	// excelize caps column width at 255
	return min(width, 253)
}
