package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// CSVWriter writes one CSV file per (category, tier). Files carry the header
// row only, no title row.
type CSVWriter struct {
	dir          string
	byConfidence bool
	logger       zerolog.Logger
}

// NewCSVWriter creates a CSV writer for the given output directory
func NewCSVWriter(dir string, byConfidence bool, logger zerolog.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, byConfidence: byConfidence, logger: logger.With().Str("sink", "csv").Logger()}
}

// Write implements domain.ResultSink. Empty tables produce no file.
func (w *CSVWriter) Write(ctx context.Context, report *domain.Report) error {
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
				continue
			}

			path := filepath.Join(w.dir, FileName(c.Category, tier, "csv"))
			if err := writeCSV(path, table); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			w.logger.Info().Str("path", path).Int("rows", len(table.Rows)).Msg("saved")
		}
	}

	return nil
}

func writeCSV(path string, table domain.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Header); err != nil {
		return err
	}
	record := make([]string, len(table.Header))
	for _, row := range table.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
