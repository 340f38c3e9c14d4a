package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pricelens/backend/internal/domain"
)

// headerMarker identifies the header row when the configured one does not fit
const headerMarker = "item name"

// maxHeaderScan bounds how far down a sheet the header is searched for
const maxHeaderScan = 5

// ReadCatalogs discovers and reads every export. A file that cannot be read
// comes back as an empty table carrying its ReadError, so the run can report
// it; only discovery failures are returned.
func (r *Reader) ReadCatalogs(ctx context.Context) ([]domain.SourceTable, error) {
	files, err := r.Discover(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]domain.SourceTable, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := r.ReadFile(f)
		if err != nil {
			r.logger.Error().Err(err).Str("retailer", string(f.Retailer)).Str("path", f.Path).Msg("failed to read catalog")
			tables = append(tables, domain.SourceTable{
				Retailer:  f.Retailer,
				Category:  f.Category,
				Path:      f.Path,
				ReadError: err.Error(),
			})
			continue
		}
		r.logger.Debug().
			Str("retailer", string(f.Retailer)).
			Str("category", f.Category).
			Int("rows", len(table.Rows)).
			Msg("catalog read")
		tables = append(tables, table)
	}

	return tables, nil
}

// ReadFile reads one export into a source table
func (r *Reader) ReadFile(f File) (domain.SourceTable, error) {
	var (
		rows      [][]string
		headerRow int
		err       error
	)

	switch f.Format {
	case "xlsx":
		rows, err = readXLSX(f.Path)
		headerRow = r.cfg.HeaderRow
	case "csv":
		rows, err = readCSV(f.Path)
		headerRow = 1
	default:
		return domain.SourceTable{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, f.Format)
	}
	if err != nil {
		return domain.SourceTable{}, err
	}

	idx := detectHeader(rows, headerRow-1)
	if idx < 0 {
		return domain.SourceTable{}, fmt.Errorf("%s: no header row", f.Path)
	}

	columns := make([]string, len(rows[idx]))
	for i, c := range rows[idx] {
		columns[i] = strings.TrimSpace(c)
	}

	return domain.SourceTable{
		Retailer: f.Retailer,
		Category: f.Category,
		Path:     f.Path,
		Columns:  columns,
		Rows:     rows[idx+1:],
	}, nil
}

// detectHeader returns the index of the header row. The preferred row wins
// when it carries the item name column; otherwise the first few rows are
// searched. Without any match the preferred row is used as long as it exists.
func detectHeader(rows [][]string, preferred int) int {
	if preferred < 0 {
		preferred = 0
	}
	if preferred < len(rows) && hasMarker(rows[preferred]) {
		return preferred
	}
	for i := 0; i < len(rows) && i < maxHeaderScan; i++ {
		if hasMarker(rows[i]) {
			return i
		}
	}
	if preferred < len(rows) {
		return preferred
	}
	return -1
}

func hasMarker(row []string) bool {
	for _, c := range row {
		if strings.EqualFold(strings.TrimSpace(c), headerMarker) {
			return true
		}
	}
	return false
}

// readXLSX returns the rows of the first sheet
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, record)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
