package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultFilePattern matches scraper exports such as "btech_Fridges_2025-06-01.xlsx"
const DefaultFilePattern = `^(?P<retailer>[A-Za-z0-9]+)_(?P<category>[A-Za-z0-9\-]+)_(?P<date>\d{4}-\d{2}-\d{2})\.(?P<ext>xlsx|csv)$`

const dateLayout = "2006-01-02"

// RetailerSource maps a retailer to the folder holding its exports
type RetailerSource struct {
	Name   domain.Retailer
	Folder string // relative to the input dir unless absolute
}

// Config holds configuration for catalog discovery and reading
type Config struct {
	InputDir    string
	Retailers   []RetailerSource
	FilePattern string
	HeaderRow   int // 1-based header row of xlsx sheets
}

// File is one discovered export
type File struct {
	Retailer domain.Retailer
	Category string
	Date     time.Time
	Path     string
	Format   string // "xlsx" or "csv"
}

// Reader discovers retailer exports on disk and reads them into source tables
type Reader struct {
	cfg      Config
	pattern  *regexp.Regexp
	category int
	date     int
	logger   zerolog.Logger
}

// NewReader creates a catalog reader. The file pattern must have a
// "category" capture group; a "date" group is optional.
func NewReader(cfg Config, logger zerolog.Logger) (*Reader, error) {
	if cfg.FilePattern == "" {
		cfg.FilePattern = DefaultFilePattern
	}
	if cfg.HeaderRow <= 0 {
		cfg.HeaderRow = 2
	}

	pattern, err := regexp.Compile(cfg.FilePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern: %w", err)
	}
	category := pattern.SubexpIndex("category")
	if category < 0 {
		return nil, fmt.Errorf("file pattern %q has no category group", cfg.FilePattern)
	}

	return &Reader{
		cfg:      cfg,
		pattern:  pattern,
		category: category,
		date:     pattern.SubexpIndex("date"),
		logger:   logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// Discover scans every retailer folder and returns one file per
// (retailer, category). When several dated exports exist the latest wins.
// Files come back ordered by category, then canonical retailer order.
func (r *Reader) Discover(ctx context.Context) ([]File, error) {
	if _, err := os.Stat(r.cfg.InputDir); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, r.cfg.InputDir)
	}

	type key struct {
		retailer domain.Retailer
		category string
	}
	latest := make(map[key]File)
	order := make(map[domain.Retailer]int, len(r.cfg.Retailers))

	for i, src := range r.cfg.Retailers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order[src.Name] = i

		folder := src.Folder
		if !filepath.IsAbs(folder) {
			folder = filepath.Join(r.cfg.InputDir, folder)
		}

		entries, err := os.ReadDir(folder)
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().Str("retailer", string(src.Name)).Str("folder", folder).Msg("retailer folder not found")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read folder %s: %w", folder, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			file, ok := r.match(src.Name, folder, entry.Name())
			if !ok {
				continue
			}
			k := key{src.Name, file.Category}
			if prev, exists := latest[k]; !exists || newer(file, prev) {
				latest[k] = file
			}
		}
	}

	files := make([]File, 0, len(latest))
	for _, f := range latest {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Category != files[j].Category {
			return files[i].Category < files[j].Category
		}
		return order[files[i].Retailer] < order[files[j].Retailer]
	})

	r.logger.Info().Int("files", len(files)).Msg("catalog discovery finished")
	return files, nil
}

// match parses a file name against the configured pattern
func (r *Reader) match(retailer domain.Retailer, folder, name string) (File, bool) {
	m := r.pattern.FindStringSubmatch(name)
	if m == nil {
		return File{}, false
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if format != "xlsx" && format != "csv" {
		return File{}, false
	}

	file := File{
		Retailer: retailer,
		Category: m[r.category],
		Path:     filepath.Join(folder, name),
		Format:   format,
	}
	if r.date >= 0 {
		date, err := time.Parse(dateLayout, m[r.date])
		if err != nil {
			r.logger.Debug().Str("file", name).Msg("ignoring file with invalid date")
			return File{}, false
		}
		file.Date = date
	}
	return file, file.Category != ""
}

// newer orders exports by date, then by path so the pick is stable
func newer(a, b File) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Path > b.Path
}
