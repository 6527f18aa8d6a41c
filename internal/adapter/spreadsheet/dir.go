package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/opensea-data/odv-etl/internal/domain"
)

// DirReader loads every file in a directory that matches a glob.
// It implements pipeline.UnitExtractor.
type DirReader struct {
	dir    string
	glob   string
	opts   Options
	logger *slog.Logger
}

// NewDirReader creates a reader over dir/glob.
func NewDirReader(dir, glob string, opts Options, logger *slog.Logger) *DirReader {
	return &DirReader{dir: dir, glob: glob, opts: opts, logger: logger}
}

// ExtractUnits reads the matching files in lexical order. Files are the
// outer order and sheets the inner order of the returned units.
func (d *DirReader) ExtractUnits(ctx context.Context) ([]domain.Unit, error) {
	paths, err := filepath.Glob(filepath.Join(d.dir, d.glob))
	if err != nil {
		return nil, fmt.Errorf("glob inputs: %w", err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		d.logger.Warn("no input files matched", "dir", d.dir, "glob", d.glob)
	}

	var units []domain.Unit
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileUnits, err := ReadFile(path, d.opts)
		if err != nil {
			return nil, err
		}
		for _, u := range fileUnits {
			d.logger.Debug("unit loaded", "unit", u.Label, "rows", u.Table.Len(), "columns", len(u.Table.Columns()))
		}
		units = append(units, fileUnits...)
	}
	d.logger.Info("inputs loaded", "files", len(paths), "units", len(units))
	return units, nil
}
