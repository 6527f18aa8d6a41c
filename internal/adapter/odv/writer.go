package odv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opensea-data/odv-etl/internal/table"
)

// Encode writes the template followed by one tab-separated line per row, in
// column order. No column header line is written; Missing becomes an empty field.
func Encode(w io.Writer, tmpl *Template, tbl *table.Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(tmpl.Text()); err != nil {
		return fmt.Errorf("write odv header: %w", err)
	}
	ncols := len(tbl.Columns())
	for r := 0; r < tbl.Len(); r++ {
		for c, v := range tbl.Values(r) {
			bw.WriteString(field(v))
			if c < ncols-1 {
				bw.WriteByte('\t')
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write odv row %d: %w", r, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write odv rows: %w", err)
	}
	return nil
}

// field renders a value, quoting it when it contains a separator, a line
// break or a quote.
func field(v table.Value) string {
	s := v.String()
	if !strings.ContainsAny(s, "\t\n\r\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileWriter writes the converted table to an ODV file, replacing any
// previous output. It implements pipeline.Loader.
type FileWriter struct {
	path   string
	tmpl   *Template
	logger *slog.Logger
}

// NewFileWriter creates a loader writing to path.
func NewFileWriter(path string, tmpl *Template, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, tmpl: tmpl, logger: logger}
}

// Name identifies the loader in logs.
func (w *FileWriter) Name() string { return "odv-file" }

// Load writes tbl to a temporary file next to the target and renames it
// into place, so a failed run never leaves a truncated document.
func (w *FileWriter) Load(ctx context.Context, tbl *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".odv-*.tmp")
	if err != nil {
		return fmt.Errorf("create odv output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, w.tmpl, tbl); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close odv output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace odv output: %w", err)
	}

	w.logger.Info("odv file written", "path", w.path, "rows", tbl.Len())
	return nil
}
