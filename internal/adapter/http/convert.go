package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/opensea-data/odv-etl/internal/adapter/odv"
	"github.com/opensea-data/odv-etl/internal/adapter/spreadsheet"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/table"
)

const defaultUploadName = "upload.xlsx"

// Converter transforms and concatenates units. pipeline.Aggregator
// satisfies it.
type Converter interface {
	Aggregate(ctx context.Context, units []domain.Unit) (*table.Table, error)
}

// ConvertHandler turns an uploaded workbook or CSV body into an ODV document.
//
// Query parameters:
//
//	filename  name of the upload; its extension selects the reader (default upload.xlsx)
//	sheets    "all" converts every worksheet, otherwise only the first one
type ConvertHandler struct {
	conv     Converter
	tmpl     *odv.Template
	opts     spreadsheet.Options
	maxBytes int64
	logger   *slog.Logger
}

// NewConvertHandler creates the /convert handler. opts supplies the CSV
// delimiter and encoding; AllSheets is taken from each request.
func NewConvertHandler(conv Converter, tmpl *odv.Template, opts spreadsheet.Options, maxBytes int64, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{conv: conv, tmpl: tmpl, opts: opts, maxBytes: maxBytes, logger: logger}
}

func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Query().Get("filename"))
	if name == "." || name == "/" {
		name = defaultUploadName
	}
	opts := h.opts
	opts.AllSheets = strings.EqualFold(r.URL.Query().Get("sheets"), "all")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	units, err := spreadsheet.Read(bytes.NewReader(body), name, opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, err)
		return
	}

	out, err := h.conv.Aggregate(r.Context(), units)
	if err != nil {
		var te *domain.TransformError
		if errors.As(err, &te) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		h.logger.Error("conversion failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := odv.Encode(&buf, h.tmpl, out); err != nil {
		h.logger.Error("encode odv failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("upload converted", "file", name, "units", len(units), "rows", out.Len())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", odvName(name)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client gone
}

func odvName(upload string) string {
	return strings.TrimSuffix(upload, filepath.Ext(upload)) + "_odv.txt"
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort error response
}
