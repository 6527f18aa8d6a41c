// Package spreadsheet loads field-observation workbooks (.xlsx) and flat CSV
// exports into row-tables, one domain.Unit per file or sheet.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/table"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Options controls how input files are split into units and decoded.
type Options struct {
	// AllSheets makes every worksheet its own unit; otherwise only the first sheet is read.
	AllSheets bool
	// CSVDelimiter defaults to ','.
	CSVDelimiter rune
	// CSVEncoding is utf-8 (default), latin1/iso-8859-1 or windows-1252/cp1252.
	CSVEncoding string
}

// ReadFile loads one input file. The format is chosen by extension.
func ReadFile(path string, opts Options) ([]domain.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return Read(f, filepath.Base(path), opts)
}

// Read loads units from r, choosing the format by the extension of name.
// name also labels the units.
func Read(r io.Reader, name string, opts Options) ([]domain.Unit, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, name, opts.AllSheets)
	case ".csv", ".txt":
		u, err := ReadCSV(r, name, opts)
		if err != nil {
			return nil, err
		}
		return []domain.Unit{u}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// ReadXLSX reads a workbook. With allSheets each sheet becomes a unit
// labelled "name:sheet"; otherwise the first sheet becomes a unit labelled name.
func ReadXLSX(r io.Reader, name string, allSheets bool) ([]domain.Unit, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("read workbook %s: no sheets", name)
	}
	if !allSheets {
		sheets = sheets[:1]
	}

	units := make([]domain.Unit, 0, len(sheets))
	for _, sheet := range sheets {
		// Raw values: coordinates carry a thousands-separator display format.
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read workbook %s sheet %q: %w", name, sheet, err)
		}
		tbl, err := buildTable(rows)
		if err != nil {
			return nil, fmt.Errorf("read workbook %s sheet %q: %w", name, sheet, err)
		}
		label := name
		if allSheets {
			label = name + ":" + sheet
		}
		units = append(units, domain.Unit{Label: label, Table: tbl})
	}
	return units, nil
}

// ReadCSV reads a delimited export with a header line.
func ReadCSV(r io.Reader, name string, opts Options) (domain.Unit, error) {
	dec, err := decoderFor(opts.CSVEncoding)
	if err != nil {
		return domain.Unit{}, err
	}
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(dec)))
	if opts.CSVDelimiter != 0 {
		cr.Comma = opts.CSVDelimiter
	}
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return domain.Unit{}, fmt.Errorf("read csv %s: %w", name, err)
	}
	tbl, err := buildTable(records)
	if err != nil {
		return domain.Unit{}, fmt.Errorf("read csv %s: %w", name, err)
	}
	return domain.Unit{Label: name, Table: tbl}, nil
}

func decoderFor(enc string) (*encoding.Decoder, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown csv encoding %q", enc)
	}
}

// buildTable turns raw rows (header first) into a table. Header names are
// trimmed; blank rows are skipped.
func buildTable(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return table.Empty(nil)
	}
	names := headerNames(rows[0])

	data := make([][]table.Value, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		if len(raw) > len(names) {
			if !blank(raw[len(names):]) {
				return nil, fmt.Errorf("row %d has %d cells for %d columns", i+2, len(raw), len(names))
			}
			raw = raw[:len(names)]
		}
		vals := make([]table.Value, len(raw))
		for c, cell := range raw {
			vals[c] = table.Parse(cell)
		}
		data = append(data, vals)
	}
	return table.FromRows(names, data)
}

// headerNames trims header cells, names empty ones "Unnamed: i" and
// disambiguates repeats as "name.1", "name.2".
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			for n := 1; ; n++ {
				candidate := name + "." + strconv.Itoa(n)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
