// Command validate checks an ODV Generic Spreadsheet produced by odv-etl:
// header presence, the column label line, field counts per row, coordinate
// ranges, and ISO-8601 dates.
//
// Usage:
//
//	go run ./cmd/validate -file data/Helgoland_OpenSea_Felswatt.txt [-precision day]
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opensea-data/odv-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the errors printed per phase.
const maxReported = 20

func main() {
	file := flag.String("file", "", "path to the ODV spreadsheet to check")
	precision := flag.String("precision", string(domain.PrecisionMonth), "date precision the file was written with (month or day)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*file, *precision))
}

func run(path, precision string) int {
	p, err := domain.ParseDatePrecision(precision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	spec, err := domain.HelgolandSpec(domain.Station{Cruise: "-", Name: "-"}, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer f.Close()

	fmt.Println("=== ODV Spreadsheet Validation ===")
	fmt.Println()

	doc, err := parseDocument(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}
	phases := validate(doc, spec.Names())

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Header lines: %d, data rows: %d\n", len(doc.comments), len(doc.rows))

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			if i == maxReported {
				fmt.Printf("  ... %d more\n", len(ph.errors)-maxReported)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// document is an ODV file split into its parts.
type document struct {
	comments []string
	labels   []string
	rows     []dataRow
}

type dataRow struct {
	lineNum int
	fields  []string
}

// parseDocument reads "//" header lines, then the column label line, then
// tab-separated data rows. Quoted fields are unquoted the way the ODV
// writer quotes them, so a cell may hold tabs or line breaks.
func parseDocument(r io.Reader) (*document, error) {
	doc := &document{}
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		switch {
		case doc.labels == nil && len(fields) == 1 && strings.HasPrefix(fields[0], "//"):
			doc.comments = append(doc.comments, fields[0])
		case doc.labels == nil:
			doc.labels = fields
		default:
			doc.rows = append(doc.rows, dataRow{lineNum: line, fields: fields})
		}
	}
}

func validate(doc *document, fields []string) []*phase {
	return []*phase{
		validateHeader(doc),
		validateLabels(doc, fields),
		validateFieldCounts(doc, fields),
		validateCoordinates(doc, fields),
		validateDates(doc, fields),
	}
}

func validateHeader(doc *document) *phase {
	p := &phase{name: "Header present"}
	if len(doc.comments) == 0 {
		p.errorf("no // header lines")
		return p
	}
	if !strings.HasPrefix(doc.comments[0], "//ODV Spreadsheet") {
		p.errorf("first line %q is not an ODV spreadsheet marker", doc.comments[0])
	}
	return p
}

func validateLabels(doc *document, fields []string) *phase {
	p := &phase{name: "Column labels match field spec"}
	if doc.labels == nil {
		p.errorf("no column label line")
		return p
	}
	if len(doc.labels) != len(fields) {
		p.errorf("label line has %d columns, field spec has %d", len(doc.labels), len(fields))
	}
	return p
}

func validateFieldCounts(doc *document, fields []string) *phase {
	p := &phase{name: "Row field counts"}
	for _, row := range doc.rows {
		if len(row.fields) != len(fields) {
			p.errorf("line %d: %d fields, want %d", row.lineNum, len(row.fields), len(fields))
		}
	}
	return p
}

func validateCoordinates(doc *document, fields []string) *phase {
	p := &phase{name: "Coordinates in range"}
	lonIdx := indexOf(fields, domain.ColLongitude)
	latIdx := indexOf(fields, domain.ColLatitude)

	check := func(row dataRow, idx int, name string, limit float64) {
		if idx < 0 || idx >= len(row.fields) || row.fields[idx] == "" {
			return
		}
		v, err := strconv.ParseFloat(row.fields[idx], 64)
		if err != nil {
			p.errorf("line %d: %s %q is not a number", row.lineNum, name, row.fields[idx])
			return
		}
		if v < -limit || v > limit {
			p.errorf("line %d: %s %v outside ±%v", row.lineNum, name, v, limit)
		}
	}
	for _, row := range doc.rows {
		check(row, lonIdx, domain.ColLongitude, 180)
		check(row, latIdx, domain.ColLatitude, 90)
	}
	return p
}

var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05", "2006-01-02T15:04"}

func validateDates(doc *document, fields []string) *phase {
	p := &phase{name: "Dates are ISO-8601"}
	dateIdx := indexOf(fields, domain.ColDate)
	isoIdx := indexOf(fields, domain.ColTimeISO8601)

	for _, row := range doc.rows {
		for _, idx := range []int{dateIdx, isoIdx} {
			if idx < 0 || idx >= len(row.fields) || row.fields[idx] == "" {
				continue
			}
			if !isISODate(row.fields[idx]) {
				p.errorf("line %d: %s %q is not an ISO-8601 date", row.lineNum, fields[idx], row.fields[idx])
			}
		}
		if dateIdx >= 0 && isoIdx >= 0 && dateIdx < len(row.fields) && isoIdx < len(row.fields) &&
			row.fields[dateIdx] != row.fields[isoIdx] {
			p.errorf("line %d: %s and %s differ", row.lineNum, domain.ColDate, domain.ColTimeISO8601)
		}
	}
	return p
}

func isISODate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
