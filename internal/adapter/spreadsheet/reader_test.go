package spreadsheet

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opensea-data/odv-etl/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeWorkbook builds an xlsx in memory; each sheet is header + rows.
func writeWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX_FirstSheet(t *testing.T) {
	data := writeWorkbook(t, map[string][][]any{
		"2024": {
			{" Jahr ", "Monat", "Longitude", "Temperatur °C (Meer)"},
			{2024, 5, 7884120, 11.5},
			{2024, 6, 7884120},
		},
		"notes": {{"ignored"}},
	}, "2024", "notes")

	units, err := ReadXLSX(bytes.NewReader(data), "OpenSea.xlsx", false)
	require.NoError(t, err)
	require.Len(t, units, 1)

	u := units[0]
	assert.Equal(t, "OpenSea.xlsx", u.Label)
	assert.Equal(t, []string{"Jahr", "Monat", "Longitude", "Temperatur °C (Meer)"}, u.Table.Columns())
	require.Equal(t, 2, u.Table.Len())
	assert.Equal(t, table.Int(2024), u.Table.At(0, "Jahr"))
	assert.Equal(t, table.Int(7884120), u.Table.At(0, "Longitude"))
	assert.Equal(t, table.Float(11.5), u.Table.At(0, "Temperatur °C (Meer)"))
	assert.True(t, u.Table.At(1, "Temperatur °C (Meer)").IsMissing())
}

func TestReadXLSX_AllSheets(t *testing.T) {
	data := writeWorkbook(t, map[string][][]any{
		"A": {{"x"}, {1}, {2}},
		"B": {{"x"}, {3}},
	}, "A", "B")

	units, err := ReadXLSX(bytes.NewReader(data), "book.xlsx", true)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "book.xlsx:A", units[0].Label)
	assert.Equal(t, 2, units[0].Table.Len())
	assert.Equal(t, "book.xlsx:B", units[1].Label)
	assert.Equal(t, 1, units[1].Table.Len())
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("plain text"), "bad.xlsx", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xlsx")
}

func TestReadCSV_Windows1252AndDelimiter(t *testing.T) {
	utf8Text := "Jahr;Monat;Salinität (‰);pH-Wert\n2023;9;;8.1\n"
	// ‰ is not in Latin-1; Windows-1252 carries both characters.
	encoded, err := charmap.Windows1252.NewEncoder().String(utf8Text)
	require.NoError(t, err)

	u, err := ReadCSV(strings.NewReader(encoded), "export.csv", Options{CSVDelimiter: ';', CSVEncoding: "windows-1252"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Jahr", "Monat", "Salinität (‰)", "pH-Wert"}, u.Table.Columns())
	assert.True(t, u.Table.At(0, "Salinität (‰)").IsMissing())
	assert.Equal(t, table.Float(8.1), u.Table.At(0, "pH-Wert"))
}

func TestReadCSV_StripsBOM(t *testing.T) {
	u, err := ReadCSV(strings.NewReader("\ufeffJahr,Monat\n2024,1\n"), "bom.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jahr", "Monat"}, u.Table.Columns())
}

func TestReadCSV_UnknownEncoding(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a\n1\n"), "x.csv", Options{CSVEncoding: "ebcdic"})
	require.Error(t, err)
}

func TestBuildTable_SkipsBlankRowsAndPads(t *testing.T) {
	tbl, err := buildTable([][]string{
		{"a", "b"},
		{"1", "2"},
		{"", "  "},
		{"3"},
		{"4", "5", ""},
	})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.At(1, "b").IsMissing())
	assert.Equal(t, table.Int(5), tbl.At(2, "b"))
}

func TestBuildTable_TooManyCells(t *testing.T) {
	_, err := buildTable([][]string{{"a"}, {"1", "2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestHeaderNames(t *testing.T) {
	assert.Equal(t,
		[]string{"Jahr", "Unnamed: 1", "x", "x.1", "x.2"},
		headerNames([]string{" Jahr", "", "x", "x ", "x"}),
	)
}

func TestReadFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	_, err := ReadFile(path, Options{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDirReader_SortedUnits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x\n3\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n1\n2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.md"), []byte("#"), 0o600))

	r := NewDirReader(dir, "*.csv", Options{}, discardLogger())
	units, err := r.ExtractUnits(context.Background())
	require.NoError(t, err)

	require.Len(t, units, 2)
	assert.Equal(t, "a.csv", units[0].Label)
	assert.Equal(t, "b.csv", units[1].Label)
}

func TestDirReader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n1\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirReader(dir, "*.csv", Options{}, discardLogger()).ExtractUnits(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
