// Command genmock writes a Helgoland OpenSea shaped workbook with
// reproducible pseudo-random observations, then converts it with the real
// field spec and prints summary statistics for test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/OpenSea_Felswatt.xlsx -rows 120 -sheets 2023,2024
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/opensea-data/odv-etl/internal/adapter/spreadsheet"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// inputColumns are the sheet headers as the field crews record them.
var inputColumns = []string{
	"Jahr", "Monat", "Tag", "Uhrzeit",
	"Longitude", "Latitude",
	"Temperatur °C (Meer)", "Temperatur °C (Luft)",
	"pH-Wert", "Salinität (‰)",
	"Windgeschwindigkeit (m/s)", "Lichtintensität (lux)",
}

// missingRate is the share of measurement cells left empty.
const missingRate = 0.1

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated .xlsx workbook")
	rows := flag.Int("rows", 60, "data rows per sheet")
	sheets := flag.String("sheets", "2024", "comma-separated sheet names, one year each")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *rows < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flag -out or invalid -rows")
	}

	names := strings.Split(*sheets, ",")
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	if err := writeWorkbook(*out, names, *rows, rng); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	log.Printf("wrote %s: %d sheet(s) x %d rows", *out, len(names), *rows)

	return printStats(*out)
}

func writeWorkbook(path string, sheets []string, rows int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		sheet = strings.TrimSpace(sheet)
		year, err := strconv.Atoi(sheet)
		if err != nil {
			return fmt.Errorf("sheet %q is not a year: %w", sheet, err)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		header := make([]any, len(inputColumns))
		for c, name := range inputColumns {
			header[c] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for r := 0; r < rows; r++ {
			if err := writeRow(f, sheet, r+2, observation(year, r, rows, rng)); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// writeRow sets the non-nil cells of one row; nil cells stay empty.
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for c, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// observation returns one row in inputColumns order. Coordinates are packed
// D,MMM,SSS integers around the Helgoland Felswatt.
func observation(year, r, rows int, rng *rand.Rand) []any {
	month := 1 + r*12/rows
	day := 1 + rng.IntN(28)
	clock := fmt.Sprintf("%02d:%02d:00", 6+rng.IntN(12), rng.IntN(60))

	lon := 7_000_000 + (870+rng.IntN(20))*1_000 + rng.IntN(1000)
	lat := 54_000_000 + (175+rng.IntN(10))*1_000 + rng.IntN(1000)

	return []any{
		year, month, day, clock,
		lon, lat,
		maybe(rng, round(4+14*seasonal(month)+rng.NormFloat64(), 1)),
		maybe(rng, round(2+18*seasonal(month)+2*rng.NormFloat64(), 1)),
		maybe(rng, round(8.0+0.1*rng.NormFloat64(), 2)),
		maybe(rng, round(32+0.5*rng.NormFloat64(), 2)),
		maybe(rng, round(3+4*rng.Float64(), 1)),
		maybe(rng, 1000+rng.IntN(90000)),
	}
}

// seasonal is 0 in January and 1 in July.
func seasonal(month int) float64 {
	d := month - 7
	if d < 0 {
		d = -d
	}
	return 1 - float64(d)/6
}

func maybe(rng *rand.Rand, v any) any {
	if rng.Float64() < missingRate {
		return nil
	}
	return v
}

func round(v float64, places int) float64 {
	p, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return p
}

// printStats converts the generated workbook with the production field spec.
func printStats(path string) error {
	units, err := spreadsheet.ReadFile(path, spreadsheet.Options{AllSheets: true})
	if err != nil {
		return err
	}
	spec, err := domain.HelgolandSpec(domain.Station{Cruise: "Helgoland_OpenSea", Name: "Felswatt", Type: "B"}, domain.PrecisionMonth)
	if err != nil {
		return err
	}

	missing := map[string]int{}
	total := 0
	for _, u := range units {
		out, err := domain.Transform(u, spec)
		if err != nil {
			return err
		}
		total += out.Len()
		for _, name := range out.Columns() {
			col, _ := out.Column(name)
			for _, v := range col {
				if v.IsMissing() {
					missing[name]++
				}
			}
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Units: %d\n", len(units))
	fmt.Printf("Rows: %d\n", total)
	cols := make([]string, 0, len(missing))
	for name := range missing {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	for _, name := range cols {
		fmt.Printf("Missing %-30s %d\n", name+":", missing[name])
	}
	return nil
}
