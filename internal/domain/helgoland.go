package domain

import (
	"errors"

	"github.com/opensea-data/odv-etl/internal/table"
)

// Station identifies where a collection was sampled. It fills the Const
// columns of the ODV output.
type Station struct {
	Cruise string
	Name   string
	Type   string
}

// Output column names of the Helgoland OpenSea collection.
const (
	ColCruise            = "Cruise"
	ColStation           = "Station"
	ColType              = "Type"
	ColDate              = "yyyy-mm-dd"
	ColLongitude         = "xlon"
	ColLatitude          = "xlat"
	ColTimeISO8601       = "time_ISO8601"
	ColTemperatureOcean  = "Temperature Ocean [~^o~#C]"
	ColTemperatureAir    = "Temperature Air [~^o~#C]"
	ColPH                = "pH"
	ColPracticalSalinity = "Practical Salinity"
	ColWindSpeed         = "Wind Speed [m/s]"
	ColIlluminance       = "Illuminance [lux]"
)

// HelgolandDateColumns are the German date headers of the OpenSea sheets.
var HelgolandDateColumns = DateColumns{
	Year:  "Jahr",
	Month: "Monat",
	Day:   "Tag",
	Time:  "Uhrzeit",
}

// HelgolandSpec builds the OpenSea → ODV mapping for one station.
func HelgolandSpec(st Station, precision DatePrecision) (*FieldSpec, error) {
	if st.Cruise == "" || st.Name == "" {
		return nil, errors.New("helgoland spec: cruise and station names are required")
	}
	date, err := DateFunc(precision, HelgolandDateColumns)
	if err != nil {
		return nil, err
	}

	return NewFieldSpec(
		Field{ColCruise, Const{table.Str(st.Cruise)}},
		Field{ColStation, Const{table.Str(st.Name)}},
		Field{ColType, Const{table.Str(st.Type)}},
		Field{ColDate, date},
		Field{ColLongitude, CoordinateFunc("Longitude")},
		Field{ColLatitude, CoordinateFunc("Latitude")},
		Field{ColTimeISO8601, Ref{ColDate}},
		// P01 TEMPP901
		Field{ColTemperatureOcean, Source{"Temperatur °C (Meer)"}},
		Field{ColTemperatureAir, Source{"Temperatur °C (Luft)"}},
		// P01 PHXXZZXX
		Field{ColPH, Source{"pH-Wert"}},
		// P01 PSALZZXX
		Field{ColPracticalSalinity, Source{"Salinität (‰)"}},
		Field{ColWindSpeed, Source{"Windgeschwindigkeit (m/s)"}},
		Field{ColIlluminance, Source{"Lichtintensität (lux)"}},
	)
}
