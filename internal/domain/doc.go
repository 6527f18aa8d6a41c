// Package domain maps field-observation spreadsheets onto the ODV Generic
// Spreadsheet column set.
//
// # Data Source
//
// Observations come from the Helgoland OpenSea citizen-science programme:
// one workbook (or sheet) per campaign, one row per sampling event at a
// fixed station such as Felswatt. Column headers are German and vary a
// little between campaigns ("Temperatur °C (Meer)", "Salinität (‰)",
// "Windgeschwindigkeit (m/s)"), and not every campaign measures every
// quantity. A campaign without a salinity probe simply has no salinity
// column.
//
// # Field Specs
//
// A [FieldSpec] is the ordered list of output columns and the [Rule] that
// fills each one:
//
//	Const   the same literal on every row (cruise, station, type)
//	Func    computed from the input unit (dates, decoded coordinates)
//	Ref     a copy of an earlier output column (time_ISO8601 = yyyy-mm-dd)
//	Source  an input column copied verbatim, or Missing when absent
//
// Field order is the output order. [Transform] applies a field spec to one
// [Unit] and always yields exactly the field spec's columns with the unit's row
// count. A Source column that a campaign lacks is a normal condition, not
// an error.
//
// # Coordinate Encoding
//
// Latitude and longitude are typed into the sheets as packed integers
// D,MMM,SSS (the thousands separators are an Excel display format):
//
//	52,301,500  →  D=52, MMM=301, SSS=500
//
// [DecodeCoordinate] rescales MMM and SSS by 60/1000 and adds them as
// minutes and seconds. Existing ODV collections were built with this
// arithmetic and it must not change without the data owners. Negative values
// are west or south.
//
// # Dates
//
// Older campaigns record only Jahr and Monat, and the day is pinned to 01
// ([MonthDate]). Newer campaigns add Tag and an optional Uhrzeit
// ([DayDate]); a missing time leaves the date without a "T" suffix.
//
// # Missing Values
//
// [table.Missing] marks absent data and is written as an empty ODV field.
// It is never conflated with 0 or "".
package domain
