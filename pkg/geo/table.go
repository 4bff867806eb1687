// Package geo holds the country coordinate table used by the map and the
// projection used to draw map previews.
package geo

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	"github.com/golang/geo/s2"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

type Entry struct {
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Table maps country names to coordinates. It is read-only after loading
// and safe for concurrent use.
type Table struct {
	entries []Entry
	byName  map[string]int
	byCode  map[string]int
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(bytes.NewReader(centroidsCSV))
	if err != nil {
		panic(fmt.Sprintf("embedded centroids: %v", err))
	}
	return t
}

// LoadFile reads a table from a CSV file with country, lat and lon columns.
// An empty path returns the embedded table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a coordinate table. The first row is a header.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty coordinate table")
	}

	t := &Table{byName: make(map[string]int), byCode: make(map[string]int)}
	for i, rec := range records[1:] {
		name := strings.TrimSpace(rec[0])
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if name == "" || err1 != nil || err2 != nil {
			return nil, fmt.Errorf("row %d: %q: %w", i+2, rec, ErrInvalidCoordinate)
		}
		if !s2.LatLngFromDegrees(lat, lon).IsValid() {
			return nil, fmt.Errorf("row %d: %s (%v, %v): %w", i+2, name, lat, lon, ErrInvalidCoordinate)
		}
		if _, dup := t.byName[name]; dup {
			continue
		}
		t.byName[name] = len(t.entries)
		t.entries = append(t.entries, Entry{Country: name, Lat: lat, Lon: lon})
	}

	// The alpha-3 index is built from the table's own names. An entity whose
	// display name differs from every table name still resolves when its
	// code matches the code of a table entry.
	for i, e := range t.entries {
		c := countries.ByName(e.Country)
		if c == countries.Unknown {
			continue
		}
		if _, ok := t.byCode[c.Alpha3()]; !ok {
			t.byCode[c.Alpha3()] = i
		}
	}
	return t, nil
}

// Locate looks the country up by exact name first, then by ISO alpha-3 code.
func (t *Table) Locate(country, code string) (lat, lon float64, ok bool) {
	i, ok := t.byName[country]
	if !ok && code != "" {
		i, ok = t.byCode[strings.ToUpper(code)]
	}
	if !ok {
		return 0, 0, false
	}
	e := t.entries[i]
	return e.Lat, e.Lon, true
}

func (t *Table) Len() int {
	return len(t.entries)
}

// WriteTo writes the table back out as CSV.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"country", "lat", "lon"})
	for _, e := range t.entries {
		_ = cw.Write([]string{e.Country, strconv.FormatFloat(e.Lat, 'f', -1, 64), strconv.FormatFloat(e.Lon, 'f', -1, 64)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
