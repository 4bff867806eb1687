// Package sources loads the flat tabular datasets behind the dashboard.
package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSourceNotFound      = errors.New("source not found")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrMalformedYearColumn = errors.New("malformed year column")
)

type Kind string

const (
	KindCases      Kind = "cases"
	KindMetadata   Kind = "metadata"
	KindPopulation Kind = "population"
	KindVaccine    Kind = "vaccine"
)

// Kinds lists every source in load order.
var Kinds = []Kind{KindCases, KindMetadata, KindPopulation, KindVaccine}

// Files holds the location of each source file.
type Files struct {
	Cases      string
	Metadata   string
	Population string
	Vaccine    string
}

// DefaultFiles returns the conventional file names inside dir.
func DefaultFiles(dir string) Files {
	return Files{
		Cases:      filepath.Join(dir, CasesFile),
		Metadata:   filepath.Join(dir, MetadataFile),
		Population: filepath.Join(dir, PopulationFile),
		Vaccine:    filepath.Join(dir, VaccineFile),
	}
}

// Path returns the file configured for k.
func (f Files) Path(k Kind) string {
	switch k {
	case KindCases:
		return f.Cases
	case KindMetadata:
		return f.Metadata
	case KindPopulation:
		return f.Population
	case KindVaccine:
		return f.Vaccine
	}
	return ""
}

// Table is a parsed CSV file: a header and string cells. Rows may be shorter
// than the header; missing trailing cells read as empty.
type Table struct {
	Kind   Kind
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a table and indexes its header. The first occurrence of a
// duplicated column name wins.
func NewTable(kind Kind, header []string, rows [][]string) *Table {
	t := &Table{Kind: kind, Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
	return t
}

// Col returns the index of the named column, or -1.
func (t *Table) Col(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns the trimmed value at (row, col), or "" when out of range.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// RawTables are the four sources exactly as read from disk.
type RawTables struct {
	Cases      *Table
	Metadata   *Table
	Population *Table
	Vaccine    *Table
}

// Load reads and validates all four sources.
func Load(files Files) (*RawTables, error) {
	loaded := make(map[Kind]*Table, len(Kinds))
	for _, k := range Kinds {
		t, err := LoadFile(k, files.Path(k))
		if err != nil {
			return nil, err
		}
		loaded[k] = t
	}
	return &RawTables{
		Cases:      loaded[KindCases],
		Metadata:   loaded[KindMetadata],
		Population: loaded[KindPopulation],
		Vaccine:    loaded[KindVaccine],
	}, nil
}

// LoadFile reads a single source from disk.
func LoadFile(kind Kind, path string) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("%s: no path configured: %w", kind, ErrSourceNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %s: %w", kind, path, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	defer f.Close()

	t, err := Parse(kind, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads CSV from r and checks the header against the schema of kind.
func Parse(kind Kind, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file: %w", kind, ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", kind, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		rows = append(rows, rec)
	}

	t := NewTable(kind, header, rows)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports ErrSchemaMismatch when a required column is absent.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("nil table: %w", ErrSourceNotFound)
	}
	var missing []string
	for _, col := range RequiredColumns(t.Kind) {
		if t.Col(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing columns %q: %w", t.Kind, missing, ErrSchemaMismatch)
	}
	return nil
}
