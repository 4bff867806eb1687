package pipeline

import (
	"fmt"
	"strconv"

	"github.com/sudorandom/polio-dashboard/pkg/sources"
)

const (
	fieldCountry     = "country"
	fieldCode        = "code"
	fieldYear        = "year"
	fieldNumCases    = "num_cases"
	fieldRegion      = "region"
	fieldIncomeGroup = "income_group"
	fieldPol3Rate    = "pol3_rate"
)

// CaseColumns maps the case file columns to their canonical names.
var CaseColumns = map[string]string{
	sources.ColEntity:         fieldCountry,
	sources.ColCode:           fieldCode,
	sources.ColYear:           fieldYear,
	sources.ColEstimatedCases: fieldNumCases,
}

// MetadataColumns maps the metadata file columns to their canonical names.
var MetadataColumns = map[string]string{
	sources.ColCountryCode: fieldCode,
	sources.ColRegion:      fieldRegion,
	sources.ColIncomeGroup: fieldIncomeGroup,
}

// VaccineColumns maps the vaccine file columns to their canonical names.
var VaccineColumns = map[string]string{
	sources.ColEntity: fieldCountry,
	sources.ColYear:   fieldYear,
	sources.ColPol3:   fieldPol3Rate,
}

// columnIndex resolves each canonical field of mapping to its position in t.
func columnIndex(t *sources.Table, mapping map[string]string) (map[string]int, error) {
	idx := make(map[string]int, len(mapping))
	for src, field := range mapping {
		i := t.Col(src)
		if i < 0 {
			return nil, fmt.Errorf("%s: missing column %q: %w", t.Kind, src, sources.ErrSchemaMismatch)
		}
		idx[field] = i
	}
	return idx, nil
}

// NormalizeCases renames the case columns and parses each row.
func NormalizeCases(t *sources.Table) ([]CaseRecord, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols, err := columnIndex(t, CaseColumns)
	if err != nil {
		return nil, err
	}
	country, code, year, value := cols[fieldCountry], cols[fieldCode], cols[fieldYear], cols[fieldNumCases]

	out := make([]CaseRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		y, err := parseYear(t, i, row, year)
		if err != nil {
			return nil, err
		}
		n, err := parseNullFloat(t, i, row, value)
		if err != nil {
			return nil, err
		}
		out = append(out, CaseRecord{
			Country:  t.Cell(row, country),
			Code:     t.Cell(row, code),
			Year:     y,
			NumCases: n,
		})
	}
	return out, nil
}

// NormalizeMetadata keeps code, region and income group.
func NormalizeMetadata(t *sources.Table) ([]MetadataRecord, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols, err := columnIndex(t, MetadataColumns)
	if err != nil {
		return nil, err
	}
	code, region, income := cols[fieldCode], cols[fieldRegion], cols[fieldIncomeGroup]

	out := make([]MetadataRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, MetadataRecord{
			Code:        t.Cell(row, code),
			Region:      t.Cell(row, region),
			IncomeGroup: t.Cell(row, income),
		})
	}
	return out, nil
}

// YearColumns returns the positions of the header names made only of digits
// along with the years they parse to. Such a column must be a 4-digit year.
func YearColumns(t *sources.Table) ([]int, []int, error) {
	var cols, years []int
	for i, h := range t.Header {
		if !isDigits(h) {
			continue
		}
		if len(h) != 4 {
			return nil, nil, fmt.Errorf("%s: column %q: %w", t.Kind, h, sources.ErrMalformedYearColumn)
		}
		y, err := strconv.Atoi(h)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: column %q: %w", t.Kind, h, sources.ErrMalformedYearColumn)
		}
		cols = append(cols, i)
		years = append(years, y)
	}
	return cols, years, nil
}

// NormalizePopulation reshapes the wide population table to one row per
// (code, year). Rows without a country code are skipped since they can
// never join.
func NormalizePopulation(t *sources.Table) ([]PopulationRecord, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols, years, err := YearColumns(t)
	if err != nil {
		return nil, err
	}
	code := t.Col(sources.ColCountryCode)

	out := make([]PopulationRecord, 0, len(t.Rows)*len(cols))
	for i, row := range t.Rows {
		c := t.Cell(row, code)
		if c == "" {
			continue
		}
		for j, col := range cols {
			pop, err := parseNullFloat(t, i, row, col)
			if err != nil {
				return nil, err
			}
			out = append(out, PopulationRecord{Code: c, Year: years[j], TotalPop: pop})
		}
	}
	return out, nil
}

// NormalizeVaccine selects country, year and Pol3 coverage.
func NormalizeVaccine(t *sources.Table) ([]VaccineRecord, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols, err := columnIndex(t, VaccineColumns)
	if err != nil {
		return nil, err
	}
	country, year, pol3 := cols[fieldCountry], cols[fieldYear], cols[fieldPol3Rate]

	out := make([]VaccineRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		y, err := parseYear(t, i, row, year)
		if err != nil {
			return nil, err
		}
		rate, err := parseNullFloat(t, i, row, pol3)
		if err != nil {
			return nil, err
		}
		out = append(out, VaccineRecord{Country: t.Cell(row, country), Year: y, Pol3Rate: rate})
	}
	return out, nil
}

func parseYear(t *sources.Table, i int, row []string, col int) (int, error) {
	s := t.Cell(row, col)
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: row %d: column %q: invalid year %q: %w", t.Kind, i+2, t.Header[col], s, sources.ErrSchemaMismatch)
	}
	return y, nil
}

func parseNullFloat(t *sources.Table, i int, row []string, col int) (NullFloat, error) {
	s := t.Cell(row, col)
	if s == "" {
		return NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}, fmt.Errorf("%s: row %d: column %q: invalid number %q: %w", t.Kind, i+2, t.Header[col], s, sources.ErrSchemaMismatch)
	}
	return Float(v), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
