// Package pipeline turns the raw dashboard sources into the derived,
// read-only tables the chart builders consume.
//
// Stages run in a fixed order: normalize, join, derive, impute. Every stage
// returns new slices and never mutates its input, so a Result can be shared
// by concurrent readers once Run returns.
package pipeline

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// NullFloat is a float that may be missing. The zero value is null.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat. NaN and ±Inf are stored as null.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Or returns the value, or def when null.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float64
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "null"
	}
	return strconv.FormatFloat(n.Float64, 'g', -1, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// MetadataRecord is one row of the country metadata after normalization.
// Empty Region or IncomeGroup means the value is missing.
type MetadataRecord struct {
	Code        string `json:"code"`
	Region      string `json:"region"`
	IncomeGroup string `json:"income_group"`
}

// PopulationRecord is one (code, year) cell of the wide population table.
type PopulationRecord struct {
	Code     string    `json:"code"`
	Year     int       `json:"year"`
	TotalPop NullFloat `json:"total_pop"`
}

// VaccineRecord is one row of Pol3 coverage.
type VaccineRecord struct {
	Country  string    `json:"country"`
	Year     int       `json:"year"`
	Pol3Rate NullFloat `json:"pol3_rate"`
}

// CaseRecord is a case count joined with metadata and population.
// Code is empty for entities without an ISO code; empty Region and
// IncomeGroup mean no metadata matched.
type CaseRecord struct {
	Country         string    `json:"country"`
	Code            string    `json:"code"`
	Year            int       `json:"year"`
	NumCases        NullFloat `json:"num_cases"`
	Region          string    `json:"region"`
	IncomeGroup     string    `json:"income_group"`
	TotalPop        NullFloat `json:"total_pop"`
	CasesPerMillion NullFloat `json:"cases_per_million"`
}

// CountryVaccineRecord is a CaseRecord joined with vaccination coverage.
type CountryVaccineRecord struct {
	CaseRecord
	Pol3Rate NullFloat `json:"pol3_rate"`
}

// IncomeGroupYearAggregate summarizes one income group in one year.
// MeanCasesPerMillion averages the per-country rates while
// IncomeCasesPerMillion is the pooled rate of the summed totals.
type IncomeGroupYearAggregate struct {
	IncomeGroup           string    `json:"income_group"`
	Year                  int       `json:"year"`
	MeanCasesPerMillion   NullFloat `json:"mean_cases_per_million"`
	TotalNumCases         float64   `json:"total_num_cases"`
	TotalPop              float64   `json:"total_pop"`
	IncomeCasesPerMillion NullFloat `json:"income_cases_per_million"`
}
