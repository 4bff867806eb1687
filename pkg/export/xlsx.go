// Package export writes the derived tables to an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
)

const (
	SheetCases          = "cases"
	SheetIncomeSeries   = "income_series"
	SheetCountryVaccine = "country_vaccine"
	SheetPeriods        = "period_map"
)

// Sheets lists the workbook sheets in order.
var Sheets = []string{SheetCases, SheetIncomeSeries, SheetCountryVaccine, SheetPeriods}

// cell maps a null to an empty cell.
func cell(n pipeline.NullFloat) any {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// WriteWorkbook writes one sheet per table of res plus the period
// aggregates behind the map.
func WriteWorkbook(w io.Writer, res *pipeline.Result, periods []pipeline.PeriodCountryAggregate) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetCases); err != nil {
		return err
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	cases := [][]any{{"country", "code", "year", "num_cases", "region", "income_group", "total_pop", "cases_per_million"}}
	for _, r := range res.Cases {
		cases = append(cases, []any{r.Country, optional(r.Code), r.Year, cell(r.NumCases), optional(r.Region),
			optional(r.IncomeGroup), cell(r.TotalPop), cell(r.CasesPerMillion)})
	}

	income := [][]any{{"income_group", "year", "mean_cases_per_million", "total_num_cases", "total_pop", "income_cases_per_million"}}
	for _, r := range res.IncomeSeries {
		income = append(income, []any{r.IncomeGroup, r.Year, cell(r.MeanCasesPerMillion), r.TotalNumCases, r.TotalPop,
			cell(r.IncomeCasesPerMillion)})
	}

	vaccine := [][]any{{"country", "code", "year", "income_group", "cases_per_million", "pol3_rate"}}
	for _, r := range res.CountryVaccine {
		vaccine = append(vaccine, []any{r.Country, optional(r.Code), r.Year, optional(r.IncomeGroup),
			cell(r.CasesPerMillion), cell(r.Pol3Rate)})
	}

	agg := [][]any{{"period", "country", "code", "income_group", "pol3_rate", "cases_per_million", "total_pop",
		"category", "bubble_size", "lat", "lon"}}
	for _, r := range periods {
		agg = append(agg, []any{r.PeriodLabel, r.Country, r.Code, r.IncomeGroup, r.MeanPol3Rate,
			r.MeanCasesPerMillion, cell(r.MeanTotalPop), r.Category.String(), r.BubbleSize, cell(r.Lat), cell(r.Lon)})
	}

	for i, rows := range [][][]any{cases, income, vaccine, agg} {
		if err := writeRows(f, Sheets[i], rows); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return nil
}
