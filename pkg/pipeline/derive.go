package pipeline

import "sort"

// CasesPerMillion returns num / pop * 1e6. The result is null when either
// input is null or the population is zero.
func CasesPerMillion(num, pop NullFloat) NullFloat {
	if !num.Valid || !pop.Valid || pop.Float64 == 0 {
		return NullFloat{}
	}
	return Float(num.Float64 / pop.Float64 * 1e6)
}

// DeriveCasesPerMillion fills CasesPerMillion on a copy of records.
func DeriveCasesPerMillion(records []CaseRecord) []CaseRecord {
	out := make([]CaseRecord, len(records))
	for i, r := range records {
		r.CasesPerMillion = CasesPerMillion(r.NumCases, r.TotalPop)
		out[i] = r
	}
	return out
}

type groupYear struct {
	group string
	year  int
}

type incomeAcc struct {
	cases, pop float64
	cpmSum     float64
	cpmN       int
}

// IncomeGroupSeries aggregates records per (income group, year). Rows
// without an income group are skipped. Null values are left out of every
// sum and mean. The result is ordered by income group, then year.
func IncomeGroupSeries(records []CaseRecord) []IncomeGroupYearAggregate {
	acc := make(map[groupYear]*incomeAcc)
	for _, r := range records {
		if r.IncomeGroup == "" {
			continue
		}
		k := groupYear{r.IncomeGroup, r.Year}
		a, ok := acc[k]
		if !ok {
			a = &incomeAcc{}
			acc[k] = a
		}
		if r.NumCases.Valid {
			a.cases += r.NumCases.Float64
		}
		if r.TotalPop.Valid {
			a.pop += r.TotalPop.Float64
		}
		if r.CasesPerMillion.Valid {
			a.cpmSum += r.CasesPerMillion.Float64
			a.cpmN++
		}
	}

	out := make([]IncomeGroupYearAggregate, 0, len(acc))
	for k, a := range acc {
		agg := IncomeGroupYearAggregate{
			IncomeGroup:   k.group,
			Year:          k.year,
			TotalNumCases: a.cases,
			TotalPop:      a.pop,
		}
		if a.cpmN > 0 {
			agg.MeanCasesPerMillion = Float(a.cpmSum / float64(a.cpmN))
		}
		agg.IncomeCasesPerMillion = CasesPerMillion(Float(a.cases), Float(a.pop))
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IncomeGroup != out[j].IncomeGroup {
			return out[i].IncomeGroup < out[j].IncomeGroup
		}
		return out[i].Year < out[j].Year
	})
	return out
}
