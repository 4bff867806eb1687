package pipeline

import (
	"math"
	"testing"
)

func TestCasesPerMillion(t *testing.T) {
	tests := []struct {
		name      string
		num, pop  NullFloat
		want      float64
		wantValid bool
	}{
		{"regular", Float(10), Float(2_000_000), 5, true},
		{"zero cases", Float(0), Float(1_000_000), 0, true},
		{"zero population", Float(10), Float(0), 0, false},
		{"null population", Float(10), NullFloat{}, 0, false},
		{"null cases", NullFloat{}, Float(1_000_000), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CasesPerMillion(tt.num, tt.pop)
			if got.Valid != tt.wantValid {
				t.Fatalf("CasesPerMillion(%v, %v).Valid = %v, want %v", tt.num, tt.pop, got.Valid, tt.wantValid)
			}
			if got.Valid && math.Abs(got.Float64-tt.want) > 1e-9 {
				t.Errorf("CasesPerMillion(%v, %v) = %v, want %v", tt.num, tt.pop, got.Float64, tt.want)
			}
			if math.IsInf(got.Float64, 0) || math.IsNaN(got.Float64) {
				t.Errorf("CasesPerMillion produced %v", got.Float64)
			}
		})
	}
}

func TestDeriveCasesPerMillionDoesNotMutate(t *testing.T) {
	in := []CaseRecord{{Country: "A", NumCases: Float(1), TotalPop: Float(1e6)}}
	out := DeriveCasesPerMillion(in)
	if in[0].CasesPerMillion.Valid {
		t.Error("input was modified")
	}
	if out[0].CasesPerMillion.Float64 != 1 {
		t.Errorf("cases_per_million = %v, want 1", out[0].CasesPerMillion)
	}
}

func TestIncomeGroupSeries(t *testing.T) {
	records := DeriveCasesPerMillion([]CaseRecord{
		{Country: "A", Year: 1980, IncomeGroup: "Low income", NumCases: Float(10), TotalPop: Float(1e6)},
		{Country: "B", Year: 1980, IncomeGroup: "Low income", NumCases: Float(30), TotalPop: Float(3e6)},
		{Country: "C", Year: 1980, IncomeGroup: "Low income", NumCases: Float(5), TotalPop: NullFloat{}},
		{Country: "D", Year: 1981, IncomeGroup: "Low income", NumCases: Float(0), TotalPop: Float(0)},
		{Country: "E", Year: 1980, IncomeGroup: "High income", NumCases: Float(2), TotalPop: Float(4e6)},
		{Country: "World", Year: 1980, IncomeGroup: "", NumCases: Float(1000), TotalPop: Float(1e9)},
	})

	got := IncomeGroupSeries(records)
	if len(got) != 3 {
		t.Fatalf("Expected 3 aggregates, got %d: %+v", len(got), got)
	}

	wantOrder := []struct {
		group string
		year  int
	}{{"High income", 1980}, {"Low income", 1980}, {"Low income", 1981}}
	for i, w := range wantOrder {
		if got[i].IncomeGroup != w.group || got[i].Year != w.year {
			t.Errorf("aggregate %d = (%s, %d), want (%s, %d)", i, got[i].IncomeGroup, got[i].Year, w.group, w.year)
		}
	}

	low := got[1]
	if low.TotalNumCases != 45 {
		t.Errorf("total_num_cases = %v, want 45", low.TotalNumCases)
	}
	if low.TotalPop != 4e6 {
		t.Errorf("total_pop = %v, want 4e6", low.TotalPop)
	}
	// Pooled rate uses the summed totals, C contributes cases but no population.
	if math.Abs(low.IncomeCasesPerMillion.Float64-45.0/4e6*1e6) > 1e-9 {
		t.Errorf("income_cases_per_million = %v", low.IncomeCasesPerMillion)
	}
	if math.Abs(low.MeanCasesPerMillion.Float64-10) > 1e-9 {
		t.Errorf("mean_cases_per_million = %v, want 10", low.MeanCasesPerMillion)
	}

	zero := got[2]
	if zero.IncomeCasesPerMillion.Valid || zero.MeanCasesPerMillion.Valid {
		t.Errorf("zero population must give null rates, got %+v", zero)
	}
}
