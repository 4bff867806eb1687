package pipeline

import (
	"testing"
)

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		year, want int
		label      string
	}{
		{1980, 1980, "1980-1982"},
		{1982, 1980, "1980-1982"},
		{1983, 1983, "1983-1985"},
		{2016, 2015, "2015-2017"},
		{1979, 1977, "1977-1979"},
		{1977, 1977, "1977-1979"},
		{1976, 1974, "1974-1976"},
	}
	for _, tt := range tests {
		got := PeriodStart(tt.year)
		if got != tt.want {
			t.Errorf("PeriodStart(%d) = %d, want %d", tt.year, got, tt.want)
		}
		if l := PeriodLabel(got); l != tt.label {
			t.Errorf("PeriodLabel(%d) = %q, want %q", got, l, tt.label)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		rate float64
		want VaccinationCategory
	}{
		{100, CategoryVeryHigh},
		{95, CategoryVeryHigh},
		{94.999, CategoryHigh},
		{94.99, CategoryHigh},
		{85, CategoryHigh},
		{84.999, CategoryMedium},
		{84.9, CategoryMedium},
		{70, CategoryMedium},
		{69.999, CategoryLow},
		{69.9, CategoryLow},
		{50, CategoryLow},
		{49.999, CategoryVeryLow},
		{49.99, CategoryVeryLow},
		{0, CategoryVeryLow},
	}
	for _, tt := range tests {
		if got := Categorize(tt.rate); got != tt.want {
			t.Errorf("Categorize(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
	if CategoryVeryHigh.String() != "Muy Alta (≥95%)" {
		t.Errorf("unexpected label %q", CategoryVeryHigh.String())
	}
}

func TestBubbleSize(t *testing.T) {
	tests := []struct {
		cpm, want float64
	}{
		{-1, 3},
		{0, 3},
		{1, 13},
		{4, 21},
		{100, 40},
		{1000, 40},
	}
	for _, tt := range tests {
		if got := BubbleSize(tt.cpm); got != tt.want {
			t.Errorf("BubbleSize(%v) = %v, want %v", tt.cpm, got, tt.want)
		}
	}

	prev := BubbleSize(0.0001)
	for cpm := 0.01; cpm < 100; cpm *= 1.5 {
		got := BubbleSize(cpm)
		if got < prev {
			t.Errorf("BubbleSize not monotonic at %v: %v < %v", cpm, got, prev)
		}
		if got < 3 || got > 40 {
			t.Errorf("BubbleSize(%v) = %v out of [3, 40]", cpm, got)
		}
		prev = got
	}
}

type mapLocator map[string][2]float64

func (m mapLocator) Locate(country, code string) (float64, float64, bool) {
	c, ok := m[country]
	return c[0], c[1], ok
}

func TestPeriodCountryAggregates(t *testing.T) {
	rec := func(country, code string, year int, income string, pol3, cpm NullFloat) CountryVaccineRecord {
		return CountryVaccineRecord{
			CaseRecord: CaseRecord{Country: country, Code: code, Year: year, IncomeGroup: income, CasesPerMillion: cpm, TotalPop: Float(1e6)},
			Pol3Rate:   pol3,
		}
	}
	in := []CountryVaccineRecord{
		rec("Nigeria", "NGA", 1980, "Lower middle income", Float(20), Float(4)),
		rec("Nigeria", "NGA", 1981, "Lower middle income", Float(40), Float(0)),
		rec("Nigeria", "NGA", 1983, "Lower middle income", Float(96), Float(1)),
		rec("Atlantis", "ATL", 1980, "High income", Float(90), Float(0)),
		rec("World", "OWID_WRL", 1980, "", Float(50), Float(1)),
		rec("Chad", "TCD", 1980, "", Float(50), Float(1)),
		rec("Niger", "NER", 1980, "Low income", NullFloat{}, Float(1)),
		rec("Mali", "MLI", 1980, "Low income", Float(50), NullFloat{}),
	}
	loc := mapLocator{"Nigeria": {9.1, 8.7}}

	got := PeriodCountryAggregates(in, loc)
	if len(got) != 3 {
		t.Fatalf("Expected 3 aggregates, got %d: %+v", len(got), got)
	}

	first := got[1]
	if first.Country != "Nigeria" || first.PeriodLabel != "1980-1982" {
		t.Fatalf("unexpected ordering: %+v", got)
	}
	if first.MeanPol3Rate != 30 || first.MeanCasesPerMillion != 2 {
		t.Errorf("means = (%v, %v), want (30, 2)", first.MeanPol3Rate, first.MeanCasesPerMillion)
	}
	if first.Category != CategoryVeryLow {
		t.Errorf("category = %s", first.Category)
	}
	if !first.HasCoordinates() || first.Lat.Float64 != 9.1 {
		t.Errorf("coordinates not resolved: %+v", first)
	}

	if got[0].Country != "Atlantis" || got[0].HasCoordinates() {
		t.Errorf("Atlantis should sort first without coordinates: %+v", got[0])
	}
	if got[2].PeriodLabel != "1983-1985" || got[2].Category != CategoryVeryHigh {
		t.Errorf("unexpected second period aggregate: %+v", got[2])
	}

	if p := Periods(got); len(p) != 2 || p[0] != "1980-1982" || p[1] != "1983-1985" {
		t.Errorf("Periods = %v", p)
	}
}
