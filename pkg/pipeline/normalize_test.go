package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/sudorandom/polio-dashboard/pkg/sources"
)

func mustParse(t *testing.T, kind sources.Kind, data string) *sources.Table {
	t.Helper()
	tbl, err := sources.Parse(kind, strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", kind, err)
	}
	return tbl
}

func TestNormalizePopulation(t *testing.T) {
	tbl := mustParse(t, sources.KindPopulation, "Country Name,Country Code,Indicator Name,1980,1981,\n"+
		"Nigeria,NGA,Population,73000000,,\n"+
		"Unknown,,Population,1,2,\n")

	got, err := NormalizePopulation(tbl)
	if err != nil {
		t.Fatalf("NormalizePopulation failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %+v", len(got), got)
	}
	if got[0].Year != 1980 || got[0].TotalPop.Float64 != 73e6 {
		t.Errorf("row 0 = %+v", got[0])
	}
	if got[1].Year != 1981 || got[1].TotalPop.Valid {
		t.Errorf("empty cell must be null, got %+v", got[1])
	}
}

func TestNormalizePopulationMalformedYear(t *testing.T) {
	tbl := mustParse(t, sources.KindPopulation, "Country Code,1980,198\nNGA,1,2\n")
	_, err := NormalizePopulation(tbl)
	if !errors.Is(err, sources.ErrMalformedYearColumn) {
		t.Errorf("Expected ErrMalformedYearColumn, got %v", err)
	}
}

func TestNormalizeCasesBadNumber(t *testing.T) {
	tbl := mustParse(t, sources.KindCases, "Entity,Code,Year,\""+sources.ColEstimatedCases+"\"\nNigeria,NGA,1980,lots\n")
	_, err := NormalizeCases(tbl)
	if !errors.Is(err, sources.ErrSchemaMismatch) {
		t.Fatalf("Expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error should name the row: %v", err)
	}
}

func TestNormalizeMetadataAndVaccine(t *testing.T) {
	meta, err := NormalizeMetadata(mustParse(t, sources.KindMetadata, "Country Code,Region,IncomeGroup\nNGA,Sub-Saharan Africa,Lower middle income\nWLD,,\n"))
	if err != nil {
		t.Fatal(err)
	}
	if meta[1].Region != "" || meta[1].IncomeGroup != "" {
		t.Errorf("empty metadata must be null: %+v", meta[1])
	}

	vac, err := NormalizeVaccine(mustParse(t, sources.KindVaccine, "Entity,Code,Year,\""+sources.ColPol3+"\"\nNigeria,NGA,1980,10\nNigeria,NGA,1981,\n"))
	if err != nil {
		t.Fatal(err)
	}
	if vac[0].Pol3Rate.Float64 != 10 || vac[1].Pol3Rate.Valid {
		t.Errorf("unexpected vaccine rows: %+v", vac)
	}
}

func TestColumnMappings(t *testing.T) {
	mappings := []struct {
		kind    sources.Kind
		mapping map[string]string
	}{
		{sources.KindCases, CaseColumns},
		{sources.KindMetadata, MetadataColumns},
		{sources.KindVaccine, VaccineColumns},
	}
	for _, m := range mappings {
		required := sources.RequiredColumns(m.kind)
		if len(m.mapping) != len(required) {
			t.Errorf("%s mapping covers %d columns, source requires %d", m.kind, len(m.mapping), len(required))
		}
		for _, col := range required {
			if _, ok := m.mapping[col]; !ok {
				t.Errorf("%s column %q has no canonical name", m.kind, col)
			}
		}
	}
}

func TestNormalizeUsesColumnMapping(t *testing.T) {
	// Columns out of order and interleaved with extras.
	cases := mustParse(t, sources.KindCases, "\""+sources.ColEstimatedCases+"\",Extra,Year,Code,Entity\n"+
		"42,x,1990,NGA,Nigeria\n")
	got, err := NormalizeCases(cases)
	if err != nil {
		t.Fatalf("NormalizeCases failed: %v", err)
	}
	want := CaseRecord{Country: "Nigeria", Code: "NGA", Year: 1990, NumCases: Float(42)}
	if len(got) != 1 || got[0] != want {
		t.Errorf("NormalizeCases = %+v, want %+v", got, want)
	}

	meta := mustParse(t, sources.KindMetadata, "IncomeGroup,Region,Country Code\nLow income,Sub-Saharan Africa,NER\n")
	m, err := NormalizeMetadata(meta)
	if err != nil {
		t.Fatalf("NormalizeMetadata failed: %v", err)
	}
	if len(m) != 1 || m[0].Code != "NER" || m[0].Region != "Sub-Saharan Africa" || m[0].IncomeGroup != "Low income" {
		t.Errorf("NormalizeMetadata = %+v", m)
	}

	vac := mustParse(t, sources.KindVaccine, "\""+sources.ColPol3+"\",Year,Entity\n77,2001,Niger\n")
	v, err := NormalizeVaccine(vac)
	if err != nil {
		t.Fatalf("NormalizeVaccine failed: %v", err)
	}
	if len(v) != 1 || v[0].Country != "Niger" || v[0].Year != 2001 || v[0].Pol3Rate.Float64 != 77 {
		t.Errorf("NormalizeVaccine = %+v", v)
	}
}

func TestColumnIndexMissingColumn(t *testing.T) {
	tbl := sources.NewTable(sources.KindVaccine, []string{"Entity", "Year"}, nil)
	if _, err := columnIndex(tbl, VaccineColumns); !errors.Is(err, sources.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}
