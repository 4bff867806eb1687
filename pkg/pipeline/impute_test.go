package pipeline

import (
	"reflect"
	"testing"
)

func vacRecord(country string, year int, rate NullFloat) CountryVaccineRecord {
	return CountryVaccineRecord{CaseRecord: CaseRecord{Country: country, Year: year}, Pol3Rate: rate}
}

func TestImputeVaccination(t *testing.T) {
	in := []CountryVaccineRecord{
		vacRecord("A", 1980, Float(40)),
		vacRecord("A", 1981, NullFloat{}),
		vacRecord("A", 1982, Float(60)),
		vacRecord("B", 1980, NullFloat{}),
		vacRecord("B", 1981, NullFloat{}),
	}
	out := ImputeVaccination(in)

	if got := out[1].Pol3Rate; !got.Valid || got.Float64 != 50 {
		t.Errorf("A 1981 = %v, want 50", got)
	}
	if out[0].Pol3Rate.Float64 != 40 || out[2].Pol3Rate.Float64 != 60 {
		t.Error("existing readings must not change")
	}
	for _, r := range out[3:] {
		if r.Pol3Rate.Valid {
			t.Errorf("country without readings imputed to %v", r.Pol3Rate)
		}
	}
	if in[1].Pol3Rate.Valid {
		t.Error("input was modified")
	}
}

func TestImputeVaccinationIdempotent(t *testing.T) {
	in := []CountryVaccineRecord{
		vacRecord("A", 1980, Float(33)),
		vacRecord("A", 1981, NullFloat{}),
		vacRecord("A", 1982, Float(71)),
		vacRecord("A", 1983, NullFloat{}),
		vacRecord("B", 1980, NullFloat{}),
	}
	once := ImputeVaccination(in)
	twice := ImputeVaccination(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("ImputeVaccination is not idempotent:\n once: %+v\ntwice: %+v", once, twice)
	}
}
