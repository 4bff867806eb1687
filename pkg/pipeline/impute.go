package pipeline

// ImputeVaccination fills missing Pol3 rates with the mean of the country's
// own readings. Countries with no readings at all keep null rates. The input
// is not modified and applying the function twice gives the same result.
func ImputeVaccination(records []CountryVaccineRecord) []CountryVaccineRecord {
	type acc struct {
		sum float64
		n   int
	}
	means := make(map[string]*acc)
	for _, r := range records {
		if !r.Pol3Rate.Valid {
			continue
		}
		a, ok := means[r.Country]
		if !ok {
			a = &acc{}
			means[r.Country] = a
		}
		a.sum += r.Pol3Rate.Float64
		a.n++
	}

	out := make([]CountryVaccineRecord, len(records))
	for i, r := range records {
		if !r.Pol3Rate.Valid {
			if a, ok := means[r.Country]; ok {
				r.Pol3Rate = Float(a.sum / float64(a.n))
			}
		}
		out[i] = r
	}
	return out
}
