package pipeline

// JoinStats counts what the left joins discarded or could not match.
// Duplicate right-side keys are resolved keep-first: the earliest row in
// source order wins and later ones are counted here.
type JoinStats struct {
	DuplicateMetadata   int `json:"duplicate_metadata"`
	DuplicatePopulation int `json:"duplicate_population"`
	DuplicateVaccine    int `json:"duplicate_vaccine"`
	UnmatchedMetadata   int `json:"unmatched_metadata"`
	UnmatchedPopulation int `json:"unmatched_population"`
	UnmatchedVaccine    int `json:"unmatched_vaccine"`
}

type codeYear struct {
	code string
	year int
}

type countryYear struct {
	country string
	year    int
}

// indexFirst builds a keep-first lookup over rows and reports how many rows
// lost to an earlier duplicate.
func indexFirst[K comparable, V any](rows []V, key func(V) (K, bool)) (map[K]V, int) {
	idx := make(map[K]V, len(rows))
	dups := 0
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := idx[k]; seen {
			dups++
			continue
		}
		idx[k] = r
	}
	return idx, dups
}

// JoinCases left-joins case rows to metadata on code and to population on
// (code, year). An empty code never matches.
func JoinCases(cases []CaseRecord, meta []MetadataRecord, pop []PopulationRecord) ([]CaseRecord, JoinStats) {
	var stats JoinStats
	metaIdx, dups := indexFirst(meta, func(m MetadataRecord) (string, bool) { return m.Code, m.Code != "" })
	stats.DuplicateMetadata = dups
	popIdx, dups := indexFirst(pop, func(p PopulationRecord) (codeYear, bool) {
		return codeYear{p.Code, p.Year}, p.Code != ""
	})
	stats.DuplicatePopulation = dups

	out := make([]CaseRecord, len(cases))
	for i, c := range cases {
		c.Region, c.IncomeGroup, c.TotalPop = "", "", NullFloat{}
		if m, ok := metaIdx[c.Code]; ok && c.Code != "" {
			c.Region, c.IncomeGroup = m.Region, m.IncomeGroup
		} else {
			stats.UnmatchedMetadata++
		}
		if p, ok := popIdx[codeYear{c.Code, c.Year}]; ok && c.Code != "" {
			c.TotalPop = p.TotalPop
		} else {
			stats.UnmatchedPopulation++
		}
		out[i] = c
	}
	return out, stats
}

// JoinVaccine left-joins case rows to vaccination coverage on
// (country, year).
func JoinVaccine(cases []CaseRecord, vac []VaccineRecord) ([]CountryVaccineRecord, JoinStats) {
	var stats JoinStats
	vacIdx, dups := indexFirst(vac, func(v VaccineRecord) (countryYear, bool) {
		return countryYear{v.Country, v.Year}, true
	})
	stats.DuplicateVaccine = dups

	out := make([]CountryVaccineRecord, len(cases))
	for i, c := range cases {
		rec := CountryVaccineRecord{CaseRecord: c}
		if v, ok := vacIdx[countryYear{c.Country, c.Year}]; ok {
			rec.Pol3Rate = v.Pol3Rate
		} else {
			stats.UnmatchedVaccine++
		}
		out[i] = rec
	}
	return out, stats
}

func (s JoinStats) merge(o JoinStats) JoinStats {
	return JoinStats{
		DuplicateMetadata:   s.DuplicateMetadata + o.DuplicateMetadata,
		DuplicatePopulation: s.DuplicatePopulation + o.DuplicatePopulation,
		DuplicateVaccine:    s.DuplicateVaccine + o.DuplicateVaccine,
		UnmatchedMetadata:   s.UnmatchedMetadata + o.UnmatchedMetadata,
		UnmatchedPopulation: s.UnmatchedPopulation + o.UnmatchedPopulation,
		UnmatchedVaccine:    s.UnmatchedVaccine + o.UnmatchedVaccine,
	}
}
