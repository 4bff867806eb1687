package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sudorandom/polio-dashboard/pkg/sources"
)

// Result holds every derived table. It is read-only after Run returns.
type Result struct {
	Cases          []CaseRecord               `json:"cases"`
	IncomeSeries   []IncomeGroupYearAggregate `json:"income_series"`
	CountryVaccine []CountryVaccineRecord     `json:"country_vaccine"`
	Stats          JoinStats                  `json:"stats"`
}

// Run normalizes, joins, derives and imputes the raw tables.
func Run(raw *sources.RawTables, logger zerolog.Logger) (*Result, error) {
	cases, err := NormalizeCases(raw.Cases)
	if err != nil {
		return nil, fmt.Errorf("normalize cases: %w", err)
	}
	meta, err := NormalizeMetadata(raw.Metadata)
	if err != nil {
		return nil, fmt.Errorf("normalize metadata: %w", err)
	}
	pop, err := NormalizePopulation(raw.Population)
	if err != nil {
		return nil, fmt.Errorf("normalize population: %w", err)
	}
	vac, err := NormalizeVaccine(raw.Vaccine)
	if err != nil {
		return nil, fmt.Errorf("normalize vaccine: %w", err)
	}
	logger.Debug().
		Int("cases", len(cases)).
		Int("metadata", len(meta)).
		Int("population", len(pop)).
		Int("vaccine", len(vac)).
		Msg("Normalized sources")

	joined, stats := JoinCases(cases, meta, pop)
	joined = DeriveCasesPerMillion(joined)
	withVac, vacStats := JoinVaccine(joined, vac)
	stats = stats.merge(vacStats)
	logDuplicates(logger, stats)

	res := &Result{
		Cases:          joined,
		IncomeSeries:   IncomeGroupSeries(joined),
		CountryVaccine: ImputeVaccination(withVac),
		Stats:          stats,
	}
	logger.Debug().
		Int("income_series", len(res.IncomeSeries)).
		Int("country_vaccine", len(res.CountryVaccine)).
		Int("unmatched_metadata", stats.UnmatchedMetadata).
		Int("unmatched_population", stats.UnmatchedPopulation).
		Int("unmatched_vaccine", stats.UnmatchedVaccine).
		Msg("Derived tables")
	return res, nil
}

// RunFiles loads the sources from disk and runs the pipeline.
func RunFiles(files sources.Files, logger zerolog.Logger) (*Result, error) {
	raw, err := sources.Load(files)
	if err != nil {
		return nil, err
	}
	return Run(raw, logger)
}

func logDuplicates(logger zerolog.Logger, s JoinStats) {
	for _, d := range []struct {
		source sources.Kind
		n      int
	}{
		{sources.KindMetadata, s.DuplicateMetadata},
		{sources.KindPopulation, s.DuplicatePopulation},
		{sources.KindVaccine, s.DuplicateVaccine},
	} {
		if d.n > 0 {
			logger.Warn().Str("source", string(d.source)).Int("dropped", d.n).Msg("Duplicate join keys, kept the first row")
		}
	}
}
