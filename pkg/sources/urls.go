package sources

const (
	CasesFile      = "number-of-estimated-paralytic-polio-cases-by-world-region.csv"
	MetadataFile   = "country_metadata.csv"
	PopulationFile = "total_population.csv"
	VaccineFile    = "global-vaccination-coverage.csv"

	CasesURL   = "https://ourworldindata.org/grapher/number-of-estimated-paralytic-polio-cases-by-world-region.csv"
	VaccineURL = "https://ourworldindata.org/grapher/global-vaccination-coverage.csv"
)

// Column names of the source files. They are the compatibility boundary with
// the upstream datasets and must not be reworded.
const (
	ColEntity         = "Entity"
	ColCode           = "Code"
	ColYear           = "Year"
	ColEstimatedCases = "Estimated number of paralytic polio cases using reported number of cases after polio free certification (WHO, 2018 and Tebbens et al., 2011)"
	ColCountryCode    = "Country Code"
	ColRegion         = "Region"
	ColIncomeGroup    = "IncomeGroup"
	ColPol3           = "Pol3 (% of one-year-olds immunized)"
)

var requiredColumns = map[Kind][]string{
	KindCases:      {ColEntity, ColCode, ColYear, ColEstimatedCases},
	KindMetadata:   {ColCountryCode, ColRegion, ColIncomeGroup},
	KindPopulation: {ColCountryCode},
	KindVaccine:    {ColEntity, ColYear, ColPol3},
}

// RequiredColumns returns the columns a source of the given kind must carry.
func RequiredColumns(k Kind) []string {
	return append([]string(nil), requiredColumns[k]...)
}
