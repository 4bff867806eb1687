package pipeline

import (
	"fmt"
	"math"
	"sort"
)

const (
	// PeriodOrigin is the first year of the first period bucket.
	PeriodOrigin = 1980
	// PeriodLength is the number of years per bucket.
	PeriodLength = 3

	minBubble = 3
	maxBubble = 40
)

// Locator resolves a country to coordinates.
type Locator interface {
	Locate(country, code string) (lat, lon float64, ok bool)
}

// PeriodStart returns the first year of the bucket containing year. The
// division floors toward negative infinity, so 1979 falls in 1977-1979.
func PeriodStart(year int) int {
	d := year - PeriodOrigin
	q := d / PeriodLength
	if d%PeriodLength != 0 && d < 0 {
		q--
	}
	return PeriodOrigin + q*PeriodLength
}

// PeriodLabel formats a bucket as "start-end".
func PeriodLabel(start int) string {
	return fmt.Sprintf("%d-%d", start, start+PeriodLength-1)
}

// VaccinationCategory is a coverage band used as the choropleth text.
type VaccinationCategory int

const (
	CategoryVeryLow VaccinationCategory = iota
	CategoryLow
	CategoryMedium
	CategoryHigh
	CategoryVeryHigh
)

// Categories lists the bands from highest to lowest coverage, the order the
// map legend shows them in.
var Categories = []VaccinationCategory{
	CategoryVeryHigh, CategoryHigh, CategoryMedium, CategoryLow, CategoryVeryLow,
}

var categoryLabels = map[VaccinationCategory]string{
	CategoryVeryHigh: "Muy Alta (≥95%)",
	CategoryHigh:     "Alta (85-94%)",
	CategoryMedium:   "Media (70-84%)",
	CategoryLow:      "Baja (50-69%)",
	CategoryVeryLow:  "Muy Baja (<50%)",
}

var categoryColors = map[VaccinationCategory]string{
	CategoryVeryHigh: "#2E7D32",
	CategoryHigh:     "#66BB6A",
	CategoryMedium:   "#FDD835",
	CategoryLow:      "#FF7043",
	CategoryVeryLow:  "#D32F2F",
}

func (c VaccinationCategory) String() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("VaccinationCategory(%d)", int(c))
}

// Color is the choropleth color of the band.
func (c VaccinationCategory) Color() string {
	return categoryColors[c]
}

func (c VaccinationCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categorize maps a Pol3 rate to its band.
func Categorize(rate float64) VaccinationCategory {
	switch {
	case rate >= 95:
		return CategoryVeryHigh
	case rate >= 85:
		return CategoryHigh
	case rate >= 70:
		return CategoryMedium
	case rate >= 50:
		return CategoryLow
	default:
		return CategoryVeryLow
	}
}

// BubbleSize maps cases per million to a marker size in [3, 40].
func BubbleSize(cpm float64) float64 {
	if cpm <= 0 || math.IsNaN(cpm) {
		return minBubble
	}
	return math.Min(maxBubble, math.Max(minBubble, math.Sqrt(cpm)*8+5))
}

// PeriodCountryAggregate is one country averaged over one period bucket.
// Lat and Lon are null when the locator has no entry for the country.
type PeriodCountryAggregate struct {
	Country             string              `json:"country"`
	Code                string              `json:"code"`
	PeriodStart         int                 `json:"period_start"`
	PeriodLabel         string              `json:"period_label"`
	IncomeGroup         string              `json:"income_group"`
	MeanPol3Rate        float64             `json:"mean_pol3_rate"`
	MeanCasesPerMillion float64             `json:"mean_cases_per_million"`
	MeanTotalPop        NullFloat           `json:"mean_total_pop"`
	Category            VaccinationCategory `json:"vaccination_category"`
	BubbleSize          float64             `json:"bubble_size"`
	Lat                 NullFloat           `json:"lat"`
	Lon                 NullFloat           `json:"lon"`
}

// HasCoordinates reports whether the aggregate can be drawn as a point.
func (p PeriodCountryAggregate) HasCoordinates() bool {
	return p.Lat.Valid && p.Lon.Valid
}

type periodKey struct {
	country, code, income string
	start                 int
}

type periodAcc struct {
	pol3, cpm, pop float64
	n, popN        int
}

// PeriodCountryAggregates buckets country-year rows into periods and
// averages them. Rows missing a Pol3 rate, cases per million, a 3-letter
// code or an income group are dropped. loc may be nil. The result is
// ordered by period, then country.
func PeriodCountryAggregates(records []CountryVaccineRecord, loc Locator) []PeriodCountryAggregate {
	acc := make(map[periodKey]*periodAcc)
	for _, r := range records {
		if !r.Pol3Rate.Valid || !r.CasesPerMillion.Valid || len(r.Code) != 3 || r.IncomeGroup == "" {
			continue
		}
		k := periodKey{r.Country, r.Code, r.IncomeGroup, PeriodStart(r.Year)}
		a, ok := acc[k]
		if !ok {
			a = &periodAcc{}
			acc[k] = a
		}
		a.pol3 += r.Pol3Rate.Float64
		a.cpm += r.CasesPerMillion.Float64
		a.n++
		if r.TotalPop.Valid {
			a.pop += r.TotalPop.Float64
			a.popN++
		}
	}

	out := make([]PeriodCountryAggregate, 0, len(acc))
	for k, a := range acc {
		p := PeriodCountryAggregate{
			Country:             k.country,
			Code:                k.code,
			PeriodStart:         k.start,
			PeriodLabel:         PeriodLabel(k.start),
			IncomeGroup:         k.income,
			MeanPol3Rate:        a.pol3 / float64(a.n),
			MeanCasesPerMillion: a.cpm / float64(a.n),
		}
		if a.popN > 0 {
			p.MeanTotalPop = Float(a.pop / float64(a.popN))
		}
		p.Category = Categorize(p.MeanPol3Rate)
		p.BubbleSize = BubbleSize(p.MeanCasesPerMillion)
		if loc != nil {
			if lat, lon, ok := loc.Locate(k.country, k.code); ok {
				p.Lat, p.Lon = Float(lat), Float(lon)
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PeriodStart != b.PeriodStart {
			return a.PeriodStart < b.PeriodStart
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.IncomeGroup < b.IncomeGroup
	})
	return out
}

// Periods returns the distinct period labels of aggs in ascending order.
func Periods(aggs []PeriodCountryAggregate) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, a := range aggs {
		if !seen[a.PeriodLabel] {
			seen[a.PeriodLabel] = true
			labels = append(labels, a.PeriodLabel)
		}
	}
	sort.Strings(labels)
	return labels
}
