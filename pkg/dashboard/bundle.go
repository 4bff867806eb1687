// Package dashboard hosts the two chart specs behind a small HTTP API and
// describes the content of each dashboard tab.
package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/sudorandom/polio-dashboard/pkg/charts"
	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
)

// BuilderVersion changes whenever chart output changes for the same input,
// invalidating cached specs.
const BuilderVersion = "polio-dashboard/specs/v1"

const (
	SpecIncome = "income"
	SpecMap    = "map"
)

// Bundle is the immutable pair of figures the dashboard serves.
type Bundle struct {
	Income charts.Figure
	Map    charts.Figure
}

// NewBundle builds both figures from the pipeline result.
func NewBundle(res *pipeline.Result, loc pipeline.Locator) *Bundle {
	return &Bundle{
		Income: charts.BuildIncomeChart(res.IncomeSeries),
		Map:    charts.BuildMap(res.CountryVaccine, loc),
	}
}

// Figure returns the named figure.
func (b *Bundle) Figure(name string) (*charts.Figure, bool) {
	switch name {
	case SpecIncome:
		return &b.Income, true
	case SpecMap:
		return &b.Map, true
	}
	return nil, false
}

// Encode marshals both figures keyed by spec name.
func (b *Bundle) Encode() (map[string][]byte, error) {
	out := make(map[string][]byte, 2)
	for _, name := range []string{SpecIncome, SpecMap} {
		fig, _ := b.Figure(name)
		data, err := json.Marshal(fig)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// DecodeBundle is the inverse of Encode.
func DecodeBundle(specs map[string][]byte) (*Bundle, error) {
	b := &Bundle{}
	for _, name := range []string{SpecIncome, SpecMap} {
		data, ok := specs[name]
		if !ok {
			return nil, fmt.Errorf("missing %s spec", name)
		}
		fig, _ := b.Figure(name)
		if err := json.Unmarshal(data, fig); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return b, nil
}
