package charts

import (
	"sort"

	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
)

const incomeHoverTemplate = "<b>%{fullData.name}</b><br>" +
	"Año: %{x}<br>" +
	"Casos por millón: %{y:.2f}<br>" +
	"<extra></extra>"

// Pivot is a year x income group matrix of pooled cases per million.
// Missing and null cells are 0.
type Pivot struct {
	Years  []int
	Groups []string
	Values map[string][]float64
}

// PivotIncome arranges the income series as a pivot with years ascending
// and groups in alphabetical order.
func PivotIncome(series []pipeline.IncomeGroupYearAggregate) Pivot {
	yearSet := make(map[int]bool)
	groupSet := make(map[string]bool)
	for _, s := range series {
		yearSet[s.Year] = true
		groupSet[s.IncomeGroup] = true
	}
	p := Pivot{Values: make(map[string][]float64, len(groupSet))}
	for y := range yearSet {
		p.Years = append(p.Years, y)
	}
	sort.Ints(p.Years)
	for g := range groupSet {
		p.Groups = append(p.Groups, g)
	}
	sort.Strings(p.Groups)

	yearIdx := make(map[int]int, len(p.Years))
	for i, y := range p.Years {
		yearIdx[y] = i
	}
	for _, g := range p.Groups {
		p.Values[g] = make([]float64, len(p.Years))
	}
	for _, s := range series {
		p.Values[s.IncomeGroup][yearIdx[s.Year]] = s.IncomeCasesPerMillion.Or(0)
	}
	return p
}

// OrderByMean returns labels sorted by the descending mean of their values.
// Equal means keep the order of labels.
func OrderByMean(labels []string, values map[string][]float64) []string {
	means := make(map[string]float64, len(labels))
	for _, l := range labels {
		v := values[l]
		if len(v) == 0 {
			continue
		}
		sum := 0.0
		for _, x := range v {
			sum += x
		}
		means[l] = sum / float64(len(v))
	}
	out := append([]string(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool {
		return means[out[i]] > means[out[j]]
	})
	return out
}

// BuildIncomeChart builds the stacked-area chart of pooled cases per million
// by income group.
func BuildIncomeChart(series []pipeline.IncomeGroupYearAggregate) Figure {
	p := PivotIncome(series)
	x := make([]float64, len(p.Years))
	for i, y := range p.Years {
		x[i] = float64(y)
	}

	data := make([]Trace, 0, len(p.Groups))
	for i, g := range OrderByMean(p.Groups, p.Values) {
		fill := "tonexty"
		if i == 0 {
			fill = "tozeroy"
		}
		color := IncomeColor(g)
		data = append(data, Trace{
			Type:          "scatter",
			Name:          g,
			Mode:          "lines",
			X:             x,
			Y:             p.Values[g],
			Fill:          fill,
			FillColor:     color,
			StackGroup:    "one",
			Line:          &Line{Width: 0.5, Color: color},
			HoverTemplate: incomeHoverTemplate,
		})
	}

	return Figure{
		Data: data,
		Layout: Layout{
			Title:        &Title{Text: "Evolución de Casos de Polio per Cápita por Grupo de Ingresos (1980-2016)", X: 0.5},
			Width:        1600,
			Height:       750,
			PlotBgColor:  "white",
			PaperBgColor: "white",
			Font:         &Font{Size: 14},
			Margin:       &Margin{L: 100, R: 200, T: 100, B: 100},
			ShowLegend:   ptr(true),
			Legend: &Legend{
				Orientation: "v",
				YAnchor:     "top",
				Y:           1,
				XAnchor:     "left",
				X:           1.02,
				BgColor:     "rgba(255,255,255,0.8)",
				BorderWidth: 1,
			},
			XAxis: &Axis{
				Title:     &Title{Text: "Año", Font: &Font{Size: 14}},
				ShowGrid:  true,
				GridColor: "lightgray",
				LineColor: "black",
				TickFont:  &Font{Size: 12},
				Range:     []float64{1980, 2016},
				DTick:     5,
			},
			YAxis: &Axis{
				Title:     &Title{Text: "Casos por Millón de Habitantes", Font: &Font{Size: 14}},
				ShowGrid:  true,
				GridColor: "lightgray",
				LineColor: "black",
				TickFont:  &Font{Size: 12},
				RangeMode: "tozero",
			},
		},
	}
}
