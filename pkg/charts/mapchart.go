package charts

import (
	"html"
	"math"
	"strconv"

	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
)

const (
	// FrameDuration is how long each period stays on screen while playing.
	FrameDuration     = 2000
	transitionMillis  = 500
	sliderStepMillis  = 300
	easing            = "cubic-in-out"
	choroplethName    = "Cobertura Vacunación"
	pointsName        = "Casos de Polio (por millón)"
	coverageHoverTmpl = "<b>%{customdata}</b><br>" +
		"Cobertura: %{z:.1f}%<br>" +
		"Categoría: %{text}<br>" +
		"<extra></extra>"
	pointsHoverTmpl = "<b>%{hovertext}</b><br>" +
		"Casos por millón: %{customdata}<br>" +
		"<extra></extra>"
)

// Legend placement in paper coordinates.
const (
	mapLeft      = 0.15
	mapRight     = 0.85
	legendOffset = 0.02
	legendTop    = 0.85
	legendRow    = 0.035
)

// BuildMap aggregates the country table into 3-year periods and builds the
// animated coverage map. loc resolves bubble coordinates and may be nil.
func BuildMap(records []pipeline.CountryVaccineRecord, loc pipeline.Locator) Figure {
	return BuildMapFromAggregates(pipeline.PeriodCountryAggregates(records, loc))
}

// BuildMapFromAggregates builds the animated map from aggregates already
// ordered by period. Every frame holds a choropleth layer followed by a
// point layer, which is empty when no country in the period has
// coordinates.
func BuildMapFromAggregates(aggs []pipeline.PeriodCountryAggregate) Figure {
	byPeriod := make(map[string][]pipeline.PeriodCountryAggregate)
	for _, a := range aggs {
		byPeriod[a.PeriodLabel] = append(byPeriod[a.PeriodLabel], a)
	}
	periods := pipeline.Periods(aggs)

	frames := make([]Frame, 0, len(periods))
	steps := make([]SliderStep, 0, len(periods))
	for _, period := range periods {
		rows := byPeriod[period]
		frames = append(frames, Frame{
			Name: period,
			Data: []Trace{choroplethTrace(rows, false), pointsTrace(rows, false)},
		})
		steps = append(steps, SliderStep{
			Label:  period,
			Method: "animate",
			Args: AnimateArgs{
				Frames: []string{period},
				Options: AnimationOptions{
					Frame:      FrameOptions{Duration: sliderStepMillis, Redraw: true},
					Transition: Transition{Duration: sliderStepMillis, Easing: easing},
					Mode:       "immediate",
				},
			},
		})
	}

	var first []pipeline.PeriodCountryAggregate
	if len(periods) > 0 {
		first = byPeriod[periods[0]]
	}

	return Figure{
		Data:   []Trace{choroplethTrace(first, true), pointsTrace(first, true)},
		Layout: mapLayout(steps),
		Frames: frames,
	}
}

func choroplethTrace(rows []pipeline.PeriodCountryAggregate, initial bool) Trace {
	t := Trace{
		Type:          "choropleth",
		Locations:     make([]string, 0, len(rows)),
		Z:             make([]float64, 0, len(rows)),
		Text:          make([]string, 0, len(rows)),
		CustomData:    make([]any, 0, len(rows)),
		ColorScale:    CoverageScale,
		ZMin:          ptr(0.0),
		ZMax:          ptr(100.0),
		ShowScale:     ptr(false),
		HoverTemplate: coverageHoverTmpl,
	}
	if initial {
		t.Name = choroplethName
		t.ShowLegend = ptr(false)
	}
	for _, r := range rows {
		t.Locations = append(t.Locations, r.Code)
		t.Z = append(t.Z, r.MeanPol3Rate)
		t.Text = append(t.Text, r.Category.String())
		t.CustomData = append(t.CustomData, r.Country)
	}
	return t
}

func pointsTrace(rows []pipeline.PeriodCountryAggregate, initial bool) Trace {
	t := Trace{
		Type:       "scattergeo",
		Mode:       "markers",
		Lat:        []float64{},
		Lon:        []float64{},
		HoverText:  []string{},
		CustomData: []any{},
		Marker: &Marker{
			Size:   []float64{},
			Color:  PointColor,
			Line:   &Line{Width: 2, Color: "white"},
			Symbol: "circle",
		},
		HoverTemplate: pointsHoverTmpl,
	}
	if initial {
		t.Name = pointsName
		t.ShowLegend = ptr(false)
	}
	for _, r := range rows {
		if !r.HasCoordinates() || r.MeanCasesPerMillion < 0 {
			continue
		}
		t.Lat = append(t.Lat, r.Lat.Float64)
		t.Lon = append(t.Lon, r.Lon.Float64)
		t.HoverText = append(t.HoverText, r.Country)
		t.CustomData = append(t.CustomData, math.Round(r.MeanCasesPerMillion*100)/100)
		t.Marker.Size = append(t.Marker.Size, r.BubbleSize)
	}
	return t
}

func mapLayout(steps []SliderStep) Layout {
	return Layout{
		Width:  1700,
		Height: 850,
		Geo: &Geo{
			ShowFrame:      false,
			ShowCoastlines: true,
			ShowLand:       true,
			LandColor:      "rgb(243, 243, 243)",
			CoastlineColor: "rgb(204, 204, 204)",
			Projection:     GeoProjection{Type: "natural earth"},
			Domain:         &Domain{X: [2]float64{mapLeft, mapRight}, Y: [2]float64{0.15, 0.9}},
		},
		Title: &Title{
			Text: "Cobertura de Vacunación Pol3 vs. Casos de Polio por Millón de Habitantes<br>" +
				`<span style="font-size:14px;">Color del mapa: % de vacunación | Tamaño de puntos: Casos por millón</span>`,
			X:    0.5,
			Y:    0.95,
			Font: &Font{Size: 18},
		},
		Margin:      &Margin{L: 120, R: 120, T: 120, B: 120},
		Annotations: legendAnnotations(),
		UpdateMenus: []UpdateMenu{{
			Type:      "buttons",
			Direction: "left",
			Buttons: []Button{
				{
					Label:  "▶ Start",
					Method: "animate",
					Args: AnimateArgs{Options: AnimationOptions{
						Frame:       FrameOptions{Duration: FrameDuration, Redraw: true},
						FromCurrent: true,
						Transition:  Transition{Duration: transitionMillis, Easing: easing},
						Mode:        "immediate",
					}},
				},
				{
					Label:  "⏸ Stop",
					Method: "animate",
					Args: AnimateArgs{Stop: true, Options: AnimationOptions{
						Frame:      FrameOptions{Duration: 0, Redraw: false},
						Transition: Transition{Duration: 0},
						Mode:       "immediate",
					}},
				},
			},
			Pad:         Pad{R: 10, T: 10},
			ShowActive:  false,
			X:           0.01,
			XAnchor:     "left",
			Y:           0.05,
			YAnchor:     "bottom",
			BgColor:     "rgba(255,255,255,0.9)",
			BorderColor: "rgba(0,0,0,0.3)",
			BorderWidth: 1,
			Font:        &Font{Size: 12},
		}},
		Sliders: []Slider{{
			Active:  0,
			YAnchor: "top",
			XAnchor: "left",
			CurrentValue: CurrentValue{
				Font:    &Font{Size: 14, Color: "black"},
				Prefix:  "Período: ",
				Visible: true,
				XAnchor: "center",
			},
			Transition:  Transition{Duration: sliderStepMillis, Easing: easing},
			Pad:         Pad{B: 10, T: 40},
			Len:         0.8,
			X:           0.1,
			Y:           0,
			Steps:       steps,
			BgColor:     "rgba(255,255,255,0.9)",
			BorderColor: "rgba(0,0,0,0.3)",
			BorderWidth: 1,
			TickColor:   "rgba(0,0,0,0.3)",
		}},
	}
}

var pointLegend = []struct {
	px    int
	label string
}{
	{14, "Punto pequeño (Pocos casos)"},
	{20, "Punto mediano (Casos moderados)"},
	{28, "Punto grande (Muchos casos)"},
}

func legendAnnotations() []Annotation {
	lx, rx := mapLeft-legendOffset, mapRight+legendOffset
	header := func(x float64, anchor, align, text string) Annotation {
		return Annotation{
			X: x, Y: legendTop, XRef: "paper", YRef: "paper", XAnchor: anchor,
			Text: "<b>" + text + "</b>", Align: align,
			Font:    &Font{Size: 12, Color: "black", Family: "Arial"},
			BgColor: "rgba(255,255,255,0.95)",
		}
	}
	item := func(x, y float64, anchor, align, text string) Annotation {
		return Annotation{
			X: x, Y: y, XRef: "paper", YRef: "paper", XAnchor: anchor,
			Text: text, Align: align, Font: &Font{Size: 10, Color: "black"},
		}
	}

	out := []Annotation{
		header(lx, "right", "left", "Cobertura de vacunación"),
		header(rx, "left", "right", "Casos por millón"),
	}
	for i, c := range pipeline.Categories {
		swatch := `<span style="color:` + c.Color() + `; font-size:18px">■</span> ` + html.EscapeString(c.String())
		out = append(out, item(lx, legendTop-float64(i+1)*legendRow, "right", "left", swatch))
	}
	for i, p := range pointLegend {
		dot := `<span style="color:` + PointColor + `; font-size:` + strconv.Itoa(p.px) + `px">●</span> ` + p.label
		out = append(out, item(rx, legendTop-float64(i+1)*legendRow, "left", "right", dot))
	}
	return out
}
