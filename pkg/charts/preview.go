package charts

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sudorandom/polio-dashboard/pkg/geo"
	"github.com/sudorandom/polio-dashboard/pkg/pipeline"
)

var (
	previewPointColor = color.RGBA{R: 139, A: 204}
	previewOutline    = color.RGBA{R: 204, G: 204, B: 204, A: 255}
	previewUnknown    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// RenderIncomePNG draws a static preview of the stacked-area figure.
func RenderIncomePNG(w io.Writer, fig *Figure, width, height vg.Length) error {
	p := plot.New()
	if fig.Layout.Title != nil {
		p.Title.Text = fig.Layout.Title.Text
	}
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Año"
	p.Y.Label.Text = "Casos por Millón de Habitantes"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	// Lower series are drawn last so they stay visible over the fill of the
	// cumulative series above them.
	var cumulative [][]float64
	var running []float64
	for _, tr := range fig.Data {
		if running == nil {
			running = make([]float64, len(tr.Y))
		}
		next := make([]float64, len(running))
		for i := range running {
			if i < len(tr.Y) {
				next[i] = running[i] + tr.Y[i]
			}
		}
		running = next
		cumulative = append(cumulative, next)
	}
	for i := len(fig.Data) - 1; i >= 0; i-- {
		tr := fig.Data[i]
		xys := make(plotter.XYs, len(tr.X))
		for j := range tr.X {
			xys[j].X = tr.X[j]
			xys[j].Y = cumulative[i][j]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", tr.Name, err)
		}
		c := parseColor(tr.FillColor)
		line.Color = c
		line.Width = vg.Points(0.5)
		line.FillColor = c
		p.Add(line)
		p.Legend.Add(tr.Name, line)
	}
	if x := fig.Layout.XAxis; x != nil && len(x.Range) == 2 {
		p.X.Min, p.X.Max = x.Range[0], x.Range[1]
	}
	p.Y.Min = 0

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// RenderFramePNG draws one map frame's bubbles on an equal-area world
// outline. Bubbles are colored by the country's coverage band.
func RenderFramePNG(w io.Writer, fig *Figure, period string, proj *geo.Projector, width, height vg.Length) error {
	fr, ok := fig.Frame(period)
	if !ok {
		return fmt.Errorf("%s: %w", period, ErrUnknownFrame)
	}
	_, ch := proj.Size()
	flip := func(x, y float64) plotter.XY { return plotter.XY{X: x, Y: float64(ch) - y} }

	p := plot.New()
	p.Title.Text = "Período: " + period
	p.HideAxes()

	outline := make(plotter.XYs, 0, 2*181)
	for lat := -90.0; lat <= 90; lat++ {
		outline = append(outline, flip(proj.Project(lat, 180)))
	}
	for lat := 90.0; lat >= -90; lat-- {
		outline = append(outline, flip(proj.Project(lat, -180)))
	}
	border, err := plotter.NewLine(outline)
	if err != nil {
		return err
	}
	border.Color = previewOutline
	p.Add(border)

	pts, ok := fr.Layer("scattergeo")
	if ok && len(pts.Lat) > 0 {
		coverage := fr.Coverage()
		xys := make(plotter.XYs, len(pts.Lat))
		for i := range pts.Lat {
			xys[i] = flip(proj.Project(pts.Lat[i], pts.Lon[i]))
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			style := draw.GlyphStyle{Color: previewPointColor, Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
			if pts.Marker != nil && i < len(pts.Marker.Size) {
				style.Radius = vg.Points(pts.Marker.Size[i] / 2)
			}
			if i < len(pts.HoverText) {
				if z, ok := coverage[pts.HoverText[i]]; ok {
					style.Color = parseColor(pipeline.Categorize(z).Color())
				} else {
					style.Color = previewUnknown
				}
			}
			return style
		}
		p.Add(scatter)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// parseColor reads "#RRGGBB". Anything else falls back to the default
// income color.
func parseColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		s = strings.TrimPrefix(DefaultIncomeColor, "#")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return previewUnknown
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
