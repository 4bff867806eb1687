package charts

import (
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

var ErrUnknownFrame = errors.New("unknown frame")

// Layer returns the first trace of the given type in a frame.
func (fr Frame) Layer(traceType string) (Trace, bool) {
	for _, t := range fr.Data {
		if t.Type == traceType {
			return t, true
		}
	}
	return Trace{}, false
}

// Coverage maps each country name of the frame's choropleth to its Pol3
// coverage.
func (fr Frame) Coverage() map[string]float64 {
	out := make(map[string]float64)
	c, ok := fr.Layer("choropleth")
	if !ok {
		return out
	}
	for i, cd := range c.CustomData {
		name, ok := cd.(string)
		if ok && i < len(c.Z) {
			out[name] = c.Z[i]
		}
	}
	return out
}

// FramePoints returns the bubble layer of the named frame as a GeoJSON
// feature collection. Each point carries the country, its cases per
// million, bubble size and, when known, Pol3 coverage.
func FramePoints(fig *Figure, period string) (*geojson.FeatureCollection, error) {
	fr, ok := fig.Frame(period)
	if !ok {
		return nil, fmt.Errorf("%s: %w", period, ErrUnknownFrame)
	}
	fc := geojson.NewFeatureCollection()
	pts, ok := fr.Layer("scattergeo")
	if !ok {
		return fc, nil
	}
	coverage := fr.Coverage()
	for i := range pts.Lat {
		f := geojson.NewPointFeature([]float64{pts.Lon[i], pts.Lat[i]})
		f.SetProperty("period", period)
		if i < len(pts.HoverText) {
			f.SetProperty("country", pts.HoverText[i])
			if z, ok := coverage[pts.HoverText[i]]; ok {
				f.SetProperty("pol3_rate", z)
			}
		}
		if i < len(pts.CustomData) {
			f.SetProperty("cases_per_million", pts.CustomData[i])
		}
		if pts.Marker != nil && i < len(pts.Marker.Size) {
			f.SetProperty("bubble_size", pts.Marker.Size[i])
		}
		fc.AddFeature(f)
	}
	return fc, nil
}
