// Package charts builds declarative, plotly-compatible figure descriptions
// from the derived pipeline tables. Builders are pure: the same input always
// yields the same figure, byte for byte once marshalled.
package charts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Figure is a complete chart: initial traces, layout and animation frames.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames,omitzero"`
}

// Frame is one animation step. Name is what slider steps refer to.
type Frame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// Frame returns the named frame.
func (f *Figure) Frame(name string) (Frame, bool) {
	for _, fr := range f.Frames {
		if fr.Name == name {
			return fr, true
		}
	}
	return Frame{}, false
}

// FrameNames lists the frame names in animation order.
func (f *Figure) FrameNames() []string {
	names := make([]string, 0, len(f.Frames))
	for _, fr := range f.Frames {
		names = append(names, fr.Name)
	}
	return names
}

// Trace is a single data layer. Only the fields relevant to Type are set;
// slices that must appear even when empty are non-nil.
type Trace struct {
	Type          string      `json:"type"`
	Name          string      `json:"name,omitzero"`
	Mode          string      `json:"mode,omitzero"`
	X             []float64   `json:"x,omitzero"`
	Y             []float64   `json:"y,omitzero"`
	Fill          string      `json:"fill,omitzero"`
	FillColor     string      `json:"fillcolor,omitzero"`
	StackGroup    string      `json:"stackgroup,omitzero"`
	Line          *Line       `json:"line,omitzero"`
	Locations     []string    `json:"locations,omitzero"`
	Z             []float64   `json:"z,omitzero"`
	Text          []string    `json:"text,omitzero"`
	ColorScale    []ColorStop `json:"colorscale,omitzero"`
	ZMin          *float64    `json:"zmin,omitzero"`
	ZMax          *float64    `json:"zmax,omitzero"`
	ShowScale     *bool       `json:"showscale,omitzero"`
	Lat           []float64   `json:"lat,omitzero"`
	Lon           []float64   `json:"lon,omitzero"`
	Marker        *Marker     `json:"marker,omitzero"`
	HoverText     []string    `json:"hovertext,omitzero"`
	CustomData    []any       `json:"customdata,omitzero"`
	HoverTemplate string      `json:"hovertemplate,omitzero"`
	ShowLegend    *bool       `json:"showlegend,omitzero"`
}

type Line struct {
	Width float64 `json:"width"`
	Color string  `json:"color,omitzero"`
}

type Marker struct {
	Size   []float64 `json:"size"`
	Color  string    `json:"color"`
	Line   *Line     `json:"line,omitzero"`
	Symbol string    `json:"symbol,omitzero"`
}

// ColorStop is one [position, color] pair of a continuous color scale.
type ColorStop struct {
	Pos   float64
	Color string
}

func (c ColorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Pos, c.Color})
}

func (c *ColorStop) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &c.Pos); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &c.Color)
}

type Layout struct {
	Title        *Title       `json:"title,omitzero"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	PlotBgColor  string       `json:"plot_bgcolor,omitzero"`
	PaperBgColor string       `json:"paper_bgcolor,omitzero"`
	Font         *Font        `json:"font,omitzero"`
	Margin       *Margin      `json:"margin,omitzero"`
	ShowLegend   *bool        `json:"showlegend,omitzero"`
	Legend       *Legend      `json:"legend,omitzero"`
	XAxis        *Axis        `json:"xaxis,omitzero"`
	YAxis        *Axis        `json:"yaxis,omitzero"`
	Geo          *Geo         `json:"geo,omitzero"`
	Annotations  []Annotation `json:"annotations,omitzero"`
	UpdateMenus  []UpdateMenu `json:"updatemenus,omitzero"`
	Sliders      []Slider     `json:"sliders,omitzero"`
}

type Title struct {
	Text string  `json:"text"`
	X    float64 `json:"x,omitzero"`
	Y    float64 `json:"y,omitzero"`
	Font *Font   `json:"font,omitzero"`
}

type Font struct {
	Size   float64 `json:"size,omitzero"`
	Color  string  `json:"color,omitzero"`
	Family string  `json:"family,omitzero"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type Pad struct {
	R int `json:"r,omitzero"`
	T int `json:"t,omitzero"`
	B int `json:"b,omitzero"`
}

type Legend struct {
	Orientation string  `json:"orientation,omitzero"`
	XAnchor     string  `json:"xanchor,omitzero"`
	YAnchor     string  `json:"yanchor,omitzero"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	BgColor     string  `json:"bgcolor,omitzero"`
	BorderWidth float64 `json:"borderwidth,omitzero"`
}

type Axis struct {
	Title     *Title    `json:"title,omitzero"`
	ShowGrid  bool      `json:"showgrid"`
	GridColor string    `json:"gridcolor,omitzero"`
	LineColor string    `json:"linecolor,omitzero"`
	TickFont  *Font     `json:"tickfont,omitzero"`
	Range     []float64 `json:"range,omitzero"`
	DTick     float64   `json:"dtick,omitzero"`
	RangeMode string    `json:"rangemode,omitzero"`
}

type Geo struct {
	ShowFrame      bool          `json:"showframe"`
	ShowCoastlines bool          `json:"showcoastlines"`
	ShowLand       bool          `json:"showland"`
	LandColor      string        `json:"landcolor,omitzero"`
	CoastlineColor string        `json:"coastlinecolor,omitzero"`
	Projection     GeoProjection `json:"projection"`
	Domain         *Domain       `json:"domain,omitzero"`
}

type GeoProjection struct {
	Type string `json:"type"`
}

type Domain struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
}

type Annotation struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	XRef        string  `json:"xref"`
	YRef        string  `json:"yref"`
	XAnchor     string  `json:"xanchor"`
	Text        string  `json:"text"`
	ShowArrow   bool    `json:"showarrow"`
	Align       string  `json:"align,omitzero"`
	Font        *Font   `json:"font,omitzero"`
	BgColor     string  `json:"bgcolor,omitzero"`
	BorderWidth float64 `json:"borderwidth,omitzero"`
}

type UpdateMenu struct {
	Type        string   `json:"type"`
	Direction   string   `json:"direction"`
	Buttons     []Button `json:"buttons"`
	Pad         Pad      `json:"pad"`
	ShowActive  bool     `json:"showactive"`
	X           float64  `json:"x"`
	XAnchor     string   `json:"xanchor"`
	Y           float64  `json:"y"`
	YAnchor     string   `json:"yanchor"`
	BgColor     string   `json:"bgcolor,omitzero"`
	BorderColor string   `json:"bordercolor,omitzero"`
	BorderWidth float64  `json:"borderwidth,omitzero"`
	Font        *Font    `json:"font,omitzero"`
}

type Button struct {
	Label  string      `json:"label"`
	Method string      `json:"method"`
	Args   AnimateArgs `json:"args"`
}

type Slider struct {
	Active       int          `json:"active"`
	XAnchor      string       `json:"xanchor"`
	YAnchor      string       `json:"yanchor"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Len          float64      `json:"len"`
	Pad          Pad          `json:"pad"`
	CurrentValue CurrentValue `json:"currentvalue"`
	Transition   Transition   `json:"transition"`
	Steps        []SliderStep `json:"steps"`
	BgColor      string       `json:"bgcolor,omitzero"`
	BorderColor  string       `json:"bordercolor,omitzero"`
	BorderWidth  float64      `json:"borderwidth,omitzero"`
	TickColor    string       `json:"tickcolor,omitzero"`
}

type CurrentValue struct {
	Font    *Font  `json:"font,omitzero"`
	Prefix  string `json:"prefix"`
	Visible bool   `json:"visible"`
	XAnchor string `json:"xanchor"`
}

type SliderStep struct {
	Label  string      `json:"label"`
	Method string      `json:"method"`
	Args   AnimateArgs `json:"args"`
}

type FrameOptions struct {
	Duration int  `json:"duration"`
	Redraw   bool `json:"redraw"`
}

type Transition struct {
	Duration int    `json:"duration"`
	Easing   string `json:"easing,omitzero"`
}

type AnimationOptions struct {
	Frame       FrameOptions `json:"frame"`
	FromCurrent bool         `json:"fromcurrent,omitzero"`
	Transition  Transition   `json:"transition"`
	Mode        string       `json:"mode"`
}

// AnimateArgs is the argument pair of an "animate" method call. It
// marshals as [target, options] where target is null to play every frame,
// [null] to stop, or the list of frame names to jump to.
type AnimateArgs struct {
	Frames  []string
	Stop    bool
	Options AnimationOptions
}

func (a AnimateArgs) MarshalJSON() ([]byte, error) {
	var target any
	switch {
	case a.Stop:
		target = []any{nil}
	case a.Frames != nil:
		target = a.Frames
	}
	return json.Marshal([2]any{target, a.Options})
}

func (a *AnimateArgs) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = AnimateArgs{}
	if err := json.Unmarshal(raw[1], &a.Options); err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(raw[0]), []byte("null")) {
		return nil
	}
	var target []*string
	if err := json.Unmarshal(raw[0], &target); err != nil {
		return fmt.Errorf("animate target: %w", err)
	}
	if len(target) == 1 && target[0] == nil {
		a.Stop = true
		return nil
	}
	a.Frames = make([]string, 0, len(target))
	for _, s := range target {
		if s != nil {
			a.Frames = append(a.Frames, *s)
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
