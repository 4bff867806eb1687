package charts

// Income group colors. Groups not listed use DefaultIncomeColor.
var IncomeColors = map[string]string{
	"Lower middle income": "#162C3F",
	"Low income":          "#2B6387",
	"Upper middle income": "#5EB2D5",
	"High income":         "#A4D5EE",
}

const (
	DefaultIncomeColor = "#5EB2D5"
	PointColor         = "rgba(139, 0, 0, 0.8)"
)

// CoverageScale is the choropleth ramp over Pol3 coverage 0-100.
var CoverageScale = []ColorStop{
	{0, "#D32F2F"},
	{0.25, "#FF7043"},
	{0.5, "#FDD835"},
	{0.75, "#66BB6A"},
	{1, "#2E7D32"},
}

// IncomeColor returns the fill color of an income group.
func IncomeColor(group string) string {
	if c, ok := IncomeColors[group]; ok {
		return c
	}
	return DefaultIncomeColor
}
