package dashboard

import (
	"errors"
	"fmt"
)

var ErrUnknownTab = errors.New("unknown tab")

type Tab string

const (
	TabIncome Tab = "income"
	TabMap    Tab = "map"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabIncome, TabMap}

// Descriptor is everything the page needs to render one tab.
type Descriptor struct {
	Tab            Tab      `json:"tab"`
	Label          string   `json:"label"`
	Heading        string   `json:"heading"`
	Description    string   `json:"description"`
	KeyPointsTitle string   `json:"key_points_title"`
	KeyPoints      []string `json:"key_points"`
	Spec           string   `json:"spec"`
	SpecURL        string   `json:"spec_url"`
	GraphHeight    int      `json:"graph_height"`
	Frames         []string `json:"frames,omitempty"`
}

// Content returns the descriptor of tab. The bundle supplies the frame list
// of the map tab and may be nil.
func Content(tab Tab, bundle *Bundle) (Descriptor, error) {
	switch tab {
	case TabIncome:
		return Descriptor{
			Tab:     TabIncome,
			Label:   "Evolución de Casos por Grupo de Ingresos",
			Heading: "Evolución Temporal por Grupo de Ingresos",
			Description: "Este gráfico nos muestra la evolución de los casos de polio per cápita " +
				"para los distintos grupos de países según su nivel de ingresos. Podemos observar " +
				"un impacto desproporcionado en países de menores ingresos y la efectividad " +
				"de las campañas de vacunación globales a lo largo del tiempo.",
			KeyPointsTitle: "Puntos Clave:",
			KeyPoints: []string{
				"Los países de ingresos bajos y medio-bajos han sido los más afectados históricamente.",
				"Se observa una reducción dramática en todos los grupos desde los años 1990s.",
				"Los países de altos ingresos mantienen tasas muy bajas consistentemente.",
				"La tendencia general muestra el éxito de las iniciativas globales de erradicación del polio.",
			},
			Spec:        SpecIncome,
			SpecURL:     "/api/charts/income",
			GraphHeight: 800,
		}, nil
	case TabMap:
		d := Descriptor{
			Tab:     TabMap,
			Label:   "Mapa Interactivo Global",
			Heading: "Mapa Global Interactivo: Vacunación vs. Casos",
			Description: "Este mapa animado combina dos visualizaciones: el color de cada país representa el nivel " +
				"de cobertura de vacunación, mientras que los círculos rojos indican la cantidad " +
				"de casos de polio por millón de habitantes.",
			KeyPointsTitle: "Cómo Interpretar el Mapa:",
			KeyPoints: []string{
				"🟩 Verde: Alta cobertura de vacunación (85%+).",
				"🟨 Amarillo: Cobertura media de vacunación (60-84%).",
				"🟥 Rojo: Baja cobertura de vacunación (<60%).",
				"⭕ Círculos rojos: Casos de polio por millón de habitantes.",
			},
			Spec:        SpecMap,
			SpecURL:     "/api/charts/map",
			GraphHeight: 900,
		}
		if bundle != nil {
			d.Frames = bundle.Map.FrameNames()
		}
		return d, nil
	}
	return Descriptor{}, fmt.Errorf("%q: %w", tab, ErrUnknownTab)
}
