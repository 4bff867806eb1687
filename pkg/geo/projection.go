package geo

import "math"

// Projector maps lat/lng onto a width x height canvas using an equal-area
// Mollweide projection centred on the canvas.
type Projector struct {
	width, height int
	scale         float64
}

func NewProjector(width, height int, scale float64) *Projector {
	return &Projector{width: width, height: height, scale: scale}
}

// FitProjector returns a projector whose full world fits inside the canvas.
func FitProjector(width, height int) *Projector {
	sx := float64(width) / (4 * math.Sqrt(2))
	sy := float64(height) / (2 * math.Sqrt(2))
	return NewProjector(width, height, math.Min(sx, sy))
}

func (p *Projector) Size() (int, int) {
	return p.width, p.height
}

// Project returns canvas coordinates with y growing downwards.
func (p *Projector) Project(lat, lng float64) (x, y float64) {
	if lat > 89.5 {
		lat = 89.5
	}
	if lat < -89.5 {
		lat = -89.5
	}

	latRad, lngRad := lat*math.Pi/180, lng*math.Pi/180
	theta := latRad
	for i := 0; i < 10; i++ {
		denom := 2 + 2*math.Cos(2*theta)
		if math.Abs(denom) < 1e-9 {
			break
		}
		delta := (2*theta + math.Sin(2*theta) - math.Pi*math.Sin(latRad)) / denom
		theta -= delta
		if math.Abs(delta) < 1e-7 {
			break
		}
	}
	r := p.scale
	x = (float64(p.width) / 2) + r*(2*math.Sqrt(2)/math.Pi)*lngRad*math.Cos(theta)
	y = (float64(p.height) / 2) - r*math.Sqrt(2)*math.Sin(theta)
	return x, y
}
