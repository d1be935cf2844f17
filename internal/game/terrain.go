package game

import "math"

// Terrain is the heightmap: one surface y per horizontal pixel. Screen
// coordinates grow downward, so a crater raises sample values.
type Terrain struct {
	points []float64
}

// GenerateTerrain fills width samples with rolling hills. The shape is fixed
// for a given MapConfig; there is no random seed.
func GenerateTerrain(cfg MapConfig) *Terrain {
	t := &Terrain{points: make([]float64, cfg.Width)}
	amp, f := cfg.Amplitude, cfg.Frequency
	for x := range t.points {
		fx := float64(x)
		t.points[x] = cfg.BaseHeight +
			math.Sin(fx*f)*amp +
			math.Sin(fx*f*2)*(amp/2) +
			math.Sin(fx*f*0.5)*(amp/3)
	}
	return t
}

// NewTerrain adopts a literal snapshot, as received from the server.
func NewTerrain(points []float64) *Terrain {
	t := &Terrain{}
	t.SetFromArray(points)
	return t
}

// SetFromArray replaces the samples wholesale with a copy of points.
func (t *Terrain) SetFromArray(points []float64) {
	t.points = append([]float64(nil), points...)
}

// Width is the number of samples.
func (t *Terrain) Width() int { return len(t.points) }

// Points returns a copy of the samples.
func (t *Terrain) Points() []float64 {
	return append([]float64(nil), t.points...)
}

// Height returns the surface at floor(x). Out of range x reads the first
// sample; an empty terrain reads 0.
func (t *Terrain) Height(x float64) float64 {
	if len(t.points) == 0 {
		return 0
	}
	if math.IsNaN(x) {
		return t.points[0]
	}
	i := math.Floor(x)
	if i < 0 || i >= float64(len(t.points)) {
		return t.points[0]
	}
	return t.points[int(i)]
}

// Crater deepens a cosine bowl centred on centerX. Every sample within radius
// gains depthMult * radius * depthFactor * (cos(pi*d/radius)+1)/2; samples
// outside are untouched. Craters stack.
func (t *Terrain) Crater(centerX, radius, depthFactor, depthMult float64) {
	if radius <= 0 || depthMult <= 0 || len(t.points) == 0 || math.IsNaN(centerX) {
		return
	}
	start := max(0, int(math.Floor(centerX-radius)))
	end := min(len(t.points)-1, int(math.Ceil(centerX+radius)))
	for x := start; x <= end; x++ {
		nd := math.Abs(float64(x)-centerX) / radius
		if nd > 1 {
			continue
		}
		bowl := (math.Cos(nd*math.Pi) + 1) / 2
		t.points[x] += depthMult * radius * depthFactor * bowl
	}
}
