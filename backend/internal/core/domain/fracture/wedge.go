package fracture

import "github.com/go-gl/mathgl/mgl64"

// Wedge собирает многоугольник сектора: удар, трещина начала, дуга по краю
// грани и трещина конца в обратном порядке. Точки прижаты к грани,
// совпадающие соседние точки слиты.
func Wedge(impact mgl64.Vec2, start, end Crack, arcSamples int, radius float64, bounds Rect, tolerance float64) []mgl64.Vec2 {
	poly := make([]mgl64.Vec2, 0, 2+len(start.Points)+len(end.Points)+arcSamples)
	poly = append(poly, impact)
	poly = append(poly, start.Points...)

	if arcSamples < 2 {
		arcSamples = 2
	}
	for k := 0; k < arcSamples; k++ {
		t := float64(k) / float64(arcSamples-1)
		angle := start.Angle + (end.Angle-start.Angle)*t
		poly = append(poly, bounds.RayExit(impact, angle, radius))
	}

	for k := len(end.Points) - 1; k >= 0; k-- {
		poly = append(poly, end.Points[k])
	}

	for i := range poly {
		poly[i] = bounds.Clamp(poly[i])
	}
	return Dedupe(poly, tolerance)
}

// Dedupe убирает соседние точки ближе tolerance, включая пару
// последняя-первая
func Dedupe(points []mgl64.Vec2, tolerance float64) []mgl64.Vec2 {
	if len(points) == 0 {
		return points
	}
	out := make([]mgl64.Vec2, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		if p.Sub(out[len(out)-1]).Len() < tolerance {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].Sub(out[0]).Len() < tolerance {
		out = out[:len(out)-1]
	}
	return out
}

// Centroid2 среднее точек многоугольника
func Centroid2(points []mgl64.Vec2) mgl64.Vec2 {
	var c mgl64.Vec2
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points)))
}
