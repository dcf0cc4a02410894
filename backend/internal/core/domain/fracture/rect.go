package fracture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rect осевой прямоугольник в плоскости грани
type Rect struct {
	Min, Max mgl64.Vec2
}

// Clamp прижимает точку к прямоугольнику
func (r Rect) Clamp(p mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		mgl64.Clamp(p[0], r.Min[0], r.Max[0]),
		mgl64.Clamp(p[1], r.Min[1], r.Max[1]),
	}
}

// Contains лежит ли точка внутри или на границе
func (r Rect) Contains(p mgl64.Vec2) bool {
	const eps = 1e-9
	return p[0] >= r.Min[0]-eps && p[0] <= r.Max[0]+eps &&
		p[1] >= r.Min[1]-eps && p[1] <= r.Max[1]+eps
}

// MaxSide длина большей стороны
func (r Rect) MaxSide() float64 {
	return math.Max(r.Max[0]-r.Min[0], r.Max[1]-r.Min[1])
}

// RayExit точка, где луч из origin под углом angle длиной radius выходит из
// прямоугольника. radius должен быть не меньше диагонали, иначе луч может
// закончиться внутри и вернется его конец.
func (r Rect) RayExit(origin mgl64.Vec2, angle, radius float64) mgl64.Vec2 {
	origin = r.Clamp(origin)
	d := mgl64.Vec2{math.Cos(angle) * radius, math.Sin(angle) * radius}

	tExit := 1.0
	for axis := 0; axis < 2; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			continue
		}
		t1 := (r.Min[axis] - origin[axis]) / d[axis]
		t2 := (r.Max[axis] - origin[axis]) / d[axis]
		if t := math.Max(t1, t2); t < tExit {
			tExit = t
		}
	}
	if tExit < 0 {
		tExit = 0
	}

	return r.Clamp(origin.Add(d.Mul(tExit)))
}
