package fracture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
)

// Frame система координат пораженной грани: ось глубины и две оси плоскости
type Frame struct {
	Face      entity.Face
	DepthAxis int
	UAxis     int
	VAxis     int
	Width     float64 // размер по U
	Height    float64 // размер по V
	Depth     float64 // полная толщина по оси глубины
}

// SelectFace выбирает грань, ближайшую к локальной точке удара
func SelectFace(local, half mgl64.Vec3) Frame {
	best := entity.FaceXPos
	bestDist := math.Inf(1)
	for f := entity.FaceXPos; f <= entity.FaceZNeg; f++ {
		a := f.Axis()
		d := math.Abs(local[a] - f.Sign()*half[a])
		if d < bestDist {
			bestDist = d
			best = f
		}
	}
	return NewFrame(best, half.Mul(2))
}

// NewFrame строит систему координат грани для бокса заданного размера
func NewFrame(face entity.Face, size mgl64.Vec3) Frame {
	depth := face.Axis()
	var u, v int
	switch depth {
	case 0:
		u, v = 1, 2
	case 1:
		u, v = 0, 2
	default:
		u, v = 0, 1
	}
	return Frame{
		Face:      face,
		DepthAxis: depth,
		UAxis:     u,
		VAxis:     v,
		Width:     size[u],
		Height:    size[v],
		Depth:     size[depth],
	}
}

// Bounds прямоугольник грани в ее плоскости, центр в начале координат
func (f Frame) Bounds() Rect {
	return Rect{
		Min: mgl64.Vec2{-f.Width / 2, -f.Height / 2},
		Max: mgl64.Vec2{f.Width / 2, f.Height / 2},
	}
}

// Project проецирует локальную точку на плоскость грани
func (f Frame) Project(local mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{local[f.UAxis], local[f.VAxis]}
}

// Lift возвращает точку плоскости грани на заданной глубине
func (f Frame) Lift(p mgl64.Vec2, depth float64) mgl64.Vec3 {
	var out mgl64.Vec3
	out[f.UAxis] = p[0]
	out[f.VAxis] = p[1]
	out[f.DepthAxis] = depth
	return out
}
