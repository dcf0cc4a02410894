package fracture

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Crack трещина от точки удара до края грани
type Crack struct {
	Angle    float64
	Boundary mgl64.Vec2   // точка выхода на край грани
	Points   []mgl64.Vec2 // промежуточные изломы без концов
}

// CrackAngles n углов трещин: равномерная сетка со смещением в
// [-jitter, jitter]. При jitter < π/n порядок углов сохраняется.
func CrackAngles(rng *rand.Rand, n int, jitter float64) []float64 {
	step := 2 * math.Pi / float64(n)
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = float64(i)*step + uniform(rng, -jitter, jitter)
	}
	return angles
}

// Sectors пары [начало, конец] для каждого сектора. Последний сектор
// замыкается на первый угол плюс полный оборот.
func Sectors(angles []float64) [][2]float64 {
	n := len(angles)
	out := make([][2]float64, n)
	for i := 0; i < n; i++ {
		end := 0.0
		if i == n-1 {
			end = angles[0] + 2*math.Pi
		} else {
			end = angles[i+1]
		}
		out[i] = [2]float64{angles[i], end}
	}
	return out
}

// JaggedCrack строит ломаную трещину от from до to: points промежуточных
// точек со случайным смещением поперек направления, прижатых к грани.
func JaggedCrack(rng *rand.Rand, from, to mgl64.Vec2, points int, offset float64, bounds Rect) []mgl64.Vec2 {
	dir := to.Sub(from)
	perp := mgl64.Vec2{-dir[1], dir[0]}
	if l := perp.Len(); l > 1e-9 {
		perp = perp.Mul(1 / l)
	} else {
		perp = mgl64.Vec2{}
	}

	out := make([]mgl64.Vec2, 0, points)
	for j := 1; j <= points; j++ {
		t := float64(j) / float64(points+1)
		p := from.Add(dir.Mul(t)).Add(perp.Mul(uniform(rng, -offset, offset)))
		out = append(out, bounds.Clamp(p))
	}
	return out
}

// NewCrack трещина под углом angle из точки удара
func NewCrack(rng *rand.Rand, impact mgl64.Vec2, angle, radius float64, p Params, bounds Rect) Crack {
	boundary := bounds.RayExit(impact, angle, radius)
	count := p.CrackMinPoints
	if p.CrackMaxPoints > p.CrackMinPoints {
		count += rng.IntN(p.CrackMaxPoints - p.CrackMinPoints + 1)
	}
	return Crack{
		Angle:    angle,
		Boundary: boundary,
		Points:   JaggedCrack(rng, impact, boundary, count, p.CrackOffset, bounds),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
