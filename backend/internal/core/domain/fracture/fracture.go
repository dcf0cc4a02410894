// Package fracture режет пораженную грань детали на клиновидные чанки:
// радиальные трещины от точки удара делят грань на секторы, каждый сектор
// выдавливается на всю толщину детали.
package fracture

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
)

// Params параметры излома
type Params struct {
	MinChunks      int
	MaxChunks      int
	AngleJitter    float64
	CrackMinPoints int
	CrackMaxPoints int
	CrackOffset    float64
	ArcSamples     int
	RadiusFactor   float64
	MergeTolerance float64
}

// ParamsFromConfig берет параметры излома из конфигурации разрушения
func ParamsFromConfig(cfg entity.DestructionConfig) Params {
	return Params{
		MinChunks:      cfg.MinChunks,
		MaxChunks:      cfg.MaxChunks,
		AngleJitter:    cfg.CrackAngleJitter,
		CrackMinPoints: cfg.CrackMinPoints,
		CrackMaxPoints: cfg.CrackMaxPoints,
		CrackOffset:    cfg.CrackOffset,
		ArcSamples:     cfg.ArcSamples,
		RadiusFactor:   cfg.RayRadiusFactor,
		MergeTolerance: cfg.MergeTolerance,
	}
}

// Chunk план одного чанка. Center в локальных координатах детали,
// Hull и вершины Mesh относительно Center.
type Chunk struct {
	Descriptor entity.FractureDescriptor
	Polygon    []mgl64.Vec2
	Center     mgl64.Vec3
	Hull       []mgl64.Vec3
	Mesh       Mesh
}

// Plan раскалывает бокс размера size по точке удара localImpact
// (локальные координаты). Секторы с вырожденной геометрией пропускаются,
// поэтому чанков может быть меньше, чем трещин.
func Plan(rng *rand.Rand, size, localImpact mgl64.Vec3, p Params) []Chunk {
	half := size.Mul(0.5)
	frame := SelectFace(localImpact, half)
	bounds := frame.Bounds()
	impact := bounds.Clamp(frame.Project(localImpact))

	n := p.MinChunks
	if p.MaxChunks > p.MinChunks {
		n += rng.IntN(p.MaxChunks - p.MinChunks + 1)
	}
	if n < 1 {
		return nil
	}

	radius := p.RadiusFactor * bounds.MaxSide()
	angles := CrackAngles(rng, n, p.AngleJitter)
	cracks := make([]Crack, n)
	for i, a := range angles {
		cracks[i] = NewCrack(rng, impact, a, radius, p, bounds)
	}

	sectors := Sectors(angles)
	chunks := make([]Chunk, 0, n)
	for i, sector := range sectors {
		start := cracks[i]
		end := cracks[(i+1)%n]
		// последний сектор замыкается на первую трещину через полный оборот
		end.Angle = sector[1]

		poly := Wedge(impact, start, end, p.ArcSamples, radius, bounds, p.MergeTolerance)
		ex, ok := Extrude(poly, frame)
		if !ok {
			continue
		}

		hull := make([]mgl64.Vec3, len(ex.Points))
		for k, pt := range ex.Points {
			hull[k] = pt.Sub(ex.Centroid)
		}
		ex.Mesh.Translate(ex.Centroid.Mul(-1))

		chunks = append(chunks, Chunk{
			Descriptor: entity.FractureDescriptor{
				HitFace:     frame.Face,
				DepthAxis:   frame.DepthAxis,
				Impact:      impact,
				FaceWidth:   frame.Width,
				FaceHeight:  frame.Height,
				StartAngle:  sector[0],
				EndAngle:    sector[1],
				ChunkIndex:  i,
				TotalChunks: n,
			},
			Polygon: poly,
			Center:  ex.Centroid,
			Hull:    hull,
			Mesh:    ex.Mesh,
		})
	}
	return chunks
}

// Bounds габариты набора точек
func Bounds(points []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	if len(points) == 0 {
		return
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		for a := 0; a < 3; a++ {
			if p[a] < lo[a] {
				lo[a] = p[a]
			}
			if p[a] > hi[a] {
				hi[a] = p[a]
			}
		}
	}
	return
}
