package entity

import "github.com/go-gl/mathgl/mgl64"

// Face одна из шести осевых граней бокса
type Face int

const (
	FaceXPos Face = iota
	FaceXNeg
	FaceYPos
	FaceYNeg
	FaceZPos
	FaceZNeg
)

var faceLabels = [...]string{"x+", "x-", "y+", "y-", "z+", "z-"}

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceLabels) {
		return "?"
	}
	return faceLabels[f]
}

// Axis индекс оси, перпендикулярной грани
func (f Face) Axis() int {
	return int(f) / 2
}

// Sign +1 для положительных граней, -1 для отрицательных
func (f Face) Sign() float64 {
	if int(f)%2 == 0 {
		return 1
	}
	return -1
}

// Normal внешняя нормаль грани
func (f Face) Normal() mgl64.Vec3 {
	var n mgl64.Vec3
	n[f.Axis()] = f.Sign()
	return n
}

// FractureDescriptor описывает, из какого сектора какой грани вырезан чанк
type FractureDescriptor struct {
	HitFace     Face
	DepthAxis   int
	Impact      mgl64.Vec2 // точка удара в плоскости грани
	FaceWidth   float64
	FaceHeight  float64
	StartAngle  float64
	EndAngle    float64
	ChunkIndex  int
	TotalChunks int
}
