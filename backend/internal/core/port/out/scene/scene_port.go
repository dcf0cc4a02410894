package scene

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// ScenePort определяет интерфейс графа сцены, который рисует клиент
type ScenePort interface {
	// AttachNode добавляет новый узел в сцену
	AttachNode(ctx context.Context, node *Node) error

	// SetNodePosition перемещает узел
	SetNodePosition(ctx context.Context, id string, position mgl64.Vec3) error

	// SetNodeColor заменяет цвет всех вершин узла
	SetNodeColor(ctx context.Context, id string, color mgl64.Vec4) error

	// RemoveNode удаляет узел из сцены
	RemoveNode(ctx context.Context, id string) error
}

// NodeKind тип визуального узла
type NodeKind string

const (
	NodePiece    NodeKind = "piece"
	NodeFragment NodeKind = "fragment"
	NodeChunk    NodeKind = "chunk"
)

// Node описание визуального узла
type Node struct {
	ID       string
	Kind     NodeKind
	Position mgl64.Vec3
	Size     mgl64.Vec3 // полный размер бокса; для чанков не используется
	Color    mgl64.Vec4
	Mesh     *Mesh // только для чанков
	Openings []Opening
	Curve    float64 // изгиб крыши, 0 для плоских деталей
}

// Mesh треугольная сетка в локальных координатах узла
type Mesh struct {
	Vertices  []mgl64.Vec3 `json:"vertices"`
	Normals   []mgl64.Vec3 `json:"normals"`
	Triangles [][3]int     `json:"triangles"`
}

// Opening проем (дверь/окно), рисуется поверх детали
type Opening struct {
	Type   string     `json:"type"`
	Center mgl64.Vec3 `json:"center"`
	Size   mgl64.Vec3 `json:"size"`
	Color  mgl64.Vec4 `json:"color"`
}
