package entity

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// PieceType тип детали здания
type PieceType int

const (
	PieceFoundation PieceType = iota
	PieceWall
	PieceRoof
	PieceFloor
	PieceChunk
)

func (t PieceType) String() string {
	switch t {
	case PieceFoundation:
		return "foundation"
	case PieceWall:
		return "wall"
	case PieceRoof:
		return "roof"
	case PieceFloor:
		return "floor"
	case PieceChunk:
		return "chunk"
	}
	return fmt.Sprintf("PieceType(%d)", int(t))
}

// ParsePieceType разбирает строковое имя типа детали
func ParsePieceType(s string) (PieceType, error) {
	switch s {
	case "foundation":
		return PieceFoundation, nil
	case "wall":
		return PieceWall, nil
	case "roof":
		return PieceRoof, nil
	case "floor":
		return PieceFloor, nil
	case "chunk":
		return PieceChunk, nil
	}
	return 0, fmt.Errorf("неизвестный тип детали %q", s)
}

// PieceID индекс детали в арене здания. Индексы не переиспользуются.
type PieceID int

// ConstraintID идентификатор ограничения в физическом мире
type ConstraintID string

// Edge ребро графа связности: соседняя деталь и ограничение между ними
type Edge struct {
	Peer       PieceID
	Constraint ConstraintID
	Threshold  float64
}

// Opening визуальный проем в детали (дверь или окно)
type Opening struct {
	Type   string     `json:"type"`
	Center mgl64.Vec3 `json:"center"` // локальные координаты относительно центра детали
	Size   mgl64.Vec3 `json:"size"`
	Color  mgl64.Vec4 `json:"color"`
}

// RoofStyle параметры изогнутой крыши
type RoofStyle struct {
	Curve float64 `json:"curve"`
	Tier  int     `json:"tier"`
}

// PieceSpec параметры для создания детали
type PieceSpec struct {
	Name     string
	Type     PieceType
	Position mgl64.Vec3
	Size     mgl64.Vec3
	Mass     float64
	Color    mgl64.Vec4
	Building string // если пусто, проставляется зданием при добавлении
	Openings []Opening
	Roof     *RoofStyle
}

// Piece одна жесткая деталь здания
type Piece struct {
	ID       PieceID
	Name     string
	Type     PieceType
	Building string

	Position mgl64.Vec3
	Size     mgl64.Vec3
	Color    mgl64.Vec4 // исходный цвет
	Tint     mgl64.Vec4 // текущий цвет с учетом повреждений

	Mass      float64 // исходная масса, используется при переходе в динамику
	Dynamic   bool
	Health    float64
	MaxHealth float64
	Destroyed bool

	DestroyedAt time.Time

	Edges    []Edge
	Openings []Opening
	Roof     *RoofStyle
}

// NewPiece создает деталь с полным здоровьем. Все детали начинают статичными.
func NewPiece(id PieceID, spec PieceSpec, maxHealth float64) *Piece {
	return &Piece{
		ID:        id,
		Name:      spec.Name,
		Type:      spec.Type,
		Building:  spec.Building,
		Position:  spec.Position,
		Size:      spec.Size,
		Color:     spec.Color,
		Tint:      spec.Color,
		Mass:      spec.Mass,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Openings:  spec.Openings,
		Roof:      spec.Roof,
	}
}

// IsFoundation фундамент никогда не разрушается обычным уроном
func (p *Piece) IsFoundation() bool {
	return p.Type == PieceFoundation
}

// HalfExtents половина размеров бокса
func (p *Piece) HalfExtents() mgl64.Vec3 {
	return p.Size.Mul(0.5)
}

// HealthRatio доля оставшегося здоровья в [0, 1]
func (p *Piece) HealthRatio() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	r := p.Health / p.MaxHealth
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ApplyDamage вычитает урон и пересчитывает оттенок.
// Возвращает true, если здоровье упало до нуля.
func (p *Piece) ApplyDamage(amount float64) bool {
	p.Health -= amount
	p.Tint = DamagedColor(p.Color, p.HealthRatio())
	return p.Health <= 0
}

// AddEdge регистрирует ребро к соседу
func (p *Piece) AddEdge(peer PieceID, constraint ConstraintID, threshold float64) {
	p.Edges = append(p.Edges, Edge{Peer: peer, Constraint: constraint, Threshold: threshold})
}

// RemoveEdge удаляет ребро с заданным ограничением, если оно есть
func (p *Piece) RemoveEdge(constraint ConstraintID) bool {
	for i, e := range p.Edges {
		if e.Constraint == constraint {
			p.Edges = append(p.Edges[:i], p.Edges[i+1:]...)
			return true
		}
	}
	return false
}

// EdgeTo возвращает ребро к соседу
func (p *Piece) EdgeTo(peer PieceID) (Edge, bool) {
	for _, e := range p.Edges {
		if e.Peer == peer {
			return e, true
		}
	}
	return Edge{}, false
}

// DamagedColor обесцвечивает цвет пропорционально здоровью.
// При полном здоровье цвет исходный, при нулевом остается 20% насыщенности.
func DamagedColor(c mgl64.Vec4, healthRatio float64) mgl64.Vec4 {
	gray := 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
	saturation := 0.2 + 0.8*healthRatio
	return mgl64.Vec4{
		gray + (c[0]-gray)*saturation,
		gray + (c[1]-gray)*saturation,
		gray + (c[2]-gray)*saturation,
		c[3],
	}
}

// ScaleColor затемняет RGB, сохраняя альфу
func ScaleColor(c mgl64.Vec4, k float64) mgl64.Vec4 {
	return mgl64.Vec4{c[0] * k, c[1] * k, c[2] * k, c[3]}
}
