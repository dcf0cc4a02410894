package service

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/port/out/physics"
)

// PieceSnapshot состояние детали для отрисовки и сохранения
type PieceSnapshot struct {
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	Position        mgl64.Vec3        `json:"position"`
	Rotation        mgl64.Quat        `json:"rotation"`
	Size            mgl64.Vec3        `json:"size"`
	Color           mgl64.Vec4        `json:"color"`
	Tint            mgl64.Vec4        `json:"tint"`
	Mass            float64           `json:"mass"`
	Health          float64           `json:"health"`
	MaxHealth       float64           `json:"max_health"`
	Dynamic         bool              `json:"dynamic"`
	Destroyed       bool              `json:"destroyed"`
	Velocity        mgl64.Vec3        `json:"velocity"`
	AngularVelocity mgl64.Vec3        `json:"angular_velocity"`
	Openings        []entity.Opening  `json:"openings,omitempty"`
	Roof            *entity.RoofStyle `json:"roof,omitempty"`
}

// ConnectionSnapshot одно ребро графа связей
type ConnectionSnapshot struct {
	A         string  `json:"a"`
	B         string  `json:"b"`
	Threshold float64 `json:"threshold"`
}

// BuildingSnapshot состояние здания вместе с графом связей
type BuildingSnapshot struct {
	Name        string               `json:"name"`
	Position    mgl64.Vec3           `json:"position"`
	Pieces      []PieceSnapshot      `json:"pieces"`
	Connections []ConnectionSnapshot `json:"connections"`
}

// Snapshot снимает состояние здания. Поворот и скорости динамических
// деталей берутся из физики, недоступное тело дает нулевые скорости.
func (b *Building) Snapshot(ctx context.Context) BuildingSnapshot {
	snap := BuildingSnapshot{
		Name:        b.Name,
		Position:    b.Position,
		Pieces:      make([]PieceSnapshot, 0, len(b.byName)),
		Connections: make([]ConnectionSnapshot, 0),
	}

	for _, p := range b.pieces {
		if p == nil {
			continue
		}
		ps := PieceSnapshot{
			Name:      p.Name,
			Type:      p.Type.String(),
			Position:  p.Position,
			Rotation:  mgl64.QuatIdent(),
			Size:      p.Size,
			Color:     p.Color,
			Tint:      p.Tint,
			Mass:      p.Mass,
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Dynamic:   p.Dynamic,
			Destroyed: p.Destroyed,
			Openings:  p.Openings,
			Roof:      p.Roof,
		}
		if p.Dynamic {
			state, err := b.physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: b.bodyID(p.Name)})
			if err == nil {
				ps.Position = state.Position
				ps.Rotation = state.Rotation
				ps.Velocity = state.Velocity
				ps.AngularVelocity = state.AngularVelocity
			}
		}
		snap.Pieces = append(snap.Pieces, ps)

		for _, e := range p.Edges {
			// каждое ребро записано у обеих деталей, берем один раз
			if e.Peer < p.ID {
				continue
			}
			peer := b.Piece(e.Peer)
			if peer == nil {
				continue
			}
			snap.Connections = append(snap.Connections, ConnectionSnapshot{
				A:         p.Name,
				B:         peer.Name,
				Threshold: e.Threshold,
			})
		}
	}
	return snap
}
