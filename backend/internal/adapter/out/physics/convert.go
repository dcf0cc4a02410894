package physics

import (
	"context"
	"time"

	portPhysics "x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/physics"
)

// Stepper продвигает симуляцию; оба адаптера его реализуют
type Stepper interface {
	Step(ctx context.Context, dt time.Duration) error
}

var (
	_ portPhysics.PhysicsPort = (*GRPCPhysicsAdapter)(nil)
	_ portPhysics.PhysicsPort = (*LocalPhysicsAdapter)(nil)
	_ Stepper                 = (*GRPCPhysicsAdapter)(nil)
	_ Stepper                 = (*LocalPhysicsAdapter)(nil)
)

func toBodySpec(req *portPhysics.CreateObjectRequest) physics.BodySpec {
	return physics.BodySpec{
		ID:             req.ID,
		Shape:          string(req.Shape),
		Position:       req.Position,
		HalfExtents:    req.HalfExtents,
		HullPoints:     req.HullPoints,
		Mass:           req.Mass,
		Friction:       req.Material.Friction,
		Restitution:    req.Material.Restitution,
		LinearDamping:  req.Material.LinearDamping,
		AngularDamping: req.Material.AngularDamping,
	}
}

func fromBodyState(s physics.BodyState) *portPhysics.GetObjectStateResponse {
	return &portPhysics.GetObjectStateResponse{
		ID:              s.ID,
		Position:        s.Position,
		Rotation:        s.Rotation,
		Velocity:        s.LinearVelocity,
		AngularVelocity: s.AngularVelocity,
		Mass:            s.Mass,
		Active:          s.Active,
	}
}
