package physics

import (
	"context"
	"errors"
	"fmt"
	"time"

	portPhysics "x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/physics"
)

// LocalPhysicsAdapter адаптер к миру физики в том же процессе
type LocalPhysicsAdapter struct {
	world *physics.SimWorld
}

// NewLocalPhysicsAdapter создает адаптер поверх мира
func NewLocalPhysicsAdapter(world *physics.SimWorld) *LocalPhysicsAdapter {
	return &LocalPhysicsAdapter{world: world}
}

// World возвращает мир, с которым работает адаптер
func (a *LocalPhysicsAdapter) World() *physics.SimWorld {
	return a.world
}

func (a *LocalPhysicsAdapter) CreateObject(_ context.Context, req *portPhysics.CreateObjectRequest) (*portPhysics.CreateObjectResponse, error) {
	if err := a.world.AddBody(toBodySpec(req)); err != nil {
		return nil, fmt.Errorf("ошибка при создании объекта %s: %w", req.ID, err)
	}
	return &portPhysics.CreateObjectResponse{ID: req.ID, Status: "ok"}, nil
}

func (a *LocalPhysicsAdapter) RemoveObject(_ context.Context, id string) error {
	return mapError(a.world.RemoveBody(id))
}

func (a *LocalPhysicsAdapter) CreateConstraint(_ context.Context, req *portPhysics.CreateConstraintRequest) (*portPhysics.CreateConstraintResponse, error) {
	err := a.world.AddConstraint(physics.ConstraintSpec{
		ID:                req.ID,
		BodyA:             req.BodyA,
		BodyB:             req.BodyB,
		BreakingThreshold: req.BreakingThreshold,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &portPhysics.CreateConstraintResponse{ID: req.ID, Status: "ok"}, nil
}

func (a *LocalPhysicsAdapter) RemoveConstraint(_ context.Context, id string) error {
	return mapError(a.world.RemoveConstraint(id))
}

func (a *LocalPhysicsAdapter) ApplyImpulse(_ context.Context, req *portPhysics.ApplyImpulseRequest) (*portPhysics.ApplyImpulseResponse, error) {
	if err := a.world.ApplyImpulse(req.ID, req.Direction.Mul(req.Strength)); err != nil {
		return nil, mapError(err)
	}
	return &portPhysics.ApplyImpulseResponse{Status: "ok"}, nil
}

func (a *LocalPhysicsAdapter) ApplyTorque(_ context.Context, req *portPhysics.ApplyTorqueRequest) (*portPhysics.ApplyTorqueResponse, error) {
	if err := a.world.ApplyTorque(req.ID, req.Direction.Mul(req.Strength)); err != nil {
		return nil, mapError(err)
	}
	return &portPhysics.ApplyTorqueResponse{Status: "ok"}, nil
}

func (a *LocalPhysicsAdapter) GetObjectState(_ context.Context, req *portPhysics.GetObjectStateRequest) (*portPhysics.GetObjectStateResponse, error) {
	state, err := a.world.State(req.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return fromBodyState(state), nil
}

func (a *LocalPhysicsAdapter) UpdateObjectMass(_ context.Context, req *portPhysics.UpdateObjectMassRequest) (*portPhysics.UpdateObjectMassResponse, error) {
	if err := a.world.SetMass(req.ID, req.Mass); err != nil {
		return nil, mapError(err)
	}
	return &portPhysics.UpdateObjectMassResponse{Status: "ok"}, nil
}

func (a *LocalPhysicsAdapter) SetObjectActive(_ context.Context, id string, active bool) error {
	return mapError(a.world.SetActive(id, active))
}

func (a *LocalPhysicsAdapter) SetObjectMotion(_ context.Context, req *portPhysics.SetObjectMotionRequest) error {
	return mapError(a.world.SetMotion(req.ID, req.Rotation, req.Velocity, req.AngularVelocity))
}

// Step продвигает симуляцию
func (a *LocalPhysicsAdapter) Step(_ context.Context, dt time.Duration) error {
	a.world.Step(dt.Seconds())
	return nil
}

func (a *LocalPhysicsAdapter) Close() error {
	return nil
}

// mapError переводит ошибки мира в ошибки порта
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, physics.ErrBodyNotFound):
		return fmt.Errorf("%w: %v", portPhysics.ErrObjectNotFound, err)
	case errors.Is(err, physics.ErrConstraintNotFound):
		return fmt.Errorf("%w: %v", portPhysics.ErrConstraintNotFound, err)
	}
	return err
}
