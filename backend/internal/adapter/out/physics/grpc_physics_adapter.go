package physics

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	portPhysics "x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/physics"
)

// GRPCPhysicsAdapter адаптер для взаимодействия с физическим сервером через gRPC
type GRPCPhysicsAdapter struct {
	client *physics.PhysicsClient
}

// NewGRPCPhysicsAdapter создает новый адаптер для взаимодействия с физическим сервером
func NewGRPCPhysicsAdapter(ctx context.Context, address string, opts ...grpc.DialOption) (*GRPCPhysicsAdapter, error) {
	client, err := physics.NewPhysicsClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к серверу физики: %w", err)
	}

	adapter := &GRPCPhysicsAdapter{client: client}
	log.Printf("Подключено к серверу физики: %s", address)

	// Сразу после подключения отправляем текущую конфигурацию
	if err := client.ApplyPhysicsConfig(ctx); err != nil {
		log.Printf("Ошибка при обновлении конфигурации физики: %v", err)
	} else {
		log.Printf("Конфигурация физики успешно отправлена на сервер")
	}

	return adapter, nil
}

// GetPhysicsConfig получает конфигурацию физики с сервера
func (a *GRPCPhysicsAdapter) GetPhysicsConfig(ctx context.Context) (*physics.PhysicsConfig, error) {
	resp, err := a.client.GetPhysicsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении конфигурации физики: %w", err)
	}
	return &resp.Config, nil
}

// UpdateServerConfig обновляет конфигурацию физики сервера на основе локальной
func (a *GRPCPhysicsAdapter) UpdateServerConfig(ctx context.Context, newConfig *physics.PhysicsConfig) error {
	physics.SetPhysicsConfig(newConfig)
	return a.client.ApplyPhysicsConfig(ctx)
}

// CreateObject создает объект в физической симуляции
func (a *GRPCPhysicsAdapter) CreateObject(ctx context.Context, req *portPhysics.CreateObjectRequest) (*portPhysics.CreateObjectResponse, error) {
	spec := toBodySpec(req)
	resp, err := a.client.CreateObject(ctx, &spec)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании объекта через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return &portPhysics.CreateObjectResponse{ID: req.ID, Status: resp.Status}, nil
}

// RemoveObject удаляет объект из симуляции
func (a *GRPCPhysicsAdapter) RemoveObject(ctx context.Context, id string) error {
	if _, err := a.client.RemoveObject(ctx, &physics.IDRequest{ID: id}); err != nil {
		return fmt.Errorf("ошибка при удалении объекта через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return nil
}

// CreateConstraint создает жесткое соединение
func (a *GRPCPhysicsAdapter) CreateConstraint(ctx context.Context, req *portPhysics.CreateConstraintRequest) (*portPhysics.CreateConstraintResponse, error) {
	resp, err := a.client.CreateConstraint(ctx, &physics.ConstraintSpec{
		ID:                req.ID,
		BodyA:             req.BodyA,
		BodyB:             req.BodyB,
		BreakingThreshold: req.BreakingThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании соединения через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return &portPhysics.CreateConstraintResponse{ID: req.ID, Status: resp.Status}, nil
}

// RemoveConstraint удаляет соединение
func (a *GRPCPhysicsAdapter) RemoveConstraint(ctx context.Context, id string) error {
	if _, err := a.client.RemoveConstraint(ctx, &physics.IDRequest{ID: id}); err != nil {
		return fmt.Errorf("ошибка при удалении соединения через gRPC: %w", fromStatus(err, portPhysics.ErrConstraintNotFound))
	}
	return nil
}

// ApplyImpulse применяет импульс к объекту
func (a *GRPCPhysicsAdapter) ApplyImpulse(ctx context.Context, req *portPhysics.ApplyImpulseRequest) (*portPhysics.ApplyImpulseResponse, error) {
	resp, err := a.client.ApplyImpulse(ctx, &physics.VectorRequest{
		ID:     req.ID,
		Vector: req.Direction.Mul(req.Strength),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при применении импульса через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return &portPhysics.ApplyImpulseResponse{Status: resp.Status}, nil
}

// ApplyTorque применяет крутящий момент к объекту
func (a *GRPCPhysicsAdapter) ApplyTorque(ctx context.Context, req *portPhysics.ApplyTorqueRequest) (*portPhysics.ApplyTorqueResponse, error) {
	resp, err := a.client.ApplyTorque(ctx, &physics.VectorRequest{
		ID:     req.ID,
		Vector: req.Direction.Mul(req.Strength),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при применении крутящего момента через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return &portPhysics.ApplyTorqueResponse{Status: resp.Status}, nil
}

// GetObjectState получает состояние объекта
func (a *GRPCPhysicsAdapter) GetObjectState(ctx context.Context, req *portPhysics.GetObjectStateRequest) (*portPhysics.GetObjectStateResponse, error) {
	resp, err := a.client.GetObjectState(ctx, &physics.IDRequest{ID: req.ID})
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении состояния объекта через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return fromBodyState(*resp), nil
}

// UpdateObjectMass обновляет массу объекта
func (a *GRPCPhysicsAdapter) UpdateObjectMass(ctx context.Context, req *portPhysics.UpdateObjectMassRequest) (*portPhysics.UpdateObjectMassResponse, error) {
	resp, err := a.client.UpdateObjectMass(ctx, &physics.MassRequest{ID: req.ID, Mass: req.Mass})
	if err != nil {
		return nil, fmt.Errorf("ошибка при обновлении массы через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return &portPhysics.UpdateObjectMassResponse{Status: resp.Status}, nil
}

// SetObjectActive будит или усыпляет тело
func (a *GRPCPhysicsAdapter) SetObjectActive(ctx context.Context, id string, active bool) error {
	if _, err := a.client.SetObjectActive(ctx, &physics.ActiveRequest{ID: id, Active: active}); err != nil {
		return fmt.Errorf("ошибка при активации через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return nil
}

// SetObjectMotion задает поворот и скорости тела
func (a *GRPCPhysicsAdapter) SetObjectMotion(ctx context.Context, req *portPhysics.SetObjectMotionRequest) error {
	_, err := a.client.SetObjectMotion(ctx, &physics.MotionRequest{
		ID:              req.ID,
		Rotation:        req.Rotation,
		LinearVelocity:  req.Velocity,
		AngularVelocity: req.AngularVelocity,
	})
	if err != nil {
		return fmt.Errorf("ошибка при установке движения через gRPC: %w", fromStatus(err, portPhysics.ErrObjectNotFound))
	}
	return nil
}

// Step продвигает удаленную симуляцию
func (a *GRPCPhysicsAdapter) Step(ctx context.Context, dt time.Duration) error {
	if _, err := a.client.Step(ctx, &physics.StepRequest{DT: dt.Seconds()}); err != nil {
		return fmt.Errorf("ошибка шага симуляции через gRPC: %w", err)
	}
	return nil
}

// Close закрывает соединение с физическим сервером
func (a *GRPCPhysicsAdapter) Close() error {
	return a.client.Close()
}

// fromStatus переводит NotFound от сервера в ошибку порта
func fromStatus(err error, notFound error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", notFound, status.Convert(err).Message())
	}
	return err
}
