package physics

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Ошибки физического мира. Домен сравнивает их через errors.Is, чтобы
// повторное удаление тела или ограничения не считалось нарушением инварианта.
var (
	ErrObjectNotFound     = errors.New("physics: object not found")
	ErrConstraintNotFound = errors.New("physics: constraint not found")
)

// PhysicsPort определяет интерфейс для взаимодействия с физическим движком
type PhysicsPort interface {
	// CreateObject создает твердое тело и добавляет его в мир
	CreateObject(ctx context.Context, req *CreateObjectRequest) (*CreateObjectResponse, error)

	// RemoveObject удаляет твердое тело из мира
	RemoveObject(ctx context.Context, id string) error

	// CreateConstraint соединяет два тела жестким 6-DOF ограничением
	CreateConstraint(ctx context.Context, req *CreateConstraintRequest) (*CreateConstraintResponse, error)

	// RemoveConstraint удаляет ограничение из мира
	RemoveConstraint(ctx context.Context, id string) error

	// ApplyImpulse применяет центральный импульс к объекту
	ApplyImpulse(ctx context.Context, req *ApplyImpulseRequest) (*ApplyImpulseResponse, error)

	// ApplyTorque применяет импульс крутящего момента к объекту
	ApplyTorque(ctx context.Context, req *ApplyTorqueRequest) (*ApplyTorqueResponse, error)

	// GetObjectState получает текущее состояние объекта
	GetObjectState(ctx context.Context, req *GetObjectStateRequest) (*GetObjectStateResponse, error)

	// UpdateObjectMass обновляет массу объекта (0 - статичное тело)
	UpdateObjectMass(ctx context.Context, req *UpdateObjectMassRequest) (*UpdateObjectMassResponse, error)

	// SetObjectActive будит или усыпляет тело
	SetObjectActive(ctx context.Context, id string, active bool) error

	// SetObjectMotion задает поворот и скорости тела, например при загрузке
	SetObjectMotion(ctx context.Context, req *SetObjectMotionRequest) error

	// Close закрывает соединение с физическим движком
	Close() error
}

// ShapeType тип формы коллизии
type ShapeType string

const (
	ShapeBox        ShapeType = "box"
	ShapeConvexHull ShapeType = "convex_hull"
)

// Material параметры поверхности и затухания тела
type Material struct {
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
}

// CreateObjectRequest представляет запрос на создание объекта
type CreateObjectRequest struct {
	ID          string
	Shape       ShapeType
	Position    mgl64.Vec3
	HalfExtents mgl64.Vec3   // для ShapeBox
	HullPoints  []mgl64.Vec3 // для ShapeConvexHull, в локальных координатах
	Mass        float64
	Material    Material
}

// CreateObjectResponse представляет ответ на создание объекта
type CreateObjectResponse struct {
	ID     string
	Status string
}

// CreateConstraintRequest запрос на создание жесткого соединения.
// Все линейные и угловые оси заблокированы в нулевом диапазоне.
type CreateConstraintRequest struct {
	ID                string
	BodyA             string
	BodyB             string
	BreakingThreshold float64
}

// CreateConstraintResponse ответ на создание соединения
type CreateConstraintResponse struct {
	ID     string
	Status string
}

// ApplyImpulseRequest представляет запрос на применение импульса.
// Итоговый импульс равен Direction * Strength.
type ApplyImpulseRequest struct {
	ID        string
	Direction mgl64.Vec3
	Strength  float64
}

// ApplyImpulseResponse представляет ответ на применение импульса
type ApplyImpulseResponse struct {
	Status string
}

// ApplyTorqueRequest представляет запрос на применение крутящего момента
type ApplyTorqueRequest struct {
	ID        string
	Direction mgl64.Vec3
	Strength  float64
}

// ApplyTorqueResponse представляет ответ на применение крутящего момента
type ApplyTorqueResponse struct {
	Status string
}

// GetObjectStateRequest представляет запрос на получение состояния объекта
type GetObjectStateRequest struct {
	ID string
}

// GetObjectStateResponse представляет ответ с состоянием объекта
type GetObjectStateResponse struct {
	ID              string
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Mass            float64
	Active          bool
}

// SetObjectMotionRequest поворот и скорости тела. Нулевой кватернион
// означает отсутствие поворота. Статичное тело скорости не принимает.
type SetObjectMotionRequest struct {
	ID              string
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// UpdateObjectMassRequest представляет запрос на обновление массы объекта
type UpdateObjectMassRequest struct {
	ID   string
	Mass float64
}

// UpdateObjectMassResponse представляет ответ на обновление массы объекта
type UpdateObjectMassResponse struct {
	Status string
}
