package physics

import "github.com/go-gl/mathgl/mgl64"

// Формы коллизии
const (
	ShapeBox        = "box"
	ShapeConvexHull = "convex_hull"
)

// BodySpec описание создаваемого тела
type BodySpec struct {
	ID             string       `json:"id"`
	Shape          string       `json:"shape"`
	Position       mgl64.Vec3   `json:"position"`
	HalfExtents    mgl64.Vec3   `json:"half_extents,omitempty"`
	HullPoints     []mgl64.Vec3 `json:"hull_points,omitempty"`
	Mass           float64      `json:"mass"`
	Friction       float64      `json:"friction"`
	Restitution    float64      `json:"restitution"`
	LinearDamping  float64      `json:"linear_damping"`
	AngularDamping float64      `json:"angular_damping"`
}

// BodyState состояние тела
type BodyState struct {
	ID              string     `json:"id"`
	Position        mgl64.Vec3 `json:"position"`
	Rotation        mgl64.Quat `json:"rotation"`
	LinearVelocity  mgl64.Vec3 `json:"linear_velocity"`
	AngularVelocity mgl64.Vec3 `json:"angular_velocity"`
	Mass            float64    `json:"mass"`
	Active          bool       `json:"active"`
}

// ConstraintSpec жесткое соединение двух тел
type ConstraintSpec struct {
	ID                string  `json:"id"`
	BodyA             string  `json:"body_a"`
	BodyB             string  `json:"body_b"`
	BreakingThreshold float64 `json:"breaking_threshold"`
}

// StatusResponse общий ответ на изменяющие вызовы
type StatusResponse struct {
	Status string `json:"status"`
}

// IDRequest запрос по идентификатору
type IDRequest struct {
	ID string `json:"id"`
}

// VectorRequest импульс или момент для тела
type VectorRequest struct {
	ID     string     `json:"id"`
	Vector mgl64.Vec3 `json:"vector"`
}

// MassRequest новая масса тела
type MassRequest struct {
	ID   string  `json:"id"`
	Mass float64 `json:"mass"`
}

// ActiveRequest пробуждение или усыпление тела
type ActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// MotionRequest поворот и скорости тела
type MotionRequest struct {
	ID              string     `json:"id"`
	Rotation        mgl64.Quat `json:"rotation"`
	LinearVelocity  mgl64.Vec3 `json:"linear_velocity"`
	AngularVelocity mgl64.Vec3 `json:"angular_velocity"`
}

// StepRequest шаг симуляции в секундах
type StepRequest struct {
	DT float64 `json:"dt"`
}

// StepResponse итог шага
type StepResponse struct {
	Time   float64 `json:"time"`
	Bodies int     `json:"bodies"`
}

// ConfigMessage конфигурация физики в запросах и ответах
type ConfigMessage struct {
	Config PhysicsConfig `json:"config"`
}

// Empty пустое сообщение
type Empty struct{}
