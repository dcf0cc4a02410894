package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// PhysicsConfig содержит настройки для физики
type PhysicsConfig struct {
	// Gravity - ускорение свободного падения, ось Z вверх
	Gravity mgl64.Vec3 `json:"gravity"`

	// Substeps - количество подшагов на один шаг симуляции
	Substeps int `json:"substeps"`

	// StepSimulationRate - частота шага симуляции
	StepSimulationRate int `json:"step_simulation_rate"`

	// GroundHeight - высота плоскости земли
	GroundHeight float64 `json:"ground_height"`

	// GroundFriction - трение о землю для скольжения обломков
	GroundFriction float64 `json:"ground_friction"`

	// Restitution - коэффициент отскока по умолчанию
	Restitution float64 `json:"restitution"`

	// Friction - трение по умолчанию
	Friction float64 `json:"friction"`

	// LinearDamping - затухание линейного движения по умолчанию
	LinearDamping float64 `json:"linear_damping"`

	// AngularDamping - затухание углового движения по умолчанию
	AngularDamping float64 `json:"angular_damping"`

	// MaxSpeed - максимальная скорость тела
	MaxSpeed float64 `json:"max_speed"`

	// SleepSpeed - ниже этой скорости тело на земле засыпает
	SleepSpeed float64 `json:"sleep_speed"`
}

// GlobalPhysicsConfig - глобальная конфигурация физики
var GlobalPhysicsConfig *PhysicsConfig
var configMutex sync.RWMutex

// DefaultPhysicsConfig возвращает конфигурацию по умолчанию
func DefaultPhysicsConfig() *PhysicsConfig {
	return &PhysicsConfig{
		Gravity:            mgl64.Vec3{0, 0, -9.81},
		Substeps:           10,
		StepSimulationRate: 60,
		GroundHeight:       0,
		GroundFriction:     0.8,
		Restitution:        0.1,
		Friction:           0.5,
		LinearDamping:      0.0,
		AngularDamping:     0.0,
		MaxSpeed:           150.0,
		SleepSpeed:         0.05,
	}
}

// GetPhysicsConfig возвращает текущую конфигурацию физики
func GetPhysicsConfig() *PhysicsConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if GlobalPhysicsConfig == nil {
		return DefaultPhysicsConfig()
	}

	// Создаем копию, чтобы избежать гонок данных
	config := *GlobalPhysicsConfig
	return &config
}

// SetPhysicsConfig устанавливает новую конфигурацию физики
func SetPhysicsConfig(config *PhysicsConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()

	// Создаем копию для предотвращения гонок данных
	newConfig := *config
	GlobalPhysicsConfig = &newConfig
}
