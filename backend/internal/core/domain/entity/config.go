package entity

import "time"

// DestructionConfig параметры разрушения зданий
type DestructionConfig struct {
	// PieceMaxHealth - здоровье новой детали
	PieceMaxHealth float64

	// Фрагменты при разрушении детали
	MinFragments        int
	MaxFragments        int
	FragmentMinSize     float64
	FragmentMaxSize     float64
	FragmentMass        float64
	FragmentBrightness  float64 // доля яркости исходного цвета
	FragmentMinImpulse  float64
	FragmentMaxImpulse  float64
	FragmentMaxTorque   float64
	VelocityInheritance float64 // доля скорости детали, добавляемая к импульсу

	// Чанки излома грани
	MinChunks        int
	MaxChunks        int
	ChunkHealthRatio float64
	ChunkMinImpulse  float64
	ChunkMaxImpulse  float64
	ChunkMaxTorque   float64
	ChunkMinMass     float64
	CrackAngleJitter float64
	CrackMinPoints   int
	CrackMaxPoints   int
	CrackOffset      float64
	ArcSamples       int
	RayRadiusFactor  float64
	MergeTolerance   float64

	// Время жизни
	DebrisLifetime    time.Duration
	DestroyedLifetime time.Duration
	MaxDebris         int

	// PickDistance - радиус поиска детали по точке
	PickDistance float64
}

// DefaultDestructionConfig возвращает конфигурацию по умолчанию
func DefaultDestructionConfig() DestructionConfig {
	return DestructionConfig{
		PieceMaxHealth: 100.0,

		MinFragments:        4,
		MaxFragments:        8,
		FragmentMinSize:     0.3,
		FragmentMaxSize:     0.8,
		FragmentMass:        0.5,
		FragmentBrightness:  0.8,
		FragmentMinImpulse:  5,
		FragmentMaxImpulse:  15,
		FragmentMaxTorque:   5,
		VelocityInheritance: 0.5,

		MinChunks:        3,
		MaxChunks:        5,
		ChunkHealthRatio: 0.4,
		ChunkMinImpulse:  15,
		ChunkMaxImpulse:  25,
		ChunkMaxTorque:   10,
		ChunkMinMass:     1.0,
		CrackAngleJitter: 0.4,
		CrackMinPoints:   5,
		CrackMaxPoints:   10,
		CrackOffset:      0.3,
		ArcSamples:       8,
		RayRadiusFactor:  1.5,
		MergeTolerance:   0.01,

		DebrisLifetime:    10 * time.Second,
		DestroyedLifetime: 5 * time.Second,
		MaxDebris:         100,

		PickDistance: 2.0,
	}
}
