package worldmanagement

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
)

// WorldManagementPort определяет интерфейс для управления разрушаемым миром
type WorldManagementPort interface {
	// SpawnBuilding строит здание по чертежу
	SpawnBuilding(ctx context.Context, name string, position mgl64.Vec3, bp entity.Blueprint) (*service.Building, error)

	// RemoveBuilding разбирает здание
	RemoveBuilding(ctx context.Context, name string, keepDebris bool) error

	// DamagePiece наносит урон детали здания
	DamagePiece(ctx context.Context, building, piece string, amount float64, opts service.DamageOptions) (bool, error)

	// Shoot наносит урон детали, ближайшей к точке попадания
	Shoot(ctx context.Context, impact mgl64.Vec3, amount float64) (service.HitResult, bool)

	// Update удаляет просроченные обломки и разрушенные детали
	Update(ctx context.Context, now time.Time)

	// SyncPositions переносит позиции из физики в сцену
	SyncPositions(ctx context.Context)

	// Snapshot снимает состояние всех зданий
	Snapshot(ctx context.Context) []service.BuildingSnapshot

	// RestoreBuilding восстанавливает здание из снимка
	RestoreBuilding(ctx context.Context, snap service.BuildingSnapshot) (*service.Building, error)
}

var _ WorldManagementPort = (*service.WorldService)(nil)
