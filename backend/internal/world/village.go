package world

import (
	"context"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
)

// Spawner строит здания по чертежам
type Spawner interface {
	SpawnBuilding(ctx context.Context, name string, position mgl64.Vec3, bp entity.Blueprint) (*service.Building, error)
}

// Placement здание на карте
type Placement struct {
	Name     string
	Kind     string
	Position mgl64.Vec3
}

// Village раскладывает здания сеткой rows x cols с центром в начале координат.
// Типы зданий чередуются по kinds.
func Village(rows, cols int, spacing float64, kinds []string) []Placement {
	if rows <= 0 || cols <= 0 || len(kinds) == 0 {
		return nil
	}

	offsetX := float64(cols-1) * spacing / 2
	offsetY := float64(rows-1) * spacing / 2

	out := make([]Placement, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			kind := kinds[i%len(kinds)]
			out = append(out, Placement{
				Name:     fmt.Sprintf("%s_%d_%d", kind, r, c),
				Kind:     kind,
				Position: mgl64.Vec3{float64(c)*spacing - offsetX, float64(r)*spacing - offsetY, 0},
			})
		}
	}
	return out
}

// Populate строит все здания раскладки. Возвращает число построенных;
// на первой ошибке останавливается.
func (f *Factory) Populate(ctx context.Context, spawner Spawner, placements []Placement) (int, error) {
	built := 0
	for _, p := range placements {
		bp, ok := f.Blueprint(p.Kind)
		if !ok {
			return built, fmt.Errorf("неизвестный тип здания %q для %s", p.Kind, p.Name)
		}
		b, err := spawner.SpawnBuilding(ctx, p.Name, p.Position, bp)
		if err != nil {
			return built, fmt.Errorf("ошибка при постройке %s: %w", p.Name, err)
		}
		built++
		log.Printf("[World] Построено здание %s (%s, деталей: %d) в (%.1f, %.1f)",
			b.Name, p.Kind, len(b.Pieces()), p.Position.X(), p.Position.Y())
	}
	return built, nil
}
