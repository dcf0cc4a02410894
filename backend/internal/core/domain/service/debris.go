package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/fracture"
	"x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/core/port/out/scene"
)

// spawnFragments разбрасывает мелкие обломки внутри габаритов детали
func (b *Building) spawnFragments(ctx context.Context, piece *entity.Piece, velocity mgl64.Vec3) []*entity.Debris {
	count := b.cfg.MinFragments
	if b.cfg.MaxFragments > b.cfg.MinFragments {
		count += b.rng.IntN(b.cfg.MaxFragments - b.cfg.MinFragments + 1)
	}

	half := piece.HalfExtents()
	color := entity.ScaleColor(piece.Color, b.cfg.FragmentBrightness)
	out := make([]*entity.Debris, 0, count)

	for i := 0; i < count; i++ {
		offset := mgl64.Vec3{
			b.uniform(-half.X(), half.X()),
			b.uniform(-half.Y(), half.Y()),
			b.uniform(-half.Z(), half.Z()),
		}
		size := mgl64.Vec3{
			b.uniform(b.cfg.FragmentMinSize, b.cfg.FragmentMaxSize),
			b.uniform(b.cfg.FragmentMinSize, b.cfg.FragmentMaxSize),
			b.uniform(b.cfg.FragmentMinSize, b.cfg.FragmentMaxSize),
		}

		d := &entity.Debris{
			ID:       b.nextDebrisID(piece.Name),
			Kind:     entity.DebrisFragment,
			Source:   piece.Name,
			Position: piece.Position.Add(offset),
			Size:     size,
			Color:    color,
			Mass:     b.cfg.FragmentMass,
			Lifetime: b.cfg.DebrisLifetime,
		}

		_, err := b.physics.CreateObject(ctx, &physics.CreateObjectRequest{
			ID:          d.ID,
			Shape:       physics.ShapeBox,
			Position:    d.Position,
			HalfExtents: size.Mul(0.5),
			Mass:        d.Mass,
			Material:    debrisMaterial,
		})
		if err != nil {
			b.logger.Printf("Ошибка при создании фрагмента %s: %v", d.ID, err)
			continue
		}
		b.attachDebrisNode(ctx, d, scene.NodeFragment, nil)

		dir := mgl64.Vec3{0, 0, 1}
		if offset.Len() > 0.1 {
			dir = offset.Normalize()
		}
		impulse := dir.Mul(b.uniform(b.cfg.FragmentMinImpulse, b.cfg.FragmentMaxImpulse))
		b.push(ctx, d.ID, impulse, velocity, b.cfg.FragmentMaxTorque)

		out = append(out, d)
	}
	return out
}

// spawnChunks раскалывает пораженную грань на клинья и запускает их от точки удара
func (b *Building) spawnChunks(ctx context.Context, piece *entity.Piece, impact, velocity mgl64.Vec3) []*entity.Debris {
	local := impact.Sub(piece.Position)
	plan := fracture.Plan(b.rng, piece.Size, local, fracture.ParamsFromConfig(b.cfg))
	if len(plan) == 0 {
		return nil
	}

	mass := math.Max(piece.Mass/float64(len(plan)), b.cfg.ChunkMinMass)
	health := piece.MaxHealth * b.cfg.ChunkHealthRatio
	out := make([]*entity.Debris, 0, len(plan))

	for i := range plan {
		c := &plan[i]
		lo, hi := fracture.Bounds(c.Hull)
		desc := c.Descriptor

		d := &entity.Debris{
			ID:        b.nextDebrisID(piece.Name),
			Kind:      entity.DebrisChunk,
			Source:    piece.Name,
			Position:  piece.Position.Add(c.Center),
			Size:      hi.Sub(lo),
			Color:     entity.ScaleColor(piece.Tint, b.uniform(0.75, 0.95)),
			Mass:      mass,
			Lifetime:  b.cfg.DebrisLifetime,
			Health:    health,
			MaxHealth: health,
			Fracture:  &desc,
			Hull:      c.Hull,
		}

		_, err := b.physics.CreateObject(ctx, &physics.CreateObjectRequest{
			ID:         d.ID,
			Shape:      physics.ShapeConvexHull,
			Position:   d.Position,
			HullPoints: c.Hull,
			Mass:       mass,
			Material:   debrisMaterial,
		})
		if err != nil {
			b.logger.Printf("Ошибка при создании чанка %s: %v", d.ID, err)
			continue
		}
		b.attachDebrisNode(ctx, d, scene.NodeChunk, &scene.Mesh{
			Vertices:  c.Mesh.Vertices,
			Normals:   c.Mesh.Normals,
			Triangles: c.Mesh.Triangles,
		})

		dir := c.Center.Sub(local)
		if dir.Len() > 1e-6 {
			dir = dir.Normalize()
		} else {
			dir = desc.HitFace.Normal()
		}
		impulse := dir.Mul(b.uniform(b.cfg.ChunkMinImpulse, b.cfg.ChunkMaxImpulse))
		b.push(ctx, d.ID, impulse, velocity, b.cfg.ChunkMaxTorque)

		out = append(out, d)
	}
	return out
}

// DamageDebris наносит урон чанку из пула здания. Фрагменты урон не
// получают. Добитый чанк убирается из мира без новых обломков.
// Возвращает true, если чанк уничтожен.
func (b *Building) DamageDebris(ctx context.Context, id string, amount float64) bool {
	d := b.debris.Get(id)
	if d == nil {
		b.logger.Printf("Обломок %s не найден в здании %s", id, b.Name)
		return false
	}
	if d.Kind != entity.DebrisChunk {
		return false
	}

	if !d.ApplyDamage(amount) {
		if err := b.scene.SetNodeColor(ctx, d.ID, entity.DamagedColor(d.Color, d.HealthRatio())); err != nil {
			b.logger.Printf("Ошибка при перекраске %s: %v", d.ID, err)
		}
		return false
	}

	b.debris.Remove(id)
	b.removeDebris(ctx, d)
	b.observer.PieceDestroyed(b.Name, d.ID, 0)
	return true
}

// push применяет импульс с долей скорости разрушенной детали и случайный момент
func (b *Building) push(ctx context.Context, id string, impulse, velocity mgl64.Vec3, maxTorque float64) {
	if velocity.Len() > 0.1 {
		impulse = impulse.Add(velocity.Mul(b.cfg.VelocityInheritance))
	}
	if l := impulse.Len(); l > 0 {
		_, err := b.physics.ApplyImpulse(ctx, &physics.ApplyImpulseRequest{
			ID:        id,
			Direction: impulse.Mul(1 / l),
			Strength:  l,
		})
		if err != nil {
			b.logger.Printf("Ошибка при применении импульса к %s: %v", id, err)
		}
	}

	torque := mgl64.Vec3{
		b.uniform(-maxTorque, maxTorque),
		b.uniform(-maxTorque, maxTorque),
		b.uniform(-maxTorque, maxTorque),
	}
	if l := torque.Len(); l > 0 {
		_, err := b.physics.ApplyTorque(ctx, &physics.ApplyTorqueRequest{
			ID:        id,
			Direction: torque.Mul(1 / l),
			Strength:  l,
		})
		if err != nil {
			b.logger.Printf("Ошибка при применении момента к %s: %v", id, err)
		}
	}
}

func (b *Building) attachDebrisNode(ctx context.Context, d *entity.Debris, kind scene.NodeKind, mesh *scene.Mesh) {
	err := b.scene.AttachNode(ctx, &scene.Node{
		ID:       d.ID,
		Kind:     kind,
		Position: d.Position,
		Size:     d.Size,
		Color:    d.Color,
		Mesh:     mesh,
	})
	if err != nil {
		b.logger.Printf("Ошибка при добавлении узла %s: %v", d.ID, err)
	}
}

func (b *Building) removeDebris(ctx context.Context, d *entity.Debris) {
	removeDebris(ctx, b.physics, b.scene, b.logger, d)
}

func (b *Building) nextDebrisID(source string) string {
	b.debrisSeq++
	return fmt.Sprintf("%s/%s~%d", b.Name, source, b.debrisSeq)
}

func (b *Building) uniform(lo, hi float64) float64 {
	return lo + b.rng.Float64()*(hi-lo)
}

// removeDebris удаляет тело и узел обломка; уже удаленное тело не ошибка
func removeDebris(ctx context.Context, p physics.PhysicsPort, s scene.ScenePort, logger *log.Logger, d *entity.Debris) {
	if err := p.RemoveObject(ctx, d.ID); err != nil && !errors.Is(err, physics.ErrObjectNotFound) {
		logger.Printf("Ошибка при удалении обломка %s: %v", d.ID, err)
	}
	if err := s.RemoveNode(ctx, d.ID); err != nil {
		logger.Printf("Ошибка при удалении узла %s: %v", d.ID, err)
	}
}
