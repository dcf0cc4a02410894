package service

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/port/out/physics"
)

// WorldService управляет зданиями мира и обломками, у которых нет здания
type WorldService struct {
	deps      Deps
	buildings map[string]*Building
	order     []string
	unowned   *entity.DebrisPool
}

// NewWorldService создает новый экземпляр сервиса для работы с миром
func NewWorldService(deps Deps) *WorldService {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Writer(), "[WorldService] ", log.LstdFlags)
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &WorldService{
		deps:      deps,
		buildings: make(map[string]*Building),
		unowned:   entity.NewDebrisPool(),
	}
}

// Config конфигурация разрушения, с которой создаются здания
func (s *WorldService) Config() entity.DestructionConfig {
	return s.deps.Config
}

// CreateBuilding создает пустое здание
func (s *WorldService) CreateBuilding(name string, position mgl64.Vec3) (*Building, error) {
	if _, ok := s.buildings[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBuildingExists, name)
	}

	deps := s.deps
	deps.Logger = log.New(s.deps.Logger.Writer(), "[Building] ", s.deps.Logger.Flags())
	b := NewBuilding(name, position, deps)
	s.buildings[name] = b
	s.order = append(s.order, name)
	return b, nil
}

// SpawnBuilding строит здание по чертежу в заданной точке
func (s *WorldService) SpawnBuilding(ctx context.Context, name string, position mgl64.Vec3, bp entity.Blueprint) (*Building, error) {
	b, err := s.CreateBuilding(name, position)
	if err != nil {
		return nil, err
	}

	placed := bp.Translated(position)
	for _, spec := range placed.Pieces {
		if _, err := b.AddPiece(ctx, spec); err != nil {
			s.deps.Logger.Printf("Ошибка при постройке %s: %v", name, err)
			_ = s.RemoveBuilding(ctx, name, false)
			return nil, fmt.Errorf("ошибка при постройке здания %s: %w", name, err)
		}
	}
	for _, c := range placed.Connections {
		b.ConnectPieces(ctx, c.A, c.B, c.Threshold)
	}

	s.deps.Logger.Printf("Построено здание %s (%s): деталей %d, связей %d",
		name, bp.Kind, len(placed.Pieces), len(placed.Connections))
	return b, nil
}

// Building возвращает здание по имени или nil
func (s *WorldService) Building(name string) *Building {
	return s.buildings[name]
}

// Buildings возвращает здания в порядке создания
func (s *WorldService) Buildings() []*Building {
	out := make([]*Building, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.buildings[name])
	}
	return out
}

// RemoveBuilding разбирает здание. С keepDebris обломки здания переходят
// в общий пул и доживают свой срок.
func (s *WorldService) RemoveBuilding(ctx context.Context, name string, keepDebris bool) error {
	b, ok := s.buildings[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBuildingNotFound, name)
	}

	if keepDebris {
		s.unowned.Adopt(b.ReleaseDebris()...)
	}
	b.Destroy(ctx)

	delete(s.buildings, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// DamagePiece наносит урон детали здания
func (s *WorldService) DamagePiece(ctx context.Context, building, piece string, amount float64, opts DamageOptions) (bool, error) {
	b, ok := s.buildings[building]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrBuildingNotFound, building)
	}
	return b.DamagePiece(ctx, piece, amount, opts), nil
}

// HitResult результат выстрела
type HitResult struct {
	Building  string
	Piece     string
	Destroyed bool
}

// Shoot наносит урон ближайшей к точке попадания детали и, если она
// разрушена, раскалывает пораженную грань
func (s *WorldService) Shoot(ctx context.Context, impact mgl64.Vec3, amount float64) (HitResult, bool) {
	var (
		target *Building
		piece  *entity.Piece
		best   = s.deps.Config.PickDistance
	)
	for _, b := range s.Buildings() {
		p, ok := b.PieceAt(impact, best)
		if !ok {
			continue
		}
		target, piece = b, p
		best = p.Position.Sub(impact).Len()
	}
	if piece == nil {
		return HitResult{}, false
	}

	destroyed := target.DamagePiece(ctx, piece.Name, amount, DamageOptions{
		CreateFragments: true,
		CreateChunks:    true,
		ImpactPos:       &impact,
	})
	return HitResult{Building: target.Name, Piece: piece.Name, Destroyed: destroyed}, true
}

// Update обновляет все здания и общий пул обломков
func (s *WorldService) Update(ctx context.Context, now time.Time) {
	for _, b := range s.Buildings() {
		b.Update(ctx, now)
	}

	expired := s.unowned.Sweep(now, s.deps.Config.MaxDebris)
	for _, d := range expired {
		removeDebris(ctx, s.deps.Physics, s.deps.Scene, s.deps.Logger, d)
	}
	if len(expired) > 0 {
		s.deps.Observer.DebrisExpired("", len(expired))
	}
}

// SyncPositions переносит позиции динамических тел в модель и сцену
func (s *WorldService) SyncPositions(ctx context.Context) {
	for _, b := range s.Buildings() {
		b.SyncPositions(ctx)
	}
	for _, d := range s.unowned.Items() {
		state, err := s.deps.Physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: d.ID})
		if err != nil {
			continue
		}
		d.Position = state.Position
		if err := s.deps.Scene.SetNodePosition(ctx, d.ID, state.Position); err != nil {
			s.deps.Logger.Printf("Ошибка при перемещении узла %s: %v", d.ID, err)
		}
	}
}

// UnownedDebris обломки без здания
func (s *WorldService) UnownedDebris() []*entity.Debris {
	return s.unowned.Items()
}

// Snapshot снимает состояние всех зданий
func (s *WorldService) Snapshot(ctx context.Context) []BuildingSnapshot {
	out := make([]BuildingSnapshot, 0, len(s.order))
	for _, b := range s.Buildings() {
		out = append(out, b.Snapshot(ctx))
	}
	return out
}

// RestoreBuilding восстанавливает здание из снимка вместе с графом связей.
// Разрушенные детали не восстанавливаются, их связи тоже.
func (s *WorldService) RestoreBuilding(ctx context.Context, snap BuildingSnapshot) (*Building, error) {
	bp := entity.Blueprint{Kind: "snapshot"}
	for _, ps := range snap.Pieces {
		if ps.Destroyed {
			continue
		}
		pt, err := entity.ParsePieceType(ps.Type)
		if err != nil {
			return nil, fmt.Errorf("ошибка в снимке здания %s: %w", snap.Name, err)
		}
		bp.Pieces = append(bp.Pieces, entity.PieceSpec{
			Name:     ps.Name,
			Type:     pt,
			Position: ps.Position,
			Size:     ps.Size,
			Mass:     ps.Mass,
			Color:    ps.Color,
			Openings: ps.Openings,
			Roof:     ps.Roof,
		})
	}
	for _, c := range snap.Connections {
		bp.Connections = append(bp.Connections, entity.Connection(c))
	}

	// позиции в снимке мировые
	b, err := s.SpawnBuilding(ctx, snap.Name, mgl64.Vec3{}, bp)
	if err != nil {
		return nil, err
	}
	b.Position = snap.Position

	for _, ps := range snap.Pieces {
		p := b.PieceByName(ps.Name)
		if p == nil {
			continue
		}
		if ps.MaxHealth > 0 {
			p.MaxHealth = ps.MaxHealth
			p.Health = ps.Health
			p.Tint = entity.DamagedColor(p.Color, p.HealthRatio())
			if err := s.deps.Scene.SetNodeColor(ctx, b.bodyID(p.Name), p.Tint); err != nil {
				s.deps.Logger.Printf("Ошибка при перекраске %s: %v", p.Name, err)
			}
		}
		if ps.Dynamic {
			b.makeDynamic(ctx, p)
			err := s.deps.Physics.SetObjectMotion(ctx, &physics.SetObjectMotionRequest{
				ID:              b.bodyID(p.Name),
				Rotation:        ps.Rotation,
				Velocity:        ps.Velocity,
				AngularVelocity: ps.AngularVelocity,
			})
			if err != nil {
				s.deps.Logger.Printf("Ошибка при восстановлении движения %s: %v", p.Name, err)
			}
		}
	}
	return b, nil
}
