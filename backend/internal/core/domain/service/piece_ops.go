package service

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/port/out/physics"
)

// TakeDamage наносит урон детали. Фундамент и разрушенные детали урон
// не получают. Цвет детали обновляется при каждом попадании.
// Возвращает true, если деталь разрушена этим ударом.
func (b *Building) TakeDamage(ctx context.Context, id entity.PieceID, amount float64, opts DamageOptions) bool {
	piece := b.Piece(id)
	if piece == nil {
		b.logger.Printf("Деталь #%d не найдена в здании %s", id, b.Name)
		return false
	}
	if piece.Destroyed || piece.IsFoundation() {
		return false
	}
	if amount < 0 {
		amount = 0
	}

	destroyed := piece.ApplyDamage(amount)
	if err := b.scene.SetNodeColor(ctx, b.bodyID(piece.Name), piece.Tint); err != nil {
		b.logger.Printf("Ошибка при перекраске %s: %v", piece.Name, err)
	}
	b.observer.PieceDamaged(b.Name, piece.Name, piece.Health, piece.MaxHealth)

	if !destroyed {
		return false
	}

	b.DestroyPiece(ctx, id, opts)
	return true
}

// DestroyPiece разрушает деталь: тело становится динамическим с исходной
// массой, все ограничения детали снимаются с обеих сторон. Созданные
// обломки попадают в пул здания и возвращаются вызывающему.
// Повторный вызов ничего не делает.
func (b *Building) DestroyPiece(ctx context.Context, id entity.PieceID, opts DamageOptions) []*entity.Debris {
	piece := b.Piece(id)
	if piece == nil || piece.Destroyed {
		return nil
	}

	velocity := b.velocity(ctx, b.bodyID(piece.Name))

	piece.Destroyed = true
	piece.DestroyedAt = b.clock()
	b.makeDynamic(ctx, piece)
	b.detach(ctx, piece)

	var debris []*entity.Debris
	switch {
	case piece.Roof != nil && piece.Roof.Curve > 0:
		// изогнутая крыша падает целиком
	case opts.CreateChunks && opts.ImpactPos != nil && piece.Type != entity.PieceChunk:
		debris = b.spawnChunks(ctx, piece, *opts.ImpactPos, velocity)
		b.observer.PieceFractured(b.Name, piece.Name, len(debris))
	case opts.CreateFragments:
		debris = b.spawnFragments(ctx, piece, velocity)
	}

	b.debris.Add(piece.DestroyedAt, debris...)
	b.observer.PieceDestroyed(b.Name, piece.Name, len(debris))
	b.logger.Printf("Деталь %s разрушена, обломков: %d", piece.Name, len(debris))
	return debris
}

// RemovePieceFromWorld убирает деталь из физики, сцены и арены.
// Повторный вызов безопасен.
func (b *Building) RemovePieceFromWorld(ctx context.Context, id entity.PieceID) {
	piece := b.Piece(id)
	if piece == nil {
		return
	}

	b.detach(ctx, piece)

	bodyID := b.bodyID(piece.Name)
	if err := b.physics.RemoveObject(ctx, bodyID); err != nil && !errors.Is(err, physics.ErrObjectNotFound) {
		b.logger.Printf("Ошибка при удалении тела %s: %v", bodyID, err)
	}
	if err := b.scene.RemoveNode(ctx, bodyID); err != nil {
		b.logger.Printf("Ошибка при удалении узла %s: %v", bodyID, err)
	}

	b.pieces[id] = nil
	delete(b.byName, piece.Name)
}

// makeDynamic переводит тело детали в динамику с исходной массой
func (b *Building) makeDynamic(ctx context.Context, piece *entity.Piece) {
	bodyID := b.bodyID(piece.Name)
	_, err := b.physics.UpdateObjectMass(ctx, &physics.UpdateObjectMassRequest{ID: bodyID, Mass: piece.Mass})
	if err != nil {
		b.logger.Printf("Ошибка при обновлении массы %s: %v", bodyID, err)
	}
	if err := b.physics.SetObjectActive(ctx, bodyID, true); err != nil {
		b.logger.Printf("Ошибка при активации %s: %v", bodyID, err)
	}
	piece.Dynamic = true
}

// detach снимает все ограничения детали и убирает ребра у соседей
func (b *Building) detach(ctx context.Context, piece *entity.Piece) {
	for _, e := range piece.Edges {
		err := b.physics.RemoveConstraint(ctx, string(e.Constraint))
		if err != nil && !errors.Is(err, physics.ErrConstraintNotFound) {
			b.logger.Printf("Ошибка при удалении соединения %s: %v", e.Constraint, err)
		}
		if peer := b.Piece(e.Peer); peer != nil {
			peer.RemoveEdge(e.Constraint)
		}
	}
	piece.Edges = nil
}

func (b *Building) velocity(ctx context.Context, bodyID string) mgl64.Vec3 {
	state, err := b.physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: bodyID})
	if err != nil {
		return mgl64.Vec3{}
	}
	return state.Velocity
}
