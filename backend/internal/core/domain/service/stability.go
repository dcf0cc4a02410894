package service

import (
	"context"

	"x-rubble/backend/internal/core/domain/entity"
)

// IsStable проверяет, держится ли деталь: есть ли путь по неразрушенным
// деталям до фундамента. Фундамент и чанки устойчивы всегда.
// visited защищает от циклов графа; nil допустим.
func (b *Building) IsStable(id entity.PieceID, visited map[entity.PieceID]bool) bool {
	piece := b.Piece(id)
	if piece == nil {
		return false
	}

	switch piece.Type {
	case entity.PieceFoundation, entity.PieceChunk:
		return true
	case entity.PieceWall, entity.PieceRoof, entity.PieceFloor:
	}
	if piece.Destroyed {
		return false
	}

	if visited == nil {
		visited = make(map[entity.PieceID]bool)
	}
	visited[id] = true

	for _, e := range piece.Edges {
		if visited[e.Peer] {
			continue
		}
		peer := b.Piece(e.Peer)
		if peer == nil || peer.Destroyed {
			continue
		}
		if b.IsStable(e.Peer, visited) {
			return true
		}
	}
	return false
}

// CheckStability проходит по всем деталям и отпускает в свободное падение
// те, что потеряли связь с фундаментом. Такие детали не считаются
// разрушенными. Возвращает отпущенные детали.
func (b *Building) CheckStability(ctx context.Context) []entity.PieceID {
	var loose []entity.PieceID
	for _, p := range b.pieces {
		if p == nil || p.Destroyed || p.Dynamic {
			continue
		}
		if b.IsStable(p.ID, nil) {
			continue
		}

		b.makeDynamic(ctx, p)
		loose = append(loose, p.ID)
		b.observer.PieceCollapsed(b.Name, p.Name)
	}

	if len(loose) > 0 {
		b.logger.Printf("Здание %s: потеряли опору %d деталей", b.Name, len(loose))
	}
	return loose
}
