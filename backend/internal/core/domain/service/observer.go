package service

// BuildingObserver получает события разрушения здания.
// Вызывается синхронно из потока игрового цикла.
type BuildingObserver interface {
	PieceDamaged(building, piece string, health, maxHealth float64)
	PieceDestroyed(building, piece string, debris int)
	PieceCollapsed(building, piece string)
	PieceFractured(building, piece string, chunks int)
	DebrisExpired(building string, count int)
}

type nopObserver struct{}

func (nopObserver) PieceDamaged(string, string, float64, float64) {}
func (nopObserver) PieceDestroyed(string, string, int)            {}
func (nopObserver) PieceCollapsed(string, string)                 {}
func (nopObserver) PieceFractured(string, string, int)            {}
func (nopObserver) DebrisExpired(string, int)                     {}
