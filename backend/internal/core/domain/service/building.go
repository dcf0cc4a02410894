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
	"x-rubble/backend/internal/core/port/out/scene"
)

// Материалы тел, как их настраивает физический мир для деталей и обломков
var (
	pieceMaterial = physics.Material{
		Friction:       0.9,
		Restitution:    0.05,
		LinearDamping:  0.8,
		AngularDamping: 0.9,
	}
	debrisMaterial = physics.Material{
		Friction:       0.8,
		Restitution:    0.2,
		LinearDamping:  0.5,
		AngularDamping: 0.6,
	}
)

// DamageOptions что создавать при разрушении детали
type DamageOptions struct {
	CreateFragments bool
	// CreateChunks раскалывает пораженную грань на клинья вместо фрагментов.
	// Требует ImpactPos.
	CreateChunks bool
	ImpactPos    *mgl64.Vec3
}

// Deps внешние зависимости здания
type Deps struct {
	Physics  physics.PhysicsPort
	Scene    scene.ScenePort
	Config   entity.DestructionConfig
	Rand     *rand.Rand
	Logger   *log.Logger
	Observer BuildingObserver
	Clock    func() time.Time
}

// Building владеет деталями, графом связей и пулом обломков.
// Детали лежат в арене: индекс детали (PieceID) стабилен, удаленная
// деталь оставляет пустой слот.
type Building struct {
	Name     string
	Position mgl64.Vec3

	physics  physics.PhysicsPort
	scene    scene.ScenePort
	cfg      entity.DestructionConfig
	rng      *rand.Rand
	logger   *log.Logger
	observer BuildingObserver
	clock    func() time.Time

	pieces []*entity.Piece
	byName map[string]entity.PieceID
	debris *entity.DebrisPool

	constraintSeq int
	debrisSeq     int
}

// NewBuilding создает пустое здание
func NewBuilding(name string, position mgl64.Vec3, deps Deps) *Building {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Writer(), "[Building] ", log.LstdFlags)
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

	return &Building{
		Name:     name,
		Position: position,
		physics:  deps.Physics,
		scene:    deps.Scene,
		cfg:      deps.Config,
		rng:      deps.Rand,
		logger:   deps.Logger,
		observer: deps.Observer,
		clock:    deps.Clock,
		pieces:   make([]*entity.Piece, 0),
		byName:   make(map[string]entity.PieceID),
		debris:   entity.NewDebrisPool(),
	}
}

// AddPiece добавляет статичную деталь в здание, физический мир и сцену
func (b *Building) AddPiece(ctx context.Context, spec entity.PieceSpec) (entity.PieceID, error) {
	if spec.Name == "" {
		return 0, fmt.Errorf("%w: пустое имя", ErrInvalidPiece)
	}
	if spec.Size.X() <= 0 || spec.Size.Y() <= 0 || spec.Size.Z() <= 0 {
		return 0, fmt.Errorf("%w: размер %v у %s", ErrInvalidPiece, spec.Size, spec.Name)
	}
	if _, ok := b.byName[spec.Name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrPieceExists, spec.Name)
	}
	// без массы разрушенная деталь осталась бы висеть статичной
	if spec.Type != entity.PieceFoundation && spec.Mass <= 0 {
		return 0, fmt.Errorf("%w: масса %v у %s", ErrInvalidPiece, spec.Mass, spec.Name)
	}
	if spec.Building == "" {
		spec.Building = b.Name
	}

	id := entity.PieceID(len(b.pieces))
	piece := entity.NewPiece(id, spec, b.cfg.PieceMaxHealth)

	_, err := b.physics.CreateObject(ctx, &physics.CreateObjectRequest{
		ID:          b.bodyID(piece.Name),
		Shape:       physics.ShapeBox,
		Position:    piece.Position,
		HalfExtents: piece.HalfExtents(),
		Mass:        0,
		Material:    pieceMaterial,
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании тела детали %s: %w", piece.Name, err)
	}

	node := &scene.Node{
		ID:       b.bodyID(piece.Name),
		Kind:     scene.NodePiece,
		Position: piece.Position,
		Size:     piece.Size,
		Color:    piece.Tint,
	}
	for _, o := range piece.Openings {
		node.Openings = append(node.Openings, scene.Opening(o))
	}
	if piece.Roof != nil {
		node.Curve = piece.Roof.Curve
	}
	if err := b.scene.AttachNode(ctx, node); err != nil {
		b.logger.Printf("Ошибка при добавлении узла %s: %v", node.ID, err)
	}

	b.pieces = append(b.pieces, piece)
	b.byName[piece.Name] = id
	return id, nil
}

// ConnectPieces соединяет две детали жестким ограничением.
// Отсутствующая деталь - ошибка конфигурации: пишем в лог и возвращаем false.
func (b *Building) ConnectPieces(ctx context.Context, nameA, nameB string, threshold float64) bool {
	a := b.PieceByName(nameA)
	c := b.PieceByName(nameB)
	if a == nil || c == nil {
		b.logger.Printf("Не удалось соединить %s и %s: деталь не найдена", nameA, nameB)
		return false
	}
	if a.ID == c.ID {
		b.logger.Printf("Деталь %s не может быть соединена сама с собой", nameA)
		return false
	}
	if a.Destroyed || c.Destroyed {
		b.logger.Printf("Не удалось соединить %s и %s: деталь разрушена", nameA, nameB)
		return false
	}

	b.constraintSeq++
	cid := entity.ConstraintID(fmt.Sprintf("%s/%s+%s#%d", b.Name, a.Name, c.Name, b.constraintSeq))

	_, err := b.physics.CreateConstraint(ctx, &physics.CreateConstraintRequest{
		ID:                string(cid),
		BodyA:             b.bodyID(a.Name),
		BodyB:             b.bodyID(c.Name),
		BreakingThreshold: threshold,
	})
	if err != nil {
		b.logger.Printf("Ошибка при создании соединения %s: %v", cid, err)
		return false
	}

	a.AddEdge(c.ID, cid, threshold)
	c.AddEdge(a.ID, cid, threshold)
	return true
}

// DamagePiece наносит урон детали по имени. Если деталь разрушена,
// проверяется устойчивость всего здания.
func (b *Building) DamagePiece(ctx context.Context, name string, amount float64, opts DamageOptions) bool {
	piece := b.PieceByName(name)
	if piece == nil {
		b.logger.Printf("Деталь %s не найдена в здании %s", name, b.Name)
		return false
	}

	if !b.TakeDamage(ctx, piece.ID, amount, opts) {
		return false
	}
	b.CheckStability(ctx)
	return true
}

// Piece возвращает деталь по индексу или nil
func (b *Building) Piece(id entity.PieceID) *entity.Piece {
	if id < 0 || int(id) >= len(b.pieces) {
		return nil
	}
	return b.pieces[id]
}

// PieceByName возвращает деталь по имени или nil
func (b *Building) PieceByName(name string) *entity.Piece {
	id, ok := b.byName[name]
	if !ok {
		return nil
	}
	return b.pieces[id]
}

// Pieces возвращает все детали здания в порядке добавления
func (b *Building) Pieces() []*entity.Piece {
	out := make([]*entity.Piece, 0, len(b.byName))
	for _, p := range b.pieces {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Debris возвращает копию списка обломков здания
func (b *Building) Debris() []*entity.Debris {
	return b.debris.Items()
}

// PieceAt ищет ближайшую неразрушенную деталь в радиусе maxDistance
func (b *Building) PieceAt(position mgl64.Vec3, maxDistance float64) (*entity.Piece, bool) {
	var best *entity.Piece
	bestDist := maxDistance
	for _, p := range b.pieces {
		if p == nil || p.Destroyed {
			continue
		}
		if d := p.Position.Sub(position).Len(); d <= bestDist {
			best = p
			bestDist = d
		}
	}
	return best, best != nil
}

// Update удаляет обломки с истекшим временем жизни и разрушенные детали,
// пролежавшие дольше DestroyedLifetime
func (b *Building) Update(ctx context.Context, now time.Time) {
	expired := b.debris.Sweep(now, b.cfg.MaxDebris)
	for _, d := range expired {
		b.removeDebris(ctx, d)
	}
	if len(expired) > 0 {
		b.observer.DebrisExpired(b.Name, len(expired))
	}

	for _, p := range b.pieces {
		if p == nil || !p.Destroyed {
			continue
		}
		if now.Sub(p.DestroyedAt) > b.cfg.DestroyedLifetime {
			b.RemovePieceFromWorld(ctx, p.ID)
		}
	}
}

// CleanupDestroyedPieces сразу убирает все разрушенные детали
func (b *Building) CleanupDestroyedPieces(ctx context.Context) int {
	removed := 0
	for _, p := range b.pieces {
		if p != nil && p.Destroyed {
			b.RemovePieceFromWorld(ctx, p.ID)
			removed++
		}
	}
	return removed
}

// SyncPositions переносит позиции динамических тел из физики в модель и сцену
func (b *Building) SyncPositions(ctx context.Context) {
	for _, p := range b.pieces {
		if p == nil || !p.Dynamic {
			continue
		}
		state, err := b.physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: b.bodyID(p.Name)})
		if err != nil {
			continue
		}
		p.Position = state.Position
		b.moveNode(ctx, b.bodyID(p.Name), state.Position)
	}

	for _, d := range b.debris.Items() {
		state, err := b.physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: d.ID})
		if err != nil {
			continue
		}
		d.Position = state.Position
		b.moveNode(ctx, d.ID, state.Position)
	}
}

// ReleaseDebris отдает обломки здания вместе с их телами новому владельцу
func (b *Building) ReleaseDebris() []*entity.Debris {
	return b.debris.Drain()
}

// Destroy полностью разбирает здание: снимает все ограничения, удаляет
// тела деталей и все обломки
func (b *Building) Destroy(ctx context.Context) {
	for _, p := range b.pieces {
		if p != nil {
			b.RemovePieceFromWorld(ctx, p.ID)
		}
	}
	for _, d := range b.debris.Drain() {
		b.removeDebris(ctx, d)
	}
	b.logger.Printf("Здание %s разобрано", b.Name)
}

func (b *Building) bodyID(piece string) string {
	return b.Name + "/" + piece
}

func (b *Building) moveNode(ctx context.Context, id string, pos mgl64.Vec3) {
	if err := b.scene.SetNodePosition(ctx, id, pos); err != nil {
		b.logger.Printf("Ошибка при перемещении узла %s: %v", id, err)
	}
}
