package service

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	localphysics "x-rubble/backend/internal/adapter/out/physics"
	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/core/port/out/scene"
	simphysics "x-rubble/backend/internal/physics"
)

// fakeScene запоминает узлы сцены
type fakeScene struct {
	mu      sync.Mutex
	nodes   map[string]*scene.Node
	removed []string
}

func newFakeScene() *fakeScene {
	return &fakeScene{nodes: make(map[string]*scene.Node)}
}

func (s *fakeScene) AttachNode(_ context.Context, node *scene.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := *node
	s.nodes[node.ID] = &n
	return nil
}

func (s *fakeScene) SetNodePosition(_ context.Context, id string, position mgl64.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok {
		n.Position = position
	}
	return nil
}

func (s *fakeScene) SetNodeColor(_ context.Context, id string, color mgl64.Vec4) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok {
		n.Color = color
	}
	return nil
}

func (s *fakeScene) RemoveNode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	s.removed = append(s.removed, id)
	return nil
}

func (s *fakeScene) node(id string) *scene.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

// recordingObserver копит события в порядке поступления
type recordingObserver struct {
	damaged   []string
	destroyed map[string]int
	collapsed []string
	fractured map[string]int
	expired   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{destroyed: map[string]int{}, fractured: map[string]int{}}
}

func (o *recordingObserver) PieceDamaged(_, piece string, _, _ float64) {
	o.damaged = append(o.damaged, piece)
}

func (o *recordingObserver) PieceDestroyed(_, piece string, debris int) {
	o.destroyed[piece] = debris
}

func (o *recordingObserver) PieceCollapsed(_, piece string) {
	o.collapsed = append(o.collapsed, piece)
}

func (o *recordingObserver) PieceFractured(_, piece string, chunks int) {
	o.fractured[piece] = chunks
}

func (o *recordingObserver) DebrisExpired(_ string, count int) {
	o.expired += count
}

// recordingPhysics пропускает вызовы в настоящий мир и запоминает
// итоговые импульсы и моменты по телам
type recordingPhysics struct {
	physics.PhysicsPort

	mu       sync.Mutex
	impulses map[string]mgl64.Vec3
	torques  map[string]mgl64.Vec3
}

func (r *recordingPhysics) ApplyImpulse(ctx context.Context, req *physics.ApplyImpulseRequest) (*physics.ApplyImpulseResponse, error) {
	r.mu.Lock()
	r.impulses[req.ID] = r.impulses[req.ID].Add(req.Direction.Mul(req.Strength))
	r.mu.Unlock()
	return r.PhysicsPort.ApplyImpulse(ctx, req)
}

func (r *recordingPhysics) ApplyTorque(ctx context.Context, req *physics.ApplyTorqueRequest) (*physics.ApplyTorqueResponse, error) {
	r.mu.Lock()
	r.torques[req.ID] = r.torques[req.ID].Add(req.Direction.Mul(req.Strength))
	r.mu.Unlock()
	return r.PhysicsPort.ApplyTorque(ctx, req)
}

func (r *recordingPhysics) impulse(id string) (mgl64.Vec3, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.impulses[id]
	return v, ok
}

func (r *recordingPhysics) torque(id string) (mgl64.Vec3, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.torques[id]
	return v, ok
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// harness мир разрушения поверх настоящей симуляции
type harness struct {
	physics  *localphysics.LocalPhysicsAdapter
	scene    *fakeScene
	observer *recordingObserver
	clock    *fakeClock
	deps     Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	quiet := log.New(io.Discard, "", 0)
	h := &harness{
		physics:  localphysics.NewLocalPhysicsAdapter(simphysics.NewSimWorld(simphysics.DefaultPhysicsConfig(), quiet)),
		scene:    newFakeScene(),
		observer: newRecordingObserver(),
		clock:    &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.deps = Deps{
		Physics:  h.physics,
		Scene:    h.scene,
		Config:   entity.DefaultDestructionConfig(),
		Rand:     rand.New(rand.NewPCG(7, 11)),
		Logger:   quiet,
		Observer: h.observer,
		Clock:    h.clock.Now,
	}
	return h
}

// record подменяет физику зданий, созданных после вызова, записывающей оберткой
func (h *harness) record() *recordingPhysics {
	rec := &recordingPhysics{
		PhysicsPort: h.physics,
		impulses:    make(map[string]mgl64.Vec3),
		torques:     make(map[string]mgl64.Vec3),
	}
	h.deps.Physics = rec
	return rec
}

func (h *harness) world() *simphysics.SimWorld {
	return h.physics.World()
}

func (h *harness) building(t *testing.T, name string, bp entity.Blueprint) *Building {
	t.Helper()
	b := NewBuilding(name, mgl64.Vec3{}, h.deps)
	for _, spec := range bp.Pieces {
		_, err := b.AddPiece(context.Background(), spec)
		require.NoError(t, err)
	}
	for _, c := range bp.Connections {
		require.True(t, b.ConnectPieces(context.Background(), c.A, c.B, c.Threshold))
	}
	return b
}

var stone = mgl64.Vec4{0.6, 0.55, 0.5, 1}

// boxHouse фундамент и четыре стены, каждая стена держится за фундамент
func boxHouse() entity.Blueprint {
	return entity.Blueprint{
		Kind: "box",
		Pieces: []entity.PieceSpec{
			{Name: "foundation", Type: entity.PieceFoundation, Position: mgl64.Vec3{0, 0, 0.25}, Size: mgl64.Vec3{6, 6, 0.5}, Color: stone},
			{Name: "wall_north", Type: entity.PieceWall, Position: mgl64.Vec3{0, 2.9, 1.75}, Size: mgl64.Vec3{6, 0.2, 2.5}, Mass: 50, Color: stone},
			{Name: "wall_south", Type: entity.PieceWall, Position: mgl64.Vec3{0, -2.9, 1.75}, Size: mgl64.Vec3{6, 0.2, 2.5}, Mass: 50, Color: stone},
			{Name: "wall_east", Type: entity.PieceWall, Position: mgl64.Vec3{2.9, 0, 1.75}, Size: mgl64.Vec3{0.2, 6, 2.5}, Mass: 50, Color: stone},
			{Name: "wall_west", Type: entity.PieceWall, Position: mgl64.Vec3{-2.9, 0, 1.75}, Size: mgl64.Vec3{0.2, 6, 2.5}, Mass: 50, Color: stone},
		},
		Connections: []entity.Connection{
			{A: "foundation", B: "wall_north", Threshold: 100},
			{A: "foundation", B: "wall_south", Threshold: 100},
			{A: "foundation", B: "wall_east", Threshold: 100},
			{A: "foundation", B: "wall_west", Threshold: 100},
		},
	}
}

// tower фундамент, стена на нем и крыша, держащаяся только за стену
func tower() entity.Blueprint {
	return entity.Blueprint{
		Kind: "tower",
		Pieces: []entity.PieceSpec{
			{Name: "base", Type: entity.PieceFoundation, Position: mgl64.Vec3{0, 0, 0.25}, Size: mgl64.Vec3{4, 4, 0.5}, Color: stone},
			{Name: "wall", Type: entity.PieceWall, Position: mgl64.Vec3{0, 0, 1.5}, Size: mgl64.Vec3{4, 0.2, 2}, Mass: 40, Color: stone},
			{Name: "roof", Type: entity.PieceRoof, Position: mgl64.Vec3{0, 0, 2.6}, Size: mgl64.Vec3{4, 4, 0.2}, Mass: 30, Color: stone},
		},
		Connections: []entity.Connection{
			{A: "base", B: "wall", Threshold: 100},
			{A: "wall", B: "roof", Threshold: 80},
		},
	}
}
