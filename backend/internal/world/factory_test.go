package world

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localphysics "x-rubble/backend/internal/adapter/out/physics"
	"x-rubble/backend/internal/adapter/out/scene"
	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
	"x-rubble/backend/internal/physics"
)

func TestFactoryKinds(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, []string{KindJapanese, KindSimple, KindTest}, f.Kinds())

	_, ok := f.Blueprint("castle")
	assert.False(t, ok)

	bp, ok := f.Blueprint(KindSimple)
	require.True(t, ok)
	assert.Equal(t, KindSimple, bp.Kind)

	// каждый вызов отдает независимый чертеж
	bp.Pieces[0].Name = "changed"
	again, _ := f.Blueprint(KindSimple)
	assert.Equal(t, "foundation", again.Pieces[0].Name)
}

func TestBlueprintsAreConsistent(t *testing.T) {
	f := NewFactory()
	for _, kind := range f.Kinds() {
		t.Run(kind, func(t *testing.T) {
			bp, ok := f.Blueprint(kind)
			require.True(t, ok)

			names := make(map[string]entity.PieceType)
			for _, p := range bp.Pieces {
				_, dup := names[p.Name]
				assert.False(t, dup, "повтор детали %s", p.Name)
				names[p.Name] = p.Type

				assert.True(t, p.Size.X() > 0 && p.Size.Y() > 0 && p.Size.Z() > 0, p.Name)
				assert.GreaterOrEqual(t, p.Position.Z()-p.Size.Z()/2, -1e-9, "%s уходит под землю", p.Name)
				if p.Type == entity.PieceFoundation {
					assert.Zero(t, p.Mass, p.Name)
				} else {
					assert.Positive(t, p.Mass, p.Name)
				}
			}

			for _, c := range bp.Connections {
				assert.Contains(t, names, c.A)
				assert.Contains(t, names, c.B)
				assert.NotEqual(t, c.A, c.B)
				assert.Positive(t, c.Threshold)
			}
		})
	}
}

func TestSimpleBuildingLayout(t *testing.T) {
	bp := SimpleBuilding(Dimensions{Width: 10, Depth: 10, Height: 8})
	require.Len(t, bp.Pieces, 8)
	assert.Len(t, bp.Connections, 6+6+6)

	byName := make(map[string]entity.PieceSpec)
	for _, p := range bp.Pieces {
		byName[p.Name] = p
	}

	left, right, top := byName["wall_front_left"], byName["wall_front_right"], byName["wall_front_top"]
	// дверной проем между половинами передней стены
	gap := (right.Position.X() - right.Size.X()/2) - (left.Position.X() + left.Size.X()/2)
	assert.InDelta(t, 2.5, gap, 1e-9)
	assert.InDelta(t, top.Size.X(), gap, 1e-9)
	assert.InDelta(t, 1.0+8, top.Position.Z()+top.Size.Z()/2, 1e-9)

	roof := byName["roof"]
	assert.Equal(t, entity.PieceRoof, roof.Type)
	assert.Nil(t, roof.Roof)
	assert.InDelta(t, 11.0, roof.Size.X(), 1e-9)

	assert.Len(t, byName["wall_back"].Openings, 2)
	assert.Len(t, byName["wall_left"].Openings, 2)
	assert.Len(t, SimpleBuilding(Dimensions{Width: 6, Depth: 6, Height: 4}).Pieces[5].Openings, 1)
}

func TestJapaneseBuildingRoofTiers(t *testing.T) {
	bp := JapaneseBuilding(Dimensions{Width: 12, Depth: 10, Height: 6})

	var tiers []int
	foundations := 0
	posts := 0
	for _, p := range bp.Pieces {
		switch {
		case p.Roof != nil:
			tiers = append(tiers, p.Roof.Tier)
			assert.Equal(t, entity.PieceRoof, p.Type)
			assert.Greater(t, p.Roof.Curve, 0.0)
		case p.Type == entity.PieceFoundation:
			foundations++
		case len(p.Name) > 5 && p.Name[:5] == "post_":
			posts++
		}
	}
	assert.Equal(t, []int{1, 2, 3}, tiers)
	assert.Equal(t, 2, foundations)
	assert.Equal(t, 4, posts)
}

type testWorld struct {
	svc   *service.WorldService
	scene *scene.WSSceneAdapter
}

func newWorld(t *testing.T) *testWorld {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	w := &testWorld{scene: scene.NewWSSceneAdapter(quiet)}
	w.svc = service.NewWorldService(service.Deps{
		Physics: localphysics.NewLocalPhysicsAdapter(physics.NewSimWorld(physics.DefaultPhysicsConfig(), quiet)),
		Scene:   w.scene,
		Config:  entity.DefaultDestructionConfig(),
		Rand:    rand.New(rand.NewPCG(3, 5)),
		Logger:  quiet,
	})
	return w
}

func destroy(t *testing.T, b *service.Building, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NotNil(t, b.PieceByName(n), n)
		b.DamagePiece(context.Background(), n, 1000, service.DamageOptions{})
	}
}

func TestSimpleBuildingRoofFallsWithoutWalls(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b, err := w.svc.SpawnBuilding(ctx, "house", mgl64.Vec3{10, 0, 0}, SimpleBuilding(Dimensions{Width: 10, Depth: 10, Height: 8}))
	require.NoError(t, err)
	assert.Equal(t, 8, w.scene.NodeCount())

	destroy(t, b, "wall_front_left", "wall_front_right", "wall_front_top", "wall_back", "wall_left")
	assert.False(t, b.PieceByName("roof").Dynamic, "крыша держится на последней стене")

	destroy(t, b, "wall_right")
	assert.True(t, b.PieceByName("roof").Dynamic)
	assert.False(t, b.PieceByName("roof").Destroyed)
	assert.False(t, b.PieceByName("foundation").Destroyed)
}

func TestJapaneseRoofHeldByPosts(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b, err := w.svc.SpawnBuilding(ctx, "temple", mgl64.Vec3{}, JapaneseBuilding(Dimensions{Width: 12, Depth: 10, Height: 6}))
	require.NoError(t, err)

	destroy(t, b, "wall_front_left", "wall_front_right", "wall_front_top", "wall_back", "wall_left", "wall_right")
	for _, roof := range []string{"roof_main", "roof_middle", "roof_upper"} {
		assert.False(t, b.PieceByName(roof).Dynamic, roof)
	}

	destroy(t, b, "post_0", "post_1", "post_2", "post_3")
	for _, roof := range []string{"roof_main", "roof_middle", "roof_upper"} {
		assert.True(t, b.PieceByName(roof).Dynamic, roof)
	}
	assert.False(t, b.PieceByName("platform").Dynamic)
}
