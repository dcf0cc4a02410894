package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/port/out/physics"
)

// checkImpulse проверяет величину импульса и направление вдоль dir.
// Для почти нулевого dir направление не проверяется.
func checkImpulse(t *testing.T, impulse, dir mgl64.Vec3, lo, hi float64) {
	t.Helper()
	l := impulse.Len()
	assert.GreaterOrEqual(t, l, lo-1e-9)
	assert.LessOrEqual(t, l, hi+1e-9)
	if dir.Len() > 1e-3 {
		assert.InDelta(t, 1.0, impulse.Normalize().Dot(dir.Normalize()), 1e-9)
	}
}

func checkTorque(t *testing.T, torque mgl64.Vec3, limit float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.LessOrEqual(t, math.Abs(torque[i]), limit+1e-9)
	}
}

func TestFragmentRanges(t *testing.T) {
	h := newHarness(t)
	rec := h.record()
	b := h.building(t, "house", boxHouse())
	ctx := context.Background()
	cfg := h.deps.Config

	wall := b.PieceByName("wall_north")
	half := wall.HalfExtents()
	require.True(t, b.DamagePiece(ctx, "wall_north", 100, DamageOptions{CreateFragments: true}))

	debris := b.Debris()
	require.NotEmpty(t, debris)
	for _, d := range debris {
		offset := d.Position.Sub(wall.Position)
		for i := 0; i < 3; i++ {
			assert.GreaterOrEqual(t, d.Size[i], 0.3, d.ID)
			assert.LessOrEqual(t, d.Size[i], 0.8, d.ID)
			assert.LessOrEqual(t, math.Abs(offset[i]), half[i]+1e-9, d.ID)
		}

		// 80% яркости исходного цвета, альфа та же
		assert.InDelta(t, stone.X()*0.8, d.Color.X(), 1e-12)
		assert.InDelta(t, stone.Y()*0.8, d.Color.Y(), 1e-12)
		assert.InDelta(t, stone.Z()*0.8, d.Color.Z(), 1e-12)
		assert.Equal(t, stone.W(), d.Color.W())

		dir := mgl64.Vec3{0, 0, 1}
		if offset.Len() > 0.1 {
			dir = offset
		}
		impulse, ok := rec.impulse(d.ID)
		require.True(t, ok, d.ID)
		checkImpulse(t, impulse, dir, cfg.FragmentMinImpulse, cfg.FragmentMaxImpulse)

		torque, ok := rec.torque(d.ID)
		require.True(t, ok, d.ID)
		checkTorque(t, torque, 5)
	}
}

func TestFragmentsInheritVelocity(t *testing.T) {
	h := newHarness(t)
	rec := h.record()
	b := h.building(t, "tower", tower())
	ctx := context.Background()
	cfg := h.deps.Config

	// крыша без опоры успевает разогнаться
	require.True(t, b.DamagePiece(ctx, "wall", 100, DamageOptions{}))
	require.NoError(t, h.physics.Step(ctx, 200*time.Millisecond))
	b.SyncPositions(ctx)

	state, err := h.physics.GetObjectState(ctx, &physics.GetObjectStateRequest{ID: "tower/roof"})
	require.NoError(t, err)
	require.Greater(t, state.Velocity.Len(), 0.1)
	inherited := state.Velocity.Mul(0.5)

	roof := b.PieceByName("roof")
	require.True(t, b.DamagePiece(ctx, "roof", 100, DamageOptions{CreateFragments: true}))

	debris := b.Debris()
	require.NotEmpty(t, debris)
	for _, d := range debris {
		offset := d.Position.Sub(roof.Position)
		dir := mgl64.Vec3{0, 0, 1}
		if offset.Len() > 0.1 {
			dir = offset
		}
		impulse, ok := rec.impulse(d.ID)
		require.True(t, ok, d.ID)
		checkImpulse(t, impulse.Sub(inherited), dir, cfg.FragmentMinImpulse, cfg.FragmentMaxImpulse)
	}
}

func TestChunkRanges(t *testing.T) {
	h := newHarness(t)
	rec := h.record()
	b := h.building(t, "house", boxHouse())
	ctx := context.Background()
	impact := mgl64.Vec3{0.5, 3.0, 2}

	wall := b.PieceByName("wall_north")
	local := impact.Sub(wall.Position)
	require.True(t, b.DamagePiece(ctx, "wall_north", 100, DamageOptions{CreateChunks: true, ImpactPos: &impact}))

	debris := b.Debris()
	require.NotEmpty(t, debris)
	for _, d := range debris {
		require.Equal(t, entity.DebrisChunk, d.Kind)

		// чанк летит от точки удара через свой центр
		impulse, ok := rec.impulse(d.ID)
		require.True(t, ok, d.ID)
		checkImpulse(t, impulse, d.Position.Sub(wall.Position).Sub(local), 15, 25)

		torque, ok := rec.torque(d.ID)
		require.True(t, ok, d.ID)
		checkTorque(t, torque, 10)
	}
}

func TestDamageDebris(t *testing.T) {
	h := newHarness(t)
	b := h.building(t, "house", boxHouse())
	ctx := context.Background()
	impact := mgl64.Vec3{0.5, 3.0, 2}

	require.True(t, b.DamagePiece(ctx, "wall_north", 100, DamageOptions{CreateChunks: true, ImpactPos: &impact}))
	chunks := b.Debris()
	require.NotEmpty(t, chunks)
	chunk := chunks[0]
	require.Equal(t, 40.0, chunk.MaxHealth)

	// раненый чанк тускнеет, но остается в мире
	assert.False(t, b.DamageDebris(ctx, chunk.ID, 20))
	assert.Equal(t, 20.0, chunk.Health)
	assert.Equal(t, entity.DamagedColor(chunk.Color, 0.5), h.scene.node(chunk.ID).Color)

	// добитый чанк исчезает без новых обломков
	bodies := h.world().BodyCount()
	assert.True(t, b.DamageDebris(ctx, chunk.ID, 20))
	assert.Len(t, b.Debris(), len(chunks)-1)
	assert.Nil(t, h.scene.node(chunk.ID))
	assert.Equal(t, bodies-1, h.world().BodyCount())
	assert.Equal(t, 0, h.observer.destroyed[chunk.ID])
	_, ok := h.observer.destroyed[chunk.ID]
	assert.True(t, ok)

	assert.False(t, b.DamageDebris(ctx, chunk.ID, 20))
	assert.False(t, b.DamageDebris(ctx, "house/ghost~1", 20))
}

func TestFragmentsIgnoreDamage(t *testing.T) {
	h := newHarness(t)
	b := h.building(t, "house", boxHouse())
	ctx := context.Background()

	require.True(t, b.DamagePiece(ctx, "wall_north", 100, DamageOptions{CreateFragments: true}))
	fragments := b.Debris()
	require.NotEmpty(t, fragments)

	assert.False(t, b.DamageDebris(ctx, fragments[0].ID, 1000))
	assert.Len(t, b.Debris(), len(fragments))
	assert.NotNil(t, h.scene.node(fragments[0].ID))
}
