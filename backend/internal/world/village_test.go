package world

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-rubble/backend/internal/core/domain/service"
)

func TestVillageGrid(t *testing.T) {
	places := Village(2, 3, 20, []string{KindSimple, KindJapanese})
	require.Len(t, places, 6)

	assert.Equal(t, Placement{Name: "simple_0_0", Kind: KindSimple, Position: mgl64.Vec3{-20, -10, 0}}, places[0])
	assert.Equal(t, "japanese_0_1", places[1].Name)
	assert.Equal(t, mgl64.Vec3{20, 10, 0}, places[5].Position)

	assert.Nil(t, Village(0, 3, 20, []string{KindSimple}))
	assert.Nil(t, Village(2, 2, 20, nil))
}

func TestPopulate(t *testing.T) {
	w := newWorld(t)
	f := NewFactory()
	ctx := context.Background()

	n, err := f.Populate(ctx, w.svc, Village(1, 3, 25, []string{KindTest, KindSimple, KindJapanese}))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, w.svc.Buildings(), 3)

	// повтор имени останавливает раскладку
	n, err = f.Populate(ctx, w.svc, []Placement{{Name: "extra", Kind: KindTest}, {Name: "test_0_0", Kind: KindTest}})
	assert.ErrorIs(t, err, service.ErrBuildingExists)
	assert.Equal(t, 1, n)

	_, err = f.Populate(ctx, w.svc, []Placement{{Name: "x", Kind: "castle"}})
	assert.Error(t, err)
}
