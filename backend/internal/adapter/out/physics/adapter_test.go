package physics

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	portPhysics "x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/physics"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newGRPCAdapter(t *testing.T) (*GRPCPhysicsAdapter, *physics.SimWorld) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	world := physics.NewSimWorld(physics.DefaultPhysicsConfig(), quietLogger())
	srv := grpc.NewServer()
	physics.RegisterPhysicsServer(srv, physics.NewServer(world, quietLogger()))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	adapter, err := NewGRPCPhysicsAdapter(context.Background(), "passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, world
}

// adapters прогоняет один и тот же сценарий через оба адаптера
func adapters(t *testing.T) map[string]interface {
	portPhysics.PhysicsPort
	Stepper
} {
	grpcAdapter, _ := newGRPCAdapter(t)
	local := NewLocalPhysicsAdapter(physics.NewSimWorld(physics.DefaultPhysicsConfig(), quietLogger()))
	return map[string]interface {
		portPhysics.PhysicsPort
		Stepper
	}{
		"grpc":  grpcAdapter,
		"local": local,
	}
}

func TestAdaptersLifecycle(t *testing.T) {
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := adapter.CreateObject(ctx, &portPhysics.CreateObjectRequest{
				ID:          "b/wall",
				Shape:       portPhysics.ShapeBox,
				Position:    mgl64.Vec3{0, 0, 5},
				HalfExtents: mgl64.Vec3{1, 0.1, 1},
				Material:    portPhysics.Material{Friction: 0.9, Restitution: 0.05},
			})
			require.NoError(t, err)

			_, err = adapter.UpdateObjectMass(ctx, &portPhysics.UpdateObjectMassRequest{ID: "b/wall", Mass: 20})
			require.NoError(t, err)
			require.NoError(t, adapter.SetObjectActive(ctx, "b/wall", true))

			_, err = adapter.ApplyImpulse(ctx, &portPhysics.ApplyImpulseRequest{
				ID:        "b/wall",
				Direction: mgl64.Vec3{1, 0, 0},
				Strength:  40,
			})
			require.NoError(t, err)

			state, err := adapter.GetObjectState(ctx, &portPhysics.GetObjectStateRequest{ID: "b/wall"})
			require.NoError(t, err)
			assert.InDelta(t, 2.0, state.Velocity.X(), 1e-9)
			assert.Equal(t, 20.0, state.Mass)
			assert.True(t, state.Active)

			require.NoError(t, adapter.Step(ctx, 100*time.Millisecond))
			state, err = adapter.GetObjectState(ctx, &portPhysics.GetObjectStateRequest{ID: "b/wall"})
			require.NoError(t, err)
			assert.Less(t, state.Position.Z(), 5.0)

			turn := mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0})
			require.NoError(t, adapter.SetObjectMotion(ctx, &portPhysics.SetObjectMotionRequest{
				ID:              "b/wall",
				Rotation:        turn,
				Velocity:        mgl64.Vec3{0, 0, -3},
				AngularVelocity: mgl64.Vec3{0, 0.5, 0},
			}))
			state, err = adapter.GetObjectState(ctx, &portPhysics.GetObjectStateRequest{ID: "b/wall"})
			require.NoError(t, err)
			assert.True(t, turn.ApproxEqual(state.Rotation))
			assert.Equal(t, mgl64.Vec3{0, 0, -3}, state.Velocity)
			assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, state.AngularVelocity)

			require.NoError(t, adapter.RemoveObject(ctx, "b/wall"))
		})
	}
}

func TestAdaptersMapNotFound(t *testing.T) {
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			assert.ErrorIs(t, adapter.RemoveObject(ctx, "ghost"), portPhysics.ErrObjectNotFound)
			assert.ErrorIs(t, adapter.RemoveConstraint(ctx, "ghost"), portPhysics.ErrConstraintNotFound)
			assert.ErrorIs(t, adapter.SetObjectActive(ctx, "ghost", true), portPhysics.ErrObjectNotFound)
			assert.ErrorIs(t, adapter.SetObjectMotion(ctx, &portPhysics.SetObjectMotionRequest{ID: "ghost"}), portPhysics.ErrObjectNotFound)

			_, err := adapter.GetObjectState(ctx, &portPhysics.GetObjectStateRequest{ID: "ghost"})
			assert.ErrorIs(t, err, portPhysics.ErrObjectNotFound)
		})
	}
}

func TestAdaptersConstraints(t *testing.T) {
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"a", "b"} {
				_, err := adapter.CreateObject(ctx, &portPhysics.CreateObjectRequest{
					ID:          id,
					Shape:       portPhysics.ShapeBox,
					HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5},
				})
				require.NoError(t, err)
			}

			resp, err := adapter.CreateConstraint(ctx, &portPhysics.CreateConstraintRequest{
				ID: "a+b#1", BodyA: "a", BodyB: "b", BreakingThreshold: 100,
			})
			require.NoError(t, err)
			assert.Equal(t, "a+b#1", resp.ID)

			require.NoError(t, adapter.RemoveConstraint(ctx, "a+b#1"))
			assert.ErrorIs(t, adapter.RemoveConstraint(ctx, "a+b#1"), portPhysics.ErrConstraintNotFound)
		})
	}
}

func TestGRPCAdapterConfig(t *testing.T) {
	original := physics.GetPhysicsConfig()
	t.Cleanup(func() { physics.SetPhysicsConfig(original) })

	adapter, world := newGRPCAdapter(t)
	ctx := context.Background()

	cfg := physics.GetPhysicsConfig()
	cfg.Gravity = mgl64.Vec3{0, 0, -3.7}
	require.NoError(t, adapter.UpdateServerConfig(ctx, cfg))
	assert.Equal(t, *cfg, world.Config())

	got, err := adapter.GetPhysicsConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Gravity, got.Gravity)
}
