package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localphysics "x-rubble/backend/internal/adapter/out/physics"
	"x-rubble/backend/internal/adapter/out/scene"
	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
	"x-rubble/backend/internal/physics"
	"x-rubble/backend/internal/world"
)

type fixture struct {
	world    *service.WorldService
	scene    *scene.WSSceneAdapter
	commands *WorldServiceAdapter
}

func newFixture(t *testing.T, queue int) *fixture {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)

	f := &fixture{scene: scene.NewWSSceneAdapter(quiet)}
	f.world = service.NewWorldService(service.Deps{
		Physics: localphysics.NewLocalPhysicsAdapter(physics.NewSimWorld(physics.DefaultPhysicsConfig(), quiet)),
		Scene:   f.scene,
		Config:  entity.DefaultDestructionConfig(),
		Rand:    rand.New(rand.NewPCG(1, 2)),
		Logger:  quiet,
	})
	f.commands = NewWorldServiceAdapter(f.world, world.NewFactory().Blueprint, queue, quiet)
	return f
}

func raw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestExecuteCommands(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	res, err := f.commands.Execute(ctx, CommandSpawn, raw(t, SpawnData{Name: "a", Kind: world.KindTest, Position: mgl64.Vec3{10, 0, 0}}))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"building": "a", "pieces": 5}, res)

	res, err = f.commands.Execute(ctx, CommandShoot, raw(t, ShootData{Impact: mgl64.Vec3{10, 3.5, 2}, Amount: 30}))
	require.NoError(t, err)
	assert.Equal(t, ShootResult{Hit: true, Building: "a", Piece: "wall_north"}, res)
	assert.InDelta(t, 70, f.world.Building("a").PieceByName("wall_north").Health, 1e-9)

	res, err = f.commands.Execute(ctx, CommandShoot, raw(t, ShootData{Impact: mgl64.Vec3{-50, 0, 0}, Amount: 30}))
	require.NoError(t, err)
	assert.Equal(t, ShootResult{}, res)

	res, err = f.commands.Execute(ctx, CommandDamage, raw(t, DamageData{Building: "a", Piece: "wall_east", Amount: 150, Fragments: true}))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"destroyed": true}, res)

	res, err = f.commands.Execute(ctx, CommandSnapshot, nil)
	require.NoError(t, err)
	snaps, ok := res.([]service.BuildingSnapshot)
	require.True(t, ok)
	require.Len(t, snaps, 1)
	assert.Equal(t, "a", snaps[0].Name)

	_, err = f.commands.Execute(ctx, CommandRemove, raw(t, RemoveData{Name: "a"}))
	require.NoError(t, err)
	assert.Nil(t, f.world.Building("a"))
	assert.Zero(t, f.scene.NodeCount())
}

func TestExecuteErrors(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.commands.Execute(ctx, CommandSpawn, raw(t, SpawnData{Name: "a", Kind: "castle"}))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = f.commands.Execute(ctx, CommandDamage, raw(t, DamageData{Building: "ghost", Piece: "wall"}))
	assert.ErrorIs(t, err, service.ErrBuildingNotFound)

	_, err = f.commands.Execute(ctx, CommandDamage, json.RawMessage(`{"amount": "много"}`))
	assert.Error(t, err)

	_, err = f.commands.Execute(ctx, CommandRemove, nil)
	assert.Error(t, err)

	_, err = f.commands.Execute(ctx, "EXPLODE", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

// recorder клиент, запоминающий ответы
type recorder struct {
	messages []map[string]interface{}
}

func (r *recorder) WriteJSON(v interface{}) error {
	m, _ := v.(map[string]interface{})
	r.messages = append(r.messages, m)
	return nil
}

func TestQueueAndDrain(t *testing.T) {
	f := newFixture(t, 2)
	reply := &recorder{}

	spawn := raw(t, SpawnData{Name: "a", Kind: world.KindTest})
	require.NoError(t, f.commands.Enqueue(Command{Name: CommandSpawn, ClientTime: 1.5, Data: spawn, Reply: reply}))
	require.NoError(t, f.commands.Enqueue(Command{Name: CommandSpawn, Data: spawn, Reply: reply}))
	assert.ErrorIs(t, f.commands.Enqueue(Command{Name: CommandSnapshot}), ErrQueueFull)
	assert.Equal(t, 2, f.commands.Pending())

	assert.Equal(t, 2, f.commands.Drain(context.Background()))
	assert.Zero(t, f.commands.Pending())

	require.Len(t, reply.messages, 2)
	assert.Equal(t, MessageTypeAck, reply.messages[0]["type"])
	assert.Equal(t, 1.5, reply.messages[0]["client_time"])
	// второе здание с тем же именем отклонено
	assert.Equal(t, MessageTypeError, reply.messages[1]["type"])
	assert.Equal(t, CommandSpawn, reply.messages[1]["cmd"])
}

func dial(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	adapter := NewWSAdapter(f.commands, f.scene, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(http.HandlerFunc(adapter.HandleWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil читает сообщения, пока не встретит нужный тип
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) (map[string]interface{}, []map[string]interface{}) {
	t.Helper()
	var skipped []map[string]interface{}
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == msgType {
			return msg, skipped
		}
		skipped = append(skipped, msg)
	}
}

func TestWebSocketCommandFlow(t *testing.T) {
	f := newFixture(t, 0)
	conn := dial(t, f)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypePing, ClientTime: 42}))
	pong, _ := readUntil(t, conn, MessageTypePong)
	assert.Equal(t, 42.0, pong["client_time"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeCommand, Command: "EXPLODE"}))
	errMsg, _ := readUntil(t, conn, MessageTypeError)
	assert.Equal(t, "EXPLODE", errMsg["cmd"])

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type:       MessageTypeCommand,
		Command:    CommandSpawn,
		ClientTime: 7,
		Data:       raw(t, SpawnData{Name: "a", Kind: world.KindTest}),
	}))
	require.Eventually(t, func() bool { return f.commands.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.commands.Drain(context.Background()))

	ack, created := readUntil(t, conn, MessageTypeAck)
	assert.Equal(t, CommandSpawn, ack["cmd"])
	assert.Equal(t, 7.0, ack["client_time"])
	assert.Len(t, created, 5)
	for _, m := range created {
		assert.Equal(t, scene.MessageTypeCreate, m["type"])
	}
}

func TestLateJoinerReceivesScene(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.commands.Execute(context.Background(), CommandSpawn, raw(t, SpawnData{Name: "a", Kind: world.KindTest}))
	require.NoError(t, err)

	conn := dial(t, f)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg scene.NodeMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, scene.MessageTypeCreate, msg.Type)
		seen[msg.ID] = true
	}
	assert.True(t, seen["a/foundation"])
	assert.True(t, seen["a/wall_west"])

	require.Eventually(t, func() bool { return f.scene.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return f.scene.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
