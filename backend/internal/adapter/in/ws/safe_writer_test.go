package ws

import (
	"encoding/json"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-rubble/backend/internal/adapter/out/scene"
)

// echoServer принимает n сообщений и отдает их в канал
func echoServer(t *testing.T, n int) (*websocket.Conn, <-chan []string) {
	t.Helper()
	out := make(chan []string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		var received []string
		for i := 0; i < n; i++ {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			received = append(received, string(msg))
		}
		out <- received
	}))
	t.Cleanup(server.Close)

	wsConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wsConn.Close() })
	return wsConn, out
}

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	conn, received := echoServer(t, 10)
	writer := NewSafeWriter(conn)

	// 10 горутин пишут одновременно; без мьютекса gorilla паникует
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			msg := struct {
				ID  int    `json:"id"`
				Msg string `json:"msg"`
			}{ID: id, Msg: "Test message"}
			assert.NoError(t, writer.WriteJSON(msg))
		}(i)
	}
	wg.Wait()

	msgs := <-received
	require.Len(t, msgs, 10)
	uniq := make(map[string]struct{})
	for _, m := range msgs {
		uniq[m] = struct{}{}
	}
	assert.Len(t, uniq, 10)
}

func TestSafeWriter_WriteJSON_NaN(t *testing.T) {
	conn, received := echoServer(t, 1)
	writer := NewSafeWriter(conn)

	// map с NaN чинится
	require.NoError(t, writer.WriteJSON(map[string]interface{}{
		"type":  MessageTypeInfo,
		"value": math.NaN(),
	}))

	// структура с NaN не сериализуется
	assert.Error(t, writer.WriteJSON(struct {
		Value float64 `json:"value"`
	}{Value: math.NaN()}))

	msgs := <-received
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"type":"info","value":0}`, msgs[0])
}

func TestSanitizeMapValues(t *testing.T) {
	data := map[string]interface{}{
		"a": math.NaN(),
		"b": 1.5,
		"nested": map[string]interface{}{
			"c": math.NaN(),
		},
		"list": []interface{}{math.NaN(), 2.0, map[string]interface{}{"d": math.NaN()}},
	}
	sanitizeMapValues(data)

	out, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0,"b":1.5,"nested":{"c":0},"list":[0,2,{"d":0}]}`, string(out))
}

// stalledServer принимает соединение и ничего не читает до конца теста
func stalledServer(t *testing.T) *websocket.Conn {
	t.Helper()
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	wsConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wsConn.Close() })
	return wsConn
}

func bulkyMessage() map[string]interface{} {
	return map[string]interface{}{
		"type":    MessageTypeInfo,
		"payload": strings.Repeat("x", 64*1024),
	}
}

func TestSafeWriter_WriteTimeout(t *testing.T) {
	writer := NewSafeWriter(stalledServer(t))
	writer.SetWriteTimeout(50 * time.Millisecond)

	// буферы сокета рано или поздно заполняются, и запись упирается в дедлайн
	var err error
	for i := 0; i < 2000 && err == nil; i++ {
		start := time.Now()
		err = writer.WriteJSON(bulkyMessage())
		require.Less(t, time.Since(start), time.Second)
	}
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestStalledClientDoesNotBlockScene(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	adapter := scene.NewWSSceneAdapter(quiet)

	stalled := NewSafeWriter(stalledServer(t))
	stalled.SetWriteTimeout(50 * time.Millisecond)
	conn, received := echoServer(t, 1)
	healthy := NewSafeWriter(conn)
	adapter.AddClient(stalled)

	// каждая рассылка ограничена дедлайном, зависший клиент в итоге отключается
	for i := 0; i < 2000 && adapter.ClientCount() > 0; i++ {
		start := time.Now()
		adapter.Broadcast(bulkyMessage())
		require.Less(t, time.Since(start), time.Second)
	}
	require.Equal(t, 0, adapter.ClientCount())

	// живой клиент после этого получает рассылку как обычно
	adapter.AddClient(healthy)
	adapter.Broadcast(map[string]interface{}{"type": MessageTypeInfo})
	msgs := <-received
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"type":"info"}`, msgs[0])
}
