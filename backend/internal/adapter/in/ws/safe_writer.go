package ws

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout предел одной записи. Клиент, который не читает,
// задерживает рассылку сцены не дольше этого и после ошибки отключается.
const DefaultWriteTimeout = time.Second

// SafeWriter обеспечивает потокобезопасную запись в WebSocket.
// В соединение пишут и обработчики команд, и рассылка сцены из тикера.
type SafeWriter struct {
	conn    *websocket.Conn
	mutex   sync.Mutex
	timeout time.Duration
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{
		conn:    conn,
		timeout: DefaultWriteTimeout,
	}
}

// SetWriteTimeout меняет предел одной записи; 0 снимает ограничение
func (w *SafeWriter) SetWriteTimeout(d time.Duration) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.timeout = d
}

// WriteJSON потокобезопасно отправляет JSON данные через WebSocket
func (w *SafeWriter) WriteJSON(v interface{}) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		// NaN не сериализуется; для map пробуем заменить на 0
		mapData, ok := v.(map[string]interface{})
		if !ok {
			return err
		}
		sanitizeMapValues(mapData)
		if jsonData, err = json.Marshal(mapData); err != nil {
			return err
		}
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	var deadline time.Time
	if w.timeout > 0 {
		deadline = time.Now().Add(w.timeout)
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, jsonData)
}

// Close закрывает соединение WebSocket
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// sanitizeMapValues рекурсивно обходит map и заменяет NaN значения на 0
func sanitizeMapValues(data map[string]interface{}) {
	for k, v := range data {
		switch val := v.(type) {
		case float64:
			if math.IsNaN(val) {
				data[k] = 0.0
			}
		case map[string]interface{}:
			sanitizeMapValues(val)
		case []interface{}:
			for i, item := range val {
				if itemMap, ok := item.(map[string]interface{}); ok {
					sanitizeMapValues(itemMap)
				} else if f, ok := item.(float64); ok && math.IsNaN(f) {
					val[i] = 0.0
				}
			}
		}
	}
}
