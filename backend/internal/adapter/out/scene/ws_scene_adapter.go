package scene

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	portScene "x-rubble/backend/internal/core/port/out/scene"
)

// Типы исходящих сообщений сцены
const (
	MessageTypeCreate = "create"
	MessageTypeUpdate = "update"
	MessageTypeColor  = "color"
	MessageTypeRemove = "remove"
)

// Client получатель сообщений сцены; для websocket это SafeWriter
type Client interface {
	WriteJSON(v interface{}) error
}

// NodeMessage создание узла
type NodeMessage struct {
	Type       string              `json:"type"`
	ID         string              `json:"id"`
	Kind       string              `json:"kind"`
	Position   mgl64.Vec3          `json:"position"`
	Size       mgl64.Vec3          `json:"size"`
	Color      mgl64.Vec4          `json:"color"`
	Curve      float64             `json:"curve,omitempty"`
	Mesh       *portScene.Mesh     `json:"mesh,omitempty"`
	Openings   []portScene.Opening `json:"openings,omitempty"`
	ServerTime int64               `json:"server_time"`
}

// UpdateMessage пачка новых позиций за один тик
type UpdateMessage struct {
	Type       string                `json:"type"`
	Positions  map[string]mgl64.Vec3 `json:"positions"`
	ServerTime int64                 `json:"server_time"`
}

// ColorMessage перекраска узла
type ColorMessage struct {
	Type  string     `json:"type"`
	ID    string     `json:"id"`
	Color mgl64.Vec4 `json:"color"`
}

// RemoveMessage удаление узла
type RemoveMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// WSSceneAdapter хранит граф сцены и рассылает изменения клиентам.
// Позиции копятся до Flush, остальные изменения уходят сразу.
type WSSceneAdapter struct {
	mu      sync.Mutex
	nodes   map[string]*portScene.Node
	dirty   map[string]mgl64.Vec3
	clients map[Client]bool
	logger  *log.Logger
}

var _ portScene.ScenePort = (*WSSceneAdapter)(nil)

// NewWSSceneAdapter создает пустую сцену
func NewWSSceneAdapter(logger *log.Logger) *WSSceneAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[Scene] ", log.LstdFlags)
	}
	return &WSSceneAdapter{
		nodes:   make(map[string]*portScene.Node),
		dirty:   make(map[string]mgl64.Vec3),
		clients: make(map[Client]bool),
		logger:  logger,
	}
}

// AddClient подключает клиента и отправляет ему все текущие узлы
func (s *WSSceneAdapter) AddClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c] = true

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := c.WriteJSON(createMessage(s.nodes[id])); err != nil {
			s.logger.Printf("Ошибка при отправке начального узла %s, отключаем: %v", id, err)
			delete(s.clients, c)
			return
		}
	}
	s.logger.Printf("Клиенту отправлено начальных узлов: %d", len(ids))
}

// RemoveClient отключает клиента
func (s *WSSceneAdapter) RemoveClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// ClientCount число подключенных клиентов
func (s *WSSceneAdapter) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// NodeCount число узлов в сцене
func (s *WSSceneAdapter) NodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Node возвращает копию узла
func (s *WSSceneAdapter) Node(id string) (portScene.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return portScene.Node{}, false
	}
	return *n, true
}

func (s *WSSceneAdapter) AttachNode(_ context.Context, node *portScene.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := *node
	n.Position = safeVec3(n.Position)
	s.nodes[n.ID] = &n
	s.broadcastLocked(createMessage(&n))
	return nil
}

func (s *WSSceneAdapter) SetNodePosition(_ context.Context, id string, position mgl64.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	n.Position = safeVec3(position)
	s.dirty[id] = n.Position
	return nil
}

func (s *WSSceneAdapter) SetNodeColor(_ context.Context, id string, color mgl64.Vec4) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	n.Color = color
	s.broadcastLocked(ColorMessage{Type: MessageTypeColor, ID: id, Color: color})
	return nil
}

func (s *WSSceneAdapter) RemoveNode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	delete(s.nodes, id)
	delete(s.dirty, id)
	s.broadcastLocked(RemoveMessage{Type: MessageTypeRemove, ID: id})
	return nil
}

// Flush рассылает накопленные позиции одним сообщением
func (s *WSSceneAdapter) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return 0
	}
	msg := UpdateMessage{
		Type:       MessageTypeUpdate,
		Positions:  s.dirty,
		ServerTime: time.Now().UnixMilli(),
	}
	n := len(s.dirty)
	s.broadcastLocked(msg)
	s.dirty = make(map[string]mgl64.Vec3)
	return n
}

// Broadcast отправляет произвольное сообщение всем клиентам
func (s *WSSceneAdapter) Broadcast(msg interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(msg)
}

// broadcastLocked пишет под мьютексом сцены, поэтому время записи должен
// ограничивать сам клиент (SafeWriter ставит дедлайн). Ошибка отключает клиента.
func (s *WSSceneAdapter) broadcastLocked(msg interface{}) {
	for c := range s.clients {
		if err := c.WriteJSON(msg); err != nil {
			s.logger.Printf("Ошибка при отправке клиенту, отключаем: %v", err)
			delete(s.clients, c)
		}
	}
}

func createMessage(n *portScene.Node) NodeMessage {
	return NodeMessage{
		Type:       MessageTypeCreate,
		ID:         n.ID,
		Kind:       string(n.Kind),
		Position:   n.Position,
		Size:       n.Size,
		Color:      n.Color,
		Curve:      n.Curve,
		Mesh:       n.Mesh,
		Openings:   n.Openings,
		ServerTime: time.Now().UnixMilli(),
	}
}

// safeVec3 заменяет NaN на 0, иначе json.Marshal не справится
func safeVec3(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			v[i] = 0
		}
	}
	return v
}
