package ws

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"x-rubble/backend/internal/adapter/out/scene"
)

// CommandSink принимает команды клиентов
type CommandSink interface {
	Enqueue(cmd Command) error
}

// SceneHub рассылает клиентам изменения сцены
type SceneHub interface {
	AddClient(c scene.Client)
	RemoveClient(c scene.Client)
}

type handlerFunc func(*SafeWriter, ClientMessage) error

// WSAdapter адаптер для WebSocket соединений
type WSAdapter struct {
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
	commands CommandSink
	scene    SceneHub
	logger   *log.Logger
}

// NewWSAdapter создает новый экземпляр WSAdapter
func NewWSAdapter(commands CommandSink, hub SceneHub, logger *log.Logger) *WSAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[WS] ", log.LstdFlags)
	}
	a := &WSAdapter{
		commands: commands,
		scene:    hub,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
	}
	a.RegisterHandlers()
	return a
}

// RegisterHandlers регистрирует обработчики сообщений
func (a *WSAdapter) RegisterHandlers() {
	// Команды не выполняются здесь: их забирает игровой цикл
	a.handlers[MessageTypeCommand] = func(conn *SafeWriter, message ClientMessage) error {
		if !IsKnownCommand(message.Command) {
			err := fmt.Errorf("%w: %s", ErrUnknownCommand, message.Command)
			_ = conn.WriteJSON(NewErrorMessage(message.Command, err))
			return err
		}

		err := a.commands.Enqueue(Command{
			Name:       message.Command,
			ClientTime: message.ClientTime,
			Data:       message.Data,
			Reply:      conn,
		})
		if err != nil {
			_ = conn.WriteJSON(NewErrorMessage(message.Command, err))
			return err
		}
		return nil
	}

	a.handlers[MessageTypePing] = func(conn *SafeWriter, message ClientMessage) error {
		clientTime := message.ClientTime
		if clientTime == 0 {
			clientTime = float64(time.Now().UnixNano()) / 1e9
		}
		return conn.WriteJSON(NewPongMessage(clientTime))
	}
}

// HandleWS обрабатывает WebSocket соединения
func (a *WSAdapter) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Printf("Ошибка при установке WebSocket соединения: %v", err)
		return
	}

	safeWriter := NewSafeWriter(conn)
	a.logger.Printf("Клиент подключен: %s", r.RemoteAddr)

	// Клиент сразу получает всю текущую сцену
	a.scene.AddClient(safeWriter)

	defer func() {
		a.scene.RemoveClient(safeWriter)
		_ = safeWriter.Close()
		a.logger.Printf("Клиент отключен: %s", r.RemoteAddr)
	}()

	for {
		var message ClientMessage
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Printf("Ошибка при чтении сообщения: %v", err)
			}
			return
		}

		handler, ok := a.handlers[message.Type]
		if !ok {
			a.logger.Printf("Нет обработчика для типа сообщения: %q", message.Type)
			continue
		}

		if err := handler(safeWriter, message); err != nil {
			a.logger.Printf("Ошибка обработки сообщения типа %s: %v", message.Type, err)
		}
	}
}
