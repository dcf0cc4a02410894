package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"x-rubble/backend/internal/adapter/in/ws"
	"x-rubble/backend/internal/adapter/out/scene"
)

// Bot подключается к серверу и обстреливает детали зданий
type Bot struct {
	ID          string
	ServerURL   string
	Conn        *websocket.Conn
	Running     bool
	Stats       BotStats
	Pattern     string
	Duration    time.Duration
	CommandRate time.Duration
	Damage      float64
	Spawn       string // тип здания, которое бот строит при подключении
	mu          sync.RWMutex
	writeMu     sync.Mutex // Мьютекс для синхронизации записи в WebSocket

	targets map[string]mgl64.Vec3 // детали зданий по ID узла
	sweep   int
}

// BotStats содержит статистику работы бота
type BotStats struct {
	CommandsSent      int
	ResponsesReceived int
	Hits              int
	Destroyed         int
	Errors            int
	StartTime         time.Time
	mu                sync.RWMutex
}

// NewBot создает нового бота
func NewBot(id, serverURL, pattern string, duration, commandRate time.Duration, damage float64, spawn string) *Bot {
	return &Bot{
		ID:          id,
		ServerURL:   serverURL,
		Pattern:     pattern,
		Duration:    duration,
		CommandRate: commandRate,
		Damage:      damage,
		Spawn:       spawn,
		targets:     make(map[string]mgl64.Vec3),
		Stats: BotStats{
			StartTime: time.Now(),
		},
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("неверный URL: %v", err)
	}

	log.Printf("[Bot %s] Подключение к %s", b.ID, u.String())

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %v", err)
	}

	b.mu.Lock()
	b.Conn = conn
	b.Running = true
	b.mu.Unlock()

	log.Printf("[Bot %s] Успешно подключен", b.ID)
	return nil
}

// Disconnect отключается от сервера
func (b *Bot) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Conn != nil && b.Running {
		b.Running = false
		b.Conn.Close()
		log.Printf("[Bot %s] Отключен", b.ID)
	}
}

func (b *Bot) running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Running
}

// nextTarget выбирает точку попадания в зависимости от паттерна
func (b *Bot) nextTarget() (mgl64.Vec3, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.targets) == 0 {
		return mgl64.Vec3{}, false
	}

	ids := make([]string, 0, len(b.targets))
	for id := range b.targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var id string
	switch b.Pattern {
	case "sweep":
		// Детали по порядку, как обходит их человек с автоматом
		id = ids[b.sweep%len(ids)]
		b.sweep++
	default: // "random"
		id = ids[rand.IntN(len(ids))]
	}

	// Разброс попадания вокруг центра детали
	jitter := mgl64.Vec3{rand.Float64() - 0.5, rand.Float64() - 0.5, rand.Float64() - 0.5}
	return b.targets[id].Add(jitter.Mul(0.5)), true
}

func (b *Bot) send(msg ws.ClientMessage) error {
	b.mu.RLock()
	conn := b.Conn
	b.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("соединение не установлено")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (b *Bot) command(name string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	err = b.send(ws.ClientMessage{
		Type:       ws.MessageTypeCommand,
		Command:    name,
		ClientTime: float64(time.Now().UnixNano()) / 1e9,
		Data:       raw,
	})

	b.Stats.mu.Lock()
	defer b.Stats.mu.Unlock()
	if err != nil {
		b.Stats.Errors++
		return fmt.Errorf("ошибка отправки команды %s: %v", name, err)
	}
	b.Stats.CommandsSent++
	return nil
}

// sendShootCommand стреляет в одну из известных деталей
func (b *Bot) sendShootCommand() error {
	impact, ok := b.nextTarget()
	if !ok {
		// Сцена еще не пришла
		return nil
	}
	return b.command(ws.CommandShoot, ws.ShootData{Impact: impact, Amount: b.Damage})
}

// sendPing отправляет ping сообщение
func (b *Bot) sendPing() error {
	return b.send(ws.ClientMessage{
		Type:       ws.MessageTypePing,
		ClientTime: float64(time.Now().UnixNano()) / 1e9,
	})
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		log.Printf("[Bot %s] Ошибка разбора сообщения: %v", b.ID, err)
		return
	}

	switch head.Type {
	case ws.MessageTypeAck:
		var ack struct {
			Cmd    string          `json:"cmd"`
			Result ws.ShootResult  `json:"-"`
			Raw    json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(data, &ack); err != nil {
			return
		}
		b.Stats.mu.Lock()
		b.Stats.ResponsesReceived++
		if ack.Cmd == ws.CommandShoot && json.Unmarshal(ack.Raw, &ack.Result) == nil {
			if ack.Result.Hit {
				b.Stats.Hits++
			}
			if ack.Result.Destroyed {
				b.Stats.Destroyed++
				log.Printf("[Bot %s] Разрушена деталь %s/%s", b.ID, ack.Result.Building, ack.Result.Piece)
			}
		}
		b.Stats.mu.Unlock()

	case ws.MessageTypeError:
		var msg struct {
			Cmd     string `json:"cmd"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		log.Printf("[Bot %s] Ошибка команды %s: %s", b.ID, msg.Cmd, msg.Message)

	case ws.MessageTypePong:
		log.Printf("[Bot %s] Получен pong", b.ID)

	case ws.MessageTypeInfo:
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			log.Printf("[Bot %s] Информация: %s", b.ID, msg.Message)
		}

	case scene.MessageTypeCreate:
		var node scene.NodeMessage
		if err := json.Unmarshal(data, &node); err != nil {
			return
		}
		// Стреляем только по деталям зданий, не по обломкам
		if node.Kind == "piece" {
			b.mu.Lock()
			b.targets[node.ID] = node.Position
			b.mu.Unlock()
		}

	case scene.MessageTypeRemove:
		var msg scene.RemoveMessage
		if json.Unmarshal(data, &msg) == nil {
			b.mu.Lock()
			delete(b.targets, msg.ID)
			b.mu.Unlock()
		}

	case scene.MessageTypeUpdate:
		var msg scene.UpdateMessage
		if json.Unmarshal(data, &msg) != nil {
			return
		}
		b.mu.Lock()
		for id, pos := range msg.Positions {
			if _, ok := b.targets[id]; ok {
				b.targets[id] = pos
			}
		}
		b.mu.Unlock()

	case scene.MessageTypeColor:
		// Перекраска от урона - обрабатываем молча

	default:
		log.Printf("[Bot %s] Неизвестный тип сообщения: %s", b.ID, head.Type)
	}
}

// Run запускает бота
func (b *Bot) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	// Запускаем горутину для чтения сообщений
	go func() {
		for b.running() {
			messageType, data, err := b.Conn.ReadMessage()
			if err != nil {
				if b.running() {
					log.Printf("[Bot %s] Ошибка чтения сообщения: %v", b.ID, err)
					b.Stats.mu.Lock()
					b.Stats.Errors++
					b.Stats.mu.Unlock()
				}
				return
			}
			b.handleMessage(messageType, data)
		}
	}()

	if b.Spawn != "" {
		spawn := ws.SpawnData{
			Name:     b.ID + "_" + b.Spawn,
			Kind:     b.Spawn,
			Position: mgl64.Vec3{rand.Float64()*40 - 20, rand.Float64()*40 - 20, 0},
		}
		if err := b.command(ws.CommandSpawn, spawn); err != nil {
			log.Printf("[Bot %s] %v", b.ID, err)
		}
	}

	// Запускаем горутину для отправки ping
	go func() {
		pingTicker := time.NewTicker(5 * time.Second)
		defer pingTicker.Stop()

		for b.running() {
			<-pingTicker.C
			if err := b.sendPing(); err != nil {
				log.Printf("[Bot %s] Ошибка отправки ping: %v", b.ID, err)
			}
		}
	}()

	// Основной цикл отправки команд
	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()

	endTime := time.Now().Add(b.Duration)

	for b.running() && time.Now().Before(endTime) {
		<-commandTicker.C
		if err := b.sendShootCommand(); err != nil {
			log.Printf("[Bot %s] %v", b.ID, err)
		}
	}

	log.Printf("[Bot %s] Завершение работы", b.ID)
	return nil
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.Stats.mu.RLock()
	defer b.Stats.mu.RUnlock()

	duration := time.Since(b.Stats.StartTime)
	log.Printf("[Bot %s] Статистика:", b.ID)
	log.Printf("  Время работы: %v", duration)
	log.Printf("  Команд отправлено: %d", b.Stats.CommandsSent)
	log.Printf("  Ответов получено: %d", b.Stats.ResponsesReceived)
	log.Printf("  Попаданий: %d, разрушено деталей: %d", b.Stats.Hits, b.Stats.Destroyed)
	log.Printf("  Ошибок: %d", b.Stats.Errors)
	if b.Stats.CommandsSent > 0 {
		log.Printf("  Частота команд: %.2f команд/сек", float64(b.Stats.CommandsSent)/duration.Seconds())
	}
}

func main() {
	// Флаги командной строки
	var (
		serverURL   = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		botID       = flag.String("id", "bot1", "ID бота")
		pattern     = flag.String("pattern", "random", "Выбор цели (random, sweep)")
		duration    = flag.Duration("duration", 30*time.Second, "Длительность работы бота")
		commandRate = flag.Duration("rate", 250*time.Millisecond, "Частота выстрелов")
		damage      = flag.Float64("damage", 25, "Урон одного выстрела")
		spawn       = flag.String("spawn", "", "Построить здание этого типа при подключении (simple, japanese, test)")
	)
	flag.Parse()

	bot := NewBot(*botID, *serverURL, *pattern, *duration, *commandRate, *damage, *spawn)

	// Обработка сигналов для корректного завершения
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Printf("[Bot %s] Получен сигнал прерывания, завершение работы...", bot.ID)
		bot.Disconnect()
		bot.PrintStats()
		os.Exit(0)
	}()

	if err := bot.Run(); err != nil {
		log.Printf("[Bot %s] Ошибка: %v", bot.ID, err)
		os.Exit(1)
	}

	bot.PrintStats()
}
