package ws

import (
	"encoding/json"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Константы для WebSocket сообщений
const (
	// Типы сообщений
	MessageTypeCommand = "COMMAND" // Команда от клиента
	MessageTypePing    = "ping"    // Пинг для измерения задержки
	MessageTypePong    = "pong"    // Ответ на пинг
	MessageTypeAck     = "cmd_ack" // Подтверждение команды
	MessageTypeError   = "error"   // Ошибка выполнения команды
	MessageTypeInfo    = "info"    // Информационное сообщение
)

// Команды
const (
	CommandDamage   = "DAMAGE"
	CommandShoot    = "SHOOT"
	CommandSpawn    = "SPAWN"
	CommandRemove   = "REMOVE"
	CommandSnapshot = "SNAPSHOT"
)

// ClientMessage входящее сообщение клиента
type ClientMessage struct {
	Type       string          `json:"type"`
	Command    string          `json:"command,omitempty"`
	ClientTime float64         `json:"clientTime,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// DamageData урон по детали
type DamageData struct {
	Building  string      `json:"building"`
	Piece     string      `json:"piece"`
	Amount    float64     `json:"amount"`
	Fragments bool        `json:"fragments"`
	Chunks    bool        `json:"chunks"`
	Impact    *mgl64.Vec3 `json:"impact,omitempty"`
}

// ShootData выстрел в точку
type ShootData struct {
	Impact mgl64.Vec3 `json:"impact"`
	Amount float64    `json:"amount"`
}

// SpawnData постройка здания по чертежу
type SpawnData struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Position mgl64.Vec3 `json:"position"`
}

// RemoveData разбор здания
type RemoveData struct {
	Name       string `json:"name"`
	KeepDebris bool   `json:"keep_debris"`
}

// ShootResult результат выстрела
type ShootResult struct {
	Hit       bool   `json:"hit"`
	Building  string `json:"building,omitempty"`
	Piece     string `json:"piece,omitempty"`
	Destroyed bool   `json:"destroyed"`
}

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// NewPongMessage создает новое сообщение-ответ на пинг
func NewPongMessage(clientTime float64) map[string]interface{} {
	return map[string]interface{}{
		"type":        MessageTypePong,
		"client_time": clientTime,
		"server_time": GetCurrentServerTime(),
	}
}

// NewAckMessage создает новое сообщение-подтверждение команды
func NewAckMessage(cmd string, clientTime float64, result interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        MessageTypeAck,
		"cmd":         cmd,
		"client_time": clientTime,
		"server_time": GetCurrentServerTime(),
		"result":      result,
	}
}

// NewErrorMessage создает сообщение об ошибке команды
func NewErrorMessage(cmd string, err error) map[string]interface{} {
	return map[string]interface{}{
		"type":    MessageTypeError,
		"cmd":     cmd,
		"message": err.Error(),
	}
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    MessageTypeInfo,
		"message": message,
	}
}
