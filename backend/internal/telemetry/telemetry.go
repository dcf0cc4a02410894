package telemetry

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// Типы событий разрушения
const (
	EventDamaged   = "damaged"
	EventDestroyed = "destroyed"
	EventCollapsed = "collapsed"
	EventFractured = "fractured"
	EventExpired   = "debris_expired"
)

// TelemetryData одно событие разрушения
type TelemetryData struct {
	Timestamp int64   `json:"timestamp"` // Время в миллисекундах
	Event     string  `json:"event"`
	Building  string  `json:"building"`
	Piece     string  `json:"piece,omitempty"`
	Health    float64 `json:"health,omitempty"`
	MaxHealth float64 `json:"max_health,omitempty"`
	Count     int     `json:"count,omitempty"` // обломков или чанков
}

// TelemetryManager собирает события разрушения зданий.
// Реализует наблюдателя здания, поэтому передается в сервис мира напрямую.
type TelemetryManager struct {
	enabled    bool
	data       []TelemetryData
	mutex      sync.RWMutex
	maxEntries int
	clock      func() time.Time

	// Счетчики для статистики
	counters      map[string]int
	totals        map[string]int
	lastPrint     time.Time
	printInterval time.Duration
	logger        *log.Logger
}

// NewTelemetryManager создает новый менеджер телеметрии
func NewTelemetryManager(logger *log.Logger) *TelemetryManager {
	if logger == nil {
		logger = log.New(log.Writer(), "[Telemetry] ", log.LstdFlags)
	}
	return &TelemetryManager{
		enabled:       true,
		data:          make([]TelemetryData, 0),
		maxEntries:    200, // Храним последние 200 записей
		clock:         time.Now,
		counters:      make(map[string]int),
		totals:        make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: 10 * time.Second,
		logger:        logger,
	}
}

// SetClock подменяет источник времени
func (tm *TelemetryManager) SetClock(clock func() time.Time) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.clock = clock
	tm.lastPrint = clock()
}

// SetMaxEntries меняет размер буфера событий
func (tm *TelemetryManager) SetMaxEntries(n int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if n <= 0 {
		return
	}
	tm.maxEntries = n
	tm.trimLocked()
}

// PieceDamaged записывает урон по детали
func (tm *TelemetryManager) PieceDamaged(building, piece string, health, maxHealth float64) {
	tm.record(TelemetryData{Event: EventDamaged, Building: building, Piece: piece, Health: health, MaxHealth: maxHealth})
}

// PieceDestroyed записывает разрушение детали
func (tm *TelemetryManager) PieceDestroyed(building, piece string, debris int) {
	tm.record(TelemetryData{Event: EventDestroyed, Building: building, Piece: piece, Count: debris})
}

// PieceCollapsed записывает потерю опоры
func (tm *TelemetryManager) PieceCollapsed(building, piece string) {
	tm.record(TelemetryData{Event: EventCollapsed, Building: building, Piece: piece})
}

// PieceFractured записывает излом грани
func (tm *TelemetryManager) PieceFractured(building, piece string, chunks int) {
	tm.record(TelemetryData{Event: EventFractured, Building: building, Piece: piece, Count: chunks})
}

// DebrisExpired записывает удаление обломков по времени жизни
func (tm *TelemetryManager) DebrisExpired(building string, count int) {
	tm.record(TelemetryData{Event: EventExpired, Building: building, Count: count})
}

func (tm *TelemetryManager) record(entry TelemetryData) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	entry.Timestamp = tm.clock().UnixMilli()
	tm.data = append(tm.data, entry)
	tm.trimLocked()

	tm.counters[entry.Event]++
	tm.totals[entry.Event]++
}

func (tm *TelemetryManager) trimLocked() {
	if over := len(tm.data) - tm.maxEntries; over > 0 {
		tm.data = append(tm.data[:0:0], tm.data[over:]...)
	}
}

// Totals возвращает число событий каждого типа за все время
func (tm *TelemetryManager) Totals() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make(map[string]int, len(tm.totals))
	for k, v := range tm.totals {
		out[k] = v
	}
	return out
}

// Recent возвращает копию последних событий, старые первыми
func (tm *TelemetryManager) Recent() []TelemetryData {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return append([]TelemetryData(nil), tm.data...)
}

// PrintSummary выводит сводку за интервал и сбрасывает счетчики интервала.
// Возвращает false, если интервал еще не прошел.
func (tm *TelemetryManager) PrintSummary() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return false
	}

	now := tm.clock()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return false
	}

	if len(tm.counters) > 0 {
		keys := make([]string, 0, len(tm.counters))
		for k := range tm.counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		tm.logger.Printf("🔬 ===== РАЗРУШЕНИЯ за %v =====", now.Sub(tm.lastPrint).Round(time.Second))
		for _, k := range keys {
			tm.logger.Printf("📈 %s: %d", k, tm.counters[k])
		}
		tm.printRecentBuildings()
	}

	tm.counters = make(map[string]int)
	tm.lastPrint = now
	return true
}

// printRecentBuildings выводит последнее событие по каждому зданию
func (tm *TelemetryManager) printRecentBuildings() {
	last := make(map[string]TelemetryData)
	for i := len(tm.data) - 1; i >= 0; i-- {
		entry := tm.data[i]
		if _, ok := last[entry.Building]; !ok {
			last[entry.Building] = entry
		}
	}

	for building, entry := range last {
		ts := time.UnixMilli(entry.Timestamp)
		tm.logger.Printf("🏚 %s [%s]: %s %s", building, ts.Format("15:04:05.000"), entry.Event, entry.Piece)
	}
}

// GetTelemetryJSON возвращает телеметрию в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(tm.data, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonData), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Printf("🔬 Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Clear очищает все данные телеметрии
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]TelemetryData, 0)
	tm.counters = make(map[string]int)
	tm.totals = make(map[string]int)
}
