package game

import (
	"context"
	"log"
	"time"
)

// Stepper продвигает физический мир
type Stepper interface {
	Step(ctx context.Context, dt time.Duration) error
}

// CommandQueue очередь команд клиентов
type CommandQueue interface {
	Drain(ctx context.Context) int
}

// DestructionWorld мир зданий: сроки жизни обломков и синхронизация с физикой
type DestructionWorld interface {
	Update(ctx context.Context, now time.Time)
	SyncPositions(ctx context.Context)
}

// SceneFlusher отправляет клиентам накопленные за тик изменения
type SceneFlusher interface {
	Flush() int
}

// Reporter периодически выводит сводку
type Reporter interface {
	PrintSummary() bool
}

// CommandSystem выполняет команды, пришедшие между тиками
type CommandSystem struct {
	name     string
	priority int
	ctx      context.Context
	queue    CommandQueue
	logger   *log.Logger
}

// NewCommandSystem создает систему команд
func NewCommandSystem(ctx context.Context, queue CommandQueue, logger *log.Logger) *CommandSystem {
	return &CommandSystem{
		name:     "CommandSystem",
		priority: 5, // Команды первыми: урон успевает попасть в этот же шаг физики
		ctx:      ctx,
		queue:    queue,
		logger:   logger,
	}
}

// Update выполняет все команды из очереди
func (cs *CommandSystem) Update(time.Duration) error {
	if n := cs.queue.Drain(cs.ctx); n > 10 {
		cs.logger.Printf("[CommandSystem] За тик выполнено %d команд", n)
	}
	return nil
}

// GetName возвращает имя системы
func (cs *CommandSystem) GetName() string {
	return cs.name
}

// GetPriority возвращает приоритет системы
func (cs *CommandSystem) GetPriority() int {
	return cs.priority
}

// PhysicsUpdateSystem шагает физический мир
type PhysicsUpdateSystem struct {
	name     string
	priority int
	ctx      context.Context
	stepper  Stepper
	maxStep  time.Duration
	logger   *log.Logger
}

// NewPhysicsUpdateSystem создает новую систему обновления физики.
// Шаг длиннее maxStep обрезается, чтобы после задержки тела не пролетали сквозь землю.
func NewPhysicsUpdateSystem(ctx context.Context, stepper Stepper, maxStep time.Duration, logger *log.Logger) *PhysicsUpdateSystem {
	if maxStep <= 0 {
		maxStep = 100 * time.Millisecond
	}
	return &PhysicsUpdateSystem{
		name:     "PhysicsUpdateSystem",
		priority: 10,
		ctx:      ctx,
		stepper:  stepper,
		maxStep:  maxStep,
		logger:   logger,
	}
}

// Update продвигает физику на deltaTime
func (pus *PhysicsUpdateSystem) Update(deltaTime time.Duration) error {
	if deltaTime <= 0 {
		return nil
	}
	if deltaTime > pus.maxStep {
		deltaTime = pus.maxStep
	}
	return pus.stepper.Step(pus.ctx, deltaTime)
}

// GetName возвращает имя системы
func (pus *PhysicsUpdateSystem) GetName() string {
	return pus.name
}

// GetPriority возвращает приоритет системы
func (pus *PhysicsUpdateSystem) GetPriority() int {
	return pus.priority
}

// DestructionSystem переносит позиции тел в детали и обломки и удаляет
// просроченные обломки
type DestructionSystem struct {
	name     string
	priority int
	ctx      context.Context
	world    DestructionWorld
	clock    func() time.Time
}

// NewDestructionSystem создает систему обновления зданий
func NewDestructionSystem(ctx context.Context, world DestructionWorld, clock func() time.Time) *DestructionSystem {
	if clock == nil {
		clock = time.Now
	}
	return &DestructionSystem{
		name:     "DestructionSystem",
		priority: 20,
		ctx:      ctx,
		world:    world,
		clock:    clock,
	}
}

// Update синхронизирует позиции и чистит обломки
func (ds *DestructionSystem) Update(time.Duration) error {
	ds.world.SyncPositions(ds.ctx)
	ds.world.Update(ds.ctx, ds.clock())
	return nil
}

// GetName возвращает имя системы
func (ds *DestructionSystem) GetName() string {
	return ds.name
}

// GetPriority возвращает приоритет системы
func (ds *DestructionSystem) GetPriority() int {
	return ds.priority
}

// NetworkSyncSystem рассылает клиентам изменения сцены раз в тик
type NetworkSyncSystem struct {
	name     string
	priority int
	scene    SceneFlusher
}

// NewNetworkSyncSystem создает систему рассылки
func NewNetworkSyncSystem(scene SceneFlusher) *NetworkSyncSystem {
	return &NetworkSyncSystem{
		name:     "NetworkSyncSystem",
		priority: 100, // После всех изменений мира
		scene:    scene,
	}
}

// Update отправляет накопленные позиции
func (nss *NetworkSyncSystem) Update(time.Duration) error {
	nss.scene.Flush()
	return nil
}

// GetName возвращает имя системы
func (nss *NetworkSyncSystem) GetName() string {
	return nss.name
}

// GetPriority возвращает приоритет системы
func (nss *NetworkSyncSystem) GetPriority() int {
	return nss.priority
}

// GameMetricsSystem система сбора игровых метрик
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	reporter   Reporter // может быть nil
	logger     *log.Logger

	// Счетчики для метрик
	lastMetricsLog  time.Time
	metricsInterval time.Duration
}

// NewGameMetricsSystem создает новую систему сбора метрик
func NewGameMetricsSystem(gameTicker *GameTicker, reporter Reporter, logger *log.Logger) *GameMetricsSystem {
	return &GameMetricsSystem{
		name:            "GameMetricsSystem",
		priority:        200, // Очень низкий приоритет - метрики в самом конце
		gameTicker:      gameTicker,
		reporter:        reporter,
		logger:          logger,
		lastMetricsLog:  time.Now(),
		metricsInterval: 30 * time.Second, // Логируем метрики каждые 30 секунд
	}
}

// Update собирает и логирует игровые метрики
func (gms *GameMetricsSystem) Update(time.Duration) error {
	if gms.reporter != nil {
		gms.reporter.PrintSummary()
	}

	now := time.Now()
	if now.Sub(gms.lastMetricsLog) < gms.metricsInterval {
		return nil
	}
	gms.lastMetricsLog = now

	stats := gms.gameTicker.GetStats()
	gms.logger.Printf("[GameMetrics] TPS: %.1f/%d, Тиков: %d, Время тика: %v",
		stats["actual_tps"], stats["target_tps"], stats["tick_count"], stats["average_tick_time"])

	if actualTPS := stats["actual_tps"].(float64); actualTPS < float64(stats["target_tps"].(int))*0.9 {
		gms.logger.Printf("[GameMetrics] ПРЕДУПРЕЖДЕНИЕ: TPS снижен до %.1f", actualTPS)
	}

	return nil
}

// GetName возвращает имя системы
func (gms *GameMetricsSystem) GetName() string {
	return gms.name
}

// GetPriority возвращает приоритет системы
func (gms *GameMetricsSystem) GetPriority() int {
	return gms.priority
}
