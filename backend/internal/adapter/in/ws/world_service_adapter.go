package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"x-rubble/backend/internal/adapter/out/scene"
	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
	"x-rubble/backend/internal/core/port/in/worldmanagement"
)

var (
	ErrQueueFull      = errors.New("очередь команд переполнена")
	ErrUnknownCommand = errors.New("неизвестная команда")
	ErrUnknownKind    = errors.New("неизвестный тип здания")
)

// BlueprintSource возвращает чертеж по типу здания
type BlueprintSource func(kind string) (entity.Blueprint, bool)

// Command команда клиента, ожидающая выполнения в игровом цикле
type Command struct {
	Name       string
	ClientTime float64
	Data       json.RawMessage
	Reply      scene.Client // может быть nil
}

// WorldServiceAdapter копит команды из сетевых горутин и выполняет их
// в потоке тикера: здания меняются только оттуда.
type WorldServiceAdapter struct {
	world      worldmanagement.WorldManagementPort
	blueprints BlueprintSource
	queue      chan Command
	logger     *log.Logger
}

// NewWorldServiceAdapter создает адаптер с очередью на size команд
func NewWorldServiceAdapter(world worldmanagement.WorldManagementPort, blueprints BlueprintSource, size int, logger *log.Logger) *WorldServiceAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[WS] ", log.LstdFlags)
	}
	if size <= 0 {
		size = 256
	}
	return &WorldServiceAdapter{
		world:      world,
		blueprints: blueprints,
		queue:      make(chan Command, size),
		logger:     logger,
	}
}

// Enqueue ставит команду в очередь, не блокируясь
func (a *WorldServiceAdapter) Enqueue(cmd Command) error {
	select {
	case a.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending число команд в очереди
func (a *WorldServiceAdapter) Pending() int {
	return len(a.queue)
}

// Drain выполняет все накопленные команды. Возвращает их число.
func (a *WorldServiceAdapter) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case cmd := <-a.queue:
			a.run(ctx, cmd)
			n++
		default:
			return n
		}
	}
}

func (a *WorldServiceAdapter) run(ctx context.Context, cmd Command) {
	result, err := a.Execute(ctx, cmd.Name, cmd.Data)

	var reply interface{}
	if err != nil {
		a.logger.Printf("Ошибка выполнения команды %s: %v", cmd.Name, err)
		reply = NewErrorMessage(cmd.Name, err)
	} else {
		reply = NewAckMessage(cmd.Name, cmd.ClientTime, result)
	}

	if cmd.Reply == nil {
		return
	}
	if err := cmd.Reply.WriteJSON(reply); err != nil {
		a.logger.Printf("Ошибка при отправке ответа на %s: %v", cmd.Name, err)
	}
}

// Execute выполняет одну команду и возвращает результат для клиента
func (a *WorldServiceAdapter) Execute(ctx context.Context, name string, data json.RawMessage) (interface{}, error) {
	switch name {
	case CommandDamage:
		var d DamageData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		destroyed, err := a.world.DamagePiece(ctx, d.Building, d.Piece, d.Amount, service.DamageOptions{
			CreateFragments: d.Fragments,
			CreateChunks:    d.Chunks,
			ImpactPos:       d.Impact,
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"destroyed": destroyed}, nil

	case CommandShoot:
		var d ShootData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		hit, ok := a.world.Shoot(ctx, d.Impact, d.Amount)
		return ShootResult{Hit: ok, Building: hit.Building, Piece: hit.Piece, Destroyed: hit.Destroyed}, nil

	case CommandSpawn:
		var d SpawnData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		bp, ok := a.blueprints(d.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
		}
		b, err := a.world.SpawnBuilding(ctx, d.Name, d.Position, bp)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"building": b.Name, "pieces": len(b.Pieces())}, nil

	case CommandRemove:
		var d RemoveData
		if err := decode(data, &d); err != nil {
			return nil, err
		}
		if err := a.world.RemoveBuilding(ctx, d.Name, d.KeepDebris); err != nil {
			return nil, err
		}
		return map[string]interface{}{"removed": d.Name}, nil

	case CommandSnapshot:
		return a.world.Snapshot(ctx), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// IsKnownCommand проверяет имя команды до постановки в очередь
func IsKnownCommand(name string) bool {
	switch name {
	case CommandDamage, CommandShoot, CommandSpawn, CommandRemove, CommandSnapshot:
		return true
	}
	return false
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("нет данных команды")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("неверный формат данных команды: %w", err)
	}
	return nil
}
