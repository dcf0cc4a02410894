package game

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal общий порядок вызовов систем
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type mockStepper struct {
	j   *journal
	dts []time.Duration
	err error
}

func (m *mockStepper) Step(_ context.Context, dt time.Duration) error {
	m.j.add("step")
	m.dts = append(m.dts, dt)
	return m.err
}

type mockQueue struct{ j *journal }

func (m *mockQueue) Drain(context.Context) int {
	m.j.add("drain")
	return 0
}

type mockWorld struct {
	j   *journal
	now []time.Time
}

func (m *mockWorld) Update(_ context.Context, now time.Time) {
	m.j.add("update")
	m.now = append(m.now, now)
}

func (m *mockWorld) SyncPositions(context.Context) {
	m.j.add("sync")
}

type mockFlusher struct{ j *journal }

func (m *mockFlusher) Flush() int {
	m.j.add("flush")
	return 0
}

type panicSystem struct{}

func (panicSystem) Update(time.Duration) error { panic("сломано") }
func (panicSystem) GetName() string            { return "PanicSystem" }
func (panicSystem) GetPriority() int           { return 1 }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newPipeline(t *testing.T, fixed time.Time) (*GameTicker, *journal, *mockStepper, *mockWorld) {
	t.Helper()
	gt := NewGameTicker(50, quietLogger())
	j := &journal{}
	stepper := &mockStepper{j: j}
	world := &mockWorld{j: j}

	// регистрация в произвольном порядке: тикер сортирует по приоритету
	gt.RegisterSystem(NewNetworkSyncSystem(&mockFlusher{j: j}))
	gt.RegisterSystem(NewDestructionSystem(gt.Context(), world, func() time.Time { return fixed }))
	gt.RegisterSystem(NewPhysicsUpdateSystem(gt.Context(), stepper, 50*time.Millisecond, quietLogger()))
	gt.RegisterSystem(NewCommandSystem(gt.Context(), &mockQueue{j: j}, quietLogger()))
	return gt, j, stepper, world
}

func TestSystemsRunInPriorityOrder(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	gt, j, stepper, world := newPipeline(t, fixed)

	assert.Equal(t, []string{"CommandSystem", "PhysicsUpdateSystem", "DestructionSystem", "NetworkSyncSystem"}, gt.Systems())

	start := time.Now()
	gt.lastTickTime = start
	gt.executeTick(start.Add(20 * time.Millisecond))

	assert.Equal(t, []string{"drain", "step", "sync", "update", "flush"}, j.list())
	assert.Equal(t, []time.Duration{20 * time.Millisecond}, stepper.dts)
	assert.Equal(t, []time.Time{fixed}, world.now)
	assert.Equal(t, uint64(1), gt.GetTickCount())
}

func TestPhysicsStepIsClamped(t *testing.T) {
	gt, _, stepper, _ := newPipeline(t, time.Now())

	start := time.Now()
	gt.lastTickTime = start
	gt.executeTick(start.Add(time.Second))
	gt.executeTick(start.Add(time.Second))

	// второй тик с нулевой дельтой не шагает физику
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, stepper.dts)

	stats := gt.GetStats()
	assert.Equal(t, uint64(1), stats["skipped_ticks"])
}

func TestSystemErrorsAreCounted(t *testing.T) {
	gt, _, stepper, _ := newPipeline(t, time.Now())
	stepper.err = errors.New("физика недоступна")
	gt.RegisterSystem(panicSystem{})

	start := time.Now()
	gt.lastTickTime = start
	gt.executeTick(start.Add(10 * time.Millisecond))

	physics, ok := gt.perfMonitor.Metrics("PhysicsUpdateSystem")
	require.True(t, ok)
	assert.Equal(t, uint64(1), physics.Errors)
	assert.Equal(t, uint64(1), physics.TotalExecutions)

	panicked, ok := gt.perfMonitor.Metrics("PanicSystem")
	require.True(t, ok)
	assert.Equal(t, uint64(1), panicked.Errors)

	// паника в одной системе не мешает остальным
	net, _ := gt.perfMonitor.Metrics("NetworkSyncSystem")
	assert.Equal(t, uint64(1), net.TotalExecutions)
}

func TestPerformanceMonitorAverage(t *testing.T) {
	pm := NewPerformanceMonitor(2, time.Millisecond)
	pm.initSystemMetrics("s")

	pm.recordExecution("s", 2*time.Millisecond)
	pm.recordExecution("s", 4*time.Millisecond)
	pm.recordExecution("s", 8*time.Millisecond)

	m, ok := pm.Metrics("s")
	require.True(t, ok)
	assert.Equal(t, 6*time.Millisecond, m.AverageTime)
	assert.Equal(t, 8*time.Millisecond, m.MaxTime)
	assert.Equal(t, uint64(3), m.TotalExecutions)

	_, ok = pm.Metrics("missing")
	assert.False(t, ok)
}

func TestTickerLoop(t *testing.T) {
	gt, j, _, _ := newPipeline(t, time.Now())

	require.NoError(t, gt.Start())
	require.Eventually(t, func() bool { return gt.GetTickCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	gt.Pause(true)
	assert.True(t, gt.GetStats()["is_paused"].(bool))
	gt.Pause(false)

	gt.Stop()
	assert.False(t, gt.GetStats()["is_running"].(bool))
	assert.Error(t, gt.Context().Err())

	calls := len(j.list())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, len(j.list()), "после остановки системы не вызываются")

	// повторная остановка безопасна
	gt.Stop()
}
