package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	wsAdapter "x-rubble/backend/internal/adapter/in/ws"
	physicsAdapter "x-rubble/backend/internal/adapter/out/physics"
	sceneAdapter "x-rubble/backend/internal/adapter/out/scene"
	"x-rubble/backend/internal/core/domain/entity"
	"x-rubble/backend/internal/core/domain/service"
	portPhysics "x-rubble/backend/internal/core/port/out/physics"
	"x-rubble/backend/internal/game"
	"x-rubble/backend/internal/physics"
	"x-rubble/backend/internal/telemetry"
	"x-rubble/backend/internal/world"
)

// physicsBackend физический мир, которым управляет сервер
type physicsBackend interface {
	portPhysics.PhysicsPort
	physicsAdapter.Stepper
	Close() error
}

func newPhysics(ctx context.Context, mode string) (physicsBackend, error) {
	if mode == "local" {
		log.Printf("[Server] Физика в процессе сервера")
		logger := log.New(log.Writer(), "[SimWorld] ", log.LstdFlags)
		return physicsAdapter.NewLocalPhysicsAdapter(physics.NewSimWorld(physics.GetPhysicsConfig(), logger)), nil
	}
	log.Printf("[Server] Физика на удаленном сервере %s", mode)
	remote, err := physicsAdapter.NewGRPCPhysicsAdapter(ctx, mode)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

func main() {
	var (
		addr      = flag.String("addr", ":8080", "Адрес HTTP сервера")
		physAddr  = flag.String("physics", "local", "local или адрес gRPC сервера физики (localhost:50051)")
		tps       = flag.Int("tps", 60, "Частота игрового цикла")
		staticDir = flag.String("static", "../../../dist", "Каталог статических файлов клиента")
		village   = flag.String("village", "2x3", "Раскладка демо-зданий RxC, пусто - без зданий")
		spacing   = flag.Float64("spacing", 30, "Расстояние между зданиями")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Физика
	phys, err := newPhysics(ctx, *physAddr)
	if err != nil {
		log.Fatalf("[Server] Не удалось запустить физику: %v", err)
	}
	defer phys.Close()

	// Сцена, телеметрия и мир
	scene := sceneAdapter.NewWSSceneAdapter(nil)
	tele := telemetry.NewTelemetryManager(nil)
	worldService := service.NewWorldService(service.Deps{
		Physics:  phys,
		Scene:    scene,
		Config:   entity.DefaultDestructionConfig(),
		Observer: tele,
	})

	factory := world.NewFactory()
	if rows, cols, ok := parseGrid(*village); ok {
		placements := world.Village(rows, cols, *spacing, factory.Kinds())
		if _, err := factory.Populate(ctx, worldService, placements); err != nil {
			log.Printf("[Server] Ошибка при постройке демо-зданий: %v", err)
		}
	}

	// Команды клиентов выполняются в игровом цикле
	commands := wsAdapter.NewWorldServiceAdapter(worldService, factory.Blueprint, 0, nil)
	handler := wsAdapter.NewWSAdapter(commands, scene, nil)

	// Игровой цикл
	ticker := game.NewGameTicker(*tps, log.Default())
	ticker.RegisterSystem(game.NewCommandSystem(ticker.Context(), commands, log.Default()))
	ticker.RegisterSystem(game.NewPhysicsUpdateSystem(ticker.Context(), phys, 4*ticker.TickDuration(), log.Default()))
	ticker.RegisterSystem(game.NewDestructionSystem(ticker.Context(), worldService, time.Now))
	ticker.RegisterSystem(game.NewNetworkSyncSystem(scene))
	ticker.RegisterSystem(game.NewGameMetricsSystem(ticker, tele, log.Default()))
	if err := ticker.Start(); err != nil {
		log.Fatalf("[Server] Не удалось запустить игровой цикл: %v", err)
	}
	defer ticker.Stop()

	// HTTP маршруты
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWS)
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ticker":    ticker.GetStats(),
			"systems":   ticker.GetSystemsStats(),
			"telemetry": tele.Totals(),
			"clients":   scene.ClientCount(),
			"nodes":     scene.NodeCount(),
		})
	})
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := tele.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(data))
	})

	if _, err := os.Stat(*staticDir); os.IsNotExist(err) {
		log.Printf("[Server] Warning: Directory %s does not exist", *staticDir)
	}
	mux.Handle("/", http.FileServer(http.Dir(*staticDir)))

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		log.Printf("[Server] Остановка сервера")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Server] Serving static files from: %s", *staticDir)
	log.Printf("[Server] Server starting on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// parseGrid разбирает раскладку вида "2x3"
func parseGrid(s string) (int, int, bool) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	rows, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	cols, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return rows, cols, rows > 0 && cols > 0
}
