package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"x-rubble/backend/internal/physics"
)

func main() {
	addr := flag.String("addr", ":50051", "Адрес gRPC сервера физики")
	flag.Parse()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("[PhysicsServer] Не удалось открыть порт %s: %v", *addr, err)
	}

	logger := log.New(log.Writer(), "[PhysicsServer] ", log.LstdFlags)
	world := physics.NewSimWorld(physics.GetPhysicsConfig(), logger)

	srv := grpc.NewServer()
	physics.RegisterPhysicsServer(srv, physics.NewServer(world, logger))

	// Шаг симуляции задает игровой сервер через Step, здесь мир пассивен
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logger.Printf("Остановка (тел: %d, ограничений: %d)", world.BodyCount(), world.ConstraintCount())
		srv.GracefulStop()
	}()

	logger.Printf("Сервер физики слушает %s", *addr)
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("[PhysicsServer] %v", err)
	}
}
