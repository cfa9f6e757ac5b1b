package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"airpool/internal/shared/config"
	"airpool/internal/shared/logger"

	poolboot "airpool/internal/pool/bootstrap"
)

func main() {
	svc := flag.String("service", "pool", "pool")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() { <-quit; cancel() }()

	switch *svc {
	case "pool":
		log := logger.NewLogger("pool-service")
		poolboot.Run(ctx, cfg, log)

	default:
		log := logger.NewLogger("bootstrap")
		log.Fatal(logger.Entry{Action: "invalid_service", Message: *svc})
	}
}
