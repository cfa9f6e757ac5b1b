// Package bootstrap — точка сборки Pool Service: инфраструктура, адаптеры,
// use case и HTTP сервер создаются здесь и связываются через конструкторы.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"airpool/internal/pool/adapter/in/transport"
	"airpool/internal/pool/adapter/out/out_amqp"
	"airpool/internal/pool/adapter/out/repo"
	"airpool/internal/pool/application/usecase"
	"airpool/internal/shared/auth"
	"airpool/internal/shared/config"
	db_conn "airpool/internal/shared/db"
	"airpool/internal/shared/logger"
	"airpool/internal/shared/mq"
)

// Run запускает Pool Service со всеми его компонентами и блокируется до
// отмены контекста.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "pool_service_starting", Message: "initializing pool service"})

	// инфраструктура: PostgreSQL, миграции, RabbitMQ, JWT
	dbPool, err := db_conn.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer db_conn.Close(dbPool, log)

	if err := db_conn.Migrate(ctx, dbPool, log); err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_migration_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	mqConn, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(mqConn, log); err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_topology_setup_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// исходящие адаптеры: события, транзакции, чтения вне транзакций
	eventPublisher := out_amqp.NewPoolEventPublisher(mqConn, log)
	txManager := repo.NewPgTxManager(dbPool, eventPublisher, log)
	riderStore := repo.NewRiderPgStore(dbPool, log)
	placeResolver := repo.NewPlacePgResolver(dbPool, log)
	rideStore := repo.NewRidePgStore(dbPool, log)

	// бизнес-логика
	lifecycle := usecase.NewLifecycleService(log, txManager, riderStore, placeResolver)

	// HTTP
	httpHandler := transport.NewHTTPHandler(lifecycle, rideStore, log)
	authMiddleware := transport.JWTMiddleware(jwtService, log)
	mux := transport.NewRouter(httpHandler, authMiddleware, log)

	addr := fmt.Sprintf(":%d", cfg.Services.PoolServicePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", addr),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(logger.Entry{
				Action:  "http_server_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	<-ctx.Done()
	log.Info(logger.Entry{Action: "pool_service_stopping", Message: "shutting down pool service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	} else {
		log.Info(logger.Entry{Action: "http_server_stopped", Message: "http server stopped gracefully"})
	}

	log.Info(logger.Entry{Action: "pool_service_stopped", Message: "pool service stopped"})
}
