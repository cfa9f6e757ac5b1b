package db_conn

import (
	"context"
	"fmt"
	"time"

	"airpool/internal/shared/config"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Параметры пула pool-service: лимиты скромные, сервис держит короткие
// транзакции на каждую операцию жизненного цикла.
const (
	poolMaxConns     = 16
	poolMinConns     = 2
	connMaxLifetime  = time.Hour
	connMaxIdleTime  = 30 * time.Minute
	healthCheckEvery = time.Minute
	pingTimeout      = 5 * time.Second
)

// NewPool создает пул подключений к PostgreSQL и проверяет его ping-ом
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	poolCfg.MaxConns = poolMaxConns
	poolCfg.MinConns = poolMinConns
	poolCfg.MaxConnLifetime = connMaxLifetime
	poolCfg.MaxConnIdleTime = connMaxIdleTime
	poolCfg.HealthCheckPeriod = healthCheckEvery

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info(logger.Entry{
		Action:  "db_connected",
		Message: "postgres pool ready",
		Additional: map[string]any{
			"host":      cfg.Host,
			"database":  cfg.Database,
			"max_conns": poolMaxConns,
		},
	})
	return pool, nil
}

// Close закрывает пул с логированием
func Close(pool *pgxpool.Pool, log *logger.Logger) {
	if pool == nil {
		return
	}
	pool.Close()
	log.Info(logger.Entry{Action: "db_closed", Message: "database pool closed"})
}
