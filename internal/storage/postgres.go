package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStorage is the local archive of successfully submitted
// orders. The backend remains the source of truth; these rows exist
// for admin stats and audit.
type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SubmittedOrder is one archived submission.
type SubmittedOrder struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	BackendOrderID  int64     `db:"backend_order_id"`
	CustomerName    string    `db:"customer_name"`
	CustomerEmail   string    `db:"customer_email"`
	CustomerPhone   string    `db:"customer_phone"`
	ServiceID       int64     `db:"service_id"`
	ServiceName     string    `db:"service_name"`
	FilesCount      int       `db:"files_count"`
	Material        string    `db:"material"`
	Quality         string    `db:"quality"`
	Infill          string    `db:"infill"`
	DeliveryNeeded  bool      `db:"delivery_needed"`
	DeliveryDetails string    `db:"delivery_details"`
	CreatedAt       time.Time `db:"created_at"`
}

type OrderStats struct {
	Total  int64 `db:"total"`
	Last24 int64 `db:"last24"`
}

func NewPostgresStorage(ctx context.Context, cfg Config, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := RunMigrations(ctx, db.DB, logger); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{
		db:     db,
		logger: logger,
	}, nil
}

// SaveOrder archives one submitted order and returns the local row id.
func (s *PostgresStorage) SaveOrder(ctx context.Context, order SubmittedOrder) (int64, error) {
	const query = `
		INSERT INTO submitted_orders (
			user_id, backend_order_id, customer_name, customer_email,
			customer_phone, service_id, service_name, files_count,
			material, quality, infill, delivery_needed, delivery_details,
			created_at
		) VALUES (
			:user_id, :backend_order_id, :customer_name, :customer_email,
			:customer_phone, :service_id, :service_name, :files_count,
			:material, :quality, :infill, :delivery_needed, :delivery_details,
			:created_at
		) RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	rows, err := s.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		return 0, fmt.Errorf("insert submitted order: %w", err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan inserted id: %w", err)
		}
	}

	s.logger.Info("Archived submitted order",
		zap.Int64("id", id),
		zap.Int64("backend_order_id", order.BackendOrderID),
		zap.Int64("user_id", order.UserID))
	return id, nil
}

// Stats returns submission counters for the admin /stats command.
func (s *PostgresStorage) Stats(ctx context.Context) (OrderStats, error) {
	const query = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours') AS last24
		FROM submitted_orders`

	var stats OrderStats
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return OrderStats{}, fmt.Errorf("query order stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStorage) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close PostgreSQL connection", zap.Error(err))
	}
}
