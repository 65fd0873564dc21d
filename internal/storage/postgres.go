package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/ledger"
	"github.com/Dharshan209/fintrack-bot/internal/logger"
)

// Connect opens the database connection, configures the pool, and verifies
// connectivity.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.Error(ctx, "storage", "db.connect",
			slog.String("status", "fail"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if pingErr := db.PingContext(connectCtx); pingErr != nil {
		logger.Error(ctx, "storage", "db.ping",
			slog.String("status", "fail"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.String("err", pingErr.Error()),
		)
		return nil, fmt.Errorf("db ping: %w", pingErr)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.Debug(ctx, "storage", "db.pool",
		slog.Int("pool_open", cfg.MaxConnections),
	)

	logger.Info(ctx, "storage", "db.connect",
		slog.String("status", "ok"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// WaitForPostgres polls the database until it accepts connections or the
// timeout elapses. Used before running migrations on fresh deployments.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	start := time.Now()
	var lastErr error
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				_ = db.Close()
				return nil
			}
			_ = db.Close()
		}
		lastErr = err
		if time.Since(start) > timeout {
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		}
		time.Sleep(2 * time.Second)
	}
}

// transactionRow mirrors the transactions table layout for sqlx binding.
type transactionRow struct {
	ID           string    `db:"id"`
	UserID       int64     `db:"user_id"`
	Type         string    `db:"tx_type"`
	CategoryName string    `db:"category"`
	AmountCents  int64     `db:"amount_cents"`
	Description  string    `db:"description"`
	CreatedAt    time.Time `db:"created_at"`
}

// TransactionStore persists finished transactions in PostgreSQL. It satisfies
// ledger.Store.
type TransactionStore struct {
	db *sqlx.DB
}

// NewTransactionStore wraps the given connection pool.
func NewTransactionStore(db *sqlx.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const insertTransaction = `
	INSERT INTO transactions (id, user_id, tx_type, category, amount_cents, description, created_at)
	VALUES (:id, :user_id, :tx_type, :category, :amount_cents, :description, :created_at)`

// SaveTransaction inserts one row per record. Records carry fresh UUIDs, so a
// user-initiated retry after a reported failure may produce a duplicate row;
// that is accepted behavior.
func (s *TransactionStore) SaveTransaction(ctx context.Context, rec ledger.TransactionRecord) error {
	row := rowFromRecord(rec)
	if _, err := s.db.NamedExecContext(ctx, insertTransaction, row); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func rowFromRecord(rec ledger.TransactionRecord) transactionRow {
	return transactionRow{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Type:         string(rec.Type),
		CategoryName: rec.CategoryName,
		AmountCents:  int64(rec.Amount),
		Description:  rec.Description,
		CreatedAt:    rec.CreatedAt,
	}
}
