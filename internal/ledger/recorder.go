package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/logger"
)

// TransactionRecord is the finalized, persistable representation of a
// completed entry flow. It is constructed at save time and not retained
// after handoff to the store.
type TransactionRecord struct {
	ID           string
	UserID       int64
	Type         TxType
	CategoryName string
	Amount       Cents
	Description  string
	CreatedAt    time.Time
}

// Store persists transaction records. Duplicate inserts caused by
// user-initiated retry after a reported failure are acceptable; no
// idempotency key is maintained.
type Store interface {
	SaveTransaction(ctx context.Context, rec TransactionRecord) error
}

// Recorder assembles a finalized session into a TransactionRecord and
// performs the save. It does not re-validate business rules: the state
// machine guarantees type, category, and amount are set before invoking it.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder wires a Recorder to the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Save writes the session as a transaction record.
func (r *Recorder) Save(ctx context.Context, s *Session) error {
	rec := TransactionRecord{
		ID:           uuid.NewString(),
		UserID:       s.UserID,
		Type:         s.Type,
		CategoryName: s.CategoryName,
		Amount:       s.Amount,
		Description:  s.Description,
		CreatedAt:    r.now().UTC(),
	}

	start := time.Now()
	if err := r.store.SaveTransaction(ctx, rec); err != nil {
		logger.Error(ctx, "ledger", "transaction.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", s.UserID),
			slog.String("tx_type", string(s.Type)),
			slog.String("category", s.CategoryName),
			slog.Int64("amount_cents", int64(s.Amount)),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("save transaction: %w", err)
	}

	logger.Info(ctx, "ledger", "transaction.save",
		slog.String("status", "ok"),
		slog.Int64("user_id", s.UserID),
		slog.String("tx_type", string(s.Type)),
		slog.String("category", s.CategoryName),
		slog.Int64("amount_cents", int64(s.Amount)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
