package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanduq-pay/sanduq_pay/internal/wallet"
)

// PostgresStore persists ledger entries in PostgreSQL. Wallets and transfers
// live in the same transactional domain, so the atomic unit is a single
// multi-statement transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, transfer_id, sender_wallet, recipient_wallet, recipient_name,
        sender_currency, recipient_currency, amount_sent, amount_received, conversion_rate, status, created_at`

// ApplyTransfer runs the atomic transfer unit: insert the entry Pending, lock
// both wallet rows, debit and credit under that lock, flip the entry to
// Success and commit. Any failure rolls the whole unit back, so no partial
// debit, credit or orphaned Pending row is ever observable.
func (s *PostgresStore) ApplyTransfer(ctx context.Context, entry Entry) (TransferOutcome, error) {
	if !entry.AmountSent.IsPositive() {
		return TransferOutcome{}, fmt.Errorf("amount must be positive")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferOutcome{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var existing string
	err = tx.QueryRow(ctx, `SELECT transfer_id FROM transfers WHERE transfer_id = $1`, entry.TransferID).Scan(&existing)
	if err == nil {
		return TransferOutcome{}, ErrDuplicateTransfer
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return TransferOutcome{}, err
	}

	// Lock wallet rows in a stable order so concurrent transfers touching the
	// same pair cannot deadlock.
	wallets := wallet.NewPostgresStore(tx)
	first, second := entry.SenderWallet, entry.RecipientWallet
	if second < first {
		first, second = second, first
	}
	if _, err := wallets.GetForUpdate(ctx, first); err != nil {
		return TransferOutcome{}, err
	}
	if first != second {
		if _, err := wallets.GetForUpdate(ctx, second); err != nil {
			return TransferOutcome{}, err
		}
	}

	entry.Status = StatusPending
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := insertEntry(ctx, tx, entry); err != nil {
		return TransferOutcome{}, err
	}

	// The conditional update rejects a debit past zero, which covers the
	// balance check under the row lock taken above.
	sender, err := wallets.AdjustBalance(ctx, entry.SenderWallet, entry.AmountSent.Neg())
	if err != nil {
		return TransferOutcome{}, err
	}
	recipient, err := wallets.AdjustBalance(ctx, entry.RecipientWallet, entry.AmountReceived)
	if err != nil {
		return TransferOutcome{}, err
	}

	if err := markSuccess(ctx, tx, entry.TransferID); err != nil {
		return TransferOutcome{}, err
	}
	entry.Status = StatusSuccess

	if err := tx.Commit(ctx); err != nil {
		return TransferOutcome{}, err
	}

	return TransferOutcome{
		Entry:            entry,
		SenderBalance:    sender.Balance,
		RecipientBalance: recipient.Balance,
	}, nil
}

// Get fetches one ledger entry by transfer identifier.
func (s *PostgresStore) Get(ctx context.Context, transferID string) (Entry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM transfers WHERE transfer_id = $1`, transferID)
	return scanEntry(row)
}

// MarkSuccess transitions a pending entry to Success.
func (s *PostgresStore) MarkSuccess(ctx context.Context, transferID string) error {
	return markSuccess(ctx, s.db, transferID)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func markSuccess(ctx context.Context, db execer, transferID string) error {
	cmd, err := db.Exec(ctx, `UPDATE transfers SET status = $1 WHERE transfer_id = $2 AND status = $3`,
		StatusSuccess, transferID, StatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertEntry(ctx context.Context, db execer, e Entry) error {
	entryID, err := uuid.Parse(e.ID)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO transfers
        (id, transfer_id, sender_wallet, recipient_wallet, recipient_name,
         sender_currency, recipient_currency, amount_sent, amount_received, conversion_rate, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entryID, e.TransferID, e.SenderWallet, e.RecipientWallet, e.RecipientName,
		e.SenderCurrency, e.RecipientCurrency, e.AmountSent, e.AmountReceived, e.ConversionRate, e.Status, e.Timestamp.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateTransfer
	}
	return err
}

// QueryForUser returns entries where the user is sender or recipient, newest
// first, together with the unpaginated total.
func (s *PostgresStore) QueryForUser(ctx context.Context, walletNumbers []string, f Filter, p Page) ([]Entry, int, error) {
	if len(walletNumbers) == 0 {
		return nil, 0, nil
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}

	where := `(sender_wallet = ANY($1) OR recipient_wallet = ANY($1))`
	args := []any{walletNumbers}

	appendClause := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}

	if f.SenderWallet != "" {
		appendClause("sender_wallet =", f.SenderWallet)
	}
	if f.RecipientWallet != "" {
		appendClause("recipient_wallet =", f.RecipientWallet)
	}
	if f.Status != "" {
		appendClause("status =", f.Status)
	}
	if f.Start != nil {
		appendClause("created_at >=", f.Start.UTC())
	}
	if f.End != nil {
		appendClause("created_at <=", f.End.UTC())
	}
	if f.MinAmount != nil {
		appendClause("amount_sent >=", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		appendClause("amount_sent <=", *f.MaxAmount)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transfers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM transfers WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		entryColumns, where, p.Limit, p.offset())
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListBetween returns successful entries touching the given wallets inside the
// inclusive time range, oldest first, for the aggregation paths.
func (s *PostgresStore) ListBetween(ctx context.Context, walletNumbers []string, from, to time.Time) ([]Entry, error) {
	if len(walletNumbers) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+entryColumns+` FROM transfers
        WHERE (sender_wallet = ANY($1) OR recipient_wallet = ANY($1))
          AND status = $2 AND created_at >= $3 AND created_at <= $4
        ORDER BY created_at`,
		walletNumbers, StatusSuccess, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e         Entry
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &e.TransferID, &e.SenderWallet, &e.RecipientWallet, &e.RecipientName,
		&e.SenderCurrency, &e.RecipientCurrency, &e.AmountSent, &e.AmountReceived, &e.ConversionRate,
		&e.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	e.ID = id.String()
	e.Timestamp = createdAt.UTC()
	return e, nil
}
