package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the requested wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrConflict indicates the wallet number is already taken.
	ErrConflict = errors.New("wallet number already exists")

	// ErrInsufficientFunds indicates a debit would drive the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store persists wallets. Balance mutation goes exclusively through
// AdjustBalance; callers compose it into larger atomic units.
type Store interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, walletNumber string) (Wallet, error)
	ListForOwner(ctx context.Context, ownerID string) ([]Wallet, error)
	AdjustBalance(ctx context.Context, walletNumber string, delta decimal.Decimal) (Wallet, error)
}

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, so the same
// store can run standalone or inside an enclosing transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores wallets in PostgreSQL.
type PostgresStore struct {
	db DB
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const walletColumns = `id, wallet_number, owner_id, display_name, currency, balance, created_at`

// Create inserts a wallet record. A duplicate wallet number maps to ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(w.OwnerID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, wallet_number, owner_id, display_name, currency, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		walletID, w.WalletNumber, ownerID, w.DisplayName, w.Currency, w.Balance, w.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// Get fetches a wallet by wallet number.
func (s *PostgresStore) Get(ctx context.Context, walletNumber string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE wallet_number = $1`, walletNumber)
	return scanWallet(row)
}

// GetForUpdate fetches a wallet and takes a row lock. Meaningful only when the
// store runs inside a transaction.
func (s *PostgresStore) GetForUpdate(ctx context.Context, walletNumber string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE wallet_number = $1 FOR UPDATE`, walletNumber)
	return scanWallet(row)
}

// ListForOwner returns all wallets owned by the given user, oldest first.
func (s *PostgresStore) ListForOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// AdjustBalance applies delta to the wallet balance. The update is conditional
// on the resulting balance staying non-negative, so a debit against an
// insufficient balance fails without modifying the row.
func (s *PostgresStore) AdjustBalance(ctx context.Context, walletNumber string, delta decimal.Decimal) (Wallet, error) {
	row := s.db.QueryRow(ctx, `UPDATE wallets SET balance = balance + $1
        WHERE wallet_number = $2 AND balance + $1 >= 0
        RETURNING `+walletColumns, delta, walletNumber)
	w, err := scanWallet(row)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}
	// Distinguish a missing wallet from a rejected debit.
	if _, getErr := s.Get(ctx, walletNumber); getErr != nil {
		return Wallet{}, getErr
	}
	return Wallet{}, ErrInsufficientFunds
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id, owner uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &w.WalletNumber, &owner, &w.DisplayName, &w.Currency, &w.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.OwnerID = owner.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
