package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	pg "github.com/hubride/ride-pool-system/pkg/postgres"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// LedgerRepo persists ledger transactions and the cached running
// balance. The balance column lives on the account's own table and is
// guarded by a CHECK (balance >= 0), so the database is the final
// authority on overdrafts.
type LedgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepo(db *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Insert(ctx context.Context, tx *models.Transaction) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO transactions (id, account_id, account_type, amount, type, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		tx.ID, tx.AccountID, tx.AccountType, tx.Amount, tx.Type, tx.Reference,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("ledger repo: Insert: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, account_id, account_type, amount, type, reference, created_at
		FROM transactions WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3;`

	rows, err := q.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repo: ListByAccount: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.AccountType, &t.Amount, &t.Type, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger repo: ListByAccount scan: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *LedgerRepo) SumByAccount(ctx context.Context, accountID uuid.UUID) (types.Money, error) {
	q := TxorDB(ctx, r.db)

	var sum types.Money
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1;`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ledger repo: SumByAccount: %w", err)
	}
	return sum, nil
}

// SumCommission totals the absolute value of commission rows, which by
// convention are recorded as debits against driver accounts.
func (r *LedgerRepo) SumCommission(ctx context.Context) (types.Money, error) {
	q := TxorDB(ctx, r.db)

	var sum types.Money
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions WHERE type = $1;`,
		types.TxCommission,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ledger repo: SumCommission: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepo) GetBalance(ctx context.Context, accountID uuid.UUID, accountType types.AccountType) (types.Money, error) {
	q := TxorDB(ctx, r.db)

	table, notFound := accountTable(accountType)

	var balance types.Money
	err := q.QueryRow(ctx,
		`SELECT balance FROM `+table+` WHERE id = $1 FOR UPDATE;`, accountID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound
		}
		return 0, fmt.Errorf("ledger repo: GetBalance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepo) UpdateBalance(ctx context.Context, accountID uuid.UUID, accountType types.AccountType, balance types.Money) error {
	q := TxorDB(ctx, r.db)

	table, notFound := accountTable(accountType)

	tag, err := q.Exec(ctx,
		`UPDATE `+table+` SET balance = $2, updated_at = now() WHERE id = $1;`,
		accountID, balance)
	if err != nil {
		if pg.IsCheckViolation(err) {
			return types.ErrInsufficientBalance
		}
		return fmt.Errorf("ledger repo: UpdateBalance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func accountTable(t types.AccountType) (string, error) {
	if t == types.DriverAccount {
		return "drivers", types.ErrDriverNotFound
	}
	return "users", types.ErrUserNotFound
}
