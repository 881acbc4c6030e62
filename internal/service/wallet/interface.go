package wallet

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type TransactionRepo interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	// SumByAccount returns the signed sum of all transactions for one
	// account, the ledger-derived balance.
	SumByAccount(ctx context.Context, accountID uuid.UUID) (types.Money, error)
	// SumCommission returns the absolute sum of commission-typed rows
	// across all accounts, the hub's total revenue.
	SumCommission(ctx context.Context) (types.Money, error)
}

// BalanceRepo is the persistence seam for the cached running balance.
// Only this package calls UpdateBalance; everything else reads.
type BalanceRepo interface {
	GetBalance(ctx context.Context, accountID uuid.UUID, accountType types.AccountType) (types.Money, error)
	UpdateBalance(ctx context.Context, accountID uuid.UUID, accountType types.AccountType, balance types.Money) error
}

type Broker interface {
	PublishLedgerEvent(ctx context.Context, msg models.LedgerEventMessage) error
}
