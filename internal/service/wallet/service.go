package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/metrics"
	"github.com/hubride/ride-pool-system/pkg/trm"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// Account identifies one wallet in the ledger.
type Account struct {
	ID   uuid.UUID
	Type types.AccountType
}

// WalletService is the only component allowed to move money. Every
// mutation appends an immutable transaction row and updates the cached
// balance in the same ambient database transaction, so the invariant
// balance == sum(transactions) holds at every commit point.
type WalletService struct {
	transactions TransactionRepo
	balances     BalanceRepo
	broker       Broker
	trm          trm.TxManager
	log          logger.Logger
}

func NewWalletService(transactions TransactionRepo, balances BalanceRepo, broker Broker, trm trm.TxManager, log logger.Logger) *WalletService {
	return &WalletService{
		transactions: transactions,
		balances:     balances,
		broker:       broker,
		trm:          trm,
		log:          log,
	}
}

// Credit appends a positive ledger entry. Must run inside the caller's
// transaction when part of a larger state change (settlement, refund).
func (s *WalletService) Credit(ctx context.Context, acc Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	if amount <= 0 {
		return wrap.Error(ctx, fmt.Errorf("credit amount must be positive, got %d", amount))
	}
	return s.apply(ctx, acc, amount, txType, ref)
}

// Debit appends a negative ledger entry. A balance may reach exactly
// zero but never go below it.
func (s *WalletService) Debit(ctx context.Context, acc Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	if amount <= 0 {
		return wrap.Error(ctx, fmt.Errorf("debit amount must be positive, got %d", amount))
	}
	return s.apply(ctx, acc, -amount, txType, ref)
}

func (s *WalletService) apply(ctx context.Context, acc Account, signed types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	balance, err := s.balances.GetBalance(ctx, acc.ID, acc.Type)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	next := balance + signed
	if next < 0 {
		return wrap.Error(ctx, types.ErrInsufficientBalance)
	}

	id, err := uuid.New()
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("could not generate transaction id: %w", err))
	}

	entry := &models.Transaction{
		ID:          id,
		AccountID:   acc.ID,
		AccountType: acc.Type,
		Amount:      signed,
		Type:        txType,
		Reference:   ref,
		CreatedAt:   time.Now(),
	}
	if err := s.transactions.Insert(ctx, entry); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.balances.UpdateBalance(ctx, acc.ID, acc.Type, next); err != nil {
		return wrap.Error(ctx, err)
	}

	metrics.RecordLedgerMovement("hub", string(txType), int64(signed))
	s.publishLedger(ctx, acc, signed, txType, next)
	return nil
}

func (s *WalletService) Balance(ctx context.Context, acc Account) (types.Money, error) {
	return s.balances.GetBalance(ctx, acc.ID, acc.Type)
}

func (s *WalletService) History(ctx context.Context, acc Account, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.transactions.ListByAccount(ctx, acc.ID, limit, offset)
}

// HubRevenue is the absolute sum of commission-typed transactions; the
// hub carries no wallet row of its own.
func (s *WalletService) HubRevenue(ctx context.Context) (types.Money, error) {
	return s.transactions.SumCommission(ctx)
}

// Reconcile recomputes an account's balance from its transaction log
// and reports a mismatch against the cached value. Read-only.
func (s *WalletService) Reconcile(ctx context.Context, acc Account) error {
	ctx = wrap.WithAction(ctx, "reconcile_wallet")

	return s.trm.Do(ctx, func(ctx context.Context) error {
		cached, err := s.balances.GetBalance(ctx, acc.ID, acc.Type)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		derived, err := s.transactions.SumByAccount(ctx, acc.ID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if cached != derived {
			return wrap.Error(ctx, fmt.Errorf("ledger drift on account %s: cached %d, derived %d",
				acc.ID, cached, derived))
		}
		return nil
	})
}

func (s *WalletService) publishLedger(ctx context.Context, acc Account, amount types.Money, txType types.TransactionType, balance types.Money) {
	if s.broker == nil {
		return
	}
	msg := models.LedgerEventMessage{
		AccountID:   acc.ID,
		AccountType: acc.Type,
		Amount:      amount,
		Type:        txType,
		Balance:     balance,
		Timestamp:   time.Now(),
	}
	if err := s.broker.PublishLedgerEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish ledger event", "account_id", acc.ID, "err", err.Error())
	}
}
