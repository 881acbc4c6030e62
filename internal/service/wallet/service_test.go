package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type fakeLedgerStore struct {
	mu           sync.Mutex
	transactions []models.Transaction
	balances     map[uuid.UUID]types.Money
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{balances: make(map[uuid.UUID]types.Money)}
}

func (s *fakeLedgerStore) Insert(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *fakeLedgerStore) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeLedgerStore) SumByAccount(_ context.Context, accountID uuid.UUID) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum types.Money
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (s *fakeLedgerStore) SumCommission(_ context.Context) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum types.Money
	for _, tx := range s.transactions {
		if tx.Type == types.TxCommission {
			if tx.Amount < 0 {
				sum -= tx.Amount
			} else {
				sum += tx.Amount
			}
		}
	}
	return sum, nil
}

func (s *fakeLedgerStore) GetBalance(_ context.Context, accountID uuid.UUID, _ types.AccountType) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[accountID], nil
}

func (s *fakeLedgerStore) UpdateBalance(_ context.Context, accountID uuid.UUID, _ types.AccountType, balance types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] = balance
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newService(t *testing.T) (*WalletService, *fakeLedgerStore) {
	t.Helper()
	store := newFakeLedgerStore()
	log := logger.InitLogger("wallet-test", logger.LevelError)
	return NewWalletService(store, store, nil, fakeTxManager{}, log), store
}

func newAccount(t *testing.T, at types.AccountType) Account {
	t.Helper()
	id, err := uuid.New()
	require.NoError(t, err)
	return Account{ID: id, Type: at}
}

func TestCreditAndDebit_BalanceFollowsLedger(t *testing.T) {
	svc, store := newService(t)
	acc := newAccount(t, types.PassengerAccount)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, acc, 1000, types.TxTopup, nil))
	require.NoError(t, svc.Debit(ctx, acc, 300, types.TxFarePayment, nil))

	balance, err := svc.Balance(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, types.Money(700), balance)

	derived, err := store.SumByAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, derived)
}

func TestDebit_ToExactlyZeroAllowed(t *testing.T) {
	svc, _ := newService(t)
	acc := newAccount(t, types.PassengerAccount)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, acc, 500, types.TxTopup, nil))
	require.NoError(t, svc.Debit(ctx, acc, 500, types.TxFarePayment, nil))

	balance, err := svc.Balance(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, types.Money(0), balance)
}

func TestDebit_BelowZeroRejectedWithoutLedgerEntry(t *testing.T) {
	svc, store := newService(t)
	acc := newAccount(t, types.DriverAccount)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, acc, 400, types.TxTopup, nil))

	err := svc.Debit(ctx, acc, 401, types.TxCommission, nil)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	txs, err := store.ListByAccount(ctx, acc.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "failed debit must not append a ledger row")

	balance, err := svc.Balance(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, types.Money(400), balance)
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	svc, _ := newService(t)
	acc := newAccount(t, types.PassengerAccount)
	ctx := context.Background()

	assert.Error(t, svc.Credit(ctx, acc, 0, types.TxTopup, nil))
	assert.Error(t, svc.Credit(ctx, acc, -5, types.TxTopup, nil))
	assert.Error(t, svc.Debit(ctx, acc, 0, types.TxFarePayment, nil))
	assert.Error(t, svc.Debit(ctx, acc, -5, types.TxFarePayment, nil))
}

func TestHubRevenue_SumsCommissionRowsOnly(t *testing.T) {
	svc, _ := newService(t)
	driver := newAccount(t, types.DriverAccount)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, driver, 900, types.TxFarePayment, nil))
	require.NoError(t, svc.Debit(ctx, driver, 600, types.TxCommission, nil))
	require.NoError(t, svc.Debit(ctx, driver, 100, types.TxWithdrawal, nil))

	revenue, err := svc.HubRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Money(600), revenue)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	svc, store := newService(t)
	acc := newAccount(t, types.PassengerAccount)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, acc, 1000, types.TxTopup, nil))
	require.NoError(t, svc.Reconcile(ctx, acc))

	// corrupt the cached balance behind the ledger's back
	require.NoError(t, store.UpdateBalance(ctx, acc.ID, acc.Type, 999))
	assert.Error(t, svc.Reconcile(ctx, acc))
}

func TestTransactionRowsCarryReference(t *testing.T) {
	svc, store := newService(t)
	acc := newAccount(t, types.PassengerAccount)
	ctx := context.Background()

	nodeID, err := uuid.New()
	require.NoError(t, err)

	require.NoError(t, svc.Credit(ctx, acc, 1000, types.TxTopup, nil))
	require.NoError(t, svc.Debit(ctx, acc, 500, types.TxFarePayment, &nodeID))

	txs, err := store.ListByAccount(ctx, acc.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Nil(t, txs[0].Reference)
	require.NotNil(t, txs[1].Reference)
	assert.Equal(t, nodeID, *txs[1].Reference)
	assert.Equal(t, types.Money(-500), txs[1].Amount)
}
