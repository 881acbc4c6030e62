package settlement

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// --- in-memory fakes ---

type fakeNodeRepo struct {
	nodes map[uuid.UUID]*models.RideNode
}

func (r *fakeNodeRepo) GetForUpdate(_ context.Context, id uuid.UUID) (*models.RideNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, types.ErrNodeNotFound
	}
	cp := *n
	cp.Passengers = append([]models.NodePassenger(nil), n.Passengers...)
	return &cp, nil
}

func (r *fakeNodeRepo) Save(_ context.Context, n *models.RideNode) error {
	cp := *n
	cp.Passengers = append([]models.NodePassenger(nil), n.Passengers...)
	r.nodes[n.ID] = &cp
	return nil
}

type fakeDriverRepo struct {
	statuses map[uuid.UUID]types.DriverStatus
}

func (r *fakeDriverRepo) SetStatus(_ context.Context, id uuid.UUID, status types.DriverStatus) error {
	r.statuses[id] = status
	return nil
}

type fakeSettingsRepo struct{ s models.Settings }

func (r *fakeSettingsRepo) Get(_ context.Context) (models.Settings, error) {
	return r.s, nil
}

// fakeLedger records movements against in-memory balances, rejecting
// non-positive amounts exactly like the wallet service does. Rollback
// of partial movements is the database transaction's job, exercised at
// the adapter layer; here the assertions stop at the error and node
// status.
type fakeLedger struct {
	balances  map[uuid.UUID]types.Money
	movements []models.Transaction
}

func (l *fakeLedger) Credit(_ context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	l.balances[acc.ID] += amount
	l.movements = append(l.movements, models.Transaction{
		AccountID: acc.ID, AccountType: acc.Type, Amount: amount, Type: txType, Reference: ref,
	})
	return nil
}

func (l *fakeLedger) Debit(_ context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if l.balances[acc.ID]-amount < 0 {
		return types.ErrInsufficientBalance
	}
	l.balances[acc.ID] -= amount
	l.movements = append(l.movements, models.Transaction{
		AccountID: acc.ID, AccountType: acc.Type, Amount: -amount, Type: txType, Reference: ref,
	})
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- fixture ---

type fixture struct {
	svc     *SettlementService
	nodes   *fakeNodeRepo
	drivers *fakeDriverRepo
	ledger  *fakeLedger

	nodeID     uuid.UUID
	driverID   uuid.UUID
	passengers []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	nodes := &fakeNodeRepo{nodes: make(map[uuid.UUID]*models.RideNode)}
	drivers := &fakeDriverRepo{statuses: make(map[uuid.UUID]types.DriverStatus)}
	ledger := &fakeLedger{balances: make(map[uuid.UUID]types.Money)}
	settings := &fakeSettingsRepo{s: models.Settings{
		PragiaBaseFare:           500,
		TaxiBaseFare:             800,
		ShuttleBaseFare:          300,
		SoloMultiplierBP:         25000,
		CommissionPerSeat:        200,
		ShuttleCommissionPerSeat: 50,
	}}

	log := logger.InitLogger("settlement-test", logger.LevelError)
	svc := NewSettlementService(nodes, drivers, settings, ledger, nil, fakeTxManager{}, log)

	f := &fixture{svc: svc, nodes: nodes, drivers: drivers, ledger: ledger}
	f.seedDispatchedPragia(t)
	return f
}

// seedDispatchedPragia sets up the spec walkthrough: three passengers
// at GH₵5 each on a dispatched pragia, commission GH₵2 per seat.
func (f *fixture) seedDispatchedPragia(t *testing.T) {
	t.Helper()

	var err error
	f.nodeID, err = uuid.New()
	require.NoError(t, err)
	f.driverID, err = uuid.New()
	require.NoError(t, err)

	master := "111111"
	manifest := make([]models.NodePassenger, 3)
	for i := range manifest {
		uid, err := uuid.New()
		require.NoError(t, err)
		f.passengers = append(f.passengers, uid)
		f.ledger.balances[uid] = 500
		code := []string{"222222", "333333", "444444"}[i]
		manifest[i] = models.NodePassenger{UserID: uid, Code: &code}
	}

	f.nodes.nodes[f.nodeID] = &models.RideNode{
		ID:               f.nodeID,
		VehicleClass:     types.PragiaClass,
		CapacityNeeded:   3,
		FarePerPerson:    500,
		Status:           types.NodeDispatched,
		AssignedDriverID: &f.driverID,
		MasterCode:       &master,
		Passengers:       manifest,
	}
}

// --- tests ---

func TestVerify_MasterCodeSettlesNode(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	require.NoError(t, err)

	assert.Equal(t, types.Money(1500), res.TotalFare)
	assert.Equal(t, types.Money(600), res.TotalCommission)
	assert.Equal(t, types.Money(900), res.DriverEarnings)
	assert.Equal(t, types.NodeCompleted, res.Node.Status)

	for _, p := range f.passengers {
		assert.Equal(t, types.Money(0), f.ledger.balances[p])
	}
	assert.Equal(t, types.Money(900), f.ledger.balances[f.driverID])
	assert.Equal(t, types.DriverOnline, f.drivers.statuses[f.driverID])
}

func TestVerify_PassengerCodeAlsoSettles(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "333333")
	require.NoError(t, err)
	assert.Equal(t, types.NodeCompleted, res.Node.Status)
}

func TestVerify_BalanceConservation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	require.NoError(t, err)

	var debits, credits types.Money
	for _, m := range f.ledger.movements {
		if m.AccountType == types.PassengerAccount {
			debits -= m.Amount
		}
	}
	credits = f.ledger.balances[f.driverID]

	var commission types.Money
	for _, m := range f.ledger.movements {
		if m.Type == types.TxCommission {
			commission -= m.Amount
		}
	}
	assert.Equal(t, debits, credits+commission,
		"passenger debits must equal driver earnings plus commission")
}

func TestVerify_WrongCodeNoSideEffects(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "999999")
	assert.ErrorIs(t, err, types.ErrInvalidCode)

	// repeated wrong attempts stay harmless
	_, err = f.svc.Verify(context.Background(), f.nodeID, f.driverID, "000000")
	assert.ErrorIs(t, err, types.ErrInvalidCode)

	assert.Empty(t, f.ledger.movements)
	assert.Equal(t, types.NodeDispatched, f.nodes.nodes[f.nodeID].Status)
	for _, p := range f.passengers {
		assert.Equal(t, types.Money(500), f.ledger.balances[p])
	}
}

func TestVerify_EmptyCodeRejected(t *testing.T) {
	f := newFixture(t)

	// a seat with no stamped code must not match an empty presentation
	f.nodes.nodes[f.nodeID].Passengers[0].Code = nil
	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "")
	assert.ErrorIs(t, err, types.ErrInvalidCode)
}

func TestVerify_AlreadyCompletedIsNoOp(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	require.NoError(t, err)
	movements := len(f.ledger.movements)

	_, err = f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	assert.ErrorIs(t, err, types.ErrAlreadyCompleted)
	assert.Len(t, f.ledger.movements, movements, "second verify must move no money")
}

func TestVerify_NonDispatchedRejected(t *testing.T) {
	f := newFixture(t)
	f.nodes.nodes[f.nodeID].Status = types.NodeQualified

	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestVerify_ShortfallAbortsSettlement(t *testing.T) {
	f := newFixture(t)
	f.ledger.balances[f.passengers[2]] = 499

	_, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Equal(t, types.NodeDispatched, f.nodes.nodes[f.nodeID].Status,
		"a failed settlement must not complete the node")
}

func TestVerify_RefundedSeatNotDebited(t *testing.T) {
	f := newFixture(t)
	f.nodes.nodes[f.nodeID].Passengers[2].RefundIssued = true

	res, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	require.NoError(t, err)

	// two paying seats: fare 1000, commission 400, earnings 600
	assert.Equal(t, types.Money(1000), res.TotalFare)
	assert.Equal(t, types.Money(400), res.TotalCommission)
	assert.Equal(t, types.Money(600), res.DriverEarnings)
	assert.Equal(t, types.Money(500), f.ledger.balances[f.passengers[2]],
		"refunded seat keeps its balance")
}

func TestVerify_NegotiatedTotalOverridesPerPersonSum(t *testing.T) {
	f := newFixture(t)
	negotiated := types.Money(2000)
	f.nodes.nodes[f.nodeID].NegotiatedTotalFare = &negotiated
	for _, p := range f.passengers {
		f.ledger.balances[p] = 1000
	}

	res, err := f.svc.Verify(context.Background(), f.nodeID, f.driverID, "111111")
	require.NoError(t, err)

	assert.Equal(t, types.Money(2000), res.TotalFare)
	assert.Equal(t, types.Money(1400), res.DriverEarnings)

	// 2000 split over three seats: 667 + 667 + 666
	assert.Equal(t, types.Money(333), f.ledger.balances[f.passengers[0]])
	assert.Equal(t, types.Money(333), f.ledger.balances[f.passengers[1]])
	assert.Equal(t, types.Money(334), f.ledger.balances[f.passengers[2]])
}

func TestForceComplete_SettlesWithoutCode(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ForceComplete(context.Background(), f.nodeID)
	require.NoError(t, err)
	assert.Equal(t, types.NodeCompleted, res.Node.Status)
	assert.Equal(t, types.Money(900), f.ledger.balances[f.driverID])

	_, err = f.svc.ForceComplete(context.Background(), f.nodeID)
	assert.ErrorIs(t, err, types.ErrAlreadyCompleted)
}

func TestVerify_UnboundDriverRejected(t *testing.T) {
	f := newFixture(t)
	stranger, err := uuid.New()
	require.NoError(t, err)

	// even the correct master code settles nothing for a driver who is
	// not bound to the node
	_, err = f.svc.Verify(context.Background(), f.nodeID, stranger, "111111")
	assert.ErrorIs(t, err, types.ErrNotAssignedDriver)

	assert.Empty(t, f.ledger.movements)
	assert.Equal(t, types.NodeDispatched, f.nodes.nodes[f.nodeID].Status)
}

func TestForceComplete_FullyRefundedManifestMovesNoMoney(t *testing.T) {
	f := newFixture(t)
	for i := range f.nodes.nodes[f.nodeID].Passengers {
		f.nodes.nodes[f.nodeID].Passengers[i].RefundIssued = true
	}

	res, err := f.svc.ForceComplete(context.Background(), f.nodeID)
	require.NoError(t, err)

	assert.Equal(t, types.NodeCompleted, res.Node.Status)
	assert.Equal(t, types.Money(0), res.TotalFare)
	assert.Equal(t, types.Money(0), res.TotalCommission)
	assert.Equal(t, types.Money(0), res.DriverEarnings)
	assert.Empty(t, f.ledger.movements)
	assert.Equal(t, types.DriverOnline, f.drivers.statuses[f.driverID])
}

func TestForceComplete_FullyRefundedShuttleSkipsCapacityCommission(t *testing.T) {
	f := newFixture(t)
	n := f.nodes.nodes[f.nodeID]
	n.VehicleClass = types.ShuttleClass
	for i := range n.Passengers {
		n.Passengers[i].RefundIssued = true
	}

	res, err := f.svc.ForceComplete(context.Background(), f.nodeID)
	require.NoError(t, err)

	assert.Equal(t, types.NodeCompleted, res.Node.Status)
	assert.Equal(t, types.Money(0), res.TotalCommission)
	assert.Equal(t, types.Money(0), f.ledger.balances[f.driverID])
	assert.Empty(t, f.ledger.movements)
}
