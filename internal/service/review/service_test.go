package review

import (
	"context"
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

type fakeRequestRepo struct {
	topups        map[uuid.UUID]*models.TopupRequest
	registrations map[uuid.UUID]*models.RegistrationRequest
	refunds       map[uuid.UUID]*models.RefundRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		topups:        make(map[uuid.UUID]*models.TopupRequest),
		registrations: make(map[uuid.UUID]*models.RegistrationRequest),
		refunds:       make(map[uuid.UUID]*models.RefundRequest),
	}
}

func (r *fakeRequestRepo) CreateTopup(_ context.Context, t *models.TopupRequest) error {
	cp := *t
	r.topups[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetTopupForUpdate(_ context.Context, id uuid.UUID) (*models.TopupRequest, error) {
	t, ok := r.topups[id]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRequestRepo) SaveTopup(_ context.Context, t *models.TopupRequest) error {
	cp := *t
	r.topups[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) ListTopups(_ context.Context, status types.RequestStatus) ([]models.TopupRequest, error) {
	var out []models.TopupRequest
	for _, t := range r.topups {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) CreateRegistration(_ context.Context, t *models.RegistrationRequest) error {
	cp := *t
	r.registrations[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetRegistrationForUpdate(_ context.Context, id uuid.UUID) (*models.RegistrationRequest, error) {
	t, ok := r.registrations[id]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRequestRepo) SaveRegistration(_ context.Context, t *models.RegistrationRequest) error {
	cp := *t
	r.registrations[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) ListRegistrations(_ context.Context, status types.RequestStatus) ([]models.RegistrationRequest, error) {
	var out []models.RegistrationRequest
	for _, t := range r.registrations {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) CreateRefund(_ context.Context, t *models.RefundRequest) error {
	cp := *t
	r.refunds[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetRefundForUpdate(_ context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	t, ok := r.refunds[id]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRequestRepo) SaveRefund(_ context.Context, t *models.RefundRequest) error {
	cp := *t
	r.refunds[t.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) ListRefunds(_ context.Context, status types.RequestStatus) ([]models.RefundRequest, error) {
	var out []models.RefundRequest
	for _, t := range r.refunds {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) HasOpenRefund(_ context.Context, nodeID, passengerID uuid.UUID) (bool, error) {
	for _, t := range r.refunds {
		if t.NodeID == nodeID && t.PassengerID == passengerID && t.Status != types.RequestRejected {
			return true, nil
		}
	}
	return false, nil
}

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

func (r *fakeNodeRepo) FindActiveByDriver(_ context.Context, driverID uuid.UUID) ([]models.RideNode, error) {
	var out []models.RideNode
	for _, n := range r.nodes {
		if n.AssignedDriverID != nil && *n.AssignedDriverID == driverID &&
			(n.Status == types.NodeQualified || n.Status == types.NodeDispatched) {
			out = append(out, *n)
		}
	}
	return out, nil
}

type fakeDriverRepo struct {
	drivers map[uuid.UUID]*models.Driver
}

func (r *fakeDriverRepo) CreateDriver(_ context.Context, d *models.Driver) error {
	cp := *d
	r.drivers[d.ID] = &cp
	return nil
}

func (r *fakeDriverRepo) GetDriverByID(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	d, ok := r.drivers[id]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDriverRepo) DeleteDriver(_ context.Context, id uuid.UUID) error {
	if _, ok := r.drivers[id]; !ok {
		return types.ErrDriverNotFound
	}
	delete(r.drivers, id)
	return nil
}

type fakeSettingsRepo struct{ s models.Settings }

func (r *fakeSettingsRepo) Get(_ context.Context) (models.Settings, error) {
	return r.s, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, s models.Settings) error {
	r.s = s
	return nil
}

type fakeLedger struct {
	balances map[uuid.UUID]types.Money
	entries  []models.Transaction
}

func (l *fakeLedger) Credit(_ context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	l.balances[acc.ID] += amount
	l.entries = append(l.entries, models.Transaction{AccountID: acc.ID, Amount: amount, Type: txType, Reference: ref})
	return nil
}

func (l *fakeLedger) Debit(_ context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error {
	if l.balances[acc.ID]-amount < 0 {
		return types.ErrInsufficientBalance
	}
	l.balances[acc.ID] -= amount
	l.entries = append(l.entries, models.Transaction{AccountID: acc.ID, Amount: -amount, Type: txType, Reference: ref})
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
	svc      *ReviewService
	requests *fakeRequestRepo
	nodes    *fakeNodeRepo
	drivers  *fakeDriverRepo
	settings *fakeSettingsRepo
	ledger   *fakeLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	requests := newFakeRequestRepo()
	nodes := &fakeNodeRepo{nodes: make(map[uuid.UUID]*models.RideNode)}
	drivers := &fakeDriverRepo{drivers: make(map[uuid.UUID]*models.Driver)}
	settings := &fakeSettingsRepo{s: models.Settings{
		PragiaBaseFare:    500,
		TaxiBaseFare:      800,
		ShuttleBaseFare:   300,
		SoloMultiplierBP:  25000,
		CommissionPerSeat: 200,
		RegistrationFee:   2000,
	}}
	ledger := &fakeLedger{balances: make(map[uuid.UUID]types.Money)}

	log := logger.InitLogger("review-test", logger.LevelError)
	svc := NewReviewService(requests, nodes, drivers, settings, ledger, fakeTxManager{}, log)

	return &fixture{svc: svc, requests: requests, nodes: nodes, drivers: drivers, settings: settings, ledger: ledger}
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.New()
	require.NoError(t, err)
	return id
}

// --- topup tests ---

func TestTopup_ApproveCreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accID := mustUUID(t)
	acc := wallet.Account{ID: accID, Type: types.PassengerAccount}

	r, err := f.svc.RequestTopup(ctx, acc, 5000, "momo-778899")
	require.NoError(t, err)
	assert.Equal(t, types.RequestPending, r.Status)

	require.NoError(t, f.svc.ReviewTopup(ctx, r.ID, true))
	assert.Equal(t, types.Money(5000), f.ledger.balances[accID])

	// a second review of the same request must not credit again
	err = f.svc.ReviewTopup(ctx, r.ID, true)
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.Equal(t, types.Money(5000), f.ledger.balances[accID])
}

func TestTopup_RejectMovesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accID := mustUUID(t)

	r, err := f.svc.RequestTopup(ctx, wallet.Account{ID: accID, Type: types.DriverAccount}, 1000, "cash")
	require.NoError(t, err)

	require.NoError(t, f.svc.ReviewTopup(ctx, r.ID, false))
	assert.Equal(t, types.Money(0), f.ledger.balances[accID])
	assert.Equal(t, types.RequestRejected, f.requests.topups[r.ID].Status)
	assert.NotNil(t, f.requests.topups[r.ID].ReviewedAt)
}

func TestTopup_NonPositiveAmountRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RequestTopup(context.Background(), wallet.Account{ID: mustUUID(t)}, 0, "x")
	assert.Error(t, err)
}

// --- registration tests ---

func TestRegistration_ApproveCreatesDriverAndChargesFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.RequestRegistration(ctx, RegistrationCommand{
		Name:         "Kofi Mensah",
		Phone:        "0209876543",
		VehicleClass: types.TaxiClass,
		PINHash:      "pbkdf2$...",
		Deposit:      5000,
	})
	require.NoError(t, err)

	d, err := f.svc.ReviewRegistration(ctx, r.ID, true)
	require.NoError(t, err)

	assert.Equal(t, "Kofi Mensah", d.Name)
	assert.Equal(t, types.TaxiClass, d.VehicleClass)
	assert.Equal(t, types.DriverOffline, d.Status)

	// deposit 5000 in, fee 2000 out
	assert.Equal(t, types.Money(3000), f.ledger.balances[d.ID])

	var regFee types.Money
	for _, e := range f.ledger.entries {
		if e.Type == types.TxRegistration {
			regFee -= e.Amount
		}
	}
	assert.Equal(t, types.Money(2000), regFee)
}

func TestRegistration_DepositBelowFeeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.RequestRegistration(ctx, RegistrationCommand{
		Name: "Ama", Phone: "0241112223", VehicleClass: types.PragiaClass, Deposit: 1999,
	})
	require.NoError(t, err)

	_, err = f.svc.ReviewRegistration(ctx, r.ID, true)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Empty(t, f.drivers.drivers)
}

func TestRegistration_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.RequestRegistration(ctx, RegistrationCommand{
		Name: "Yaw", Phone: "0241112224", VehicleClass: types.PragiaClass, Deposit: 5000,
	})
	require.NoError(t, err)

	d, err := f.svc.ReviewRegistration(ctx, r.ID, false)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Empty(t, f.drivers.drivers)
	assert.Empty(t, f.ledger.entries)
}

// --- no-show refund tests ---

func (f *fixture) seedDispatchedNode(t *testing.T) (nodeID, driverID, passengerID uuid.UUID) {
	t.Helper()
	nodeID = mustUUID(t)
	driverID = mustUUID(t)
	passengerID = mustUUID(t)
	other := mustUUID(t)

	f.nodes.nodes[nodeID] = &models.RideNode{
		ID:               nodeID,
		VehicleClass:     types.PragiaClass,
		CapacityNeeded:   3,
		FarePerPerson:    500,
		Status:           types.NodeDispatched,
		AssignedDriverID: &driverID,
		Passengers: []models.NodePassenger{
			{UserID: passengerID},
			{UserID: other},
		},
	}
	return nodeID, driverID, passengerID
}

func TestNoShow_ReportAndApproveBeforeSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, driverID, passengerID := f.seedDispatchedNode(t)

	claim, err := f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "not at pickup")
	require.NoError(t, err)
	assert.Equal(t, types.Money(500), claim.Amount)
	assert.Equal(t, types.RequestPending, claim.Status)

	require.NoError(t, f.svc.ReviewRefund(ctx, claim.ID, true))

	seat := f.nodes.nodes[nodeID].Member(passengerID)
	require.NotNil(t, seat)
	assert.True(t, seat.RefundIssued)

	// nothing settled yet, so no money moves
	assert.Empty(t, f.ledger.entries)
}

func TestNoShow_ApproveAfterSettlementMovesFareBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, driverID, passengerID := f.seedDispatchedNode(t)
	f.ledger.balances[driverID] = 900

	claim, err := f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "no show")
	require.NoError(t, err)

	f.nodes.nodes[nodeID].Status = types.NodeCompleted

	require.NoError(t, f.svc.ReviewRefund(ctx, claim.ID, true))

	assert.Equal(t, types.Money(500), f.ledger.balances[passengerID])
	assert.Equal(t, types.Money(400), f.ledger.balances[driverID])
}

func TestNoShow_DuplicateClaimRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, driverID, passengerID := f.seedDispatchedNode(t)

	_, err := f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "first")
	require.NoError(t, err)

	_, err = f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "second")
	assert.ErrorIs(t, err, types.ErrDuplicateClaim)
}

func TestNoShow_OnlyBoundDriverOnDispatchedNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, _, passengerID := f.seedDispatchedNode(t)

	stranger := mustUUID(t)
	_, err := f.svc.ReportNoShow(ctx, nodeID, stranger, passengerID, "x")
	assert.ErrorIs(t, err, types.ErrInvalidState)

	nodeID2, driverID2, passengerID2 := f.seedDispatchedNode(t)
	f.nodes.nodes[nodeID2].Status = types.NodeQualified
	_, err = f.svc.ReportNoShow(ctx, nodeID2, driverID2, passengerID2, "x")
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestNoShow_RejectIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, driverID, passengerID := f.seedDispatchedNode(t)

	claim, err := f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "no show")
	require.NoError(t, err)

	require.NoError(t, f.svc.ReviewRefund(ctx, claim.ID, false))

	seat := f.nodes.nodes[nodeID].Member(passengerID)
	assert.False(t, seat.RefundIssued)
	assert.Empty(t, f.ledger.entries)

	// a rejected claim frees the seat for a new report
	_, err = f.svc.ReportNoShow(ctx, nodeID, driverID, passengerID, "again")
	assert.NoError(t, err)
}

// --- settings and driver removal ---

func TestUpdateSettings_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.GetSettings(ctx)
	require.NoError(t, err)

	s.TaxiBaseFare = 900
	require.NoError(t, f.svc.UpdateSettings(ctx, s))

	got, err := f.svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Money(900), got.TaxiBaseFare)

	s.CommissionPerSeat = -1
	assert.Error(t, f.svc.UpdateSettings(ctx, s))
}

func TestRemoveDriver_BlockedWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nodeID, driverID, _ := f.seedDispatchedNode(t)

	f.drivers.drivers[driverID] = &models.Driver{ID: driverID}

	err := f.svc.RemoveDriver(ctx, driverID)
	assert.ErrorIs(t, err, types.ErrDriverHasActiveNode)

	f.nodes.nodes[nodeID].Status = types.NodeCompleted
	require.NoError(t, f.svc.RemoveDriver(ctx, driverID))
	assert.Empty(t, f.drivers.drivers)
}
