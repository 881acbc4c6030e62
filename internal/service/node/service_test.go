package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// --- in-memory fakes ---

type fakeNodeRepo struct {
	nodes map[uuid.UUID]*models.RideNode
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[uuid.UUID]*models.RideNode)}
}

func (r *fakeNodeRepo) Create(_ context.Context, n *models.RideNode) error {
	cp := *n
	r.nodes[n.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) Get(_ context.Context, id uuid.UUID) (*models.RideNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, types.ErrNodeNotFound
	}
	cp := *n
	cp.Passengers = append([]models.NodePassenger(nil), n.Passengers...)
	return &cp, nil
}

func (r *fakeNodeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.RideNode, error) {
	return r.Get(ctx, id)
}

func (r *fakeNodeRepo) Save(_ context.Context, n *models.RideNode) error {
	stored, ok := r.nodes[n.ID]
	if !ok {
		return types.ErrNodeNotFound
	}
	if stored.Version != n.Version {
		return types.ErrContention
	}
	cp := *n
	cp.Version++
	cp.Passengers = append([]models.NodePassenger(nil), n.Passengers...)
	r.nodes[n.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.nodes[id]; !ok {
		return types.ErrNodeNotFound
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) ListOpen(_ context.Context) ([]models.RideNode, error) {
	var out []models.RideNode
	for _, n := range r.nodes {
		if n.Status == types.NodeForming || n.Status == types.NodeQualified {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) ListByPassenger(_ context.Context, userID uuid.UUID) ([]models.RideNode, error) {
	var out []models.RideNode
	for _, n := range r.nodes {
		if n.Member(userID) != nil {
			out = append(out, *n)
		}
	}
	return out, nil
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

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return u, nil
}

type fakeSettingsRepo struct{ s models.Settings }

func (r *fakeSettingsRepo) Get(_ context.Context) (models.Settings, error) {
	return r.s, nil
}

type fakeBroker struct {
	events []models.NodeEventMessage
}

func (b *fakeBroker) PublishNodeEvent(_ context.Context, msg models.NodeEventMessage) error {
	b.events = append(b.events, msg)
	return nil
}

type fakeBoardCache struct {
	rows []models.NodeEventMessage
	err  error
	hits int
}

func (c *fakeBoardCache) ListOpen(_ context.Context) ([]models.NodeEventMessage, error) {
	c.hits++
	return c.rows, c.err
}

// fakeTxManager runs the function directly; serializable semantics are
// covered by the postgres adapter, not the service.
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- fixture ---

type fixture struct {
	svc    *NodeService
	nodes  *fakeNodeRepo
	users  *fakeUserRepo
	broker *fakeBroker
	cache  *fakeBoardCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	nodes := newFakeNodeRepo()
	users := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
	broker := &fakeBroker{}
	cache := &fakeBoardCache{}
	settings := &fakeSettingsRepo{s: models.Settings{
		PragiaBaseFare:           500,
		TaxiBaseFare:             800,
		ShuttleBaseFare:          300,
		SoloMultiplierBP:         25000,
		CommissionPerSeat:        200,
		ShuttleCommissionPerSeat: 50,
		RegistrationFee:          2000,
	}}

	log := logger.InitLogger("node-test", logger.LevelError)
	svc := NewNodeService(nodes, users, settings, cache, broker, fakeTxManager{}, log)

	return &fixture{svc: svc, nodes: nodes, users: users, broker: broker, cache: cache}
}

func (f *fixture) addUser(t *testing.T, balance types.Money) uuid.UUID {
	t.Helper()
	id, err := uuid.New()
	require.NoError(t, err)
	f.users.users[id] = &models.User{
		ID:      id,
		Name:    "Test Rider",
		Phone:   "0241234567",
		Role:    types.RolePassenger,
		Balance: balance,
	}
	return id
}

func (f *fixture) create(t *testing.T, leader uuid.UUID) *models.RideNode {
	t.Helper()
	n, err := f.svc.Create(context.Background(), CreateNodeCommand{
		LeaderID:     leader,
		Origin:       "Madina",
		Destination:  "Accra Mall",
		VehicleClass: types.PragiaClass,
		Offer:        500,
	})
	require.NoError(t, err)
	return n
}

// --- tests ---

func TestCreate_LeaderHoldsFirstSeat(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)

	n := f.create(t, leader)

	assert.Equal(t, types.NodeForming, n.Status)
	assert.Equal(t, 3, n.CapacityNeeded)
	assert.Equal(t, types.Money(500), n.FarePerPerson)
	require.Len(t, n.Passengers, 1)
	assert.Equal(t, leader, n.Passengers[0].UserID)
	assert.Equal(t, leader, n.LeaderID)

	require.Len(t, f.broker.events, 1)
	assert.Equal(t, n.ID, f.broker.events[0].NodeID)
}

func TestCreate_LowOfferClampedToExpectedFare(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 5000)

	n, err := f.svc.Create(context.Background(), CreateNodeCommand{
		LeaderID:     leader,
		Origin:       "Tema",
		Destination:  "Circle",
		VehicleClass: types.TaxiClass,
		Solo:         true,
		Offer:        1500,
	})
	require.NoError(t, err)

	// solo taxi floor: 800 * 2.5 = 2000
	assert.Equal(t, types.Money(2000), n.FarePerPerson)
}

func TestCreate_SoloQualifiesImmediately(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 5000)

	n, err := f.svc.Create(context.Background(), CreateNodeCommand{
		LeaderID:     leader,
		Origin:       "Tema",
		Destination:  "Circle",
		VehicleClass: types.TaxiClass,
		Solo:         true,
		Offer:        2000,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, n.CapacityNeeded)
	assert.Equal(t, types.NodeQualified, n.Status)
}

func TestCreate_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 100)

	_, err := f.svc.Create(context.Background(), CreateNodeCommand{
		LeaderID:     leader,
		Origin:       "Madina",
		Destination:  "Accra Mall",
		VehicleClass: types.PragiaClass,
		Offer:        500,
	})
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestJoin_ReachingCapacityQualifiesOnce(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	got, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)
	assert.Equal(t, types.NodeForming, got.Status)

	third := f.addUser(t, 1000)
	got, err = f.svc.Join(context.Background(), n.ID, third)
	require.NoError(t, err)
	assert.Equal(t, types.NodeQualified, got.Status)
	assert.Len(t, got.Passengers, 3)
}

func TestJoin_FullNodeRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Join(context.Background(), n.ID, f.addUser(t, 1000))
		require.NoError(t, err)
	}

	_, err := f.svc.Join(context.Background(), n.ID, f.addUser(t, 1000))
	assert.ErrorIs(t, err, types.ErrCapacityExceeded)
}

func TestJoin_DuplicateMemberRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	_, err := f.svc.Join(context.Background(), n.ID, leader)
	assert.ErrorIs(t, err, types.ErrAlreadyJoined)
}

func TestJoin_InsufficientBalanceRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	broke := f.addUser(t, 499)
	_, err := f.svc.Join(context.Background(), n.ID, broke)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestJoin_TerminalStatesRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	stored := f.nodes.nodes[n.ID]
	stored.Status = types.NodeDispatched
	_, err := f.svc.Join(context.Background(), n.ID, f.addUser(t, 1000))
	assert.ErrorIs(t, err, types.ErrInvalidState)

	stored.Status = types.NodeCompleted
	_, err = f.svc.Join(context.Background(), n.ID, f.addUser(t, 1000))
	assert.ErrorIs(t, err, types.ErrAlreadyCompleted)
}

func TestLeave_RollsQualifiedBackToForming(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	third := f.addUser(t, 1000)
	_, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)
	_, err = f.svc.Join(context.Background(), n.ID, third)
	require.NoError(t, err)
	require.Equal(t, types.NodeQualified, f.nodes.nodes[n.ID].Status)

	require.NoError(t, f.svc.Leave(context.Background(), n.ID, third))

	got := f.nodes.nodes[n.ID]
	assert.Equal(t, types.NodeForming, got.Status)
	assert.Len(t, got.Passengers, 2)
}

func TestLeave_BoundDriverBlocksRollback(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	third := f.addUser(t, 1000)
	_, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)
	_, err = f.svc.Join(context.Background(), n.ID, third)
	require.NoError(t, err)

	driverID, err := uuid.New()
	require.NoError(t, err)
	f.nodes.nodes[n.ID].AssignedDriverID = &driverID

	require.NoError(t, f.svc.Leave(context.Background(), n.ID, third))
	assert.Equal(t, types.NodeQualified, f.nodes.nodes[n.ID].Status)
}

func TestLeave_LastPassengerDeletesNode(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	require.NoError(t, f.svc.Leave(context.Background(), n.ID, leader))

	_, ok := f.nodes.nodes[n.ID]
	assert.False(t, ok)
}

func TestLeave_LeaderTransfersToOldestMember(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	_, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)

	require.NoError(t, f.svc.Leave(context.Background(), n.ID, leader))

	got := f.nodes.nodes[n.ID]
	assert.Equal(t, second, got.LeaderID)
	assert.Len(t, got.Passengers, 1)
}

func TestLeave_NonMemberRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	outsider := f.addUser(t, 1000)
	err := f.svc.Leave(context.Background(), n.ID, outsider)
	assert.ErrorIs(t, err, types.ErrNotMember)
}

func TestForceQualify_LoneRiderRejected(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	_, err := f.svc.ForceQualify(context.Background(), n.ID, leader)
	assert.ErrorIs(t, err, types.ErrForceQualifyLoneRider)
}

func TestForceQualify_LeaderOnly(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	_, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)

	_, err = f.svc.ForceQualify(context.Background(), n.ID, second)
	assert.ErrorIs(t, err, types.ErrNotLeader)

	got, err := f.svc.ForceQualify(context.Background(), n.ID, leader)
	require.NoError(t, err)
	assert.Equal(t, types.NodeQualified, got.Status)
	assert.False(t, got.AtCapacity())
}

func TestForceQualify_JoinStillAllowedBelowCapacity(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	second := f.addUser(t, 1000)
	_, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)
	_, err = f.svc.ForceQualify(context.Background(), n.ID, leader)
	require.NoError(t, err)

	// a force-qualified node below capacity keeps accepting riders
	third := f.addUser(t, 1000)
	got, err := f.svc.Join(context.Background(), n.ID, third)
	require.NoError(t, err)
	assert.Equal(t, types.NodeQualified, got.Status)
	assert.Len(t, got.Passengers, 3)
}

func TestDelete_LeaderOnlyAndUnboundOnly(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	outsider := f.addUser(t, 1000)
	err := f.svc.Delete(context.Background(), n.ID, outsider)
	assert.ErrorIs(t, err, types.ErrNotLeader)

	driverID, err := uuid.New()
	require.NoError(t, err)
	f.nodes.nodes[n.ID].AssignedDriverID = &driverID
	err = f.svc.Delete(context.Background(), n.ID, leader)
	assert.ErrorIs(t, err, types.ErrInvalidState)

	f.nodes.nodes[n.ID].AssignedDriverID = nil
	require.NoError(t, f.svc.Delete(context.Background(), n.ID, leader))
	_, ok := f.nodes.nodes[n.ID]
	assert.False(t, ok)
}

func TestSave_StaleVersionSurfacesContention(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	stale, err := f.nodes.Get(context.Background(), n.ID)
	require.NoError(t, err)

	// another writer bumps the version
	fresh, err := f.nodes.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.NoError(t, f.nodes.Save(context.Background(), fresh))

	stale.Origin = "Kaneshie"
	err = f.nodes.Save(context.Background(), stale)
	assert.ErrorIs(t, err, types.ErrContention)
}

func TestPassengerJoinedAtOrdering(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	time.Sleep(time.Millisecond)
	second := f.addUser(t, 1000)
	got, err := f.svc.Join(context.Background(), n.ID, second)
	require.NoError(t, err)

	require.Len(t, got.Passengers, 2)
	assert.True(t, !got.Passengers[1].JoinedAt.Before(got.Passengers[0].JoinedAt))
}

func TestListOpen_WarmCacheServesTheBoard(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	f.create(t, leader)

	id, err := uuid.New()
	require.NoError(t, err)
	f.cache.rows = []models.NodeEventMessage{{
		NodeID:         id,
		Status:         types.NodeForming,
		VehicleClass:   types.PragiaClass,
		Origin:         "Madina",
		Destination:    "Accra Mall",
		PassengerCount: 2,
		CapacityNeeded: 3,
		FarePerPerson:  500,
	}}

	rows, err := f.svc.ListOpen(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].NodeID)
	assert.Equal(t, 1, f.cache.hits)
}

func TestListOpen_ColdCacheFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	rows, err := f.svc.ListOpen(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, n.ID, rows[0].NodeID)
	assert.Equal(t, 1, rows[0].PassengerCount)
	assert.Equal(t, types.Money(500), rows[0].FarePerPerson)
}

func TestListOpen_BrokenCacheFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	leader := f.addUser(t, 1000)
	n := f.create(t, leader)

	f.cache.err = errors.New("connection refused")

	rows, err := f.svc.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, n.ID, rows[0].NodeID)
}
