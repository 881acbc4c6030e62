package node

import (
	"context"
	"fmt"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/fare"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/trm"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// NodeService owns the RideNode lifecycle: creation, membership,
// quorum and deletion. Dispatch and settlement live in their own
// services; both go through the same repo and the same transitions.
type NodeService struct {
	nodes    NodeRepo
	users    UserRepo
	settings SettingsRepo
	cache    BoardCache
	broker   Broker
	trm      trm.TxManager
	log      logger.Logger
}

func NewNodeService(nodes NodeRepo, users UserRepo, settings SettingsRepo, cache BoardCache, broker Broker, trm trm.TxManager, log logger.Logger) *NodeService {
	return &NodeService{
		nodes:    nodes,
		users:    users,
		settings: settings,
		cache:    cache,
		broker:   broker,
		trm:      trm,
		log:      log,
	}
}

type CreateNodeCommand struct {
	LeaderID     uuid.UUID
	Origin       string
	Destination  string
	VehicleClass types.VehicleClass
	Solo         bool

	// Capacity overrides the class default; shuttle/broadcast routes set
	// it explicitly. Ignored for solo trips (always 1).
	Capacity int

	// Offer is the leader's per-person fare offer in pesewas; clamped up
	// to the expected fare, never stored below it.
	Offer types.Money
}

// Create opens a new forming node led by a passenger. The leader is the
// first seat on the manifest and must hold at least the fare.
func (s *NodeService) Create(ctx context.Context, cmd CreateNodeCommand) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "create_node")

	var created *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		calc := fare.NewCalculator(settings)

		leader, err := s.users.GetUserByID(ctx, cmd.LeaderID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		farePerPerson := calc.ClampOffer(cmd.VehicleClass, cmd.Solo, cmd.Offer)

		// Pre-authorization gate: a passenger may only hold a seat they
		// can pay for. Settlement re-checks inside its own transaction.
		if leader.Balance < farePerPerson {
			return wrap.Error(ctx, types.ErrInsufficientBalance)
		}

		capacity := capacityFor(cmd.VehicleClass, cmd.Solo, cmd.Capacity)

		id, err := uuid.New()
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("could not generate node id: %w", err))
		}

		n := &models.RideNode{
			ID:             id,
			Origin:         cmd.Origin,
			Destination:    cmd.Destination,
			VehicleClass:   cmd.VehicleClass,
			Solo:           cmd.Solo,
			CapacityNeeded: capacity,
			LeaderID:       cmd.LeaderID,
			FarePerPerson:  farePerPerson,
			Status:         types.NodeForming,
			Passengers: []models.NodePassenger{{
				UserID:      leader.ID,
				DisplayName: leader.Name,
				Phone:       leader.Phone,
				JoinedAt:    time.Now(),
			}},
		}

		// A solo node has capacity 1 and qualifies immediately.
		qualifyIfAtCapacity(n)

		if err := s.nodes.Create(ctx, n); err != nil {
			return wrap.Error(ctx, fmt.Errorf("could not create node: %w", err))
		}

		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created, false)
	return created, nil
}

// Join adds a passenger to a forming (or force-qualified, still open)
// node and advances quorum when capacity is reached.
func (s *NodeService) Join(ctx context.Context, nodeID, userID uuid.UUID) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "join_node")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var joined *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		switch n.Status {
		case types.NodeForming, types.NodeQualified:
		case types.NodeCompleted:
			return wrap.Error(ctx, types.ErrAlreadyCompleted)
		default:
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		if n.AtCapacity() {
			return wrap.Error(ctx, types.ErrCapacityExceeded)
		}
		if n.Member(userID) != nil {
			return wrap.Error(ctx, types.ErrAlreadyJoined)
		}

		u, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if u.Balance < n.FarePerPerson {
			return wrap.Error(ctx, types.ErrInsufficientBalance)
		}

		n.Passengers = append(n.Passengers, models.NodePassenger{
			UserID:      u.ID,
			DisplayName: u.Name,
			Phone:       u.Phone,
			JoinedAt:    time.Now(),
		})

		if qualifyIfAtCapacity(n) && n.AssignedDriverID != nil {
			// A broadcast node qualifying while its driver picked up
			// another trip would trip the exclusivity index. Unbind and
			// let the node wait for a new driver instead of failing the
			// passenger's join.
			if err := s.unbindIfDriverBusy(ctx, n); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}

		joined = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, joined, false)
	return joined, nil
}

// Leave removes a passenger. Dropping below capacity rolls a qualified
// node back to forming while no driver is bound; the last passenger
// leaving a passenger-led node deletes it.
func (s *NodeService) Leave(ctx context.Context, nodeID, userID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "leave_node")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var left *models.RideNode
	var deleted bool

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		switch n.Status {
		case types.NodeForming, types.NodeQualified:
		default:
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		if n.Member(userID) == nil {
			return wrap.Error(ctx, types.ErrNotMember)
		}

		remaining := n.Passengers[:0]
		for _, p := range n.Passengers {
			if p.UserID != userID {
				remaining = append(remaining, p)
			}
		}
		n.Passengers = remaining

		// A passenger-led node with nobody left on the manifest is gone;
		// a driver broadcast stays open at zero passengers.
		if len(n.Passengers) == 0 && n.AssignedDriverID == nil {
			deleted = true
			left = n
			return wrap.Error(ctx, s.nodes.Delete(ctx, n.ID))
		}

		// Leadership passes to the oldest remaining member.
		if n.LeaderID == userID && len(n.Passengers) > 0 {
			n.LeaderID = n.Passengers[0].UserID
		}

		rollbackIfBelowCapacity(n)

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}

		left = n
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, left, deleted)
	return nil
}

// ForceQualify lets the leader open a partially filled pool to drivers.
// Never legal for a lone passenger: that is what solo mode is for.
func (s *NodeService) ForceQualify(ctx context.Context, nodeID, callerID uuid.UUID) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "force_qualify_node")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var forced *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.LeaderID != callerID {
			return wrap.Error(ctx, types.ErrNotLeader)
		}
		if n.Status != types.NodeForming {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if len(n.Passengers) <= 1 {
			return wrap.Error(ctx, types.ErrForceQualifyLoneRider)
		}

		n.Status = types.NodeQualified

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}

		forced = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, forced, false)
	return forced, nil
}

// Delete removes an unbound forming/qualified node. A node with a bound
// driver is never hard-deleted; the driver must unassign first so the
// settlement audit trail survives.
func (s *NodeService) Delete(ctx context.Context, nodeID, callerID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "delete_node")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var gone *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.LeaderID != callerID {
			return wrap.Error(ctx, types.ErrNotLeader)
		}
		switch n.Status {
		case types.NodeForming, types.NodeQualified:
		default:
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if n.AssignedDriverID != nil {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		if err := s.nodes.Delete(ctx, n.ID); err != nil {
			return wrap.Error(ctx, err)
		}

		gone = n
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, gone, true)
	return nil
}

func (s *NodeService) Get(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error) {
	return s.nodes.Get(ctx, nodeID)
}

// ListOpen returns the board of nodes drivers can still act on. The
// feed-maintained snapshot cache serves the read when it has entries;
// a cold or unreachable cache falls back to the database.
func (s *NodeService) ListOpen(ctx context.Context) ([]models.NodeEventMessage, error) {
	if s.cache != nil {
		rows, err := s.cache.ListOpen(ctx)
		if err != nil {
			s.log.Warn(ctx, "open-node cache unavailable, reading from database", "err", err.Error())
		} else if len(rows) > 0 {
			return rows, nil
		}
	}

	nodes, err := s.nodes.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.NodeEventMessage, 0, len(nodes))
	for i := range nodes {
		rows = append(rows, boardRow(&nodes[i]))
	}
	return rows, nil
}

// boardRow is the board read-model of a node, the same shape the change
// feed publishes and the cache stores.
func boardRow(n *models.RideNode) models.NodeEventMessage {
	return models.NodeEventMessage{
		NodeID:         n.ID,
		Status:         n.Status,
		VehicleClass:   n.VehicleClass,
		Origin:         n.Origin,
		Destination:    n.Destination,
		PassengerCount: len(n.Passengers),
		CapacityNeeded: n.CapacityNeeded,
		FarePerPerson:  n.FarePerPerson,
		DriverID:       n.AssignedDriverID,
		Timestamp:      n.UpdatedAt,
	}
}

func (s *NodeService) ListByPassenger(ctx context.Context, userID uuid.UUID) ([]models.RideNode, error) {
	return s.nodes.ListByPassenger(ctx, userID)
}

// publish emits the change-feed event after the transaction committed.
// Failures are logged, never propagated: the feed is an output-only
// side channel, losing one event must not fail the operation.
func (s *NodeService) publish(ctx context.Context, n *models.RideNode, deleted bool) {
	if s.broker == nil || n == nil {
		return
	}
	msg := boardRow(n)
	msg.Deleted = deleted
	msg.Timestamp = time.Now()
	if err := s.broker.PublishNodeEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish node event", "node_id", n.ID, "err", err.Error())
	}
}

// unbindIfDriverBusy releases the bound driver when they already hold a
// different qualified or dispatched node. Runs inside the caller's
// serializable transaction.
func (s *NodeService) unbindIfDriverBusy(ctx context.Context, n *models.RideNode) error {
	active, err := s.nodes.FindActiveByDriver(ctx, *n.AssignedDriverID)
	if err != nil {
		return err
	}
	for _, other := range active {
		if other.ID != n.ID {
			s.log.Info(ctx, "unbinding busy broadcast driver at quorum",
				"driver_id", n.AssignedDriverID.String())
			n.AssignedDriverID = nil
			return nil
		}
	}
	return nil
}

// capacityFor fixes capacityNeeded at creation: 1 for solo, an explicit
// operator/creator override when given, the class default otherwise.
func capacityFor(class types.VehicleClass, solo bool, override int) int {
	if solo {
		return 1
	}
	if override > 0 {
		return override
	}
	return class.DefaultCapacity()
}
