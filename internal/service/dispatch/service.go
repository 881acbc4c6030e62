package dispatch

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

// DispatchService binds drivers to qualified nodes and moves trips in
// and out of the dispatched state. Exclusivity is enforced twice: a
// precondition check here for a readable error, and the partial unique
// index on assigned_driver_id as the final authority under concurrency.
type DispatchService struct {
	nodes    NodeRepo
	drivers  DriverRepo
	settings SettingsRepo
	broker   Broker
	trm      trm.TxManager
	log      logger.Logger
}

func NewDispatchService(nodes NodeRepo, drivers DriverRepo, settings SettingsRepo, broker Broker, trm trm.TxManager, log logger.Logger) *DispatchService {
	return &DispatchService{
		nodes:    nodes,
		drivers:  drivers,
		settings: settings,
		broker:   broker,
		trm:      trm,
		log:      log,
	}
}

// Accept binds a driver to a qualified node, stamps verification codes
// and dispatches the trip in one step. NegotiatedTotal, when set,
// replaces the per-person fare sum at settlement and may never fall
// below it.
func (s *DispatchService) Accept(ctx context.Context, nodeID, driverID uuid.UUID, negotiatedTotal *types.Money) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "accept_node")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var accepted *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.Status != types.NodeQualified {
			return wrap.Error(ctx, types.ErrWrongState)
		}
		if n.AssignedDriverID != nil {
			return wrap.Error(ctx, types.ErrAlreadyBound)
		}
		if len(n.Passengers) == 0 {
			return wrap.Error(ctx, types.ErrEmptyNode)
		}

		d, err := s.drivers.GetDriverByID(ctx, driverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if d.VehicleClass != n.VehicleClass {
			return wrap.Error(ctx, types.ErrInvalidVehicleClass)
		}

		active, err := s.nodes.FindActiveByDriver(ctx, driverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if len(active) > 0 {
			return wrap.Error(ctx, types.ErrAlreadyBound)
		}

		if negotiatedTotal != nil {
			floor := n.FarePerPerson.MulSeats(len(n.Passengers))
			if *negotiatedTotal < floor {
				return wrap.Error(ctx, types.ErrOfferBelowExpectedFare)
			}
			nt := *negotiatedTotal
			n.NegotiatedTotalFare = &nt
		}

		n.AssignedDriverID = &driverID

		if err := assignCodes(n); err != nil {
			return wrap.Error(ctx, err)
		}
		n.Status = types.NodeDispatched

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}
		if err := s.drivers.SetStatus(ctx, driverID, types.DriverBusy); err != nil {
			return wrap.Error(ctx, err)
		}

		accepted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, accepted, false)
	return accepted, nil
}

type BroadcastCommand struct {
	DriverID    uuid.UUID
	Origin      string
	Destination string
	Capacity    int

	// FarePerPerson is the driver's asking fare per seat; subject to the
	// same floor as passenger offers.
	FarePerPerson types.Money
}

// StartBroadcast opens a driver-owned forming node on a route. The node
// has no leader; passengers fill seats until quorum, at which point the
// broadcasting driver is already bound.
func (s *DispatchService) StartBroadcast(ctx context.Context, cmd BroadcastCommand) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "start_broadcast")

	var created *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		d, err := s.drivers.GetDriverByID(ctx, cmd.DriverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		active, err := s.nodes.FindActiveByDriver(ctx, cmd.DriverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if len(active) > 0 {
			return wrap.Error(ctx, types.ErrAlreadyBound)
		}

		calc := fare.NewCalculator(settings)

		capacity := cmd.Capacity
		if capacity <= 0 {
			capacity = d.VehicleClass.DefaultCapacity()
		}

		id, err := uuid.New()
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("could not generate node id: %w", err))
		}

		n := &models.RideNode{
			ID:               id,
			Origin:           cmd.Origin,
			Destination:      cmd.Destination,
			VehicleClass:     d.VehicleClass,
			CapacityNeeded:   capacity,
			FarePerPerson:    calc.ClampOffer(d.VehicleClass, false, cmd.FarePerPerson),
			Status:           types.NodeForming,
			AssignedDriverID: &cmd.DriverID,
		}

		if err := s.nodes.Create(ctx, n); err != nil {
			return wrap.Error(ctx, err)
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

// Start dispatches a broadcast node that reached quorum. The driver is
// already bound, so this is Accept without the binding step: stamp the
// master code and one code per manifest seat, then go dispatched.
func (s *DispatchService) Start(ctx context.Context, nodeID, driverID uuid.UUID) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "start_trip")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var started *models.RideNode

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.Status != types.NodeQualified {
			return wrap.Error(ctx, types.ErrWrongState)
		}
		if n.AssignedDriverID == nil || *n.AssignedDriverID != driverID {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if len(n.Passengers) == 0 {
			return wrap.Error(ctx, types.ErrEmptyNode)
		}

		if err := assignCodes(n); err != nil {
			return wrap.Error(ctx, err)
		}
		n.Status = types.NodeDispatched

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}
		if err := s.drivers.SetStatus(ctx, driverID, types.DriverBusy); err != nil {
			return wrap.Error(ctx, err)
		}

		started = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, started, false)
	return started, nil
}

// Unassign releases the driver from a node. A dispatched trip rolls
// back to qualified with its codes voided; a merely accepted node just
// loses the binding (and the negotiated total with it). A broadcast
// abandoned before anyone boarded has no leader left to clean it up,
// so the empty node is deleted outright.
func (s *DispatchService) Unassign(ctx context.Context, nodeID, driverID uuid.UUID) (*models.RideNode, error) {
	ctx = wrap.WithAction(ctx, "unassign_driver")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var released *models.RideNode
	var abandoned bool

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.AssignedDriverID == nil || *n.AssignedDriverID != driverID {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		switch n.Status {
		case types.NodeDispatched:
			clearCodes(n)
			n.Status = types.NodeQualified
		case types.NodeQualified, types.NodeForming:
		default:
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		n.AssignedDriverID = nil
		n.NegotiatedTotalFare = nil

		if len(n.Passengers) == 0 {
			abandoned = true
			if err := s.nodes.Delete(ctx, n.ID); err != nil {
				return wrap.Error(ctx, err)
			}
			if err := s.drivers.SetStatus(ctx, driverID, types.DriverOnline); err != nil {
				return wrap.Error(ctx, err)
			}
			released = n
			return nil
		}

		// Dropping the driver from a below-capacity node reopens it.
		if n.Status == types.NodeQualified && !n.AtCapacity() {
			n.Status = types.NodeForming
		}

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}
		if err := s.drivers.SetStatus(ctx, driverID, types.DriverOnline); err != nil {
			return wrap.Error(ctx, err)
		}

		released = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, released, abandoned)
	return released, nil
}

func (s *DispatchService) publish(ctx context.Context, n *models.RideNode, deleted bool) {
	if s.broker == nil || n == nil {
		return
	}
	msg := models.NodeEventMessage{
		NodeID:         n.ID,
		Status:         n.Status,
		VehicleClass:   n.VehicleClass,
		Origin:         n.Origin,
		Destination:    n.Destination,
		PassengerCount: len(n.Passengers),
		CapacityNeeded: n.CapacityNeeded,
		FarePerPerson:  n.FarePerPerson,
		DriverID:       n.AssignedDriverID,
		Deleted:        deleted,
		Timestamp:      time.Now(),
	}
	if err := s.broker.PublishNodeEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish node event", "node_id", n.ID, "err", err.Error())
	}
}
