package settlement

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/fare"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/hasher"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/metrics"
	"github.com/hubride/ride-pool-system/pkg/trm"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// SettlementService closes dispatched trips: it matches a presented
// verification code, moves fare and commission through the ledger and
// marks the node completed. All effects of one settlement apply in a
// single serializable transaction or not at all.
type SettlementService struct {
	nodes    NodeRepo
	drivers  DriverRepo
	settings SettingsRepo
	ledger   Ledger
	broker   Broker
	trm      trm.TxManager
	log      logger.Logger
}

func NewSettlementService(nodes NodeRepo, drivers DriverRepo, settings SettingsRepo, ledger Ledger, broker Broker, trm trm.TxManager, log logger.Logger) *SettlementService {
	return &SettlementService{
		nodes:    nodes,
		drivers:  drivers,
		settings: settings,
		ledger:   ledger,
		broker:   broker,
		trm:      trm,
		log:      log,
	}
}

// Result reports what a completed settlement moved.
type Result struct {
	Node            *models.RideNode
	TotalFare       types.Money
	TotalCommission types.Money
	DriverEarnings  types.Money
}

// Verify settles a dispatched node against a code presented by its
// bound driver. Only that driver may verify; the code must equal the
// node's master code or any seat's individual code. A miss fails with
// InvalidCode and leaves every entity untouched.
func (s *SettlementService) Verify(ctx context.Context, nodeID, driverID uuid.UUID, presentedCode string) (*Result, error) {
	ctx = wrap.WithAction(ctx, "verify_settlement")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	result, err := s.settle(ctx, nodeID, func(n *models.RideNode) error {
		if n.AssignedDriverID == nil || *n.AssignedDriverID != driverID {
			return types.ErrNotAssignedDriver
		}
		if !codeMatches(n, presentedCode) {
			return types.ErrInvalidCode
		}
		return nil
	})
	if errors.Is(err, types.ErrInvalidCode) {
		// Log a fingerprint of the rejected code, never the code itself.
		s.log.Warn(ctx, "verification code rejected", "code_sha", hasher.Hash(presentedCode)[:12])
	}
	return result, err
}

// ForceComplete settles a dispatched node without a code, the operator
// escape hatch for lost phones and dead batteries.
func (s *SettlementService) ForceComplete(ctx context.Context, nodeID uuid.UUID) (*Result, error) {
	ctx = wrap.WithAction(ctx, "force_complete")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	return s.settle(ctx, nodeID, func(*models.RideNode) error { return nil })
}

func (s *SettlementService) settle(ctx context.Context, nodeID uuid.UUID, gate func(*models.RideNode) error) (*Result, error) {
	var result *Result

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}

		if n.Status == types.NodeCompleted {
			return wrap.Error(ctx, types.ErrAlreadyCompleted)
		}
		if n.Status != types.NodeDispatched || n.AssignedDriverID == nil {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		if err := gate(n); err != nil {
			return wrap.Error(ctx, err)
		}

		settings, err := s.settings.Get(ctx)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		split := fare.NewCalculator(settings).SettlementSplit(n)

		driverID := *n.AssignedDriverID
		ref := n.ID

		// Each settleable seat pays its share of the total, so passenger
		// debits always sum to the fare the driver is credited. Balance
		// was pre-authorized at join time; the ledger re-checks here and
		// any shortfall aborts the whole settlement. A fully refunded
		// manifest moves no money at all; the node still completes.
		settleable := n.SettleablePassengers()
		shares := fare.SplitShares(split.TotalFare, len(settleable))
		for i, p := range settleable {
			if shares[i] == 0 {
				continue
			}
			acc := wallet.Account{ID: p.UserID, Type: types.PassengerAccount}
			if err := s.ledger.Debit(ctx, acc, shares[i], types.TxFarePayment, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		driverAcc := wallet.Account{ID: driverID, Type: types.DriverAccount}
		if split.TotalFare > 0 {
			if err := s.ledger.Credit(ctx, driverAcc, split.TotalFare, types.TxFarePayment, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}
		if split.TotalCommission > 0 {
			if err := s.ledger.Debit(ctx, driverAcc, split.TotalCommission, types.TxCommission, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		n.Status = types.NodeCompleted
		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}
		if err := s.drivers.SetStatus(ctx, driverID, types.DriverOnline); err != nil {
			return wrap.Error(ctx, err)
		}

		result = &Result{
			Node:            n,
			TotalFare:       split.TotalFare,
			TotalCommission: split.TotalCommission,
			DriverEarnings:  split.DriverEarnings,
		}
		return nil
	})
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("hub", "failed").Inc()
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues("hub", "completed").Inc()
	s.log.Info(ctx, "node settled",
		"total_fare", int64(result.TotalFare),
		"commission", int64(result.TotalCommission),
		"driver_earnings", int64(result.DriverEarnings),
	)
	s.publish(ctx, result.Node)
	return result, nil
}

// codeMatches compares the presented code against the master code and
// every seat code. Comparison is exact string equality in constant time
// per candidate; first match wins.
func codeMatches(n *models.RideNode, presented string) bool {
	if presented == "" {
		return false
	}
	if n.MasterCode != nil && equalCode(*n.MasterCode, presented) {
		return true
	}
	for _, p := range n.Passengers {
		if p.Code != nil && equalCode(*p.Code, presented) {
			return true
		}
	}
	return false
}

func equalCode(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *SettlementService) publish(ctx context.Context, n *models.RideNode) {
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
		Timestamp:      time.Now(),
	}
	if err := s.broker.PublishNodeEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish node event", "node_id", n.ID, "err", err.Error())
	}
}
