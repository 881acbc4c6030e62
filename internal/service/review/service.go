package review

import (
	"context"
	"fmt"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/trm"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// ReviewService handles everything that waits for an operator decision:
// wallet topups, partner registrations, no-show refund claims, pricing
// updates and partner removal. Approvals are the only paths that move
// money for these flows; a rejection never touches the ledger.
type ReviewService struct {
	requests RequestRepo
	nodes    NodeRepo
	drivers  DriverRepo
	settings SettingsRepo
	ledger   Ledger
	trm      trm.TxManager
	log      logger.Logger
}

func NewReviewService(requests RequestRepo, nodes NodeRepo, drivers DriverRepo, settings SettingsRepo, ledger Ledger, trm trm.TxManager, log logger.Logger) *ReviewService {
	return &ReviewService{
		requests: requests,
		nodes:    nodes,
		drivers:  drivers,
		settings: settings,
		ledger:   ledger,
		trm:      trm,
		log:      log,
	}
}

// --- topups ---

func (s *ReviewService) RequestTopup(ctx context.Context, acc wallet.Account, amount types.Money, reference string) (*models.TopupRequest, error) {
	ctx = wrap.WithAction(ctx, "request_topup")

	if amount <= 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("topup amount must be positive, got %d", amount))
	}

	id, err := uuid.New()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	r := &models.TopupRequest{
		ID:          id,
		AccountID:   acc.ID,
		AccountType: acc.Type,
		Amount:      amount,
		Reference:   reference,
		Status:      types.RequestPending,
		CreatedAt:   time.Now(),
	}
	if err := s.requests.CreateTopup(ctx, r); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return r, nil
}

// ReviewTopup decides a pending topup. Approval credits the ledger in
// the same transaction that flips the request status, so a crash can
// never credit twice or approve without crediting.
func (s *ReviewService) ReviewTopup(ctx context.Context, requestID uuid.UUID, approve bool) error {
	ctx = wrap.WithAction(ctx, "review_topup")

	return s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetTopupForUpdate(ctx, requestID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if r.Status != types.RequestPending {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		if approve {
			acc := wallet.Account{ID: r.AccountID, Type: r.AccountType}
			ref := r.ID
			if err := s.ledger.Credit(ctx, acc, r.Amount, types.TxTopup, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
			r.Status = types.RequestApproved
		} else {
			r.Status = types.RequestRejected
		}

		now := time.Now()
		r.ReviewedAt = &now
		return wrap.Error(ctx, s.requests.SaveTopup(ctx, r))
	})
}

// --- registrations ---

type RegistrationCommand struct {
	Name         string
	Phone        string
	VehicleClass types.VehicleClass
	PINHash      string
	Deposit      types.Money
}

func (s *ReviewService) RequestRegistration(ctx context.Context, cmd RegistrationCommand) (*models.RegistrationRequest, error) {
	ctx = wrap.WithAction(ctx, "request_registration")

	id, err := uuid.New()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	r := &models.RegistrationRequest{
		ID:           id,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		VehicleClass: cmd.VehicleClass,
		PINHash:      cmd.PINHash,
		Deposit:      cmd.Deposit,
		Status:       types.RequestPending,
		CreatedAt:    time.Now(),
	}
	if err := s.requests.CreateRegistration(ctx, r); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return r, nil
}

// ReviewRegistration decides a partner application. Approval creates
// the driver, credits the deposit and charges the registration fee
// against it, all in one transaction.
func (s *ReviewService) ReviewRegistration(ctx context.Context, requestID uuid.UUID, approve bool) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "review_registration")

	var created *models.Driver

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetRegistrationForUpdate(ctx, requestID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if r.Status != types.RequestPending {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		now := time.Now()
		r.ReviewedAt = &now

		if !approve {
			r.Status = types.RequestRejected
			return wrap.Error(ctx, s.requests.SaveRegistration(ctx, r))
		}

		settings, err := s.settings.Get(ctx)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if r.Deposit < settings.RegistrationFee {
			return wrap.Error(ctx, types.ErrInsufficientBalance)
		}

		driverID, err := uuid.New()
		if err != nil {
			return wrap.Error(ctx, err)
		}
		d := &models.Driver{
			ID:           driverID,
			Name:         r.Name,
			Phone:        r.Phone,
			VehicleClass: r.VehicleClass,
			Status:       types.DriverOffline,
			CreatedAt:    now,
		}
		d.SetPINHash(r.PINHash)
		if err := s.drivers.CreateDriver(ctx, d); err != nil {
			return wrap.Error(ctx, err)
		}

		acc := wallet.Account{ID: driverID, Type: types.DriverAccount}
		ref := r.ID
		if err := s.ledger.Credit(ctx, acc, r.Deposit, types.TxTopup, &ref); err != nil {
			return wrap.Error(ctx, err)
		}
		if settings.RegistrationFee > 0 {
			if err := s.ledger.Debit(ctx, acc, settings.RegistrationFee, types.TxRegistration, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		r.Status = types.RequestApproved
		if err := s.requests.SaveRegistration(ctx, r); err != nil {
			return wrap.Error(ctx, err)
		}

		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// --- no-show refunds ---

// ReportNoShow lets the bound driver flag a missing passenger on a
// dispatched node. The claim waits for an operator; the manifest is not
// touched here.
func (s *ReviewService) ReportNoShow(ctx context.Context, nodeID, driverID, passengerID uuid.UUID, reason string) (*models.RefundRequest, error) {
	ctx = wrap.WithAction(ctx, "report_no_show")
	ctx = wrap.WithNodeID(ctx, nodeID.String())

	var claim *models.RefundRequest

	err := s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		n, err := s.nodes.GetForUpdate(ctx, nodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if n.Status != types.NodeDispatched {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if n.AssignedDriverID == nil || *n.AssignedDriverID != driverID {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		if n.Member(passengerID) == nil {
			return wrap.Error(ctx, types.ErrNotMember)
		}

		open, err := s.requests.HasOpenRefund(ctx, nodeID, passengerID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if open {
			return wrap.Error(ctx, types.ErrDuplicateClaim)
		}

		id, err := uuid.New()
		if err != nil {
			return wrap.Error(ctx, err)
		}
		claim = &models.RefundRequest{
			ID:          id,
			NodeID:      nodeID,
			DriverID:    driverID,
			PassengerID: passengerID,
			Amount:      n.FarePerPerson,
			Reason:      reason,
			Status:      types.RequestPending,
			CreatedAt:   time.Now(),
		}
		return wrap.Error(ctx, s.requests.CreateRefund(ctx, claim))
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ReviewRefund decides a no-show claim. Approval marks the seat so
// settlement skips it. If the node already settled with the passenger
// debited, the fare moves back: passenger credited, driver debited.
func (s *ReviewService) ReviewRefund(ctx context.Context, requestID uuid.UUID, approve bool) error {
	ctx = wrap.WithAction(ctx, "review_refund")

	return s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetRefundForUpdate(ctx, requestID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if r.Status != types.RequestPending {
			return wrap.Error(ctx, types.ErrInvalidState)
		}

		now := time.Now()
		r.ReviewedAt = &now

		if !approve {
			r.Status = types.RequestRejected
			return wrap.Error(ctx, s.requests.SaveRefund(ctx, r))
		}

		n, err := s.nodes.GetForUpdate(ctx, r.NodeID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		seat := n.Member(r.PassengerID)
		if seat == nil {
			return wrap.Error(ctx, types.ErrNotMember)
		}
		if seat.RefundIssued {
			return wrap.Error(ctx, types.ErrInvalidState)
		}
		seat.RefundIssued = true

		// A completed node already collected this seat's fare; move it
		// back. A still-dispatched node just skips the seat at settlement.
		if n.Status == types.NodeCompleted {
			ref := r.ID
			passengerAcc := wallet.Account{ID: r.PassengerID, Type: types.PassengerAccount}
			driverAcc := wallet.Account{ID: r.DriverID, Type: types.DriverAccount}
			if err := s.ledger.Credit(ctx, passengerAcc, r.Amount, types.TxRefund, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
			if err := s.ledger.Debit(ctx, driverAcc, r.Amount, types.TxRefund, &ref); err != nil {
				return wrap.Error(ctx, err)
			}
		}

		if err := s.nodes.Save(ctx, n); err != nil {
			return wrap.Error(ctx, err)
		}

		r.Status = types.RequestApproved
		return wrap.Error(ctx, s.requests.SaveRefund(ctx, r))
	})
}

// --- settings and partner removal ---

func (s *ReviewService) GetSettings(ctx context.Context) (models.Settings, error) {
	return s.settings.Get(ctx)
}

func (s *ReviewService) UpdateSettings(ctx context.Context, settings models.Settings) error {
	ctx = wrap.WithAction(ctx, "update_settings")

	if settings.PragiaBaseFare < 0 || settings.TaxiBaseFare < 0 || settings.ShuttleBaseFare < 0 ||
		settings.CommissionPerSeat < 0 || settings.ShuttleCommissionPerSeat < 0 ||
		settings.RegistrationFee < 0 || settings.SoloMultiplierBP < 0 {
		return wrap.Error(ctx, fmt.Errorf("settings values may not be negative"))
	}
	settings.UpdatedAt = time.Now()
	return s.settings.Update(ctx, settings)
}

// RemoveDriver deletes a partner account. Blocked while any node is
// qualified-assigned or dispatched to them, so in-flight money always
// has an owner.
func (s *ReviewService) RemoveDriver(ctx context.Context, driverID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, "remove_driver")

	return s.trm.DoSerializable(ctx, func(ctx context.Context) error {
		if _, err := s.drivers.GetDriverByID(ctx, driverID); err != nil {
			return wrap.Error(ctx, err)
		}

		active, err := s.nodes.FindActiveByDriver(ctx, driverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
		if len(active) > 0 {
			return wrap.Error(ctx, types.ErrDriverHasActiveNode)
		}

		return wrap.Error(ctx, s.drivers.DeleteDriver(ctx, driverID))
	})
}

// --- listings for the operator console ---

func (s *ReviewService) PendingTopups(ctx context.Context) ([]models.TopupRequest, error) {
	return s.requests.ListTopups(ctx, types.RequestPending)
}

func (s *ReviewService) PendingRegistrations(ctx context.Context) ([]models.RegistrationRequest, error) {
	return s.requests.ListRegistrations(ctx, types.RequestPending)
}

func (s *ReviewService) PendingRefunds(ctx context.Context) ([]models.RefundRequest, error) {
	return s.requests.ListRefunds(ctx, types.RequestPending)
}
