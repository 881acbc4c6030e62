package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// TopupRequest is an operator-reviewed wallet credit claim. Approval is
// the only path that credits the ledger for it; rejection is a no-op.
type TopupRequest struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	AccountType types.AccountType
	Amount      types.Money
	Reference   string // payment reference (momo receipt etc.)
	Status      types.RequestStatus
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

// RegistrationRequest is a pending partner application. Approval creates
// the driver account, credits the deposit paid with the application and
// records the registration fee transaction against it.
type RegistrationRequest struct {
	ID           uuid.UUID
	Name         string
	Phone        string
	VehicleClass types.VehicleClass
	PINHash      string

	// Deposit is the amount handed over with the application; it must
	// cover the registration fee at approval time.
	Deposit types.Money

	Status     types.RequestStatus
	CreatedAt  time.Time
	ReviewedAt *time.Time
}

// RefundRequest is a no-show claim a driver raises against a dispatched
// node. Approval releases the refund transaction and excludes the seat
// from the driver's upcoming settlement; the manifest itself is untouched.
type RefundRequest struct {
	ID          uuid.UUID
	NodeID      uuid.UUID
	DriverID    uuid.UUID
	PassengerID uuid.UUID
	Amount      types.Money
	Reason      string
	Status      types.RequestStatus
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}
