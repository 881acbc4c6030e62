package review

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type RequestRepo interface {
	CreateTopup(ctx context.Context, r *models.TopupRequest) error
	GetTopupForUpdate(ctx context.Context, id uuid.UUID) (*models.TopupRequest, error)
	SaveTopup(ctx context.Context, r *models.TopupRequest) error
	ListTopups(ctx context.Context, status types.RequestStatus) ([]models.TopupRequest, error)

	CreateRegistration(ctx context.Context, r *models.RegistrationRequest) error
	GetRegistrationForUpdate(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error)
	SaveRegistration(ctx context.Context, r *models.RegistrationRequest) error
	ListRegistrations(ctx context.Context, status types.RequestStatus) ([]models.RegistrationRequest, error)

	CreateRefund(ctx context.Context, r *models.RefundRequest) error
	GetRefundForUpdate(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	SaveRefund(ctx context.Context, r *models.RefundRequest) error
	ListRefunds(ctx context.Context, status types.RequestStatus) ([]models.RefundRequest, error)
	// HasOpenRefund reports a pending or approved claim for the seat.
	HasOpenRefund(ctx context.Context, nodeID, passengerID uuid.UUID) (bool, error)
}

type NodeRepo interface {
	GetForUpdate(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	Save(ctx context.Context, node *models.RideNode) error
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]models.RideNode, error)
}

type DriverRepo interface {
	CreateDriver(ctx context.Context, d *models.Driver) error
	GetDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	DeleteDriver(ctx context.Context, id uuid.UUID) error
}

type SettingsRepo interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, s models.Settings) error
}

type Ledger interface {
	Credit(ctx context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error
	Debit(ctx context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error
}
