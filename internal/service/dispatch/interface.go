package dispatch

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type NodeRepo interface {
	Create(ctx context.Context, node *models.RideNode) error
	GetForUpdate(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	Save(ctx context.Context, node *models.RideNode) error
	Delete(ctx context.Context, nodeID uuid.UUID) error
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]models.RideNode, error)
}

type DriverRepo interface {
	GetDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	SetStatus(ctx context.Context, id uuid.UUID, status types.DriverStatus) error
}

type SettingsRepo interface {
	Get(ctx context.Context) (models.Settings, error)
}

type Broker interface {
	PublishNodeEvent(ctx context.Context, msg models.NodeEventMessage) error
}
