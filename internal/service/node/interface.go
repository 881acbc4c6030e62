package node

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type NodeRepo interface {
	Create(ctx context.Context, node *models.RideNode) error
	Get(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	// GetForUpdate locks the node row for the duration of the ambient
	// transaction. Must be called inside trm.Do/DoSerializable.
	GetForUpdate(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	// Save persists node fields and manifest with an optimistic version
	// check; a stale version surfaces as types.ErrContention.
	Save(ctx context.Context, node *models.RideNode) error
	Delete(ctx context.Context, nodeID uuid.UUID) error

	ListOpen(ctx context.Context) ([]models.RideNode, error)
	ListByPassenger(ctx context.Context, userID uuid.UUID) ([]models.RideNode, error)
	// FindActiveByDriver returns nodes qualified-assigned or dispatched
	// to the driver. The database partial unique index is the authority
	// for exclusivity; this exists for readable precondition errors.
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]models.RideNode, error)
}

type UserRepo interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SettingsRepo interface {
	Get(ctx context.Context) (models.Settings, error)
}

type Broker interface {
	PublishNodeEvent(ctx context.Context, msg models.NodeEventMessage) error
}

// BoardCache is the read-side snapshot of open nodes, maintained from
// the change feed. Optional: a nil cache sends every board read to the
// database.
type BoardCache interface {
	ListOpen(ctx context.Context) ([]models.NodeEventMessage, error)
}
