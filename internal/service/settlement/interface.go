package settlement

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type NodeRepo interface {
	GetForUpdate(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error)
	Save(ctx context.Context, node *models.RideNode) error
}

type DriverRepo interface {
	SetStatus(ctx context.Context, id uuid.UUID, status types.DriverStatus) error
}

type SettingsRepo interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Ledger is the wallet service seen from settlement. All calls run
// inside the settlement transaction; a failed movement aborts it whole.
type Ledger interface {
	Credit(ctx context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error
	Debit(ctx context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error
}

type Broker interface {
	PublishNodeEvent(ctx context.Context, msg models.NodeEventMessage) error
}
