package mission

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type MissionRepo interface {
	Create(ctx context.Context, m *models.HubMission) error
	Get(ctx context.Context, id uuid.UUID) (*models.HubMission, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.HubMission, error)
	// AddDriver appends to the join list; the unique constraint on
	// (mission_id, driver_id) backs the exactly-once fee rule.
	AddDriver(ctx context.Context, missionID, driverID uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]models.HubMission, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type DriverRepo interface {
	GetDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
}

type Ledger interface {
	Debit(ctx context.Context, acc wallet.Account, amount types.Money, txType types.TransactionType, ref *uuid.UUID) error
}

type Broker interface {
	PublishMissionEvent(ctx context.Context, msg models.MissionEventMessage) error
}
