package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// HubMission is a hotspot a driver pays an entry fee to be prioritized at.
// Each driver joins at most once and is debited the fee exactly once.
type HubMission struct {
	ID          uuid.UUID
	Location    string
	Description string
	EntryFee    types.Money
	Active      bool

	DriversJoined []uuid.UUID

	CreatedAt time.Time
}

// Joined reports whether the driver is already on the mission.
func (m *HubMission) Joined(driverID uuid.UUID) bool {
	for _, id := range m.DriversJoined {
		if id == driverID {
			return true
		}
	}
	return false
}
