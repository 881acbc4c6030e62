package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// Change-feed messages published after a transaction commits. Consumers
// use them to refresh read-side caches and push UI updates only; they
// are never a synchronization primitive.

type NodeEventMessage struct {
	NodeID         uuid.UUID          `json:"node_id"`
	Status         types.NodeStatus   `json:"status"`
	VehicleClass   types.VehicleClass `json:"vehicle_class"`
	Origin         string             `json:"origin"`
	Destination    string             `json:"destination"`
	PassengerCount int                `json:"passenger_count"`
	CapacityNeeded int                `json:"capacity_needed"`
	FarePerPerson  types.Money        `json:"fare_per_person"`
	DriverID       *uuid.UUID         `json:"driver_id,omitempty"`
	Deleted        bool               `json:"deleted,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	CorrelationID  string             `json:"correlation_id"`
}

type LedgerEventMessage struct {
	AccountID     uuid.UUID             `json:"account_id"`
	AccountType   types.AccountType     `json:"account_type"`
	Amount        types.Money           `json:"amount"`
	Type          types.TransactionType `json:"type"`
	Balance       types.Money           `json:"balance"`
	Timestamp     time.Time             `json:"timestamp"`
	CorrelationID string                `json:"correlation_id"`
}

type MissionEventMessage struct {
	MissionID uuid.UUID   `json:"mission_id"`
	DriverID  *uuid.UUID  `json:"driver_id,omitempty"`
	EntryFee  types.Money `json:"entry_fee"`
	Timestamp time.Time   `json:"timestamp"`
}
