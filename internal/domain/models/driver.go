package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// Driver is a partner account. Created on registration approval;
// removable only while no qualified or dispatched node is assigned to it.
type Driver struct {
	ID           uuid.UUID
	Name         string
	Phone        string
	VehicleClass types.VehicleClass
	Rating       float64
	Status       types.DriverStatus

	// Balance is owned by the wallet ledger; never mutated directly.
	Balance types.Money

	pinHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Driver) GetPINHash() string {
	return d.pinHash
}

func (d *Driver) SetPINHash(hash string) {
	d.pinHash = hash
}
