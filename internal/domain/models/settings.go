package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// Settings is the singleton record holding fare constants, commission
// rates and the solo multiplier. Operator-editable at runtime.
type Settings struct {
	// Base fare per vehicle class, in pesewas.
	PragiaBaseFare  types.Money
	TaxiBaseFare    types.Money
	ShuttleBaseFare types.Money

	// SoloMultiplierBP is the solo surcharge in basis points
	// (25000 = 2.5x).
	SoloMultiplierBP int64

	// CommissionPerSeat applies to standard classes per actual rider;
	// ShuttleCommissionPerSeat applies to shuttle capacity, not riders.
	CommissionPerSeat        types.Money
	ShuttleCommissionPerSeat types.Money

	// RegistrationFee is charged when a partner application is approved.
	RegistrationFee types.Money

	UpdatedAt time.Time
}

// BaseFare returns the configured base fare for a vehicle class.
func (s Settings) BaseFare(class types.VehicleClass) types.Money {
	switch class {
	case types.TaxiClass:
		return s.TaxiBaseFare
	case types.ShuttleClass:
		return s.ShuttleBaseFare
	default:
		return s.PragiaBaseFare
	}
}
