package fare

import (
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// Calculator derives expected fares and commission splits from the
// operator-configured settings record. Pure: no side effects, no I/O.
type Calculator struct {
	settings models.Settings
}

func NewCalculator(settings models.Settings) Calculator {
	return Calculator{settings: settings}
}

// ExpectedFarePerPerson is the floor a passenger offer must meet:
// the class base fare, multiplied by the solo surcharge for solo trips.
func (c Calculator) ExpectedFarePerPerson(class types.VehicleClass, solo bool) types.Money {
	base := c.settings.BaseFare(class)
	if solo {
		return base.MulBasisPoints(c.settings.SoloMultiplierBP)
	}
	return base
}

// ClampOffer accepts a passenger offer only when it meets the expected
// fare; lower offers are raised to the floor, never silently stored.
func (c Calculator) ClampOffer(class types.VehicleClass, solo bool, offer types.Money) types.Money {
	expected := c.ExpectedFarePerPerson(class, solo)
	if offer < expected {
		return expected
	}
	return offer
}

// Commission computes the hub's cut at settlement. Standard classes pay
// per actual rider; the shuttle class pays on reserved capacity so hub
// revenue is guaranteed even when seats ride empty.
func (c Calculator) Commission(class types.VehicleClass, passengerCount, capacityNeeded int) types.Money {
	if class == types.ShuttleClass {
		return c.settings.ShuttleCommissionPerSeat.MulSeats(capacityNeeded)
	}
	return c.settings.CommissionPerSeat.MulSeats(passengerCount)
}

// Split is the settlement money breakdown for a node.
type Split struct {
	TotalFare       types.Money
	TotalCommission types.Money
	DriverEarnings  types.Money
}

// SettlementSplit computes the full split: totalFare is the negotiated
// total when the driver set one, otherwise farePerPerson times the
// settleable passenger count. A negotiated total covered the full
// manifest, so an approved refund voids it and pricing falls back to
// per-person. Conservation holds by construction:
// TotalFare == DriverEarnings + TotalCommission.
func (c Calculator) SettlementSplit(node *models.RideNode) Split {
	passengers := node.SettleablePassengers()

	// Every seat refunded: nothing is collected, so nothing is owed,
	// shuttle capacity commission included.
	if len(passengers) == 0 {
		return Split{}
	}

	totalFare := node.FarePerPerson.MulSeats(len(passengers))
	if node.NegotiatedTotalFare != nil && len(passengers) == len(node.Passengers) {
		totalFare = *node.NegotiatedTotalFare
	}

	commission := c.Commission(node.VehicleClass, len(passengers), node.CapacityNeeded)

	return Split{
		TotalFare:       totalFare,
		TotalCommission: commission,
		DriverEarnings:  totalFare - commission,
	}
}

// SplitShares divides a total across n seats in whole pesewas; earlier
// seats absorb the remainder so the shares always sum to the total.
func SplitShares(total types.Money, n int) []types.Money {
	if n <= 0 {
		return nil
	}
	base := total / types.Money(n)
	remainder := int(total % types.Money(n))
	shares := make([]types.Money, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares
}
