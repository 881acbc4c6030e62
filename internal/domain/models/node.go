package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// RideNode is a pooled or solo trip request grouping passengers bound
// for the same route. The leader passenger (or the broadcasting driver)
// owns it until dispatch; the bound driver owns verification afterwards.
type RideNode struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time

	Origin       string
	Destination  string
	VehicleClass types.VehicleClass
	Solo         bool

	// CapacityNeeded is fixed at creation: 1 for solo, class default
	// otherwise, or creator-defined for broadcast/shuttle routes.
	CapacityNeeded int

	// LeaderID is the creating passenger; empty for driver broadcasts.
	LeaderID   uuid.UUID
	Passengers []NodePassenger

	// FarePerPerson may be offered above the computed base fare,
	// never below it. NegotiatedTotalFare is set by the driver at
	// acceptance time and overrides the per-person sum at settlement.
	FarePerPerson       types.Money
	NegotiatedTotalFare *types.Money

	Status types.NodeStatus

	AssignedDriverID *uuid.UUID
	MasterCode       *string

	// Version backs the optimistic lock on every node write.
	Version int
}

// NodePassenger is one seat on the manifest.
type NodePassenger struct {
	UserID      uuid.UUID
	DisplayName string
	Phone       string
	JoinedAt    time.Time

	// Code is assigned at dispatch time, nil while forming/qualified.
	Code *string

	// RefundIssued marks a no-show refund approved against this seat;
	// the seat stays on the manifest but is excluded from settlement.
	RefundIssued bool
}

// Member returns the manifest entry for a passenger, if present.
func (n *RideNode) Member(userID uuid.UUID) *NodePassenger {
	for i := range n.Passengers {
		if n.Passengers[i].UserID == userID {
			return &n.Passengers[i]
		}
	}
	return nil
}

// AtCapacity reports whether the manifest is full.
func (n *RideNode) AtCapacity() bool {
	return len(n.Passengers) >= n.CapacityNeeded
}

// SettleablePassengers returns manifest entries that still owe fare
// (no-show seats with an approved refund are excluded).
func (n *RideNode) SettleablePassengers() []NodePassenger {
	out := make([]NodePassenger, 0, len(n.Passengers))
	for _, p := range n.Passengers {
		if !p.RefundIssued {
			out = append(out, p)
		}
	}
	return out
}
