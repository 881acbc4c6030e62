package dto

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type CreateNodeRequest struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	VehicleClass string `json:"vehicle_class"`
	Solo         bool   `json:"solo"`
	Capacity     int    `json:"capacity,omitempty"`
	OfferedFare  int64  `json:"offered_fare,omitempty"`
}

func (r *CreateNodeRequest) Validate(v *validator.Validator) {
	v.Check(r.Origin != "", "origin", "must be provided")
	v.Check(len(r.Origin) <= 255, "origin", "must not be more than 255 characters long")

	v.Check(r.Destination != "", "destination", "must be provided")
	v.Check(len(r.Destination) <= 255, "destination", "must not be more than 255 characters long")

	v.Check(r.VehicleClass != "", "vehicle_class", "must be provided")
	if r.VehicleClass != "" {
		_, err := types.ParseVehicleClass(r.VehicleClass)
		v.Check(err == nil, "vehicle_class", "must be one of PRAGIA, TAXI or SHUTTLE")
	}

	v.Check(r.Capacity >= 0, "capacity", "must not be negative")
	v.Check(r.Capacity <= 10, "capacity", "must not be more than 10")
	v.Check(r.OfferedFare >= 0, "offered_fare", "must not be negative")
}

type PassengerView struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	Refunded    bool      `json:"refunded,omitempty"`
}

type NodeResponse struct {
	ID             uuid.UUID  `json:"id"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	VehicleClass   string     `json:"vehicle_class"`
	Solo           bool       `json:"solo"`
	Status         string     `json:"status"`
	CapacityNeeded int        `json:"capacity_needed"`
	LeaderID       *uuid.UUID `json:"leader_id,omitempty"`
	DriverID       *uuid.UUID `json:"driver_id,omitempty"`

	FarePerPerson       int64  `json:"fare_per_person"`
	NegotiatedTotalFare *int64 `json:"negotiated_total_fare,omitempty"`

	Passengers []PassengerView `json:"passengers"`

	// YourCode is the viewer's own seat code; MasterCode is included for
	// the bound driver only. Other parties never see codes.
	YourCode   *string `json:"your_code,omitempty"`
	MasterCode *string `json:"master_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ToNodeResponse renders a node for one viewer, revealing only the
// verification codes that viewer is entitled to.
func ToNodeResponse(n *models.RideNode, viewer *models.User) NodeResponse {
	resp := NodeResponse{
		ID:             n.ID,
		Origin:         n.Origin,
		Destination:    n.Destination,
		VehicleClass:   string(n.VehicleClass),
		Solo:           n.Solo,
		Status:         string(n.Status),
		CapacityNeeded: n.CapacityNeeded,
		DriverID:       n.AssignedDriverID,
		FarePerPerson:  int64(n.FarePerPerson),
		CreatedAt:      n.CreatedAt,
	}

	if n.LeaderID != (uuid.UUID{}) {
		leaderID := n.LeaderID
		resp.LeaderID = &leaderID
	}
	if n.NegotiatedTotalFare != nil {
		total := int64(*n.NegotiatedTotalFare)
		resp.NegotiatedTotalFare = &total
	}

	resp.Passengers = make([]PassengerView, 0, len(n.Passengers))
	for _, p := range n.Passengers {
		resp.Passengers = append(resp.Passengers, PassengerView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			JoinedAt:    p.JoinedAt,
			Refunded:    p.RefundIssued,
		})
	}

	if viewer == nil {
		return resp
	}

	if seat := n.Member(viewer.ID); seat != nil {
		resp.YourCode = seat.Code
	}
	if n.AssignedDriverID != nil && *n.AssignedDriverID == viewer.ID {
		resp.MasterCode = n.MasterCode
	}
	return resp
}

// BoardNodeResponse is one open-board row: enough to decide whether to
// join or accept, with no manifest details.
type BoardNodeResponse struct {
	NodeID         uuid.UUID  `json:"node_id"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	VehicleClass   string     `json:"vehicle_class"`
	Status         string     `json:"status"`
	PassengerCount int        `json:"passenger_count"`
	CapacityNeeded int        `json:"capacity_needed"`
	FarePerPerson  int64      `json:"fare_per_person"`
	DriverID       *uuid.UUID `json:"driver_id,omitempty"`
}

func ToBoardResponses(rows []models.NodeEventMessage) []BoardNodeResponse {
	out := make([]BoardNodeResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, BoardNodeResponse{
			NodeID:         r.NodeID,
			Origin:         r.Origin,
			Destination:    r.Destination,
			VehicleClass:   string(r.VehicleClass),
			Status:         string(r.Status),
			PassengerCount: r.PassengerCount,
			CapacityNeeded: r.CapacityNeeded,
			FarePerPerson:  int64(r.FarePerPerson),
			DriverID:       r.DriverID,
		})
	}
	return out
}

func ToNodeResponses(nodes []models.RideNode, viewer *models.User) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for i := range nodes {
		out = append(out, ToNodeResponse(&nodes[i], viewer))
	}
	return out
}
