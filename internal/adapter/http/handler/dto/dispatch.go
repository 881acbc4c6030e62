package dto

import (
	"github.com/hubride/ride-pool-system/internal/service/settlement"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type AcceptNodeRequest struct {
	// NegotiatedTotalFare replaces the per-person sum at settlement when
	// set. Must not undercut the expected total.
	NegotiatedTotalFare *int64 `json:"negotiated_total_fare,omitempty"`
}

func (r *AcceptNodeRequest) Validate(v *validator.Validator) {
	if r.NegotiatedTotalFare != nil {
		v.Check(*r.NegotiatedTotalFare > 0, "negotiated_total_fare", "must be greater than zero")
	}
}

type BroadcastRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Capacity      int    `json:"capacity"`
	FarePerPerson int64  `json:"fare_per_person"`
}

func (r *BroadcastRequest) Validate(v *validator.Validator) {
	v.Check(r.Origin != "", "origin", "must be provided")
	v.Check(len(r.Origin) <= 255, "origin", "must not be more than 255 characters long")

	v.Check(r.Destination != "", "destination", "must be provided")
	v.Check(len(r.Destination) <= 255, "destination", "must not be more than 255 characters long")

	v.Check(r.Capacity >= 1, "capacity", "must be at least 1")
	v.Check(r.Capacity <= 10, "capacity", "must not be more than 10")
	v.Check(r.FarePerPerson >= 0, "fare_per_person", "must not be negative")
}

type VerifyRequest struct {
	Code string `json:"code"`
}

func (r *VerifyRequest) Validate(v *validator.Validator) {
	v.Check(r.Code != "", "code", "must be provided")
	v.Check(len(r.Code) == 6, "code", "must be 6 digits")
}

type SettlementResponse struct {
	Node            NodeResponse `json:"node"`
	TotalFare       int64        `json:"total_fare"`
	TotalCommission int64        `json:"total_commission"`
	DriverEarnings  int64        `json:"driver_earnings"`
}

func ToSettlementResponse(res *settlement.Result) SettlementResponse {
	return SettlementResponse{
		Node:            ToNodeResponse(res.Node, nil),
		TotalFare:       int64(res.TotalFare),
		TotalCommission: int64(res.TotalCommission),
		DriverEarnings:  int64(res.DriverEarnings),
	}
}
