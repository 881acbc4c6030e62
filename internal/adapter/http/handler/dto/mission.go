package dto

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type CreateMissionRequest struct {
	Location    string `json:"location"`
	Description string `json:"description"`
	EntryFee    int64  `json:"entry_fee"`
}

func (r *CreateMissionRequest) Validate(v *validator.Validator) {
	v.Check(r.Location != "", "location", "must be provided")
	v.Check(len(r.Location) <= 255, "location", "must not be more than 255 characters long")
	v.Check(len(r.Description) <= 500, "description", "must not be more than 500 characters long")
	v.Check(r.EntryFee >= 0, "entry_fee", "must not be negative")
}

type MissionResponse struct {
	ID            uuid.UUID   `json:"id"`
	Location      string      `json:"location"`
	Description   string      `json:"description"`
	EntryFee      int64       `json:"entry_fee"`
	Active        bool        `json:"active"`
	DriversJoined []uuid.UUID `json:"drivers_joined"`
	CreatedAt     time.Time   `json:"created_at"`
}

func ToMissionResponse(m *models.HubMission) MissionResponse {
	return MissionResponse{
		ID:            m.ID,
		Location:      m.Location,
		Description:   m.Description,
		EntryFee:      int64(m.EntryFee),
		Active:        m.Active,
		DriversJoined: m.DriversJoined,
		CreatedAt:     m.CreatedAt,
	}
}

func ToMissionResponses(missions []models.HubMission) []MissionResponse {
	out := make([]MissionResponse, 0, len(missions))
	for i := range missions {
		out = append(out, ToMissionResponse(&missions[i]))
	}
	return out
}
