package dto

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type ReviewDecisionRequest struct {
	Approve bool `json:"approve"`
}

type ApplyRegistrationRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PIN          string `json:"pin"`
	VehicleClass string `json:"vehicle_class"`
	Deposit      int64  `json:"deposit"`
}

func (r *ApplyRegistrationRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) <= 100, "name", "must not be more than 100 characters long")

	v.Check(r.Phone != "", "phone", "must be provided")
	if r.Phone != "" {
		v.Check(validator.Matches(r.Phone, validator.PhoneRX), "phone", "must be a valid Ghanaian phone number")
	}

	v.Check(len(r.PIN) >= 4 && len(r.PIN) <= 8, "pin", "must be between 4 and 8 digits")

	v.Check(r.VehicleClass != "", "vehicle_class", "must be provided")
	if r.VehicleClass != "" {
		_, err := types.ParseVehicleClass(r.VehicleClass)
		v.Check(err == nil, "vehicle_class", "must be one of PRAGIA, TAXI or SHUTTLE")
	}

	v.Check(r.Deposit >= 0, "deposit", "must not be negative")
}

type NoShowRequest struct {
	PassengerID string `json:"passenger_id"`
	Reason      string `json:"reason"`
}

func (r *NoShowRequest) Validate(v *validator.Validator) {
	v.Check(r.PassengerID != "", "passenger_id", "must be provided")
	if r.PassengerID != "" {
		_, err := uuid.Parse(r.PassengerID)
		v.Check(err == nil, "passenger_id", "must be a valid UUID")
	}
	v.Check(len(r.Reason) <= 500, "reason", "must not be more than 500 characters long")
}

type TopupRequestView struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"account_id"`
	AccountType string     `json:"account_type"`
	Amount      int64      `json:"amount"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

func ToTopupRequestViews(reqs []models.TopupRequest) []TopupRequestView {
	out := make([]TopupRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, TopupRequestView{
			ID:          r.ID,
			AccountID:   r.AccountID,
			AccountType: string(r.AccountType),
			Amount:      int64(r.Amount),
			Reference:   r.Reference,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt,
			ReviewedAt:  r.ReviewedAt,
		})
	}
	return out
}

// RegistrationRequestView deliberately omits the PIN hash.
type RegistrationRequestView struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	VehicleClass string     `json:"vehicle_class"`
	Deposit      int64      `json:"deposit"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

func ToRegistrationRequestViews(reqs []models.RegistrationRequest) []RegistrationRequestView {
	out := make([]RegistrationRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RegistrationRequestView{
			ID:           r.ID,
			Name:         r.Name,
			Phone:        r.Phone,
			VehicleClass: string(r.VehicleClass),
			Deposit:      int64(r.Deposit),
			Status:       string(r.Status),
			CreatedAt:    r.CreatedAt,
			ReviewedAt:   r.ReviewedAt,
		})
	}
	return out
}

type RefundRequestView struct {
	ID          uuid.UUID  `json:"id"`
	NodeID      uuid.UUID  `json:"node_id"`
	DriverID    uuid.UUID  `json:"driver_id"`
	PassengerID uuid.UUID  `json:"passenger_id"`
	Amount      int64      `json:"amount"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

func ToRefundRequestViews(reqs []models.RefundRequest) []RefundRequestView {
	out := make([]RefundRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RefundRequestView{
			ID:          r.ID,
			NodeID:      r.NodeID,
			DriverID:    r.DriverID,
			PassengerID: r.PassengerID,
			Amount:      int64(r.Amount),
			Reason:      r.Reason,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt,
			ReviewedAt:  r.ReviewedAt,
		})
	}
	return out
}

type SettingsRequest struct {
	PragiaBaseFare           int64 `json:"pragia_base_fare"`
	TaxiBaseFare             int64 `json:"taxi_base_fare"`
	ShuttleBaseFare          int64 `json:"shuttle_base_fare"`
	SoloMultiplierBP         int64 `json:"solo_multiplier_bp"`
	CommissionPerSeat        int64 `json:"commission_per_seat"`
	ShuttleCommissionPerSeat int64 `json:"shuttle_commission_per_seat"`
	RegistrationFee          int64 `json:"registration_fee"`
}

func (r *SettingsRequest) Validate(v *validator.Validator) {
	v.Check(r.PragiaBaseFare >= 0, "pragia_base_fare", "must not be negative")
	v.Check(r.TaxiBaseFare >= 0, "taxi_base_fare", "must not be negative")
	v.Check(r.ShuttleBaseFare >= 0, "shuttle_base_fare", "must not be negative")
	v.Check(r.SoloMultiplierBP >= types.BasisPointScale, "solo_multiplier_bp", "must be at least 10000 (1x)")
	v.Check(r.CommissionPerSeat >= 0, "commission_per_seat", "must not be negative")
	v.Check(r.ShuttleCommissionPerSeat >= 0, "shuttle_commission_per_seat", "must not be negative")
	v.Check(r.RegistrationFee >= 0, "registration_fee", "must not be negative")
}

func (r *SettingsRequest) ToModel() models.Settings {
	return models.Settings{
		PragiaBaseFare:           types.Money(r.PragiaBaseFare),
		TaxiBaseFare:             types.Money(r.TaxiBaseFare),
		ShuttleBaseFare:          types.Money(r.ShuttleBaseFare),
		SoloMultiplierBP:         r.SoloMultiplierBP,
		CommissionPerSeat:        types.Money(r.CommissionPerSeat),
		ShuttleCommissionPerSeat: types.Money(r.ShuttleCommissionPerSeat),
		RegistrationFee:          types.Money(r.RegistrationFee),
	}
}

type SettingsResponse struct {
	PragiaBaseFare           int64     `json:"pragia_base_fare"`
	TaxiBaseFare             int64     `json:"taxi_base_fare"`
	ShuttleBaseFare          int64     `json:"shuttle_base_fare"`
	SoloMultiplierBP         int64     `json:"solo_multiplier_bp"`
	CommissionPerSeat        int64     `json:"commission_per_seat"`
	ShuttleCommissionPerSeat int64     `json:"shuttle_commission_per_seat"`
	RegistrationFee          int64     `json:"registration_fee"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func ToSettingsResponse(s models.Settings) SettingsResponse {
	return SettingsResponse{
		PragiaBaseFare:           int64(s.PragiaBaseFare),
		TaxiBaseFare:             int64(s.TaxiBaseFare),
		ShuttleBaseFare:          int64(s.ShuttleBaseFare),
		SoloMultiplierBP:         s.SoloMultiplierBP,
		CommissionPerSeat:        int64(s.CommissionPerSeat),
		ShuttleCommissionPerSeat: int64(s.ShuttleCommissionPerSeat),
		RegistrationFee:          int64(s.RegistrationFee),
		UpdatedAt:                s.UpdatedAt,
	}
}
