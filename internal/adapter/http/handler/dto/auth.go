package dto

import (
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

func (r *RegisterRequest) Validate(v *validator.Validator) {
	v.Check(r.Name != "", "name", "must be provided")
	v.Check(len(r.Name) <= 100, "name", "must not be more than 100 characters long")

	v.Check(r.Phone != "", "phone", "must be provided")
	if r.Phone != "" {
		v.Check(validator.Matches(r.Phone, validator.PhoneRX), "phone", "must be a valid Ghanaian phone number")
	}

	v.Check(len(r.PIN) >= 4 && len(r.PIN) <= 8, "pin", "must be between 4 and 8 digits")
}

type LoginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

func (r *LoginRequest) Validate(v *validator.Validator) {
	v.Check(r.Phone != "", "phone", "must be provided")
	v.Check(r.PIN != "", "pin", "must be provided")
}
