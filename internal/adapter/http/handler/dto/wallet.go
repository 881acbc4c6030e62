package dto

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/uuid"
	"github.com/hubride/ride-pool-system/pkg/validator"
)

type TopupRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

func (r *TopupRequest) Validate(v *validator.Validator) {
	v.Check(r.Amount > 0, "amount", "must be greater than zero")
	v.Check(r.Reference != "", "reference", "must be provided")
	v.Check(len(r.Reference) <= 100, "reference", "must not be more than 100 characters long")
}

type TransactionView struct {
	ID        uuid.UUID  `json:"id"`
	Amount    int64      `json:"amount"`
	Type      string     `json:"type"`
	Reference *uuid.UUID `json:"reference,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToTransactionViews(txs []models.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionView{
			ID:        t.ID,
			Amount:    int64(t.Amount),
			Type:      string(t.Type),
			Reference: t.Reference,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}
