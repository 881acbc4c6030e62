package models

import (
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// Transaction is an immutable ledger entry. The running balance of any
// account must equal the sum of its transactions at all times.
type Transaction struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	AccountType types.AccountType

	// Amount is signed: credits positive, debits negative.
	Amount types.Money
	Type   types.TransactionType

	// Reference points at the originating entity (node, mission, claim).
	Reference *uuid.UUID

	CreatedAt time.Time
}
