package models

import (
	"context"
	"time"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// User is a passenger-side account.
type User struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Phone string         `json:"phone"`
	Role  types.UserRole `json:"role"`

	// Balance is owned by the wallet ledger; never mutated directly.
	Balance types.Money `json:"balance"`

	pinHash string

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func (u *User) GetPINHash() string {
	return u.pinHash
}

func (u *User) SetPINHash(hash string) {
	u.pinHash = hash
}

// AnonymousUser stands in for unauthenticated requests.
func AnonymousUser() *User {
	return &User{}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == uuid.UUID{}
}

type userCtxKey struct{}

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
