package auth

import (
	"context"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type DriverRepo interface {
	GetDriverByPhone(ctx context.Context, phone string) (*models.Driver, error)
}
