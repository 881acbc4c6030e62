package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	"github.com/hubride/ride-pool-system/pkg/passhash"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// AuthService signs in passengers, drivers and admins with phone + PIN.
// Driver accounts are created through the registration review flow, so
// self-service Register only ever produces passengers.
type AuthService struct {
	users   UserRepo
	drivers DriverRepo
	tokens  *TokenService
	log     logger.Logger
}

func NewAuthService(users UserRepo, drivers DriverRepo, tokens *TokenService, log logger.Logger) *AuthService {
	return &AuthService{
		users:   users,
		drivers: drivers,
		tokens:  tokens,
		log:     log,
	}
}

// Login checks the PIN against the user table first, then drivers.
// The same opaque error covers unknown phone and wrong PIN.
func (s *AuthService) Login(ctx context.Context, phone, pin string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "login")

	if u, err := s.users.GetUserByPhone(ctx, phone); err == nil && u != nil {
		if ok, err := passhash.VerifyPassword(pin, u.GetPINHash()); err != nil || !ok {
			return nil, wrap.Error(ctx, ErrInvalidCredentials)
		}
		return s.tokens.Generate(u.ID, u.Phone, u.Role)
	} else if err != nil && !errors.Is(err, types.ErrNotFound) && !errors.Is(err, types.ErrUserNotFound) {
		return nil, wrap.Error(ctx, err)
	}

	d, err := s.drivers.GetDriverByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrDriverNotFound) {
			return nil, wrap.Error(ctx, ErrInvalidCredentials)
		}
		return nil, wrap.Error(ctx, err)
	}
	if ok, err := passhash.VerifyPassword(pin, d.GetPINHash()); err != nil || !ok {
		return nil, wrap.Error(ctx, ErrInvalidCredentials)
	}
	return s.tokens.Generate(d.ID, d.Phone, types.RoleDriver)
}

type RegisterCommand struct {
	Name  string
	Phone string
	PIN   string
}

// Register creates a passenger account.
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (uuid.UUID, error) {
	ctx = wrap.WithAction(ctx, "register_passenger")

	if existing, err := s.users.GetUserByPhone(ctx, cmd.Phone); err == nil && existing != nil {
		return uuid.UUID{}, wrap.Error(ctx, ErrPhoneTaken)
	} else if err != nil && !errors.Is(err, types.ErrNotFound) && !errors.Is(err, types.ErrUserNotFound) {
		return uuid.UUID{}, wrap.Error(ctx, err)
	}

	hash, err := passhash.HashPassword(cmd.PIN)
	if err != nil {
		return uuid.UUID{}, wrap.Error(ctx, fmt.Errorf("could not hash PIN: %w", err))
	}

	id, err := uuid.New()
	if err != nil {
		return uuid.UUID{}, wrap.Error(ctx, err)
	}

	u := &models.User{
		ID:    id,
		Name:  cmd.Name,
		Phone: cmd.Phone,
		Role:  types.RolePassenger,
	}
	u.SetPINHash(hash)

	if err := s.users.CreateUser(ctx, u); err != nil {
		return uuid.UUID{}, wrap.Error(ctx, err)
	}
	return id, nil
}

// Authenticate resolves an access token into a principal for request
// context. Driver tokens map onto a User-shaped principal carrying the
// driver role.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if types.UserRole(claims.Role) == types.RoleDriver {
		return &models.User{
			ID:    subjectID,
			Phone: claims.Phone,
			Role:  types.RoleDriver,
		}, nil
	}

	u, err := s.users.GetUserByID(ctx, subjectID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}
