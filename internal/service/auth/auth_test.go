package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/passhash"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type fakeUserRepo struct {
	byPhone map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *models.User) error {
	r.byPhone[u.Phone] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	u, ok := r.byPhone[phone]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

type fakeDriverRepo struct {
	byPhone map[string]*models.Driver
}

func (r *fakeDriverRepo) GetDriverByPhone(_ context.Context, phone string) (*models.Driver, error) {
	d, ok := r.byPhone[phone]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return d, nil
}

func newService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeDriverRepo) {
	t.Helper()
	users := &fakeUserRepo{byPhone: make(map[string]*models.User), byID: make(map[uuid.UUID]*models.User)}
	drivers := &fakeDriverRepo{byPhone: make(map[string]*models.Driver)}
	tokens := NewTokenService("test-secret", 15*time.Minute)
	log := logger.InitLogger("auth-test", logger.LevelError)
	return NewAuthService(users, drivers, tokens, log), users, drivers
}

func TestRegisterAndLogin_Passenger(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterCommand{Name: "Akua", Phone: "0241234567", PIN: "4321"})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "0241234567", "4321")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	principal, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, principal.ID)
	assert.Equal(t, types.RolePassenger, principal.Role)
}

func TestLogin_WrongPINAndUnknownPhoneLookAlike(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterCommand{Name: "Akua", Phone: "0241234567", PIN: "4321"})
	require.NoError(t, err)

	_, wrongPIN := svc.Login(ctx, "0241234567", "0000")
	_, unknown := svc.Login(ctx, "0200000000", "4321")

	assert.ErrorIs(t, wrongPIN, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
}

func TestLogin_DriverGetsDriverRole(t *testing.T) {
	svc, _, drivers := newService(t)
	ctx := context.Background()

	hash, err := passhash.HashPassword("9876")
	require.NoError(t, err)
	id, err := uuid.New()
	require.NoError(t, err)
	d := &models.Driver{ID: id, Phone: "0551234567", VehicleClass: types.TaxiClass}
	d.SetPINHash(hash)
	drivers.byPhone[d.Phone] = d

	pair, err := svc.Login(ctx, "0551234567", "9876")
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, principal.ID)
	assert.Equal(t, types.RoleDriver, principal.Role)
}

func TestRegister_DuplicatePhoneRejected(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterCommand{Name: "A", Phone: "0241234567", PIN: "1111"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterCommand{Name: "B", Phone: "0241234567", PIN: "2222"})
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestValidate_RejectsGarbageAndForeignSignature(t *testing.T) {
	tokens := NewTokenService("secret-a", time.Minute)
	other := NewTokenService("secret-b", time.Minute)

	id, err := uuid.New()
	require.NoError(t, err)
	pair, err := other.Generate(id, "0241234567", types.RolePassenger)
	require.NoError(t, err)

	_, err = tokens.Validate(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_ExpiredToken(t *testing.T) {
	tokens := NewTokenService("secret", -time.Minute)

	id, err := uuid.New()
	require.NoError(t, err)
	pair, err := tokens.Generate(id, "0241234567", types.RolePassenger)
	require.NoError(t, err)

	_, err = tokens.Validate(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpToken)
}
