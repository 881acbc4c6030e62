package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u *models.User) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO users (id, name, phone, role, pin_hash, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		u.ID, u.Name, u.Phone, u.Role, u.GetPINHash(), u.Balance,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("user repo: CreateUser: %w", err)
	}
	return nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *UserRepo) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getBy(ctx, `phone = $1`, phone)
}

func (r *UserRepo) getBy(ctx context.Context, predicate string, arg any) (*models.User, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, name, phone, role, pin_hash, balance, created_at, updated_at
		FROM users WHERE ` + predicate

	var u models.User
	var pinHash string
	err := q.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Role, &pinHash, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repo: get: %w", err)
	}
	u.SetPINHash(pinHash)
	return &u, nil
}
