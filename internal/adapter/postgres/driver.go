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

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

const driverColumns = `id, name, phone, vehicle_class, rating, status, pin_hash, balance, created_at, updated_at`

func (r *DriverRepo) CreateDriver(ctx context.Context, d *models.Driver) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO drivers (id, name, phone, vehicle_class, rating, status, pin_hash, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		d.ID, d.Name, d.Phone, d.VehicleClass, d.Rating, d.Status, d.GetPINHash(), d.Balance,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("driver repo: CreateDriver: %w", err)
	}
	return nil
}

func (r *DriverRepo) GetDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *DriverRepo) GetDriverByPhone(ctx context.Context, phone string) (*models.Driver, error) {
	return r.getBy(ctx, `phone = $1`, phone)
}

func (r *DriverRepo) getBy(ctx context.Context, predicate string, arg any) (*models.Driver, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + driverColumns + ` FROM drivers WHERE ` + predicate

	d, err := scanDriver(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("driver repo: get: %w", err)
	}
	return d, nil
}

func (r *DriverRepo) SetStatus(ctx context.Context, id uuid.UUID, status types.DriverStatus) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE drivers SET status = $2, updated_at = now() WHERE id = $1;`, id, status)
	if err != nil {
		return fmt.Errorf("driver repo: SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM drivers WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("driver repo: DeleteDriver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY created_at;`)
	if err != nil {
		return nil, fmt.Errorf("driver repo: ListDrivers: %w", err)
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("driver repo: ListDrivers scan: %w", err)
		}
		drivers = append(drivers, *d)
	}
	return drivers, rows.Err()
}

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	var pinHash string
	err := row.Scan(
		&d.ID, &d.Name, &d.Phone, &d.VehicleClass, &d.Rating, &d.Status,
		&pinHash, &d.Balance, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.SetPINHash(pinHash)
	return &d, nil
}
