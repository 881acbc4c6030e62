package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	pg "github.com/hubride/ride-pool-system/pkg/postgres"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

type MissionRepo struct {
	db *pgxpool.Pool
}

func NewMissionRepo(db *pgxpool.Pool) *MissionRepo {
	return &MissionRepo{db: db}
}

func (r *MissionRepo) Create(ctx context.Context, m *models.HubMission) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO missions (id, location, description, entry_fee, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		m.ID, m.Location, m.Description, m.EntryFee, m.Active,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("mission repo: Create: %w", err)
	}
	return nil
}

func (r *MissionRepo) Get(ctx context.Context, id uuid.UUID) (*models.HubMission, error) {
	return r.get(ctx, id, false)
}

func (r *MissionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.HubMission, error) {
	return r.get(ctx, id, true)
}

func (r *MissionRepo) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.HubMission, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, location, description, entry_fee, active, created_at
		FROM missions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var m models.HubMission
	err := q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Location, &m.Description, &m.EntryFee, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrMissionNotFound
		}
		return nil, fmt.Errorf("mission repo: Get: %w", err)
	}

	if err := r.loadJoins(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AddDriver records the join. The unique constraint on
// (mission_id, driver_id) is what makes the entry fee exactly-once.
func (r *MissionRepo) AddDriver(ctx context.Context, missionID, driverID uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	_, err := q.Exec(ctx,
		`INSERT INTO mission_joins (mission_id, driver_id) VALUES ($1, $2);`,
		missionID, driverID)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return types.ErrAlreadyJoined
		}
		if pg.IsForeignKeyViolation(err) {
			return types.ErrMissionNotFound
		}
		return fmt.Errorf("mission repo: AddDriver: %w", err)
	}
	return nil
}

func (r *MissionRepo) List(ctx context.Context, activeOnly bool) ([]models.HubMission, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, location, description, entry_fee, active, created_at FROM missions`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mission repo: List: %w", err)
	}
	defer rows.Close()

	var missions []models.HubMission
	for rows.Next() {
		var m models.HubMission
		if err := rows.Scan(&m.ID, &m.Location, &m.Description, &m.EntryFee, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("mission repo: List scan: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mission repo: List rows: %w", err)
	}

	for i := range missions {
		if err := r.loadJoins(ctx, &missions[i]); err != nil {
			return nil, err
		}
	}
	return missions, nil
}

func (r *MissionRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE missions SET active = $2 WHERE id = $1;`, id, active)
	if err != nil {
		return fmt.Errorf("mission repo: SetActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrMissionNotFound
	}
	return nil
}

func (r *MissionRepo) loadJoins(ctx context.Context, m *models.HubMission) error {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT driver_id FROM mission_joins WHERE mission_id = $1 ORDER BY joined_at;`, m.ID)
	if err != nil {
		return fmt.Errorf("mission repo: load joins: %w", err)
	}
	defer rows.Close()

	m.DriversJoined = m.DriversJoined[:0]
	for rows.Next() {
		var driverID uuid.UUID
		if err := rows.Scan(&driverID); err != nil {
			return fmt.Errorf("mission repo: scan join: %w", err)
		}
		m.DriversJoined = append(m.DriversJoined, driverID)
	}
	return rows.Err()
}
