package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// SettingsRepo reads and writes the single settings row. The table has
// a CHECK (id = 1) so there is never more than one.
type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context) (models.Settings, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT pragia_base_fare, taxi_base_fare, shuttle_base_fare,
			solo_multiplier_bp, commission_per_seat, shuttle_commission_per_seat,
			registration_fee, updated_at
		FROM settings WHERE id = 1;`

	var s models.Settings
	err := q.QueryRow(ctx, query).Scan(
		&s.PragiaBaseFare, &s.TaxiBaseFare, &s.ShuttleBaseFare,
		&s.SoloMultiplierBP, &s.CommissionPerSeat, &s.ShuttleCommissionPerSeat,
		&s.RegistrationFee, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settings{}, types.ErrSettingsNotFound
		}
		return models.Settings{}, fmt.Errorf("settings repo: Get: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) Update(ctx context.Context, s models.Settings) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO settings
			(id, pragia_base_fare, taxi_base_fare, shuttle_base_fare,
			 solo_multiplier_bp, commission_per_seat, shuttle_commission_per_seat,
			 registration_fee, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			pragia_base_fare = EXCLUDED.pragia_base_fare,
			taxi_base_fare = EXCLUDED.taxi_base_fare,
			shuttle_base_fare = EXCLUDED.shuttle_base_fare,
			solo_multiplier_bp = EXCLUDED.solo_multiplier_bp,
			commission_per_seat = EXCLUDED.commission_per_seat,
			shuttle_commission_per_seat = EXCLUDED.shuttle_commission_per_seat,
			registration_fee = EXCLUDED.registration_fee,
			updated_at = now();`

	_, err := q.Exec(ctx, query,
		s.PragiaBaseFare, s.TaxiBaseFare, s.ShuttleBaseFare,
		s.SoloMultiplierBP, s.CommissionPerSeat, s.ShuttleCommissionPerSeat,
		s.RegistrationFee)
	if err != nil {
		return fmt.Errorf("settings repo: Update: %w", err)
	}
	return nil
}
