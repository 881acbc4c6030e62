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

// RequestRepo persists the three operator-reviewed claim kinds: wallet
// topups, partner registrations and no-show refunds.
type RequestRepo struct {
	db *pgxpool.Pool
}

func NewRequestRepo(db *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{db: db}
}

func (r *RequestRepo) CreateTopup(ctx context.Context, req *models.TopupRequest) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO topup_requests (id, account_id, account_type, amount, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		req.ID, req.AccountID, req.AccountType, req.Amount, req.Reference, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("request repo: CreateTopup: %w", err)
	}
	return nil
}

func (r *RequestRepo) GetTopupForUpdate(ctx context.Context, id uuid.UUID) (*models.TopupRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, account_id, account_type, amount, reference, status, created_at, reviewed_at
		FROM topup_requests WHERE id = $1 FOR UPDATE;`

	var req models.TopupRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.AccountID, &req.AccountType, &req.Amount, &req.Reference,
		&req.Status, &req.CreatedAt, &req.ReviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repo: GetTopupForUpdate: %w", err)
	}
	return &req, nil
}

func (r *RequestRepo) SaveTopup(ctx context.Context, req *models.TopupRequest) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE topup_requests SET status = $2, reviewed_at = $3 WHERE id = $1;`,
		req.ID, req.Status, req.ReviewedAt)
	if err != nil {
		return fmt.Errorf("request repo: SaveTopup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepo) ListTopups(ctx context.Context, status types.RequestStatus) ([]models.TopupRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, account_id, account_type, amount, reference, status, created_at, reviewed_at
		FROM topup_requests WHERE status = $1 ORDER BY created_at;`

	rows, err := q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("request repo: ListTopups: %w", err)
	}
	defer rows.Close()

	var reqs []models.TopupRequest
	for rows.Next() {
		var req models.TopupRequest
		if err := rows.Scan(&req.ID, &req.AccountID, &req.AccountType, &req.Amount,
			&req.Reference, &req.Status, &req.CreatedAt, &req.ReviewedAt); err != nil {
			return nil, fmt.Errorf("request repo: ListTopups scan: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *RequestRepo) CreateRegistration(ctx context.Context, req *models.RegistrationRequest) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO registration_requests (id, name, phone, vehicle_class, pin_hash, deposit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		req.ID, req.Name, req.Phone, req.VehicleClass, req.PINHash, req.Deposit, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("request repo: CreateRegistration: %w", err)
	}
	return nil
}

func (r *RequestRepo) GetRegistrationForUpdate(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, name, phone, vehicle_class, pin_hash, deposit, status, created_at, reviewed_at
		FROM registration_requests WHERE id = $1 FOR UPDATE;`

	var req models.RegistrationRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.Name, &req.Phone, &req.VehicleClass, &req.PINHash,
		&req.Deposit, &req.Status, &req.CreatedAt, &req.ReviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repo: GetRegistrationForUpdate: %w", err)
	}
	return &req, nil
}

func (r *RequestRepo) SaveRegistration(ctx context.Context, req *models.RegistrationRequest) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE registration_requests SET status = $2, reviewed_at = $3 WHERE id = $1;`,
		req.ID, req.Status, req.ReviewedAt)
	if err != nil {
		return fmt.Errorf("request repo: SaveRegistration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepo) ListRegistrations(ctx context.Context, status types.RequestStatus) ([]models.RegistrationRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, name, phone, vehicle_class, pin_hash, deposit, status, created_at, reviewed_at
		FROM registration_requests WHERE status = $1 ORDER BY created_at;`

	rows, err := q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("request repo: ListRegistrations: %w", err)
	}
	defer rows.Close()

	var reqs []models.RegistrationRequest
	for rows.Next() {
		var req models.RegistrationRequest
		if err := rows.Scan(&req.ID, &req.Name, &req.Phone, &req.VehicleClass, &req.PINHash,
			&req.Deposit, &req.Status, &req.CreatedAt, &req.ReviewedAt); err != nil {
			return nil, fmt.Errorf("request repo: ListRegistrations scan: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *RequestRepo) CreateRefund(ctx context.Context, req *models.RefundRequest) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO refund_requests (id, node_id, driver_id, passenger_id, amount, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at;`

	err := q.QueryRow(ctx, query,
		req.ID, req.NodeID, req.DriverID, req.PassengerID, req.Amount, req.Reason, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("request repo: CreateRefund: %w", err)
	}
	return nil
}

func (r *RequestRepo) GetRefundForUpdate(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, node_id, driver_id, passenger_id, amount, reason, status, created_at, reviewed_at
		FROM refund_requests WHERE id = $1 FOR UPDATE;`

	var req models.RefundRequest
	err := q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.NodeID, &req.DriverID, &req.PassengerID, &req.Amount,
		&req.Reason, &req.Status, &req.CreatedAt, &req.ReviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repo: GetRefundForUpdate: %w", err)
	}
	return &req, nil
}

func (r *RequestRepo) SaveRefund(ctx context.Context, req *models.RefundRequest) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE refund_requests SET status = $2, reviewed_at = $3 WHERE id = $1;`,
		req.ID, req.Status, req.ReviewedAt)
	if err != nil {
		return fmt.Errorf("request repo: SaveRefund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepo) ListRefunds(ctx context.Context, status types.RequestStatus) ([]models.RefundRequest, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT id, node_id, driver_id, passenger_id, amount, reason, status, created_at, reviewed_at
		FROM refund_requests WHERE status = $1 ORDER BY created_at;`

	rows, err := q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("request repo: ListRefunds: %w", err)
	}
	defer rows.Close()

	var reqs []models.RefundRequest
	for rows.Next() {
		var req models.RefundRequest
		if err := rows.Scan(&req.ID, &req.NodeID, &req.DriverID, &req.PassengerID, &req.Amount,
			&req.Reason, &req.Status, &req.CreatedAt, &req.ReviewedAt); err != nil {
			return nil, fmt.Errorf("request repo: ListRefunds scan: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// HasOpenRefund reports whether a pending or approved claim already
// targets this seat. One claim per seat, ever.
func (r *RequestRepo) HasOpenRefund(ctx context.Context, nodeID, passengerID uuid.UUID) (bool, error) {
	q := TxorDB(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM refund_requests
			WHERE node_id = $1 AND passenger_id = $2 AND status IN ($3, $4)
		);`,
		nodeID, passengerID, types.RequestPending, types.RequestApproved,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("request repo: HasOpenRefund: %w", err)
	}
	return exists, nil
}
