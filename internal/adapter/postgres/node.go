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

type NodeRepo struct {
	db *pgxpool.Pool
}

func NewNodeRepo(db *pgxpool.Pool) *NodeRepo {
	return &NodeRepo{db: db}
}

const nodeColumns = `
	n.id, n.created_at, n.updated_at, n.origin, n.destination,
	n.vehicle_class, n.solo, n.capacity_needed, n.leader_id,
	n.fare_per_person, n.negotiated_total_fare, n.status,
	n.assigned_driver_id, n.master_code, n.version`

func (r *NodeRepo) Create(ctx context.Context, node *models.RideNode) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO ride_nodes
		(id, origin, destination, vehicle_class, solo, capacity_needed,
		 leader_id, fare_per_person, negotiated_total_fare, status,
		 assigned_driver_id, master_code, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0)
		RETURNING created_at, updated_at;`

	err := q.QueryRow(ctx, query,
		node.ID, node.Origin, node.Destination, node.VehicleClass, node.Solo,
		node.CapacityNeeded, nilIfEmptyUUID(node.LeaderID), node.FarePerPerson,
		node.NegotiatedTotalFare, node.Status, node.AssignedDriverID, node.MasterCode,
	).Scan(&node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return types.ErrContention
		}
		return fmt.Errorf("node repo: Create: %w", err)
	}
	node.Version = 0

	return r.insertPassengers(ctx, node)
}

func (r *NodeRepo) Get(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error) {
	return r.get(ctx, nodeID, false)
}

// GetForUpdate locks the node row until the ambient transaction ends.
func (r *NodeRepo) GetForUpdate(ctx context.Context, nodeID uuid.UUID) (*models.RideNode, error) {
	return r.get(ctx, nodeID, true)
}

func (r *NodeRepo) get(ctx context.Context, nodeID uuid.UUID, forUpdate bool) (*models.RideNode, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT` + nodeColumns + ` FROM ride_nodes n WHERE n.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	n, err := scanNode(q.QueryRow(ctx, query, nodeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNodeNotFound
		}
		return nil, fmt.Errorf("node repo: Get: %w", err)
	}

	if err := r.loadPassengers(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Save writes node fields and the full manifest. The version predicate
// is the optimistic lock; a stale write surfaces as ErrContention.
func (r *NodeRepo) Save(ctx context.Context, node *models.RideNode) error {
	q := TxorDB(ctx, r.db)

	query := `UPDATE ride_nodes SET
			origin = $2, destination = $3, vehicle_class = $4, solo = $5,
			capacity_needed = $6, leader_id = $7, fare_per_person = $8,
			negotiated_total_fare = $9, status = $10, assigned_driver_id = $11,
			master_code = $12, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $13;`

	tag, err := q.Exec(ctx, query,
		node.ID, node.Origin, node.Destination, node.VehicleClass, node.Solo,
		node.CapacityNeeded, nilIfEmptyUUID(node.LeaderID), node.FarePerPerson,
		node.NegotiatedTotalFare, node.Status, node.AssignedDriverID, node.MasterCode,
		node.Version,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			// the partial unique index on assigned_driver_id fired
			return types.ErrAlreadyBound
		}
		return fmt.Errorf("node repo: Save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrContention
	}
	node.Version++

	if _, err := q.Exec(ctx, `DELETE FROM node_passengers WHERE node_id = $1;`, node.ID); err != nil {
		return fmt.Errorf("node repo: Save (clear manifest): %w", err)
	}
	return r.insertPassengers(ctx, node)
}

func (r *NodeRepo) Delete(ctx context.Context, nodeID uuid.UUID) error {
	q := TxorDB(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM ride_nodes WHERE id = $1;`, nodeID)
	if err != nil {
		return fmt.Errorf("node repo: Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNodeNotFound
	}
	return nil
}

func (r *NodeRepo) ListOpen(ctx context.Context) ([]models.RideNode, error) {
	query := `SELECT` + nodeColumns + ` FROM ride_nodes n
		WHERE n.status IN ($1, $2) ORDER BY n.created_at;`
	return r.list(ctx, query, types.NodeForming, types.NodeQualified)
}

func (r *NodeRepo) ListByPassenger(ctx context.Context, userID uuid.UUID) ([]models.RideNode, error) {
	query := `SELECT` + nodeColumns + ` FROM ride_nodes n
		JOIN node_passengers p ON p.node_id = n.id
		WHERE p.user_id = $1 ORDER BY n.created_at;`
	return r.list(ctx, query, userID)
}

func (r *NodeRepo) FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]models.RideNode, error) {
	query := `SELECT` + nodeColumns + ` FROM ride_nodes n
		WHERE n.assigned_driver_id = $1 AND n.status IN ($2, $3);`
	return r.list(ctx, query, driverID, types.NodeQualified, types.NodeDispatched)
}

func (r *NodeRepo) list(ctx context.Context, query string, args ...any) ([]models.RideNode, error) {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("node repo: list: %w", err)
	}
	defer rows.Close()

	var nodes []models.RideNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("node repo: list scan: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("node repo: list rows: %w", err)
	}

	for i := range nodes {
		if err := r.loadPassengers(ctx, &nodes[i]); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (r *NodeRepo) insertPassengers(ctx context.Context, node *models.RideNode) error {
	q := TxorDB(ctx, r.db)

	query := `INSERT INTO node_passengers
		(node_id, user_id, display_name, phone, joined_at, code, refund_issued, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	for i, p := range node.Passengers {
		_, err := q.Exec(ctx, query,
			node.ID, p.UserID, p.DisplayName, p.Phone, p.JoinedAt, p.Code, p.RefundIssued, i)
		if err != nil {
			if pg.IsUniqueViolation(err) {
				return types.ErrAlreadyJoined
			}
			return fmt.Errorf("node repo: insert passenger: %w", err)
		}
	}
	return nil
}

func (r *NodeRepo) loadPassengers(ctx context.Context, node *models.RideNode) error {
	q := TxorDB(ctx, r.db)

	query := `SELECT user_id, display_name, phone, joined_at, code, refund_issued
		FROM node_passengers WHERE node_id = $1 ORDER BY position;`

	rows, err := q.Query(ctx, query, node.ID)
	if err != nil {
		return fmt.Errorf("node repo: load passengers: %w", err)
	}
	defer rows.Close()

	node.Passengers = node.Passengers[:0]
	for rows.Next() {
		var p models.NodePassenger
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.Phone, &p.JoinedAt, &p.Code, &p.RefundIssued); err != nil {
			return fmt.Errorf("node repo: scan passenger: %w", err)
		}
		node.Passengers = append(node.Passengers, p)
	}
	return rows.Err()
}

func scanNode(row pgx.Row) (*models.RideNode, error) {
	var n models.RideNode
	var leaderID *uuid.UUID

	err := row.Scan(
		&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Origin, &n.Destination,
		&n.VehicleClass, &n.Solo, &n.CapacityNeeded, &leaderID,
		&n.FarePerPerson, &n.NegotiatedTotalFare, &n.Status,
		&n.AssignedDriverID, &n.MasterCode, &n.Version,
	)
	if err != nil {
		return nil, err
	}
	if leaderID != nil {
		n.LeaderID = *leaderID
	}
	return &n, nil
}

// nilIfEmptyUUID maps the zero UUID (driver broadcasts have no leader)
// onto SQL NULL.
func nilIfEmptyUUID(id uuid.UUID) *uuid.UUID {
	if (id == uuid.UUID{}) {
		return nil
	}
	return &id
}
