package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubride/ride-pool-system/config"
	"github.com/hubride/ride-pool-system/pkg/passhash"
	"github.com/hubride/ride-pool-system/pkg/postgres"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

var (
	configPath    = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	migrationPath = flag.String("migration-path", "migrations/001_init.sql", "Path to the schema file")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Pool.Close()

	applySchema(client.Pool, *migrationPath)
	seedDefaultAccounts(client.Pool)
}

func applySchema(db *pgxpool.Pool, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("applySchema: read %s: %v", path, err)
	}

	if _, err := db.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("applySchema: exec: %v", err)
	}

	log.Printf("applySchema: applied %s", path)
}

// seedDefaultAccounts ensures a known operator, passenger and driver
// exist for local testing. Everyone's PIN is 1234.
func seedDefaultAccounts(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pinHash, err := passhash.HashPassword("1234")
	if err != nil {
		log.Fatalf("seedDefaultAccounts: hash pin: %v", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		log.Fatalf("seedDefaultAccounts: begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	type defaultUser struct {
		Name    string
		Phone   string
		Role    string
		Balance int64
	}

	users := []defaultUser{
		{Name: "Hub Operator", Phone: "0240000001", Role: "ADMIN"},
		{Name: "Ama Mensah", Phone: "0240000002", Role: "PASSENGER", Balance: 10_000},
		{Name: "Kofi Boateng", Phone: "0240000003", Role: "PASSENGER", Balance: 10_000},
	}

	const userQ = `
INSERT INTO users (id, name, phone, role, pin_hash, balance)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (phone) DO NOTHING;
`
	for _, u := range users {
		id, err := uuid.New()
		if err != nil {
			log.Fatalf("seedDefaultAccounts: uuid: %v", err)
		}
		if _, err := tx.Exec(ctx, userQ, id, u.Name, u.Phone, u.Role, pinHash, u.Balance); err != nil {
			log.Fatalf("seedDefaultAccounts: insert user %s: %v", u.Phone, err)
		}
	}

	const driverQ = `
INSERT INTO drivers (id, name, phone, vehicle_class, status, pin_hash, balance)
VALUES ($1, $2, $3, $4, 'ONLINE', $5, $6)
ON CONFLICT (phone) DO NOTHING;
`
	driverID, err := uuid.New()
	if err != nil {
		log.Fatalf("seedDefaultAccounts: uuid: %v", err)
	}
	if _, err := tx.Exec(ctx, driverQ, driverID, "Yaw Darko", "0240000010", "PRAGIA", pinHash, int64(5_000)); err != nil {
		log.Fatalf("seedDefaultAccounts: insert driver: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("seedDefaultAccounts: commit: %v", err)
	}

	log.Printf("seedDefaultAccounts: ensured %d users and 1 driver", len(users))
}
