package trm

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// maxSerializableRetries bounds how often a conflicting transaction is
// retried before the caller sees ErrContention.
const maxSerializableRetries = 3

// DoSerializable executes fn inside a SERIALIZABLE transaction. Every
// "effect block" of the engine (dispatch, settlement, mission join,
// claim approval) runs through here so a lost update is impossible:
// conflicting writers fail with a serialization error, are retried a
// bounded number of times and finally surface ErrContention.
func (m *Manager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	var err error
	for range maxSerializableRetries {
		err = m.Do(WithOptionsCtx(ctx, opts), fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return types.ErrContention
}

// isSerializationFailure reports whether the error is a retryable
// serialization or deadlock failure (SQLSTATE 40001 / 40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
