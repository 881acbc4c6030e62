package rabbit

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/types"
)

func TestIsRecoverableError(t *testing.T) {
	assert.True(t, isRecoverableError(types.ErrDatabaseFailed))
	assert.True(t, isRecoverableError(types.ErrContention))
	assert.True(t, isRecoverableError(fmt.Errorf("refresh: %w", types.ErrContention)))

	assert.False(t, isRecoverableError(types.ErrNodeNotFound))
	assert.False(t, isRecoverableError(errors.New("malformed payload")))
	assert.False(t, isRecoverableError(nil))
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry(5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := retry(3, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("attempt %d failed", calls)
	})

	require.Error(t, err)
	assert.EqualError(t, err, "attempt 3 failed")
	assert.Equal(t, 3, calls)
}
