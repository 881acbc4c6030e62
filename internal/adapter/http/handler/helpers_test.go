package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/auth"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", auth.ErrExpToken, http.StatusUnauthorized},
		{"not leader", types.ErrNotLeader, http.StatusForbidden},
		{"not member", types.ErrNotMember, http.StatusForbidden},
		{"not assigned driver", types.ErrNotAssignedDriver, http.StatusForbidden},
		{"node not found", types.ErrNodeNotFound, http.StatusNotFound},
		{"settings missing", types.ErrSettingsNotFound, http.StatusNotFound},
		{"insufficient balance", types.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"invalid code", types.ErrInvalidCode, http.StatusUnprocessableEntity},
		{"offer below fare", types.ErrOfferBelowExpectedFare, http.StatusUnprocessableEntity},
		{"phone taken", auth.ErrPhoneTaken, http.StatusConflict},
		{"capacity exceeded", types.ErrCapacityExceeded, http.StatusConflict},
		{"already bound", types.ErrAlreadyBound, http.StatusConflict},
		{"already completed", types.ErrAlreadyCompleted, http.StatusConflict},
		{"duplicate claim", types.ErrDuplicateClaim, http.StatusConflict},
		{"contention", types.ErrContention, http.StatusConflict},
		{"force qualify lone rider", types.ErrForceQualifyLoneRider, http.StatusConflict},
		{"database failure", types.ErrDatabaseFailed, http.StatusInternalServerError},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestGetCode_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("could not join node: %w", types.ErrCapacityExceeded)
	assert.Equal(t, http.StatusConflict, GetCode(wrapped))

	doubly := fmt.Errorf("handler: %w", fmt.Errorf("service: %w", types.ErrNodeNotFound))
	assert.Equal(t, http.StatusNotFound, GetCode(doubly))
}
