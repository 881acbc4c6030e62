package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"case insensitive scheme", "bearer token123", "token123", false},
		{"missing token", "Bearer ", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
		{"no space", "Bearertoken", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractBearerToken(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	log := logger.InitLogger("test", logger.LevelError)
	m := NewMiddleware(nil, log)

	id, err := uuid.New()
	require.NoError(t, err)

	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}

	t.Run("anonymous is rejected", func(t *testing.T) {
		h := m.RequireRoles(next, types.RoleDriver)

		req := httptest.NewRequest(http.MethodGet, "/missions", nil)
		req = req.WithContext(models.WithUser(req.Context(), models.AnonymousUser()))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		h := m.RequireRoles(next, types.RoleAdmin)

		req := httptest.NewRequest(http.MethodGet, "/admin/topups", nil)
		req = req.WithContext(models.WithUser(req.Context(), &models.User{ID: id, Role: types.RolePassenger}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching role passes", func(t *testing.T) {
		h := m.RequireRoles(next, types.RolePassenger, types.RoleDriver)

		req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
		req = req.WithContext(models.WithUser(req.Context(), &models.User{ID: id, Role: types.RoleDriver}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("no role constraint admits any authenticated user", func(t *testing.T) {
		h := m.RequireRoles(next)

		req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
		req = req.WithContext(models.WithUser(req.Context(), &models.User{ID: id, Role: types.RolePassenger}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
