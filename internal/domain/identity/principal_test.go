package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{" Customer ", RoleCustomer, false},
		{"", "", true},
		{"superuser", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseRole(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPrincipal(t *testing.T) {
	userID := uuid.New()

	t.Run("valid admin", func(t *testing.T) {
		p, err := NewPrincipal(userID.String(), "admin@example.com", "ADMIN")
		require.NoError(t, err)
		assert.Equal(t, userID, p.UserID)
		assert.True(t, p.IsAdmin())
	})

	t.Run("customer is not admin", func(t *testing.T) {
		p, err := NewPrincipal(userID.String(), "c@example.com", "CUSTOMER")
		require.NoError(t, err)
		assert.False(t, p.IsAdmin())
		assert.True(t, p.HasRole(RoleCustomer))
	})

	t.Run("invalid user id", func(t *testing.T) {
		_, err := NewPrincipal("not-a-uuid", "", "ADMIN")
		require.Error(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := NewPrincipal(userID.String(), "", "root")
		require.Error(t, err)
	})
}
