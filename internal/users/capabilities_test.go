package users

import (
	"testing"

	"github.com/hammerclub/auctiond/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesForRole(t *testing.T) {
	tests := []struct {
		name string
		role models.UserRole
		want map[Capability]bool
	}{
		{
			name: "admin gets everything",
			role: models.UserRoleAdmin,
			want: map[Capability]bool{
				CapRunAuction:    true,
				CapManageData:    true,
				CapManageTargets: true,
			},
		},
		{
			name: "owner only manages targets",
			role: models.UserRoleOwner,
			want: map[Capability]bool{
				CapRunAuction:    false,
				CapManageData:    false,
				CapManageTargets: true,
			},
		},
		{
			name: "manager is view only",
			role: models.UserRoleManager,
			want: map[Capability]bool{
				CapRunAuction:    false,
				CapManageData:    false,
				CapManageTargets: false,
			},
		},
		{
			name: "unknown role grants nothing",
			role: models.UserRole("superuser"),
			want: map[Capability]bool{
				CapRunAuction:    false,
				CapManageData:    false,
				CapManageTargets: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := CapabilitiesForRole(tt.role)
			for cap, want := range tt.want {
				assert.Equal(t, want, caps.Has(cap), "capability %s", cap)
			}
		})
	}
}

func TestCapabilitySet_HasOnNil(t *testing.T) {
	var caps CapabilitySet
	assert.False(t, caps.Has(CapRunAuction))
}
