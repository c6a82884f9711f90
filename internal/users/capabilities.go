package users

import "github.com/hammerclub/auctiond/internal/models"

// Capability names one thing a session may do. Capabilities are resolved
// once from the user's role and passed along explicitly, instead of
// branching on role strings at every call site.
type Capability string

const (
	// CapRunAuction gates round-engine mutations: start/activate rounds,
	// sell, mark unsold, end, reset.
	CapRunAuction Capability = "run_auction"
	// CapManageData gates player/team/user administration.
	CapManageData Capability = "manage_data"
	// CapManageTargets gates a team's bidding watch list.
	CapManageTargets Capability = "manage_targets"
)

// CapabilitySet is the resolved permission set for a session.
type CapabilitySet map[Capability]bool

// Has reports whether the set grants the capability.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// CapabilitiesForRole resolves a role to its capability set. Managers are
// view-only: every read surface is open anyway (the public display is
// unauthenticated), so their set is empty.
func CapabilitiesForRole(role models.UserRole) CapabilitySet {
	switch role {
	case models.UserRoleAdmin:
		return CapabilitySet{
			CapRunAuction:    true,
			CapManageData:    true,
			CapManageTargets: true,
		}
	case models.UserRoleOwner:
		return CapabilitySet{
			CapManageTargets: true,
		}
	default:
		return CapabilitySet{}
	}
}
