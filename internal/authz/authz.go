// Package authz maps role names to the view a user lands on and to the
// capabilities that view grants.
package authz

import "github.com/angelmondragon/mallrent-backend/pkg/enums"

// View is the screen family a role is routed to.
type View string

const (
	ViewAdmin           View = "admin"
	ViewOwner           View = "owner"
	ViewVisitor         View = "visitor"
	ViewPermissionError View = "permission_error"
)

// Capability is a single action gated by role.
type Capability string

const (
	CapViewAdminDashboard Capability = "admin.dashboard.view"
	CapManageInquiries    Capability = "admin.inquiries.manage"
	CapManageContracts    Capability = "admin.contracts.manage"
	CapRecordPayments     Capability = "admin.payments.record"
	CapViewOwnerDashboard Capability = "owner.dashboard.view"
	CapBrowseUnits        Capability = "visitor.units.browse"
	CapSubmitInquiry      Capability = "visitor.inquiries.submit"
)

var capabilities = map[View][]Capability{
	ViewAdmin: {
		CapViewAdminDashboard,
		CapManageInquiries,
		CapManageContracts,
		CapRecordPayments,
	},
	ViewOwner:   {CapViewOwnerDashboard},
	ViewVisitor: {CapBrowseUnits, CapSubmitInquiry},
}

// Resolve maps a stored role name to its view. Any name outside the known
// set lands on the permission-error view.
func Resolve(roleName string) View {
	switch enums.RoleName(roleName) {
	case enums.RoleNameAdmin, enums.RoleNameDeveloper:
		return ViewAdmin
	case enums.RoleNameOwner:
		return ViewOwner
	case enums.RoleNameVisitor:
		return ViewVisitor
	default:
		return ViewPermissionError
	}
}

// Capabilities lists what view may do. The permission-error view has none.
func Capabilities(view View) []Capability {
	caps := capabilities[view]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func Allows(view View, capability Capability) bool {
	for _, c := range capabilities[view] {
		if c == capability {
			return true
		}
	}
	return false
}
