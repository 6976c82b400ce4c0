// Package permission decides whether an admin may perform a given
// privileged action. Decisions are pure functions of the admin record;
// unknown actions and absent flags deny.
package permission

import "agritrace/internal/domain"

// Action is a privileged operation gated on an admin's permission flags.
type Action string

const (
	ActionApproveFarmer   Action = "approve_farmer"
	ActionApproveExporter Action = "approve_exporter"
	ActionValidateProduct Action = "validate_product"
	ActionManageUsers     Action = "manage_users"
)

// Can reports whether admin may perform action. Super admins bypass the
// flag check entirely; everyone else needs the matching flag set.
func Can(admin domain.Admin, action Action) bool {
	if admin.IsSuper() {
		return true
	}
	switch action {
	case ActionApproveFarmer:
		return admin.Permissions.CanApproveFarmers
	case ActionApproveExporter:
		return admin.Permissions.CanApproveExporters
	case ActionValidateProduct:
		return admin.Permissions.CanValidateProducts
	case ActionManageUsers:
		return admin.Permissions.CanManageUsers
	default:
		return false
	}
}

// ApprovalActionFor maps an actor role to the action governing its
// approval. The second return is false for roles no admin approves.
func ApprovalActionFor(role domain.ActorRole) (Action, bool) {
	switch role {
	case domain.RoleGrower:
		return ActionApproveFarmer, true
	case domain.RoleDistributor:
		return ActionApproveExporter, true
	default:
		return "", false
	}
}
