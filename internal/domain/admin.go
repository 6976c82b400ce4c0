package domain

// AdminLevel distinguishes super admins, who bypass permission checks, from
// standard admins, who rely on explicit flags.
type AdminLevel string

const (
	AdminLevelSuper    AdminLevel = "super"
	AdminLevelStandard AdminLevel = "standard"
)

// Permissions is the explicit allow-set attached to a standard admin. An
// absent flag denies; there is no implicit grant.
type Permissions struct {
	CanApproveFarmers   bool `json:"can_approve_farmers"`
	CanApproveExporters bool `json:"can_approve_exporters"`
	CanValidateProducts bool `json:"can_validate_products"`
	CanManageUsers      bool `json:"can_manage_users"`
}

// Admin is the acting identity behind every privileged transition. The
// session provider resolves it at the transport boundary; services receive
// it explicitly so permission guards stay deterministic under test.
type Admin struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Level       AdminLevel  `json:"level"`
	Permissions Permissions `json:"permissions"`
}

// IsSuper reports whether this admin bypasses explicit permission flags.
func (a Admin) IsSuper() bool {
	return a.Level == AdminLevelSuper
}
