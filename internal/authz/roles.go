package authz

const (
	RoleUser      = 10
	RoleModerator = 20
	RoleAdmin     = 30
)

func IsModeratorOrAdmin(roleID int) bool {
	return roleID == RoleModerator || roleID == RoleAdmin
}

func IsAdmin(roleID int) bool {
	return roleID == RoleAdmin
}
