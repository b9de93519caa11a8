package auth

import "gigsos_backend/internal/models"

// IsAdminRole - admin или super_admin
func IsAdminRole(role string) bool {
	return models.UserRole(role).IsAdmin()
}

// CanBan - может ли actor заблокировать пользователя с ролью target.
// Администраторов блокирует только super_admin.
func CanBan(actorRole, targetRole models.UserRole) bool {
	if !actorRole.IsAdmin() {
		return false
	}
	if targetRole.IsAdmin() {
		return actorRole == models.UserRoleSuperAdmin
	}
	return true
}
