// Пакет rbac — ролевая модель и авторизация CDN Store.
// Роли: Admin ⊇ Publisher ⊇ Viewer для операций чтения,
// деструктивные и управляющие операции доступны только Admin.
// Диспетчеризация прав — единая статическая таблица Action → роли,
// без индивидуальной логики на каждую операцию.
package rbac

import "fmt"

// Role — роль пользователя в системе.
type Role string

const (
	// RoleAdmin — полный доступ, включая управление пользователями и удаление
	RoleAdmin Role = "admin"
	// RolePublisher — загрузка и чтение файлов
	RolePublisher Role = "publisher"
	// RoleViewer — только чтение файлов и метаданных
	RoleViewer Role = "viewer"
)

// Action — операция, требующая проверки прав.
type Action string

const (
	ActionUploadFile   Action = "upload_file"
	ActionDownloadFile Action = "download_file"
	ActionDeleteFile   Action = "delete_file"
	ActionViewMetadata Action = "view_metadata"
	ActionManageUsers  Action = "manage_users"
	ActionAssignRole   Action = "assign_role"
	ActionRevokeRole   Action = "revoke_role"
)

// allowedRoles — статическая таблица соответствия операций и ролей.
var allowedRoles = map[Action][]Role{
	ActionUploadFile:   {RolePublisher, RoleAdmin},
	ActionDownloadFile: {RoleViewer, RolePublisher, RoleAdmin},
	ActionViewMetadata: {RoleViewer, RolePublisher, RoleAdmin},
	ActionDeleteFile:   {RoleAdmin},
	ActionManageUsers:  {RoleAdmin},
	ActionAssignRole:   {RoleAdmin},
	ActionRevokeRole:   {RoleAdmin},
}

// AllowedRoles возвращает набор ролей, которым разрешена операция.
// Для неизвестной операции возвращает пустой набор (запрещено всем).
func AllowedRoles(action Action) []Role {
	roles := allowedRoles[action]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole преобразует строку в Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RolePublisher, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("неизвестная роль %q, допустимые: admin, publisher, viewer", s)
	}
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(s string) bool {
	_, err := ParseRole(s)
	return err == nil
}
