// authorize.go — движок авторизации поверх реестра ролей.
// Чистая функция от текущего состояния реестра: без какого-либо
// кэширования, поскольку роли могут меняться между вызовами
// и устаревший ответ был бы дырой в безопасности.
package rbac

import (
	"errors"
	"fmt"
)

// ErrUnauthorized — у вызывающего нет роли, разрешающей операцию.
var ErrUnauthorized = errors.New("недостаточно прав")

// Engine — движок авторизации. Сопоставляет текущие роли
// пользователя со статической таблицей AllowedRoles.
type Engine struct {
	registry *Registry
}

// NewEngine создаёт движок авторизации поверх реестра ролей.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Authorize разрешает операцию, если пересечение ролей пользователя
// с разрешёнными для операции ролями непусто.
func (e *Engine) Authorize(identity string, action Action) error {
	held := e.registry.RolesOf(identity)
	for _, role := range held {
		for _, allowed := range allowedRoles[action] {
			if role == allowed {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: операция %s недоступна для %s", ErrUnauthorized, action, identity)
}

// RequireAdmin разрешает операцию только пользователям с ролью Admin.
// Используется для управляющих операций, не входящих в таблицу действий
// (смена конфигурации, деактивация файлов, проверка целостности).
func (e *Engine) RequireAdmin(identity string) error {
	if e.registry.HasRole(identity, RoleAdmin) {
		return nil
	}
	return fmt.Errorf("%w: требуется роль Admin", ErrUnauthorized)
}
