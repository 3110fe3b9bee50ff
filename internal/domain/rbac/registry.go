// registry.go — потокобезопасный реестр ролей пользователей.
// Инвариант: после инициализации первого Admin в реестре всегда
// остаётся хотя бы один Admin. Проверка выполняется атомарно
// с мутацией под общим мьютексом.
package rbac

import (
	"errors"
	"sort"
	"sync"
)

// Ошибки реестра ролей.
var (
	// ErrAlreadyHasRole — пользователь уже имеет роль (состояние не меняется)
	ErrAlreadyHasRole = errors.New("пользователь уже имеет эту роль")
	// ErrRoleNotPresent — у пользователя нет отзываемой роли
	ErrRoleNotPresent = errors.New("у пользователя нет этой роли")
	// ErrLastAdmin — отзыв оставил бы систему без Admin
	ErrLastAdmin = errors.New("нельзя отозвать роль у последнего Admin")
	// ErrAlreadyInitialized — первый Admin уже создан
	ErrAlreadyInitialized = errors.New("Admin уже инициализирован")
)

// Registry — реестр ролей: identity → набор ролей.
// Запись с пустым набором ролей эквивалентна отсутствующей.
type Registry struct {
	mu    sync.Mutex
	roles map[string]map[Role]struct{}
}

// NewRegistry создаёт пустой реестр ролей.
func NewRegistry() *Registry {
	return &Registry{
		roles: make(map[string]map[Role]struct{}),
	}
}

// InitAdmin создаёт самого первого Admin. Допустим только пока
// в реестре нет ни одного Admin; последующие выдачи ролей проходят
// через Grant и требуют Admin-вызывающего (это проверяет сервисный слой).
func (r *Registry) InitAdmin(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.anyAdminLocked() {
		return ErrAlreadyInitialized
	}
	r.addLocked(identity, RoleAdmin)
	return nil
}

// Grant выдаёт роль пользователю.
// Повторная выдача уже имеющейся роли возвращает ErrAlreadyHasRole,
// не изменяя состояние.
func (r *Registry) Grant(identity string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.roles[identity]; ok {
		if _, has := set[role]; has {
			return ErrAlreadyHasRole
		}
	}
	r.addLocked(identity, role)
	return nil
}

// Revoke отзывает роль у пользователя.
// Отзыв роли Admin у последнего Admin отклоняется с ErrLastAdmin,
// состояние остаётся неизменным. Проверка и мутация выполняются
// в одной критической секции, поэтому два конкурентных отзыва
// последних двух Admin не могут пройти оба.
func (r *Registry) Revoke(identity string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.roles[identity]
	if !ok {
		return ErrRoleNotPresent
	}
	if _, has := set[role]; !has {
		return ErrRoleNotPresent
	}

	// Проверяем инвариант до мутации: удаление не должно
	// оставить реестр без Admin.
	if role == RoleAdmin && r.adminCountLocked() == 1 {
		return ErrLastAdmin
	}

	delete(set, role)
	if len(set) == 0 {
		delete(r.roles, identity)
	}
	return nil
}

// RolesOf возвращает отсортированный набор ролей пользователя.
// Для отсутствующего пользователя возвращает пустой срез, не ошибку.
func (r *Registry) RolesOf(identity string) []Role {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.roles[identity]
	if !ok {
		return []Role{}
	}
	out := make([]Role, 0, len(set))
	for role := range set {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasRole проверяет наличие конкретной роли у пользователя.
func (r *Registry) HasRole(identity string, role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.roles[identity]
	if !ok {
		return false
	}
	_, has := set[role]
	return has
}

// HasAnyAdmin возвращает true, если в реестре есть хотя бы один Admin.
func (r *Registry) HasAnyAdmin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.anyAdminLocked()
}

// Snapshot возвращает сериализуемую копию реестра для snapshot-файла.
func (r *Registry) Snapshot() map[string][]Role {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]Role, len(r.roles))
	for identity, set := range r.roles {
		roles := make([]Role, 0, len(set))
		for role := range set {
			roles = append(roles, role)
		}
		sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
		out[identity] = roles
	}
	return out
}

// Restore заменяет содержимое реестра данными из snapshot-файла.
// Неизвестные роли отбрасываются, пустые наборы не сохраняются.
func (r *Registry) Restore(state map[string][]Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roles = make(map[string]map[Role]struct{}, len(state))
	for identity, roles := range state {
		for _, role := range roles {
			if !IsValidRole(string(role)) {
				continue
			}
			r.addLocked(identity, role)
		}
	}
}

// addLocked добавляет роль без проверок. Вызывается под мьютексом.
func (r *Registry) addLocked(identity string, role Role) {
	set, ok := r.roles[identity]
	if !ok {
		set = make(map[Role]struct{})
		r.roles[identity] = set
	}
	set[role] = struct{}{}
}

// anyAdminLocked проверяет наличие Admin. Вызывается под мьютексом.
func (r *Registry) anyAdminLocked() bool {
	return r.adminCountLocked() > 0
}

// adminCountLocked возвращает число Admin. Вызывается под мьютексом.
func (r *Registry) adminCountLocked() int {
	count := 0
	for _, set := range r.roles {
		if _, has := set[RoleAdmin]; has {
			count++
		}
	}
	return count
}
