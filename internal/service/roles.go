// roles.go — управление ролями пользователей.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
)

// Grant выдаёт роль пользователю. Только для Admin.
// Возвращает актуальный набор ролей пользователя после выдачи.
func (s *Store) Grant(caller, target string, role rbac.Role) ([]rbac.Role, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, err
	}
	if err := validateIdentity(target); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.Authorize(caller, rbac.ActionAssignRole); err != nil {
		middleware.OperationsTotal.WithLabelValues("grant_role", "denied").Inc()
		return nil, fmt.Errorf("%w: assign_role для %s", ErrUnauthorized, caller)
	}

	if err := s.registry.Grant(target, role); err != nil {
		if errors.Is(err, rbac.ErrAlreadyHasRole) {
			return nil, fmt.Errorf("%w: у %s уже есть роль %s", ErrValidation, target, role)
		}
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	middleware.OperationsTotal.WithLabelValues("grant_role", "success").Inc()
	s.logger.Info("Роль выдана",
		slog.String("identity", target),
		slog.String("role", string(role)),
		slog.String("granted_by", caller),
	)
	return s.registry.RolesOf(target), nil
}

// Revoke отзывает роль у пользователя. Только для Admin.
// Отзыв последнего Admin в системе невозможен.
// Возвращает актуальный набор ролей пользователя после отзыва.
func (s *Store) Revoke(caller, target string, role rbac.Role) ([]rbac.Role, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, err
	}
	if err := validateIdentity(target); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.Authorize(caller, rbac.ActionRevokeRole); err != nil {
		middleware.OperationsTotal.WithLabelValues("revoke_role", "denied").Inc()
		return nil, fmt.Errorf("%w: revoke_role для %s", ErrUnauthorized, caller)
	}

	if err := s.registry.Revoke(target, role); err != nil {
		switch {
		case errors.Is(err, rbac.ErrLastAdmin):
			return nil, ErrLastAdmin
		case errors.Is(err, rbac.ErrRoleNotPresent):
			return nil, fmt.Errorf("%w: у %s нет роли %s", ErrValidation, target, role)
		default:
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
	}

	middleware.OperationsTotal.WithLabelValues("revoke_role", "success").Inc()
	s.logger.Info("Роль отозвана",
		slog.String("identity", target),
		slog.String("role", string(role)),
		slog.String("revoked_by", caller),
	)
	return s.registry.RolesOf(target), nil
}

// RequireAdmin проверяет, что вызывающая сторона имеет роль Admin.
// Используется служебными операциями вне таблицы действий.
func (s *Store) RequireAdmin(caller string) error {
	if err := validateIdentity(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.RequireAdmin(caller); err != nil {
		return fmt.Errorf("%w: операция доступна только Admin", ErrUnauthorized)
	}
	return nil
}

// RolesOf возвращает роли пользователя. Авторизации не требует:
// набор собственных ролей не является секретом, а чужие роли
// нужны обработчикам для формирования ответов.
func (s *Store) RolesOf(identity string) ([]rbac.Role, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.RolesOf(identity), nil
}
