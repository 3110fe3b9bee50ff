// list.go — листинг файлов.
package service

import (
	"fmt"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
)

// List возвращает сводки активных файлов, новые первыми.
// Admin видит все файлы, остальные роли с правом view_metadata —
// только собственные.
func (s *Store) List(caller string) ([]model.FileSummary, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.Authorize(caller, rbac.ActionViewMetadata); err != nil {
		middleware.OperationsTotal.WithLabelValues("list", "denied").Inc()
		return nil, fmt.Errorf("%w: view_metadata для %s", ErrUnauthorized, caller)
	}

	var metas []*model.FileMetadata
	if s.registry.HasRole(caller, rbac.RoleAdmin) {
		metas = s.idx.ListActive()
	} else {
		metas = s.idx.ListByOwner(caller)
	}

	summaries := make([]model.FileSummary, 0, len(metas))
	for _, m := range metas {
		summaries = append(summaries, m.Summary())
	}
	middleware.OperationsTotal.WithLabelValues("list", "success").Inc()
	return summaries, nil
}
