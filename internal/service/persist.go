// persist.go — периодическое сохранение состояния на диск.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/storage/snapshot"
)

// SaveNow сериализует текущее состояние и атомарно записывает его
// в snapshot-файл.
func (s *Store) SaveNow(path string) error {
	state := s.Snapshot()
	if err := snapshot.Save(path, state); err != nil {
		middleware.OperationsTotal.WithLabelValues("snapshot", "error").Inc()
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, err.Error())
	}
	middleware.OperationsTotal.WithLabelValues("snapshot", "success").Inc()
	return nil
}

// StartSnapshots запускает периодическое сохранение состояния
// с заданным интервалом. Останавливается при отмене контекста,
// финальное сохранение выполняет вызывающая сторона.
func (s *Store) StartSnapshots(ctx context.Context, path string, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("Периодическое сохранение состояния запущено",
			slog.String("path", path),
			slog.Duration("interval", interval),
		)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Периодическое сохранение остановлено")
				return
			case <-ticker.C:
				if err := s.SaveNow(path); err != nil {
					s.logger.Error("Ошибка сохранения состояния",
						slog.String("path", path),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()
}
