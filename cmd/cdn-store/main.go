// main.go — точка входа CDN Store.
// Загружает конфигурацию, восстанавливает состояние из snapshot-файла,
// инициализирует первого Admin и запускает HTTP-сервер
// с периодическим сохранением состояния.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bigkaa/gocdnstore/internal/api/handlers"
	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/config"
	"github.com/bigkaa/gocdnstore/internal/server"
	"github.com/bigkaa/gocdnstore/internal/service"
	"github.com/bigkaa/gocdnstore/internal/storage/snapshot"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("CDN Store запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("snapshot_path", cfg.SnapshotPath),
	)

	// 3. Сервисный слой
	store := service.New(service.Options{
		ChunkSize: cfg.ChunkSize,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, logger)

	// 4. Восстановление состояния. Повреждённый snapshot-файл
	// останавливает запуск: молчаливый старт с пустым состоянием
	// означал бы потерю данных при следующем сохранении.
	_, statErr := os.Stat(cfg.SnapshotPath)
	firstBoot := os.IsNotExist(statErr)
	state, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		logger.Error("Snapshot-файл повреждён",
			slog.String("path", cfg.SnapshotPath),
			slog.String("error", err.Error()),
		)
		log.Fatalf("Невозможно восстановить состояние из %s: %v", cfg.SnapshotPath, err)
	}
	if firstBoot {
		// Начальные параметры применяются только один раз:
		// после первого сохранения источником истины становится snapshot
		state.Config.MaxFileSizeBytes = cfg.MaxFileSize
		state.Config.Domain = cfg.Domain
		logger.Info("Первый запуск, применены начальные параметры",
			slog.Int64("max_file_size_bytes", cfg.MaxFileSize),
			slog.String("domain", cfg.Domain),
		)
	}
	store.Restore(state)
	logger.Info("Состояние восстановлено",
		slog.Int("files", len(state.Files)),
		slog.Int("content_records", len(state.Content)),
		slog.Int("identities", len(state.Roles)),
	)

	// 5. Первый Admin при пустом реестре ролей
	if cfg.BootstrapAdmin != "" {
		created, err := store.Bootstrap(cfg.BootstrapAdmin)
		if err != nil {
			log.Fatalf("Ошибка инициализации Admin %q: %v", cfg.BootstrapAdmin, err)
		}
		if !created {
			logger.Info("Admin уже существует, bootstrap пропущен")
		}
	}

	// 6. Периодическое сохранение состояния
	snapCtx, stopSnapshots := context.WithCancel(context.Background())
	defer stopSnapshots()
	store.StartSnapshots(snapCtx, cfg.SnapshotPath, cfg.SnapshotInterval)

	// 7. Аутентификация: JWKS либо dev-режим X-Identity
	var authMW func(http.Handler) http.Handler
	if cfg.JWKSURL != "" {
		jwtAuth, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSURL,
			CACertPath:      cfg.CACertPath,
			TLSSkipVerify:   cfg.TLSSkipVerify,
			ClientTimeout:   cfg.JWKSClientTimeout,
			RefreshInterval: cfg.JWKSRefreshInterval,
			JWTLeeway:       cfg.JWTLeeway,
		}, logger)
		if err != nil {
			log.Fatalf("Ошибка инициализации JWT middleware: %v", err)
		}
		defer jwtAuth.Close()
		authMW = jwtAuth.Middleware()
	} else {
		authMW = middleware.HeaderAuth(logger)
	}

	// 8. HTTP-сервер
	apiHandler := handlers.NewAPIHandler(store, cfg.SnapshotPath, logger)
	healthHandler := handlers.NewHealthHandler(filepath.Dir(cfg.SnapshotPath))
	srv := server.New(cfg, logger, apiHandler, healthHandler, authMW)

	// 9. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	// 10. Финальное сохранение состояния
	stopSnapshots()
	if err := store.SaveNow(cfg.SnapshotPath); err != nil {
		logger.Error("Ошибка финального сохранения состояния",
			slog.String("error", err.Error()),
		)
	}

	logger.Info("CDN Store остановлен")
}
