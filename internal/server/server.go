// Пакет server — HTTP-сервер CDN Store с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/gocdnstore/internal/api/handlers"
	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/config"
)

// Server — HTTP-сервер CDN Store.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// authMW — middleware аутентификации (JWT или X-Identity в dev-режиме),
// применяется только к /api/v1, health и metrics остаются публичными.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	health *handlers.HealthHandler,
	authMW func(http.Handler) http.Handler,
) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные endpoints
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API под аутентификацией
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/files", func(r chi.Router) {
			r.Post("/", api.UploadFile)
			r.Get("/", api.ListFiles)
			r.Get("/{fileId}", api.GetFileMetadata)
			r.Get("/{fileId}/content", api.DownloadFile)
			r.Delete("/{fileId}", api.DeleteFile)
			r.Post("/{fileId}/deactivate", api.DeactivateFile)
			r.Post("/{fileId}/reactivate", api.ReactivateFile)
			r.Post("/{fileId}/verify", api.VerifyFile)
		})

		r.Route("/users/{identity}/roles", func(r chi.Router) {
			r.Post("/", api.GrantRole)
			r.Get("/", api.GetRoles)
			r.Delete("/{role}", api.RevokeRole)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", api.GetConfig)
			r.Patch("/", api.UpdateConfig)
			r.Post("/reset", api.ResetConfig)
		})

		r.Post("/system/snapshot", api.SaveSnapshot)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
