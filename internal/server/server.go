// Пакет server — HTTP-сервер Storage Service с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pixelfy/storage-service/internal/api/handlers"
	"github.com/pixelfy/storage-service/internal/api/middleware"
	"github.com/pixelfy/storage-service/internal/config"
)

// Server — HTTP-сервер Storage Service.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New создаёт Server с роутером и полным стеком middleware.
func New(cfg *config.Config, api *handlers.API, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	api.RegisterRoutes(r)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(slog.String("component", "server")),
	}
}

// Run запускает сервер и блокируется до SIGINT/SIGTERM или
// фатальной ошибки. При сигнале выполняется graceful shutdown:
// новые соединения не принимаются, активные запросы завершаются
// в пределах таймаута.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP сервер запущен", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка HTTP сервера: %w", err)
	case sig := <-quit:
		s.logger.Info("Получен сигнал остановки", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP сервер остановлен")
	return nil
}
