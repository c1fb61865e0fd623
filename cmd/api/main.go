package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/otp-todo/internal/config"
	"github.com/Tomlord1122/otp-todo/internal/database"
	"github.com/Tomlord1122/otp-todo/internal/logger"
	"github.com/Tomlord1122/otp-todo/internal/mailer"
	"github.com/Tomlord1122/otp-todo/internal/repository"
	"github.com/Tomlord1122/otp-todo/internal/server"
	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, log zerolog.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling.
	shutdown(apiServer, dbService, log, 5*time.Second)

	done <- true
}

// shutdown drains the HTTP server and then releases the connection pool.
func shutdown(apiServer *http.Server, dbService database.Service, log zerolog.Logger, timeout time.Duration) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		errs = append(errs, err)
	}

	if err := dbService.Close(); err != nil {
		log.Error().Err(err).Msg("closing database connection pool")
		errs = append(errs, err)
	} else {
		log.Info().Msg("database connection pool closed")
	}
	return errors.Join(errs...)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.Log)
	for _, warning := range cfg.Warnings {
		log.Warn().Msg(warning)
	}

	// 1. Row store (schema is migrated on open)
	dbService, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// 2. Collaborators
	sender, err := mailer.New(cfg.Mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize mailer")
	}
	sessions := session.NewCookieStore([]byte(cfg.Session.Secret), cfg.Session.Secure)

	// 3. Repositories and services
	taskRepo := repository.NewGormTaskRepository(dbService.GetDB())
	taskService := service.NewTaskService(taskRepo, sender, log)
	authService := service.NewAuthService(sender, service.RandomOTP, log)

	// 4. HTTP server
	apiServer := server.NewServer(cfg, server.Dependencies{
		Tasks:    taskService,
		Auth:     authService,
		Sessions: sessions,
		DB:       dbService,
		Logger:   log,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, log, done)

	log.Info().Str("addr", apiServer.Addr).Msg("starting server")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server ListenAndServe error")
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
}
