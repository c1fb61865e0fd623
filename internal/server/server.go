package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/otp-todo/internal/config"
	"github.com/Tomlord1122/otp-todo/internal/database"
	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

// Dependencies is the application context shared by every handler. It is
// built once at startup.
type Dependencies struct {
	Tasks    service.TaskService
	Auth     service.AuthService
	Sessions *session.Store
	DB       database.Service
	Logger   zerolog.Logger
}

type Server struct {
	port        int
	corsOrigins []string

	tasks    service.TaskService
	auth     service.AuthService
	sessions *session.Store
	db       database.Service
	log      zerolog.Logger
	views    *views
}

func NewServer(cfg config.Config, deps Dependencies) *http.Server {
	appServer := &Server{
		port:        cfg.Port,
		corsOrigins: cfg.CORSOrigins,
		tasks:       deps.Tasks,
		auth:        deps.Auth,
		sessions:    deps.Sessions,
		db:          deps.DB,
		log:         deps.Logger,
		views:       parseViews(),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
