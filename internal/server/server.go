package server

import (
	"fmt"
	"net/http"
	"time"

	"live-placement-backend/internal/audit"
	"live-placement-backend/internal/config"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/workflow"
)

// MyServer holds everything the route handlers are bound to
type MyServer struct {
	cfg *config.Config

	DB      *database.DBinstanceStruct
	Hub     *realtime.Hub
	Gateway *realtime.Gateway
	Engine  *workflow.Engine
	Audit   *audit.Logger
}

// NewMyServer wires the notification hub, the workflow engine over the
// PostgreSQL store, and the audit logger.
func NewMyServer(cfg *config.Config, db *database.DBinstanceStruct) *MyServer {
	hub := realtime.NewHub()
	return &MyServer{
		cfg:     cfg,
		DB:      db,
		Hub:     hub,
		Gateway: realtime.NewGateway(hub, cfg.WSSendBuffer, cfg.AllowOrigins, db.POCCompanyIDs),
		Engine:  workflow.NewEngine(database.NewStore(db), hub),
		Audit:   audit.New(cfg.Logging, cfg.AuditLogPath),
	}
}

// NewServer construct new http.Server instance
func NewServer(cfg *config.Config, db *database.DBinstanceStruct) *http.Server {
	s := NewMyServer(cfg, db)

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
