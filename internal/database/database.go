// Package database implement connection to database service, initialize ORM
// and provide the gorm backed State Store of the placement workflow.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"live-placement-backend/internal/config"
	"live-placement-backend/internal/model"
)

// DBinstanceStruct is a struct that holds the GORM DB instance and related information.
type DBinstanceStruct struct {
	*gorm.DB
	// Config
	Config *config.Database
	// cached raw DB and mutex for lazy-init
	sqlDB *sql.DB
	mu    sync.RWMutex
}

// NewDBInstance creates a new DBinstanceStruct with the given configuration.
// It establishes a connection to the database, migrates the workflow tables
// and returns the instance or an error if the connection fails.
func NewDBInstance(cfg *config.Database) (*DBinstanceStruct, error) {
	connStr, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if gin.IsDebugging() {
		gdb = gdb.Debug()
	}

	newDb := &DBinstanceStruct{
		DB:     gdb,
		Config: cfg,
	}

	if err := newDb.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newDb, nil
}

// Raw returns the underlying *sql.DB, caching it after the first successful retrieval.
// It is safe for concurrent use.
func (d *DBinstanceStruct) Raw() (*sql.DB, error) {
	if d == nil {
		return nil, fmt.Errorf("DBinstanceStruct is nil")
	}

	// fast path: cached value
	d.mu.RLock()
	if d.sqlDB != nil {
		raw := d.sqlDB
		d.mu.RUnlock()
		return raw, nil
	}
	d.mu.RUnlock()

	// slow path: initialize
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sqlDB != nil {
		return d.sqlDB, nil
	}
	if d.DB == nil {
		return nil, fmt.Errorf("gorm DB is nil")
	}
	raw, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	d.sqlDB = raw
	return raw, nil
}

// Migrate database
func (d *DBinstanceStruct) Migrate() error {
	return d.AutoMigrate(model.MigrateAble...)
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (d *DBinstanceStruct) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	oriDB, err := d.Raw()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("db down: %v", err)
		return stats
	}

	if err := oriDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := oriDB.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	// Workflow transactions hold a row lock per student, so waits show up here first
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// POCCompanyIDs returns the ids of every company userID is a POC of.
func (d *DBinstanceStruct) POCCompanyIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.WithContext(ctx).
		Model(&model.Company{}).
		Where("? = ANY(poc_ids)", userID).
		Pluck("id", &ids).Error
	return ids, err
}

// Close closes the database connection.
func (d *DBinstanceStruct) Close() error {
	log.Printf("Disconnected from database: %s", d.Config.Host)
	oriDB, err := d.Raw()
	if err != nil {
		return err
	}
	return oriDB.Close()
}
