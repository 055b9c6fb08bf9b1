package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Config holds database configuration
// ARCHITECTURAL DISCOVERY: Configuration struct provides all database settings
// needed for production deployment without hardcoded values
type Config struct {
	DatabasePath    string        `json:"database_path" yaml:"path"`
	MaxConnections  int           `json:"max_connections" yaml:"max_connections"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	RetryDelay      time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// DefaultConfig returns production-ready database configuration
// FUNCTIONAL DISCOVERY: SQLite performs well with 10 connections for
// school-scale concurrent reads
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    "./data/schoolhub.db",
		MaxConnections:  10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 10,
		WriteTimeout:    30 * time.Second,
		RetryDelay:      5 * time.Second,
	}
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}
	if c.MaxConnections <= 0 {
		return errors.New("max connections must be greater than 0")
	}
	if c.ConnMaxLifetime <= 0 {
		return errors.New("connection max lifetime must be greater than 0")
	}
	if c.ConnMaxIdleTime <= 0 {
		return errors.New("connection max idle time must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}

// DSN returns the sqlite3 connection string
// TECHNICAL DISCOVERY: Foreign keys and busy timeout must be set per connection,
// so they travel in the DSN rather than a one-off PRAGMA
func (c *Config) DSN() string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", c.DatabasePath)
}

// SQLite optimization pragmas for school scale
// ARCHITECTURAL DISCOVERY: WAL mode enables concurrent reads while maintaining
// the single-writer pattern of the database manager
var sqliteOptimizations = []string{
	"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for concurrency
	"PRAGMA synchronous = NORMAL", // Balance safety and performance
	"PRAGMA cache_size = -64000",  // 64MB cache
	"PRAGMA temp_store = MEMORY",  // Use memory for temporary tables
	"PRAGMA foreign_keys = ON",    // Ensure referential integrity
	"PRAGMA busy_timeout = 5000",  // 5 second timeout for write coordination
}

// ApplySQLiteOptimizations applies performance pragmas to the database
func ApplySQLiteOptimizations(db *sql.DB) error {
	for _, pragma := range sqliteOptimizations {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}
	return nil
}
