package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HealthChecker reports whether the database answers
type HealthChecker struct {
	db      *sql.DB
	timeout time.Duration
}

// NewHealthChecker creates a checker pinging db with the given timeout
func NewHealthChecker(db *sql.DB, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{db: db, timeout: timeout}
}

// Check pings the database
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
