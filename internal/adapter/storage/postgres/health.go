package postgres

import (
	"context"
	"fmt"
)

// HealthCheck reports whether the credential store accepts queries. Without
// it no merchant can sign in, so /health marks the service degraded.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string { return "postgresql" }
