package config

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports a single dependency as down when Check returns an error.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthChecker struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthChecker(checks ...HealthCheck) *HealthChecker {
	return &HealthChecker{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}

	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			deps[check.Name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
			continue
		}
		deps[check.Name] = gin.H{"status": "up"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
