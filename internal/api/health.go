package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker es cualquier dependencia que puede verificar su conexión
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health reporta el estado de cada dependencia; 503 si alguna falla
func Health(service, version string, checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		overall := "ok"
		deps := gin.H{}
		for name, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				deps[name] = gin.H{"status": "down", "error": err.Error()}
				status = http.StatusServiceUnavailable
				overall = "degraded"
				continue
			}
			deps[name] = gin.H{"status": "up"}
		}

		c.JSON(status, gin.H{
			"status":       overall,
			"timestamp":    time.Now().UTC(),
			"service":      service,
			"version":      version,
			"dependencies": deps,
		})
	}
}
