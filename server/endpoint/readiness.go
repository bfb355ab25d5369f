package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/component"
)

// Readiness answers 200 unless a component is unhealthy. A degraded service
// (for example the local model still loading) still takes traffic.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := true
		if checker != nil {
			ready = Overall(checker(c.Request.Context())) != component.StatusUnhealthy
		}
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
