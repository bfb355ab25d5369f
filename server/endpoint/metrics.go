package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// Metrics reports Go runtime memory and goroutine counts. Request-level
// metrics are exported over OTLP by the observability package.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		c.JSON(http.StatusOK, gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc >> 20,
				"total_alloc_mb": m.TotalAlloc >> 20,
				"sys_mb":         m.Sys >> 20,
				"gc_runs":        m.NumGC,
			},
		})
	}
}
