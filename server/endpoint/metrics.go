package endpoint

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsSource contributes a named section to the /metrics response.
type MetricsSource struct {
	Name    string
	Collect func(ctx context.Context) (any, error)
}

// Metrics returns a handler that reports runtime memory and goroutine
// metrics plus one section per source. A failing source reports its error
// in place of data.
func Metrics(sources ...MetricsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": m.Alloc / 1024 / 1024,
				"sys_mb":   m.Sys / 1024 / 1024,
				"gc_runs":  m.NumGC,
			},
		}

		for _, src := range sources {
			data, err := src.Collect(c.Request.Context())
			if err != nil {
				body[src.Name] = gin.H{"error": err.Error()}
				continue
			}
			body[src.Name] = data
		}

		c.JSON(http.StatusOK, body)
	}
}
