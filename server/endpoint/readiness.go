package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mysqlsvc/component"
)

// Readiness returns a handler for K8s readiness probes. The service is ready
// when every component is running and none is unhealthy.
func Readiness(serviceName string, health HealthChecker, status StatusChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var pending []string

		if status != nil {
			for _, st := range status(ctx) {
				if st.State != component.StateRunning {
					pending = append(pending, st.Name)
				}
			}
		}
		if health != nil {
			for _, h := range health(ctx) {
				if h.Status == component.StatusUnhealthy {
					pending = append(pending, h.Name)
				}
			}
		}

		body := gin.H{
			"status":    "ready",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if len(pending) > 0 {
			body["status"] = "not_ready"
			body["pending"] = pending
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
