package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/mysqlsvc/component"
	apperrors "github.com/kbukum/mysqlsvc/errors"
)

// ComponentReport joins a component's lifecycle state with its health.
type ComponentReport struct {
	Name    string                 `json:"name"`
	State   component.State        `json:"state"`
	Status  component.HealthStatus `json:"status"`
	Message string                 `json:"message,omitempty"`
}

func reports(c *gin.Context, status StatusChecker, health HealthChecker) []ComponentReport {
	ctx := c.Request.Context()
	byName := make(map[string]component.Health)
	if health != nil {
		for _, h := range health(ctx) {
			byName[h.Name] = h
		}
	}

	var out []ComponentReport
	if status == nil {
		return out
	}
	for _, st := range status(ctx) {
		h := byName[st.Name]
		out = append(out, ComponentReport{
			Name:    st.Name,
			State:   st.State,
			Status:  h.Status,
			Message: h.Message,
		})
	}
	return out
}

// Status returns a handler listing every component's state and health.
func Status(status StatusChecker, health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, reports(c, status, health))
	}
}

// ComponentStatus returns a handler for a single component named by the
// ":name" path parameter.
func ComponentStatus(status StatusChecker, health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		for _, r := range reports(c, status, health) {
			if r.Name == name {
				RespondOK(c, r)
				return
			}
		}
		RespondWithError(c, apperrors.NotFound("component "+name))
	}
}
