package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mysqlsvc/component"
	"github.com/kbukum/mysqlsvc/version"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// Info returns a handler that reports service build information and the
// supervisor contract version.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.GetVersionInfo()
		c.JSON(http.StatusOK, gin.H{
			"service":          serviceName,
			"version":          v.Version,
			"git_commit":       v.GitCommit,
			"build_time":       v.BuildTime,
			"go_version":       v.GoVersion,
			"is_release":       v.IsRelease,
			"contract_version": component.ContractVersion,
			"uptime":           time.Since(startTime).Round(time.Second).String(),
		})
	}
}
