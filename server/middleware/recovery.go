package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/mysqlsvc/errors"
	"github.com/kbukum/mysqlsvc/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with an INTERNAL_ERROR body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("Panic recovered", map[string]interface{}{
					logger.FieldError: fmt.Sprintf("%v", rec),
					"stack":           string(debug.Stack()),
					"path":            r.URL.Path,
					"method":          r.Method,
				})
				appErr := errors.Internal(fmt.Errorf("panic: %v", rec))
				writeJSON(w, appErr.HTTPStatus, appErr.ToResponse())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
