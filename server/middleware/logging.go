package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/mysqlsvc/logger"
)

// quietPaths are polled by orchestrators and the health monitor; logging
// them would drown everything else.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/alive":   true,
	"/metrics": true,
}

// RequestLogger returns middleware that logs every request with method,
// path, status code and duration. Probe paths are skipped unless they fail.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			if quietPaths[r.URL.Path] && sw.status < 500 {
				return
			}

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				logger.FieldStatus:   sw.status,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields["request_id"] = id
			}

			log := log.WithContext(r.Context())
			switch {
			case sw.status >= 500:
				log.Error("Request completed", fields)
			case sw.status >= 400:
				log.Warn("Request completed", fields)
			default:
				log.Debug("Request completed", fields)
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
