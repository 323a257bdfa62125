package server

import (
	"log/slog"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/studydesk/internal/tools"
)

// NewHTTPHandler mounts the tool service and wraps it with h2c and CORS.
func NewHTTPHandler(registry *tools.Registry, allowedOrigins []string, logger *slog.Logger) http.Handler {
	path, h := NewToolServiceHandler(NewToolHandler(registry, logger))

	mux := http.NewServeMux()
	mux.Handle(path, h)

	return CORSMiddleware(h2c.NewHandler(mux, &http2.Server{}), allowedOrigins)
}

// CORSMiddleware echoes the Origin header back for allowed origins and
// answers preflight requests itself.
func CORSMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
