package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	clubauth "github.com/flightclubhq/clubauth"
)

const headerRequestID = "X-Request-Id"

// API serves the session endpoints over HTTP. Construct with New and mount
// Routes on a server.
type API struct {
	engine *clubauth.Engine
	logger *zap.Logger
}

// New creates an API. A nil logger falls back to zap.NewNop.
func New(engine *clubauth.Engine, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		engine: engine,
		logger: logger,
	}
}

// Routes returns a mux with all session endpoints mounted.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /session/pilot/refresh", a.instrument("pilot_refresh", a.handleRefresh(clubauth.FlavorPilot)))
	mux.Handle("POST /session/club-admin/refresh", a.instrument("club_admin_refresh", a.handleRefresh(clubauth.FlavorClubAdmin)))
	mux.Handle("POST /session/verify", a.instrument("verify", http.HandlerFunc(a.handleVerify)))
	return mux
}

// instrument assigns a request id, attaches the client IP to the context,
// and logs one line per request.
func (a *API) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := clubauth.WithClientIP(r.Context(), clientIP(r))
		r = r.WithContext(ctx)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		a.logger.Info("request",
			zap.String("handler", name),
			zap.String("request_id", requestID),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, fields ...string) {
	writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop in the chain is the original client.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
