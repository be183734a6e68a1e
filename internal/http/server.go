package http

import (
	"context"
	"net/http"
	"time"

	"offertory/internal/core"
	"offertory/internal/log"
	"offertory/internal/middleware/ratelimit"
	"offertory/internal/middleware/security"
	"offertory/internal/middleware/trace"
	"offertory/internal/notify"
	"offertory/internal/sheets"
)

// NotifierState reports the live notification connection, normally a *notify.Client.
type NotifierState interface {
	State() notify.State
}

type NotificationReader interface {
	RecentNotifications(ctx context.Context, limit int) ([]core.Notification, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the server's collaborators. Any of them may be nil; the routes
// that need a missing one answer 503.
type Deps struct {
	Tally         sheets.TallyWriter
	Notifier      NotifierState
	Notifications NotificationReader
	DB            Pinger

	RequestsPerMinute int
}

type Server struct {
	http.Server
	deps    Deps
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
}

func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		deps:    deps,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
	}

	clientIP := security.NewClientIP()
	s.tracer = trace.NewMiddleware(logger, clientIP.Extract)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/words", s.handleWords)
	mux.HandleFunc("/api/offerings/total", s.handleOfferingTotal)
	mux.HandleFunc("/api/sunday-tally", s.handleSundayTally)
	mux.HandleFunc("/api/notifications", s.handleNotifications)

	var h http.Handler = mux
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, clientIP.Extract(r))
		TooManyRequestsError().Write(w)
	})(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// Metrics returns request counters for the status command.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
