package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is the full use-case surface behind the API.
type Services interface {
	AccountService
	VehicleService
	TypeService
	LogService
}

// RouterConfig wires the HTTP API.
type RouterConfig struct {
	Services    Services
	Tokens      middleware.TokenValidator
	Users       middleware.UserLookup
	Health      Pinger // optional
	Metrics     *metrics.Metrics
	Logger      *logrus.Entry
	CORSOrigins []string
	StaticDir   string

	RateLimitRequests      int
	RateLimitWindowSeconds int
}

// NewRouter builds the API handler with its middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.NewAuthMiddleware(cfg.Tokens, cfg.Users).Authenticate)

	accounts := NewAuthHandler(cfg.Services, cfg.Logger)
	vehicles := NewVehicleHandler(cfg.Services, cfg.Logger)
	types := NewTypeHandler(cfg.Services, cfg.Logger)
	logs := NewLogHandler(cfg.Services, cfg.Logger)

	limit := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindowSeconds)
		limit = func(h http.HandlerFunc) http.Handler { return limiter(h) }
	}

	r.HandleFunc("/health", healthHandler(cfg.Health)).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.Handle("/register", limit(accounts.Register)).Methods(http.MethodPost)
	r.Handle("/token", limit(accounts.Login)).Methods(http.MethodPost)

	r.HandleFunc("/me", accounts.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/me", accounts.UpdateProfile).Methods(http.MethodPut)
	r.HandleFunc("/me", accounts.DeleteAccount).Methods(http.MethodDelete)

	r.HandleFunc("/maintenance-types", types.List).Methods(http.MethodGet)
	r.HandleFunc("/maintenance-types", types.Create).Methods(http.MethodPost)
	r.HandleFunc("/maintenance-types/{id}", types.Update).Methods(http.MethodPut)
	r.HandleFunc("/maintenance-types/{id}", types.Delete).Methods(http.MethodDelete)

	r.HandleFunc("/vehicles", vehicles.List).Methods(http.MethodGet)
	r.HandleFunc("/vehicles", vehicles.Create).Methods(http.MethodPost)
	r.HandleFunc("/vehicles/{id}", vehicles.Update).Methods(http.MethodPut)
	r.HandleFunc("/vehicles/{id}", vehicles.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/vehicles/{id}/maintenance", vehicles.RecordMaintenance).Methods(http.MethodPost)
	r.HandleFunc("/vehicles/{id}/history", vehicles.History).Methods(http.MethodGet)

	r.HandleFunc("/maintenance-logs/{id}", logs.Update).Methods(http.MethodPut)
	r.HandleFunc("/maintenance-logs/{id}", logs.Delete).Methods(http.MethodDelete)

	r.HandleFunc("/stats", logs.Stats).Methods(http.MethodGet)

	if cfg.StaticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	var h http.Handler = r
	h = middleware.RequestLogger(cfg.Logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
