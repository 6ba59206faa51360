package handler

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/config"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/repository"
)

// ConnectionSource hands out one connection per request.
type ConnectionSource interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
	Ping(ctx context.Context) error
}

// Handler holds application dependencies
type Handler struct {
	Gateway  ConnectionSource
	Config   config.Config
	Log      *slog.Logger
	Identity IdentityResolver
	Settings repository.Settings

	limiter *limiterPool
}

// New creates a new Handler with the given dependencies
func New(gw ConnectionSource, cfg config.Config, log *slog.Logger) *Handler {
	return &Handler{
		Gateway:  gw,
		Config:   cfg,
		Log:      log,
		Identity: StaticIdentity(cfg.CurrentUserID),
		Settings: repository.Settings{
			MaxUnread:          cfg.MaxUnread,
			RemovedPlaceholder: cfg.RemovedPlaceholder,
			TypingWindow:       cfg.TypingWindow,
		},
		limiter: newLimiterPool(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Messenger API（メソッドの判定は Handle 側で行う）
	events := h.limiter.middleware(h.ServeEvent)
	r.Handle("/", events)
	r.Handle("/api/messenger", events)

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
