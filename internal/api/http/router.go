package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentoo/internal/metrics"
	"rentoo/internal/service"
)

// Options wires the router to the rest of the server.
type Options struct {
	Services *service.Services
	Metrics  *metrics.Server
	Gatherer prometheus.Gatherer

	// LoginLimiter guards POST /api/auth/login; nil disables rate limiting.
	LoginLimiter Limiter

	// UploadDir is served read-only under UploadPrefix.
	UploadDir    string
	UploadPrefix string

	// Ping backs GET /health; nil reports healthy.
	Ping    func(ctx context.Context) error
	Version string
}

// Handler serves the REST API.
type Handler struct {
	services *service.Services
	ping     func(ctx context.Context) error
	version  string
}

func NewRouter(opts Options) *mux.Router {
	h := &Handler{services: opts.Services, ping: opts.Ping, version: opts.Version}

	r := mux.NewRouter()
	r.Use(recoverPanics, instrument(opts.Metrics), NewAuthMiddleware(opts.Services.Auth).Handler)

	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if opts.UploadDir != "" {
		prefix := strings.TrimSuffix(opts.UploadPrefix, "/") + "/"
		if prefix == "/" {
			prefix = "/uploads/"
		}
		r.PathPrefix(prefix).
			Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(opts.UploadDir)))).
			Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	login := http.Handler(http.HandlerFunc(h.Login))
	if opts.LoginLimiter != nil {
		login = RateLimit(opts.LoginLimiter, "ratelimit:login", opts.Metrics)(login)
	}
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.Handle("/auth/login", login).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)

	api.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.UpdateUser).Methods(http.MethodPut)

	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)

	// /items/my has to be registered before /items/{id}
	api.HandleFunc("/items", h.SearchItems).Methods(http.MethodGet)
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/my", h.MyItems).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/items/{id}/images", h.UploadItemImage).Methods(http.MethodPost)

	api.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id}/confirm", h.ConfirmRental).Methods(http.MethodPut)
	api.HandleFunc("/rentals/{id}/complete", h.CompleteRental).Methods(http.MethodPut)

	api.HandleFunc("/messages", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages/rental/{id}", h.ListMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}/read", h.MarkMessageRead).Methods(http.MethodPut)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rentoo API", "version": h.version})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
