package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Server holds the Prometheus metrics of the API server
type Server struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	RentalTransitions *prometheus.CounterVec
	RateLimited       prometheus.Counter
	JobRuns           *prometheus.CounterVec
}

// NewServer creates and registers the server metrics on reg
func NewServer(reg prometheus.Registerer) *Server {
	f := promauto.With(reg)
	return &Server{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentoo_http_requests_total",
			Help: "Total number of HTTP requests served, by route template and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentoo_http_request_duration_seconds",
			Help:    "HTTP request latency by route template",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RentalTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentoo_rental_transitions_total",
			Help: "Total number of rental status transitions, by target status",
		}, []string{"status"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "rentoo_ratelimit_rejections_total",
			Help: "Total number of login attempts rejected by the rate limiter",
		}),
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentoo_job_runs_total",
			Help: "Total number of scheduled job runs, by job and outcome",
		}, []string{"job", "outcome"}),
	}
}

// ObserveRequest records one served HTTP request
func (m *Server) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Server) IncrementTransition(status string) {
	if m == nil {
		return
	}
	m.RentalTransitions.WithLabelValues(status).Inc()
}

func (m *Server) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Server) IncrementJobRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}

// Client holds the Prometheus metrics of the API client pipeline
type Client struct {
	Requests *prometheus.CounterVec
}

// NewClient creates and registers the client metrics on reg
func NewClient(reg prometheus.Registerer) *Client {
	return &Client{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "rentoo_client_requests_total",
			Help: "Total number of API calls issued by the client, by outcome",
		}, []string{"method", "endpoint", "outcome"}),
	}
}

// IncrementRequest records one outbound call. outcome is "ok", "http_error",
// "unauthorized" or "network_error".
func (m *Client) IncrementRequest(method, endpoint, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, endpoint, outcome).Inc()
}
