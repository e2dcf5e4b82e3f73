package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"rentoo/internal/api/grpc/interceptor"
	"rentoo/internal/logger"
)

// ServiceName is reported next to the overall ("") status.
const ServiceName = "rentoo.API"

// HealthServer exposes grpc.health.v1 with a status driven by a periodic
// check of the backing store.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	ping     func(ctx context.Context) error
	interval time.Duration
}

func NewHealthServer(ping func(ctx context.Context) error, interval time.Duration) *HealthServer {
	logging := interceptor.NewLoggingInterceptor()
	s := grpc.NewServer(
		grpc.UnaryInterceptor(logging.Unary()),
		grpc.StreamInterceptor(logging.Stream()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// Register reflection service for grpcurl
	reflection.Register(s)

	h := &HealthServer{server: s, health: hs, ping: ping, interval: interval}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Serve blocks serving on lis until Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	return h.server.Serve(lis)
}

// Check pings the store once and publishes the result.
func (h *HealthServer) Check(ctx context.Context) bool {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
			return false
		}
	}
	h.setStatus(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Run re-checks every interval until ctx is done.
func (h *HealthServer) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and drains open RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

func (h *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(ServiceName, st)
}
