package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is implemented by *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports database reachability over HTTP and through the standard
// gRPC health service.
type Health struct {
	db      Pinger
	server  *health.Server
	timeout time.Duration
}

// NewHealth creates a Health checker for db
func NewHealth(db Pinger) *Health {
	return &Health{
		db:      db,
		server:  health.NewServer(),
		timeout: 2 * time.Second,
	}
}

// GRPCServer returns the gRPC health service to register on a grpc.Server.
func (h *Health) GRPCServer() *health.Server {
	return h.server
}

// Check pings the database and updates the gRPC serving status.
func (h *Health) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.db.Ping(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	return err
}

// Watch re-runs Check every interval until ctx is done, then marks the
// service as shutting down.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := h.Check(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Database health check failed")
		}
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
