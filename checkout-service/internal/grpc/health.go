package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check name of the checkout queue.
const ServiceName = "stylehub.checkout.CheckoutQueue"

// HealthServer exposes gRPC health and reflection for the checkout service.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewHealthServer(log *zap.Logger) *HealthServer {
	if log == nil {
		log = zap.NewNop()
	}
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)

	h := &HealthServer{srv: srv, health: hs, log: log}
	h.SetServing(false)
	return h
}

func (h *HealthServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Watch runs check every interval and reports the result as serving status
// until ctx is done.
func (h *HealthServer) Watch(ctx context.Context, interval time.Duration, check func(context.Context) error) {
	runCheck := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := check(checkCtx)
		if err != nil {
			h.log.Warn("health check failed", zap.Error(err))
		}
		h.SetServing(err == nil)
	}

	runCheck()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCheck()
		case <-ctx.Done():
			return
		}
	}
}

func (h *HealthServer) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

func (h *HealthServer) GracefulStop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
