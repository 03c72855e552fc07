package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "geofeed"

// Pinger reports whether a dependency the service needs is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPC serves the standard health and reflection APIs. The health status
// follows the result of periodic pings.
type GRPC struct {
	logger    *zap.Logger
	host      string
	port      string
	server    *grpc.Server
	health    *health.Server
	pinger    Pinger
	interval  time.Duration
	cancel    func()
	waitGroup sync.WaitGroup
}

func NewGRPC(logger *zap.Logger, host string, port string, pinger Pinger, interval time.Duration) *GRPC {
	grpcServer := grpc.NewServer()

	// Health API
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Reflection API
	reflection.Register(grpcServer)

	return &GRPC{
		logger:   logger,
		host:     host,
		port:     port,
		server:   grpcServer,
		health:   healthServer,
		pinger:   pinger,
		interval: interval,
	}
}

func (this *GRPC) Start() error {
	listener, err := net.Listen("tcp", net.JoinHostPort(this.host, this.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	this.cancel = cancel

	if this.pinger != nil && this.interval > 0 {
		this.waitGroup.Add(1)
		go this.watch(ctx)
	}

	go func() {
		this.logger.Info("GRPC server started", zap.String("addr", listener.Addr().String()))
		err := this.server.Serve(listener)
		if err != nil {
			this.logger.Error("GRPC server stopped", zap.Error(err))
		}
	}()

	return nil
}

func (this *GRPC) Stop() error {
	if this.cancel != nil {
		this.cancel()
	}
	this.waitGroup.Wait()

	this.health.Shutdown()
	this.server.GracefulStop()
	this.logger.Info("GRPC server stopped gracefully")
	return nil
}

func (this *GRPC) watch(ctx context.Context) {
	defer this.waitGroup.Done()

	ticker := time.NewTicker(this.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		this.check(ctx)
	}
}

func (this *GRPC) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, this.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := this.pinger.Ping(ctx); err != nil {
		this.logger.Warn("health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	this.health.SetServingStatus(ServiceName, status)
}
