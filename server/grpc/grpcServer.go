package grpc_server

import (
	"context"
	"net"
	"path"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is reported next to the overall "" service by the health server
const ServiceName string = "storefront"

var histogramOnce sync.Once

type Server struct {
	address    string
	port       uint16
	logger     applog.Logger
	health     *health.Server
	grpcServer *grpc.Server
}

func NewServer(address string, port uint16, logger applog.Logger) *Server {
	if logger == nil {
		logger = applog.NewNopLogger()
	}

	// enable grpc prometheus interceptors to log timing info for grpc APIs
	histogramOnce.Do(func() { grpc_prometheus.EnableHandlingTimeHistogram() })

	server := &Server{
		address: address,
		port:    port,
		logger:  logger,
		health:  health.NewServer(),
	}

	server.grpcServer = grpc.NewServer(
		grpc.UnaryInterceptor(unaryInterceptor(logger)),
		grpc.StreamInterceptor(streamInterceptor(logger)),
	)
	healthpb.RegisterHealthServer(server.grpcServer, server.health)
	grpc_prometheus.Register(server.grpcServer)

	server.SetServing(false)
	return server
}

// Start listens on address:port and blocks until the server stops
func (server *Server) Start() error {
	port := strconv.Itoa(int(server.port))
	lis, err := net.Listen("tcp", net.JoinHostPort(server.address, port))
	if err != nil {
		server.logger.Error("Failed to listen to TCP on port", "fn", "Start", "port", port, "error", err)
		return errors.Wrap(err, "grpc listen failed")
	}
	server.logger.Info("GRPC server started", "fn", "Start", "address", server.address, "port", port)
	return server.Serve(lis)
}

// Serve reports SERVING and serves lis until Shutdown
func (server *Server) Serve(lis net.Listener) error {
	server.SetServing(true)
	if err := server.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		server.logger.Error("GRPC server serve failed", "fn", "Serve", "error", err)
		return errors.Wrap(err, "grpc serve failed")
	}
	return nil
}

func (server *Server) SetServing(serving bool) {
	state := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		state = healthpb.HealthCheckResponse_SERVING
	}
	server.health.SetServingStatus("", state)
	server.health.SetServingStatus(ServiceName, state)
}

// Shutdown flips the health status to NOT_SERVING and drains in flight calls,
// connections still open when ctx expires are closed
func (server *Server) Shutdown(ctx context.Context) {
	server.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		server.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		server.logger.Warn("GRPC graceful stop timed out", "fn", "Shutdown", "error", ctx.Err())
		server.grpcServer.Stop()
	}
}

func recoveryHandler(logger applog.Logger) grpc_recovery.RecoveryHandlerFunc {
	return func(p interface{}) (err error) {
		logger.Error("rpc panic recovered", "fn", "recoveryHandler",
			"panic", p, "stacktrace", string(debug.Stack()))
		return status.Errorf(codes.Unknown, "panic triggered: %v", p)
	}
}

func unaryInterceptor(logger applog.Logger) grpc.UnaryServerInterceptor {
	opts := []grpc_recovery.Option{
		grpc_recovery.WithRecoveryHandler(recoveryHandler(logger)),
	}
	return grpc_middleware.ChainUnaryServer(
		grpc_prometheus.UnaryServerInterceptor,
		grpc_recovery.UnaryServerInterceptor(opts...),
		unaryLogger(logger),
	)
}

func streamInterceptor(logger applog.Logger) grpc.StreamServerInterceptor {
	opts := []grpc_recovery.Option{
		grpc_recovery.WithRecoveryHandler(recoveryHandler(logger)),
	}
	return grpc_middleware.ChainStreamServer(
		grpc_prometheus.StreamServerInterceptor,
		grpc_recovery.StreamServerInterceptor(opts...),
	)
}

func unaryLogger(log applog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		startTime := time.Now()
		resp, err = handler(ctx, req)
		dur := time.Since(startTime)
		lg := log.FromContext(ctx)
		lg = lg.With(
			zap.Duration("took_sec", dur),
			zap.String("grpc.Method", path.Base(info.FullMethod)),
			zap.String("grpc.Service", path.Dir(info.FullMethod)[1:]),
			zap.String("grpc.Code", status.Code(err).String()),
		)
		lg.Debug("finished unary call")
		return
	}
}
