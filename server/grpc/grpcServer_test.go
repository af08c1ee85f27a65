package grpc_server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) (*Server, healthpb.HealthClient) {
	server := NewServer("127.0.0.1", 0, applog.NewNopLogger())
	lis := bufconn.Listen(1 << 20)

	served := make(chan error, 1)
	go func() { served <- server.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
		<-served
	})
	return server, healthpb.NewHealthClient(conn)
}

func TestHealth_ServingAfterBoot(t *testing.T) {
	_, client := startServer(t)

	for _, service := range []string{"", ServiceName} {
		response, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, response.Status, service)
	}

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth_NotServing(t *testing.T) {
	server, client := startServer(t)
	server.SetServing(false)

	response, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, response.Status)
}

func TestUnaryInterceptor_RecoversPanic(t *testing.T) {
	interceptor := unaryInterceptor(applog.NewNopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/storefront.Test/Panic"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, codes.Unknown, status.Code(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestUnaryInterceptor_PassesThrough(t *testing.T) {
	interceptor := unaryInterceptor(applog.NewNopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/storefront.Test/Echo"}

	resp, err := interceptor(context.Background(), "ping", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ping", resp)
}
