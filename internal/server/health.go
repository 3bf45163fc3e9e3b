package server

import (
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the record store reports under in the gRPC
// health service.
const ServiceName = "recordstore.RecordStore"

// NewHealthServer builds a gRPC server exposing the standard health
// service so that orchestrators can probe the record store. Both the
// overall status and ServiceName start out SERVING; use the returned
// health server to flip them during shutdown.
func NewHealthServer(logger logrus.FieldLogger, opts ...grpc.ServerOption) (
	*grpc.Server,
	*health.Server,
) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "health")
	opts = append(opts, grpc.StreamInterceptor(
		grpc_middleware.ChainStreamServer(
			grpc_ctxtags.StreamServerInterceptor(),
			grpc_logrus.StreamServerInterceptor(entry),
			grpc_recovery.StreamServerInterceptor(),
		)), grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
		grpc_ctxtags.UnaryServerInterceptor(),
		grpc_logrus.UnaryServerInterceptor(entry),
		grpc_recovery.UnaryServerInterceptor(),
	)))
	gsrv := grpc.NewServer(opts...)
	hsrv := health.NewServer()
	hsrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hsrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gsrv, hsrv)
	return gsrv, hsrv
}
