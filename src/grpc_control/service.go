package grpc_control

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"stock-pulse/src/breaker"
	"stock-pulse/src/logger"
	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// ControlService exposes per-capability health over gRPC. Each wrapped
// upstream reports SERVING while its breaker is closed and NOT_SERVING
// otherwise, so orchestration probes can see an upstream outage without
// touching the data path.
// -----------------------------------------------------------------------------

type ControlService struct {
	Config *models.MConfig
	Logger *logger.Logger

	health *health.Server
	server *grpc.Server
}

// -----------------------------------------------------------------------------

func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	h := health.NewServer()
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h)

	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &ControlService{
		Config: cfg,
		Logger: log,
		health: h,
		server: s,
	}
}

// -----------------------------------------------------------------------------

// OnBreakerChange is wired as the OnStateChange observer of every breaker.
func (s *ControlService) OnBreakerChange(name string, from, to breaker.State) {
	status := healthpb.HealthCheckResponse_SERVING
	if to != breaker.Closed {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(name, status)
	s.Logger.Info("Breaker %s: %s -> %s", name, from, to)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s failed: %w", addr, err)
	}
	s.Logger.Info("gRPC control listening on %s", addr)
	return s.server.Serve(lis)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Stop() {
	s.server.GracefulStop()
}
