package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// Wire messages for requests that cannot produce an answer. Both travel
// in ResponseText with Success=false; the request ID is preserved.
const (
	MsgNoWorkers             = "NO_WORKERS: no workers registered"
	MsgNoSuccessfulResponses = "NO_SUCCESSFUL_RESPONSES: every worker failed"
)

// Service is the coordinator's RPC surface.
type Service struct {
	registry   *Registry
	dispatcher *Dispatcher
	metrics    *Metrics
	log        zerolog.Logger
}

func NewService(registry *Registry, dispatcher *Dispatcher, metrics *Metrics, log zerolog.Logger) *Service {
	return &Service{
		registry:   registry,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
	}
}

// RegisterWorker inserts or refreshes a worker and returns its new
// assignment. Heartbeats land here too.
func (s *Service) RegisterWorker(ctx context.Context, info *lbv1.WorkerInfo) (*lbv1.Registration, error) {
	reg, err := s.registry.Register(info)
	if err != nil {
		return &lbv1.Registration{Success: false, Message: fmt.Sprintf("registration failed: %v", err)}, nil
	}
	s.metrics.RegistrationsTotal.Inc()
	s.metrics.Workers.Set(float64(s.registry.Count()))
	return reg, nil
}

// DeregisterWorker removes a worker; a graceful worker shutdown calls
// this instead of waiting for the liveness reaper.
func (s *Service) DeregisterWorker(ctx context.Context, req *lbv1.DeregisterRequest) (*lbv1.DeregisterResponse, error) {
	if !s.registry.Deregister(req.WorkerID) {
		return &lbv1.DeregisterResponse{Success: false, Message: "unknown worker"}, nil
	}
	s.metrics.Workers.Set(float64(s.registry.Count()))
	return &lbv1.DeregisterResponse{Success: true, Message: "deregistered"}, nil
}

// GetAvailableModels returns the catalog ascending by parameter count.
func (s *Service) GetAvailableModels(ctx context.Context, _ *lbv1.Empty) (*lbv1.ModelList, error) {
	models := s.registry.CatalogModels()
	out := &lbv1.ModelList{TotalModels: int32(len(models))}
	for _, m := range models {
		out.Models = append(out.Models, m.Wire())
	}
	return out, nil
}

// RebalanceAssignments rebuilds the catalog and reassigns every worker.
func (s *Service) RebalanceAssignments(ctx context.Context, _ *lbv1.Empty) (*lbv1.AssignmentList, error) {
	assignments := s.registry.Rebalance()
	return &lbv1.AssignmentList{
		Success:     true,
		Message:     fmt.Sprintf("reassigned %d worker(s)", len(assignments)),
		Assignments: assignments,
	}, nil
}

// ProcessRequest fans the prompt out to the fleet and returns the
// aggregated response. Worker failures are absorbed; only an empty
// registry or a fully failed fan-out produce an unsuccessful response.
func (s *Service) ProcessRequest(ctx context.Context, req *lbv1.AIRequest) (*lbv1.AIResponse, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().Unix()
	}

	resp, err := s.dispatcher.Dispatch(ctx, req)
	switch {
	case err == nil:
		s.metrics.DispatchesTotal.WithLabelValues("success").Inc()
		return resp, nil
	case errors.Is(err, ErrNoWorkers):
		s.metrics.DispatchesTotal.WithLabelValues("no_workers").Inc()
		return s.failure(req.RequestID, MsgNoWorkers), nil
	case errors.Is(err, ErrNoSuccessfulResponses):
		s.metrics.DispatchesTotal.WithLabelValues("no_successful_responses").Inc()
		return s.failure(req.RequestID, MsgNoSuccessfulResponses), nil
	default:
		s.metrics.DispatchesTotal.WithLabelValues("cancelled").Inc()
		return nil, err
	}
}

// HealthCheck reports worker membership and model diversity.
func (s *Service) HealthCheck(ctx context.Context, _ *lbv1.Empty) (*lbv1.HealthStatus, error) {
	workers := s.registry.Count()
	return &lbv1.HealthStatus{
		Healthy:          true,
		Message:          fmt.Sprintf("%d worker(s) online", workers),
		ConnectedClients: int32(workers),
		ActiveModels:     int32(s.registry.ActiveModels()),
	}, nil
}

func (s *Service) failure(requestID, msg string) *lbv1.AIResponse {
	return &lbv1.AIResponse{
		RequestID:    requestID,
		Success:      false,
		ResponseText: msg,
		ClientID:     "coordinator",
		Timestamp:    time.Now().Unix(),
	}
}
