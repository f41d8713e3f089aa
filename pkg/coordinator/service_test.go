package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

func newTestService(f *fleet) *Service {
	return NewService(f.registry, f.dispatcher, f.dispatcher.metrics, f.dispatcher.log)
}

func TestProcessRequestNoWorkers(t *testing.T) {
	f := newFleet(t)
	svc := newTestService(f)

	resp, err := svc.ProcessRequest(context.Background(), &lbv1.AIRequest{RequestID: "req-1", Prompt: "hi"})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "req-1", resp.RequestID)
	require.Equal(t, MsgNoWorkers, resp.ResponseText)
}

func TestProcessRequestTotalFailureKeepsRequestID(t *testing.T) {
	f := newFleet(t)
	f.addWorker(t, "worker-a", 90, &stubWorker{callErr: errors.New("boom")}, "llama3.2:1b")
	svc := newTestService(f)

	resp, err := svc.ProcessRequest(context.Background(), &lbv1.AIRequest{RequestID: "req-5", Prompt: "hi"})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "req-5", resp.RequestID)
	require.Equal(t, MsgNoSuccessfulResponses, resp.ResponseText)
}

func TestProcessRequestGeneratesRequestID(t *testing.T) {
	f := newFleet(t)
	f.addWorker(t, "worker-a", 90, &stubWorker{response: okResponse("worker-a", "llama3.2:1b", "hello", 0.2)}, "llama3.2:1b")
	f.runner.reply = "hello"
	svc := newTestService(f)

	resp, err := svc.ProcessRequest(context.Background(), &lbv1.AIRequest{Prompt: "hi"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.RequestID)
}

func TestRegisterWorkerRejectsBadPayload(t *testing.T) {
	f := newFleet(t)
	svc := newTestService(f)

	reg, err := svc.RegisterWorker(context.Background(), &lbv1.WorkerInfo{})
	require.NoError(t, err)
	require.False(t, reg.Success)
	require.Contains(t, reg.Message, "registration failed")
}

func TestHealthCheckCounts(t *testing.T) {
	f := newFleet(t)
	f.addWorker(t, "worker-a", 90, &stubWorker{}, "llama3.1:8b", "llama3.2:1b")
	f.addWorker(t, "worker-b", 50, &stubWorker{}, "llama3.1:8b", "llama3.2:1b")
	svc := newTestService(f)

	health, err := svc.HealthCheck(context.Background(), &lbv1.Empty{})
	require.NoError(t, err)
	require.True(t, health.Healthy)
	require.Equal(t, int32(2), health.ConnectedClients)
	require.Equal(t, int32(2), health.ActiveModels)
}

func TestGetAvailableModelsAscending(t *testing.T) {
	f := newFleet(t)
	f.addWorker(t, "worker-a", 90, &stubWorker{}, "llama3.1:8b", "llama3.2:1b", "llama3.2:3b")
	svc := newTestService(f)

	list, err := svc.GetAvailableModels(context.Background(), &lbv1.Empty{})
	require.NoError(t, err)
	require.Equal(t, int32(3), list.TotalModels)
	require.Equal(t, "llama3.2:1b", list.Models[0].Name)
	require.Equal(t, "llama3.1:8b", list.Models[2].Name)
}

func TestRebalanceAssignmentsRPC(t *testing.T) {
	f := newFleet(t)
	f.addWorker(t, "worker-a", 90, &stubWorker{}, "llama3.1:8b", "llama3.2:1b")
	f.addWorker(t, "worker-b", 50, &stubWorker{}, "llama3.1:8b", "llama3.2:1b")
	svc := newTestService(f)

	list, err := svc.RebalanceAssignments(context.Background(), &lbv1.Empty{})
	require.NoError(t, err)
	require.True(t, list.Success)
	require.Len(t, list.Assignments, 2)

	_, err = svc.DeregisterWorker(context.Background(), &lbv1.DeregisterRequest{WorkerID: "worker-b"})
	require.NoError(t, err)
	list, err = svc.RebalanceAssignments(context.Background(), &lbv1.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Assignments, 1)
	require.Equal(t, "llama3.1:8b", list.Assignments[0].AssignedModel)
}
