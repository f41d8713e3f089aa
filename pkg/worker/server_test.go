package worker

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

type stubCall struct {
	model  string
	prompt string
	images int
}

// stubRunner records Generate calls. A non-nil gate makes Generate
// block until the test sends on it.
type stubRunner struct {
	mu    sync.Mutex
	calls []stubCall
	gate  chan struct{}
	reply string
	err   error
}

func (s *stubRunner) Generate(ctx context.Context, model, prompt string, images [][]byte) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{model: model, prompt: prompt, images: len(images)})
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	if s.reply != "" {
		return s.reply, nil
	}
	return "stub answer", nil
}

func (s *stubRunner) List(ctx context.Context) ([]string, error) {
	return []string{"llama3.2:1b"}, nil
}

func (s *stubRunner) recorded() []stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func newTestServer(t *testing.T, slots int, r *stubRunner) *Server {
	t.Helper()
	s := NewServer("worker-a", slots, r, NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestProcessAIRequestCompletes(t *testing.T) {
	stub := &stubRunner{reply: "the answer"}
	s := newTestServer(t, 1, stub)

	img := base64.StdEncoding.EncodeToString([]byte("pixels"))
	resp, err := s.ProcessAIRequest(context.Background(), &lbv1.AIRequest{
		RequestID:     "req-1",
		Prompt:        "what is this?",
		AssignedModel: "llava:7b",
		Images:        []string{img},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "the answer", resp.ResponseText)
	require.Equal(t, "worker-a", resp.ClientID)
	require.Equal(t, "llava:7b", resp.ModelUsed)
	require.Equal(t, "req-1", resp.RequestID)
	require.GreaterOrEqual(t, resp.ProcessingTime, 0.0)

	calls := stub.recorded()
	require.Len(t, calls, 1)
	require.Equal(t, "llava:7b", calls[0].model)
	require.Equal(t, "what is this?", calls[0].prompt)
	require.Equal(t, 1, calls[0].images)
}

func TestInferenceErrorComesBackAsUnsuccessfulResponse(t *testing.T) {
	stub := &stubRunner{err: errors.New("model exploded")}
	s := newTestServer(t, 1, stub)

	resp, err := s.ProcessAIRequest(context.Background(), &lbv1.AIRequest{
		RequestID:     "req-2",
		Prompt:        "hi",
		AssignedModel: "llama3.2:1b",
	})
	require.NoError(t, err, "inference failures must not surface as RPC errors")
	require.False(t, resp.Success)
	require.Contains(t, resp.ResponseText, "model exploded")
	require.Equal(t, "worker-a", resp.ClientID)
}

func TestStatusLifecycle(t *testing.T) {
	stub := &stubRunner{gate: make(chan struct{})}
	s := newTestServer(t, 1, stub)

	respCh := make(chan *lbv1.AIResponse, 1)
	go func() {
		resp, _ := s.ProcessAIRequest(context.Background(), &lbv1.AIRequest{
			RequestID:     "req-3",
			Prompt:        "hi",
			AssignedModel: "llama3.2:1b",
		})
		respCh <- resp
	}()

	require.Eventually(t, func() bool {
		st, err := s.GetProcessingStatus(context.Background(), &lbv1.StatusRequest{RequestID: "req-3"})
		return err == nil && st.Status == lbv1.StatusProcessing
	}, 2*time.Second, 10*time.Millisecond, "request never reached PROCESSING")

	st, err := s.GetProcessingStatus(context.Background(), &lbv1.StatusRequest{RequestID: "req-3"})
	require.NoError(t, err)
	require.Contains(t, st.CurrentStep, "llama3.2:1b")
	require.GreaterOrEqual(t, st.ProgressPercentage, 5.0)
	require.Less(t, st.ProgressPercentage, 100.0)

	close(stub.gate)
	select {
	case resp := <-respCh:
		require.True(t, resp.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}

	st, err = s.GetProcessingStatus(context.Background(), &lbv1.StatusRequest{RequestID: "req-3"})
	require.NoError(t, err)
	require.Equal(t, lbv1.StatusCompleted, st.Status)
	require.Equal(t, 100.0, st.ProgressPercentage)
}

func TestUnknownRequestReportsQueued(t *testing.T) {
	s := newTestServer(t, 1, &stubRunner{})

	st, err := s.GetProcessingStatus(context.Background(), &lbv1.StatusRequest{RequestID: "never-seen"})
	require.NoError(t, err)
	require.Equal(t, lbv1.StatusQueued, st.Status)
	require.Equal(t, "awaiting request", st.CurrentStep)
	require.Zero(t, st.ProgressPercentage)
}

func TestCorruptImagesAreDropped(t *testing.T) {
	stub := &stubRunner{}
	s := newTestServer(t, 1, stub)

	good := base64.StdEncoding.EncodeToString([]byte("fine"))
	resp, err := s.ProcessAIRequest(context.Background(), &lbv1.AIRequest{
		RequestID:     "req-4",
		Prompt:        "hi",
		AssignedModel: "llava:7b",
		Images:        []string{good, "!!!not-base64!!!"},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	calls := stub.recorded()
	require.Len(t, calls, 1)
	require.Equal(t, 1, calls[0].images, "corrupt image should be dropped, valid one kept")
}

func TestSingleSlotServesInArrivalOrder(t *testing.T) {
	stub := &stubRunner{gate: make(chan struct{})}
	s := newTestServer(t, 1, stub)

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = s.ProcessAIRequest(context.Background(), &lbv1.AIRequest{
				RequestID:     id,
				Prompt:        id,
				AssignedModel: "llama3.2:1b",
			})
		}(id)
		time.Sleep(20 * time.Millisecond)
	}

	for range ids {
		stub.gate <- struct{}{}
	}
	wg.Wait()

	calls := stub.recorded()
	require.Len(t, calls, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{calls[0].prompt, calls[1].prompt, calls[2].prompt})
}
