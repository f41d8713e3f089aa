package worker

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/runtime"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// Server is the worker-side RPC service. ProcessAIRequest blocks for
// the full inference; GetProcessingStatus answers the coordinator's
// progress polls from the tracker.
type Server struct {
	workerID string
	slots    int
	runner   runtime.Runner
	queue    *InferenceQueue
	tracker  *Tracker
	metrics  *Metrics
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewServer builds a worker service with the given number of inference
// slots. Call Start to launch the slot runners.
func NewServer(workerID string, slots int, runner runtime.Runner, metrics *Metrics, log zerolog.Logger) *Server {
	if slots < 1 {
		slots = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		workerID: workerID,
		slots:    slots,
		runner:   runner,
		queue:    NewInferenceQueue(),
		tracker:  NewTracker(),
		metrics:  metrics,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the inference slot runners.
func (s *Server) Start() {
	for i := 0; i < s.slots; i++ {
		s.wg.Add(1)
		go s.serveSlot()
	}
	s.log.Info().Int("slots", s.slots).Msg("🚀 inference slots running")
}

// Stop aborts in-flight generation and waits for the slots to exit.
func (s *Server) Stop() {
	close(s.stopCh)
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("🛑 inference slots stopped")
}

// Tracker exposes the progress tracker, mainly for tests.
func (s *Server) Tracker() *Tracker {
	return s.tracker
}

// ProcessAIRequest enqueues the request and blocks until a slot runner
// finishes it. Inference failures come back as unsuccessful responses,
// not RPC errors, so the coordinator can fold them into a partial
// result.
func (s *Server) ProcessAIRequest(ctx context.Context, req *lbv1.AIRequest) (*lbv1.AIResponse, error) {
	started := time.Now()
	images := s.decodeImages(req.RequestID, req.Images)
	s.log.Info().
		Str("request_id", req.RequestID).
		Str("model", req.AssignedModel).
		Int("images", len(images)).
		Msg("📥 request accepted")

	s.tracker.Queued(req.RequestID)
	pending := &PendingInference{
		Req:       req,
		Images:    images,
		DoneCh:    make(chan string, 1),
		ErrCh:     make(chan error, 1),
		EnqueueAt: time.Now(),
	}
	s.queue.Enqueue(pending)
	s.metrics.QueueDepth.Set(float64(s.queue.Depth()))

	select {
	case text := <-pending.DoneCh:
		return &lbv1.AIResponse{
			RequestID:      req.RequestID,
			Success:        true,
			ResponseText:   text,
			ProcessingTime: time.Since(started).Seconds(),
			ClientID:       s.workerID,
			ModelUsed:      req.AssignedModel,
			Timestamp:      time.Now().Unix(),
		}, nil
	case err := <-pending.ErrCh:
		return &lbv1.AIResponse{
			RequestID:      req.RequestID,
			Success:        false,
			ResponseText:   fmt.Sprintf("inference failed: %v", err),
			ProcessingTime: time.Since(started).Seconds(),
			ClientID:       s.workerID,
			ModelUsed:      req.AssignedModel,
			Timestamp:      time.Now().Unix(),
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProcessingStatus reports request progress.
func (s *Server) GetProcessingStatus(ctx context.Context, req *lbv1.StatusRequest) (*lbv1.StatusResponse, error) {
	return s.tracker.Snapshot(req.RequestID), nil
}

func (s *Server) serveSlot() {
	defer s.wg.Done()
	for {
		pending := s.queue.Dequeue(s.stopCh)
		if pending == nil {
			return
		}
		s.metrics.QueueDepth.Set(float64(s.queue.Depth()))
		s.execute(pending)
	}
}

func (s *Server) execute(pi *PendingInference) {
	req := pi.Req
	model := req.AssignedModel
	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	estimate := s.tracker.est.estimate(model)
	s.tracker.Processing(req.RequestID, "loading model "+model, estimate)
	s.log.Info().
		Str("request_id", req.RequestID).
		Str("model", model).
		Dur("estimate", estimate).
		Msg("⚡ inference started")

	s.tracker.Step(req.RequestID, "generating with "+model)
	started := time.Now()
	text, err := s.runner.Generate(s.ctx, model, req.Prompt, pi.Images)
	elapsed := time.Since(started)
	if err != nil {
		s.tracker.Finish(req.RequestID, lbv1.StatusError, err.Error())
		s.metrics.RequestsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).
			Str("request_id", req.RequestID).
			Str("model", model).
			Msg("❌ inference failed")
		pi.ErrCh <- err
		return
	}

	s.tracker.est.observe(model, elapsed)
	s.tracker.Finish(req.RequestID, lbv1.StatusCompleted, "done")
	s.metrics.RequestsTotal.WithLabelValues("completed").Inc()
	s.metrics.ProcessingSeconds.WithLabelValues(model).Observe(elapsed.Seconds())
	s.log.Info().
		Str("request_id", req.RequestID).
		Str("model", model).
		Dur("took", elapsed).
		Msg("✅ inference complete")
	pi.DoneCh <- text
}

// decodeImages decodes base64 payloads, dropping any that fail so one
// corrupt image cannot sink the whole request.
func (s *Server) decodeImages(requestID string, encoded []string) [][]byte {
	if len(encoded) == 0 {
		return nil
	}
	out := make([][]byte, 0, len(encoded))
	for i, img := range encoded {
		raw, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			s.log.Warn().Err(err).
				Str("request_id", requestID).
				Int("index", i).
				Msg("⚠️ dropping undecodable image")
			continue
		}
		out = append(out, raw)
	}
	return out
}
