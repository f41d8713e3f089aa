package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// Dispatch error taxonomy. Worker-level failures are absorbed and never
// reach these; only an empty registry or a fully failed fan-out does.
var (
	ErrNoWorkers             = errors.New("no workers registered")
	ErrNoSuccessfulResponses = errors.New("no successful responses from any worker")
)

// WorkerDialer opens an RPC client to one worker. The close func
// releases the connection. Swapped for an in-memory stub in tests.
type WorkerDialer func(addr string) (lbv1.WorkerClient, func(), error)

// GRPCDialer is the production dialer: plaintext gRPC with the fleet
// codec.
func GRPCDialer(addr string) (lbv1.WorkerClient, func(), error) {
	conn, err := lbv1.Dial(addr)
	if err != nil {
		return nil, nil, err
	}
	return lbv1.NewWorkerClient(conn), func() { conn.Close() }, nil
}

// DispatchConfig carries the fan-out tunables.
type DispatchConfig struct {
	// PollInterval is the monitor's status-poll period.
	PollInterval time.Duration
	// StatusTimeout bounds each GetProcessingStatus call. The inference
	// call itself has no deadline.
	StatusTimeout time.Duration
	// JoinGrace bounds the task join after the monitor exits.
	JoinGrace time.Duration
}

// WorkerResult is one successful worker response.
type WorkerResult struct {
	WorkerID string
	Model    string
	Score    float64
	Text     string
	Seconds  float64
}

// Dispatcher fans one prompt out to every registered worker, polls
// their progress, and synthesizes the answers into a single response.
type Dispatcher struct {
	registry   *Registry
	summarizer *Summarizer
	dial       WorkerDialer
	cfg        DispatchConfig
	metrics    *Metrics
	log        zerolog.Logger

	live  *xsync.MapOf[string, *requestState]
	total atomic.Int64
}

func NewDispatcher(registry *Registry, summarizer *Summarizer, dial WorkerDialer, cfg DispatchConfig, metrics *Metrics, log zerolog.Logger) *Dispatcher {
	if dial == nil {
		dial = GRPCDialer
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 5 * time.Second
	}
	if cfg.JoinGrace <= 0 {
		cfg.JoinGrace = 5 * time.Second
	}
	return &Dispatcher{
		registry:   registry,
		summarizer: summarizer,
		dial:       dial,
		cfg:        cfg,
		metrics:    metrics,
		log:        log,
		live:       xsync.NewMapOf[string, *requestState](),
	}
}

// Dispatch runs one fan-out. req.RequestID must be set by the caller.
// It returns ErrNoWorkers on an empty registry and
// ErrNoSuccessfulResponses when every worker failed; partial success
// always proceeds to summarization. If ctx is cancelled mid-flight the
// collected results are discarded and ctx.Err() is returned; workers
// are not told.
func (d *Dispatcher) Dispatch(ctx context.Context, req *lbv1.AIRequest) (*lbv1.AIResponse, error) {
	workers := d.registry.Snapshot()
	if len(workers) == 0 {
		return nil, fmt.Errorf("request %s: %w", req.RequestID, ErrNoWorkers)
	}

	started := time.Now()
	d.total.Add(1)
	state := newRequestState(req.Prompt, workers)
	d.live.Store(req.RequestID, state)
	defer d.live.Delete(req.RequestID)

	d.log.Info().
		Str("request_id", req.RequestID).
		Int("workers", len(workers)).
		Int("images", len(req.Images)).
		Msg("📤 fanning out request")

	col := newCollector()
	// Worker RPCs outlive a disconnected caller; their results are just
	// discarded in that case.
	callCtx := context.WithoutCancel(ctx)

	tasks := pool.New()
	for _, w := range workers {
		w := w
		tasks.Go(func() {
			d.callWorker(callCtx, req, w, col, state)
		})
	}

	d.monitor(callCtx, req.RequestID, workers, col, state)

	joined := make(chan struct{})
	go func() {
		tasks.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(d.cfg.JoinGrace):
		d.log.Warn().Str("request_id", req.RequestID).Msg("⚠️ task join exceeded grace period, proceeding with collected responses")
	}

	if err := ctx.Err(); err != nil {
		d.log.Warn().Str("request_id", req.RequestID).Msg("🚪 caller gone, discarding results")
		return nil, err
	}

	results := col.sorted()
	if len(results) == 0 {
		return nil, fmt.Errorf("request %s: %w", req.RequestID, ErrNoSuccessfulResponses)
	}

	body, model := d.summarizer.Summarize(ctx, results)
	elapsed := time.Since(started)
	d.metrics.DispatchSeconds.Observe(elapsed.Seconds())
	d.log.Info().
		Str("request_id", req.RequestID).
		Int("responses", len(results)).
		Dur("took", elapsed).
		Msg("📦 aggregated response ready")

	return &lbv1.AIResponse{
		RequestID:      req.RequestID,
		Success:        true,
		ResponseText:   body,
		ProcessingTime: elapsed.Seconds(),
		ClientID:       "coordinator",
		ModelUsed:      model,
		Timestamp:      time.Now().Unix(),
	}, nil
}

// TotalRequests returns the number of dispatches since start.
func (d *Dispatcher) TotalRequests() int64 {
	return d.total.Load()
}

// callWorker runs the full RPC exchange with one worker. Failures are
// absorbed: they are logged, marked in the live state, and the worker
// simply contributes no result.
func (d *Dispatcher) callWorker(ctx context.Context, req *lbv1.AIRequest, w WorkerRecord, col *collector, state *requestState) {
	defer col.settle(w.WorkerID)

	images := req.Images
	if desc, ok := d.registry.ModelInfo(w.AssignedModel); !ok || !desc.SupportsVision {
		images = nil
	}

	client, closeConn, err := d.dial(w.Addr)
	if err != nil {
		d.log.Warn().Err(err).
			Str("request_id", req.RequestID).
			Str("worker_id", w.WorkerID).
			Msg("⚠️ worker unreachable")
		state.finish(w.WorkerID, lbv1.StatusError, "unreachable")
		return
	}
	defer closeConn()

	resp, err := client.ProcessAIRequest(ctx, &lbv1.AIRequest{
		RequestID:     req.RequestID,
		Prompt:        req.Prompt,
		AssignedModel: w.AssignedModel,
		Timestamp:     time.Now().Unix(),
		Images:        images,
	})
	if err != nil {
		d.log.Warn().Err(err).
			Str("request_id", req.RequestID).
			Str("worker_id", w.WorkerID).
			Msg("⚠️ worker call failed")
		state.finish(w.WorkerID, lbv1.StatusError, "call failed")
		return
	}
	if !resp.Success {
		d.log.Warn().
			Str("request_id", req.RequestID).
			Str("worker_id", w.WorkerID).
			Str("detail", resp.ResponseText).
			Msg("⚠️ worker reported failure")
		state.finish(w.WorkerID, lbv1.StatusError, resp.ResponseText)
		return
	}

	col.add(WorkerResult{
		WorkerID: w.WorkerID,
		Model:    resp.ModelUsed,
		Score:    w.Specs.PerformanceScore,
		Text:     resp.ResponseText,
		Seconds:  resp.ProcessingTime,
	})
	state.finish(w.WorkerID, lbv1.StatusCompleted, "done")
	d.log.Info().
		Str("request_id", req.RequestID).
		Str("worker_id", w.WorkerID).
		Str("model", resp.ModelUsed).
		Float64("seconds", resp.ProcessingTime).
		Msg("📥 worker response collected")
}

// monitor polls every still-running worker until each has either
// settled (its task returned) or last reported a terminal status. A
// failed poll is not fatal; the worker is assumed to still be working.
func (d *Dispatcher) monitor(ctx context.Context, requestID string, workers []WorkerRecord, col *collector, state *requestState) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	terminal := make(map[string]bool, len(workers))
	for {
		if allDone(workers, col, terminal) {
			return
		}
		<-ticker.C
		for _, w := range workers {
			if col.settled(w.WorkerID) || terminal[w.WorkerID] {
				continue
			}
			st := d.pollStatus(ctx, w, requestID)
			if st == nil {
				continue
			}
			state.update(w.WorkerID, st)
			if st.Status.Terminal() {
				terminal[w.WorkerID] = true
			} else {
				d.log.Debug().
					Str("request_id", requestID).
					Str("worker_id", w.WorkerID).
					Str("status", st.Status.String()).
					Float64("pct", st.ProgressPercentage).
					Str("step", st.CurrentStep).
					Msg("⏳ worker progress")
			}
		}
	}
}

func (d *Dispatcher) pollStatus(ctx context.Context, w WorkerRecord, requestID string) *lbv1.StatusResponse {
	client, closeConn, err := d.dial(w.Addr)
	if err != nil {
		return nil
	}
	defer closeConn()

	pctx, cancel := context.WithTimeout(ctx, d.cfg.StatusTimeout)
	defer cancel()
	st, err := client.GetProcessingStatus(pctx, &lbv1.StatusRequest{
		RequestID: requestID,
		ClientID:  w.WorkerID,
	})
	if err != nil {
		// STATUS_POLL_FAILED: assume still working.
		return nil
	}
	return st
}

func allDone(workers []WorkerRecord, col *collector, terminal map[string]bool) bool {
	for _, w := range workers {
		if !col.settled(w.WorkerID) && !terminal[w.WorkerID] {
			return false
		}
	}
	return true
}

// collector gathers per-worker outcomes under one mutex. A worker is
// "settled" once its task returned, success or not.
type collector struct {
	mu      sync.Mutex
	results []WorkerResult
	done    map[string]bool
}

func newCollector() *collector {
	return &collector{done: make(map[string]bool)}
}

func (c *collector) add(r WorkerResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) settle(workerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done[workerID] = true
}

func (c *collector) settled(workerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done[workerID]
}

// sorted returns the collected results by performance score descending,
// ties by worker ID. The first entry is the "best client" the
// summarizer falls back to.
func (c *collector) sorted() []WorkerResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WorkerResult, len(c.results))
	copy(out, c.results)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}

// requestState is the live view of one in-flight request, pushed to the
// dashboard. It is dropped when the aggregated response returns.
type requestState struct {
	mu        sync.Mutex
	prompt    string
	startedAt time.Time
	workers   map[string]*workerProgress
}

type workerProgress struct {
	Status  lbv1.Status
	Percent float64
	Step    string
}

func newRequestState(prompt string, workers []WorkerRecord) *requestState {
	ws := make(map[string]*workerProgress, len(workers))
	for _, w := range workers {
		ws[w.WorkerID] = &workerProgress{Status: lbv1.StatusQueued, Step: "dispatched"}
	}
	return &requestState{prompt: prompt, startedAt: time.Now(), workers: ws}
}

func (s *requestState) update(workerID string, st *lbv1.StatusResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wp, ok := s.workers[workerID]; ok {
		wp.Status = st.Status
		wp.Percent = st.ProgressPercentage
		wp.Step = st.CurrentStep
	}
}

func (s *requestState) finish(workerID string, status lbv1.Status, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wp, ok := s.workers[workerID]; ok {
		wp.Status = status
		wp.Step = step
		if status == lbv1.StatusCompleted {
			wp.Percent = 100
		}
	}
}

// RequestView is the dashboard rendering of one in-flight request.
type RequestView struct {
	RequestID string              `json:"request_id"`
	Prompt    string              `json:"prompt"`
	AgeSec    float64             `json:"age_sec"`
	Workers   []RequestWorkerView `json:"workers"`
}

type RequestWorkerView struct {
	WorkerID string  `json:"worker_id"`
	Status   string  `json:"status"`
	Percent  float64 `json:"percent"`
	Step     string  `json:"step"`
}

// LiveRequests snapshots the in-flight requests for the dashboard.
func (d *Dispatcher) LiveRequests() []RequestView {
	var out []RequestView
	d.live.Range(func(id string, state *requestState) bool {
		state.mu.Lock()
		view := RequestView{
			RequestID: id,
			Prompt:    state.prompt,
			AgeSec:    time.Since(state.startedAt).Seconds(),
		}
		for wid, wp := range state.workers {
			view.Workers = append(view.Workers, RequestWorkerView{
				WorkerID: wid,
				Status:   wp.Status.String(),
				Percent:  wp.Percent,
				Step:     wp.Step,
			})
		}
		state.mu.Unlock()
		sort.Slice(view.Workers, func(i, j int) bool { return view.Workers[i].WorkerID < view.Workers[j].WorkerID })
		out = append(out, view)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out
}
