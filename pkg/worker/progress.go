package worker

import (
	"math"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/fogfleet/balancer/pkg/catalog"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// trackerExpiry keeps terminal entries visible long enough for the
// coordinator's monitor to observe COMPLETED/ERROR on its next poll.
const trackerExpiry = 60 * time.Second

// Tracker holds live request progress, keyed by request ID.
type Tracker struct {
	entries *xsync.MapOf[string, *progressEntry]
	est     *estimator
}

type progressEntry struct {
	mu       sync.Mutex
	status   lbv1.Status
	step     string
	started  time.Time
	estimate time.Duration
	finalPct float64
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: xsync.NewMapOf[string, *progressEntry](),
		est:     newEstimator(),
	}
}

// Queued registers a request waiting for an inference slot.
func (t *Tracker) Queued(requestID string) {
	t.entries.Store(requestID, &progressEntry{
		status: lbv1.StatusQueued,
		step:   "waiting for inference slot",
	})
}

// Processing marks the request as running. estimate drives the reported
// percentage and ETA.
func (t *Tracker) Processing(requestID, step string, estimate time.Duration) {
	e, ok := t.entries.Load(requestID)
	if !ok {
		e = &progressEntry{}
		t.entries.Store(requestID, e)
	}
	e.mu.Lock()
	e.status = lbv1.StatusProcessing
	e.step = step
	e.started = time.Now()
	e.estimate = estimate
	e.mu.Unlock()
}

// Step updates the human-readable step while processing.
func (t *Tracker) Step(requestID, step string) {
	if e, ok := t.entries.Load(requestID); ok {
		e.mu.Lock()
		e.step = step
		e.mu.Unlock()
	}
}

// Finish records the terminal status and schedules the entry's removal.
func (t *Tracker) Finish(requestID string, status lbv1.Status, step string) {
	e, ok := t.entries.Load(requestID)
	if !ok {
		return
	}
	e.mu.Lock()
	e.status = status
	e.step = step
	if status == lbv1.StatusCompleted {
		e.finalPct = 100
	} else {
		e.finalPct = e.percentLocked()
	}
	e.mu.Unlock()

	time.AfterFunc(trackerExpiry, func() {
		t.entries.Delete(requestID)
	})
}

// Snapshot renders the wire status for one request. Unknown IDs report
// QUEUED so a monitor racing the request's arrival keeps waiting
// instead of giving up.
func (t *Tracker) Snapshot(requestID string) *lbv1.StatusResponse {
	e, ok := t.entries.Load(requestID)
	if !ok {
		return &lbv1.StatusResponse{
			Status:      lbv1.StatusQueued,
			CurrentStep: "awaiting request",
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resp := &lbv1.StatusResponse{Status: e.status, CurrentStep: e.step}
	switch e.status {
	case lbv1.StatusQueued:
		resp.EstimatedRemainingSeconds = int32(e.estimate / time.Second)
	case lbv1.StatusProcessing:
		resp.ProgressPercentage = e.percentLocked()
		remaining := e.estimate - time.Since(e.started)
		if remaining > 0 {
			resp.EstimatedRemainingSeconds = int32(math.Ceil(remaining.Seconds()))
		}
	default:
		resp.ProgressPercentage = e.finalPct
	}
	return resp
}

// percentLocked maps elapsed time against the estimate onto 5-95%; the
// last stretch is only closed out by Finish.
func (e *progressEntry) percentLocked() float64 {
	if e.started.IsZero() || e.estimate <= 0 {
		return 5
	}
	frac := float64(time.Since(e.started)) / float64(e.estimate)
	return 5 + math.Min(90, frac*90)
}

// estimator keeps a per-model average of observed processing times so
// ETAs start sane and tighten as the worker serves traffic.
type estimator struct {
	mu  sync.Mutex
	avg map[string]time.Duration
}

// emaAlpha weights new samples against the running average.
const emaAlpha = 0.3

func newEstimator() *estimator {
	return &estimator{avg: make(map[string]time.Duration)}
}

// estimate returns the expected processing time for model. Unseen
// models start from their complexity rank; unparseable ones from a
// flat 30 seconds.
func (e *estimator) estimate(model string) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.avg[model]; ok {
		return d
	}
	if desc, ok := catalog.Parse(model); ok {
		return time.Duration(desc.Complexity) * 6 * time.Second
	}
	return 30 * time.Second
}

func (e *estimator) observe(model string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.avg[model]; ok {
		e.avg[model] = time.Duration(emaAlpha*float64(d) + (1-emaAlpha)*float64(old))
	} else {
		e.avg[model] = d
	}
}
