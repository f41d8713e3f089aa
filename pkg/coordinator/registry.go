// Package coordinator implements the control plane: worker membership
// and assignment, request fan-out with progress monitoring, and answer
// synthesis.
package coordinator

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/assign"
	"github.com/fogfleet/balancer/pkg/catalog"
	"github.com/fogfleet/balancer/pkg/hardware"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// FallbackModel is assigned when no advertised model parses into the
// catalog, so an all-unknown fleet still serves requests.
const FallbackModel = "llama3.2:3b"

// WorkerRecord is one registered worker.
type WorkerRecord struct {
	WorkerID      string
	Hostname      string
	Addr          string
	Specs         *lbv1.HardwareSpecs
	Models        []string
	LastSeen      time.Time
	AssignedModel string
	Group         int32
}

// Registry owns worker membership, the model catalog and the current
// assignment. Registration reassigns the whole fleet under one lock, so
// readers never observe a half-applied plan. Deregistration and reaping
// only remove; stale assignments are tolerated until the next register
// or rebalance.
type Registry struct {
	mu         sync.RWMutex
	workers    map[string]*WorkerRecord
	catalog    *catalog.Catalog
	workerPort int
	log        zerolog.Logger
	now        func() time.Time
}

// NewRegistry builds an empty registry. workerPort completes addresses
// for registrations that advertise a bare IP.
func NewRegistry(workerPort int, log zerolog.Logger) *Registry {
	return &Registry{
		workers:    make(map[string]*WorkerRecord),
		catalog:    catalog.New(),
		workerPort: workerPort,
		log:        log,
		now:        time.Now,
	}
}

// Register inserts or refreshes a worker, folds its advertised models
// into the catalog, reassigns the fleet, and reports the caller's own
// assignment. Re-registering is how workers heartbeat, so the whole
// operation is idempotent.
func (r *Registry) Register(info *lbv1.WorkerInfo) (*lbv1.Registration, error) {
	if info == nil || info.WorkerID == "" {
		return nil, fmt.Errorf("registration requires a worker_id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	specs := info.Specs
	if specs == nil {
		specs = hardware.FallbackSpecs()
		r.log.Warn().Str("worker_id", info.WorkerID).Msg("⚠️ registration without specs, using fallback hardware record")
	}

	rec, known := r.workers[info.WorkerID]
	if !known {
		rec = &WorkerRecord{WorkerID: info.WorkerID}
		r.workers[info.WorkerID] = rec
		r.log.Info().
			Str("worker_id", info.WorkerID).
			Str("hostname", info.Hostname).
			Float64("score", specs.PerformanceScore).
			Msg("✅ worker registered")
	}
	rec.Hostname = info.Hostname
	rec.Addr = r.addrFor(info.IPAddress)
	rec.Specs = specs
	rec.Models = append([]string(nil), info.Models...)
	rec.LastSeen = r.now()

	for _, name := range info.Models {
		if !r.catalog.Add(name) {
			r.log.Warn().Str("model", name).Msg("⚠️ unparseable model identifier, skipping")
		}
	}

	r.reassignLocked()

	reg := &lbv1.Registration{
		Success:       true,
		AssignedModel: rec.AssignedModel,
		TotalClients:  int32(len(r.workers)),
		ClientGroup:   rec.Group,
		Message:       fmt.Sprintf("registered; %d worker(s) online", len(r.workers)),
	}
	if desc, ok := r.catalog.Get(rec.AssignedModel); ok {
		mi := desc.Wire()
		reg.ModelInfo = mi
	}
	return reg, nil
}

// Deregister removes a worker. It does not reassign; the remaining
// workers keep their models until the next register or rebalance.
func (r *Registry) Deregister(workerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[workerID]; !ok {
		return false
	}
	delete(r.workers, workerID)
	r.log.Info().Str("worker_id", workerID).Int("remaining", len(r.workers)).Msg("👋 worker deregistered")
	return true
}

// Snapshot returns a copy of the current worker records, ordered by
// score descending with ties broken by worker ID.
func (r *Registry) Snapshot() []WorkerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WorkerRecord, 0, len(r.workers))
	for _, rec := range r.workers {
		cp := *rec
		cp.Models = append([]string(nil), rec.Models...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Specs.PerformanceScore, out[j].Specs.PerformanceScore
		if si != sj {
			return si > sj
		}
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}

// Count returns the number of registered workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Rebalance rebuilds the catalog from the models currently advertised
// and reassigns every worker. Models that only departed workers carried
// drop out here.
func (r *Registry) Rebalance() []*lbv1.WorkerAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := catalog.New()
	for _, rec := range r.workers {
		for _, name := range rec.Models {
			if !fresh.Add(name) {
				r.log.Warn().Str("model", name).Msg("⚠️ unparseable model identifier, skipping")
			}
		}
	}
	r.catalog = fresh
	r.reassignLocked()

	out := make([]*lbv1.WorkerAssignment, 0, len(r.workers))
	for _, rec := range r.workers {
		out = append(out, &lbv1.WorkerAssignment{
			WorkerID:      rec.WorkerID,
			AssignedModel: rec.AssignedModel,
			Group:         rec.Group,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	r.log.Info().Int("workers", len(out)).Int("models", r.catalog.Len()).Msg("🔄 assignments rebalanced")
	return out
}

// Reap drops workers whose last heartbeat is older than timeout and
// returns their IDs. Like Deregister, it does not reassign.
func (r *Registry) Reap(timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-timeout)
	var reaped []string
	for id, rec := range r.workers {
		if rec.LastSeen.Before(cutoff) {
			delete(r.workers, id)
			reaped = append(reaped, id)
			r.log.Warn().
				Str("worker_id", id).
				Time("last_seen", rec.LastSeen).
				Msg("💀 worker timed out, removing")
		}
	}
	sort.Strings(reaped)
	return reaped
}

// RunReaper ticks Reap until ctx is cancelled.
func (r *Registry) RunReaper(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	r.log.Info().Dur("interval", interval).Dur("timeout", timeout).Msg("📡 liveness reaper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap(timeout)
		}
	}
}

// CatalogModels returns the catalog ascending by parameter count.
func (r *Registry) CatalogModels() []catalog.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Models()
}

// ModelInfo looks a model up in the catalog.
func (r *Registry) ModelInfo(name string) (catalog.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Get(name)
}

// SummaryModel picks the model the summarizer should run: preferred if
// the catalog has it, otherwise the highest-complexity model, otherwise
// preferred anyway and the runtime is trusted to have it.
func (r *Registry) SummaryModel(preferred string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.catalog.Has(preferred) {
		return preferred
	}
	if desc, ok := r.catalog.MaxComplexity(); ok {
		return desc.Name
	}
	return preferred
}

// ActiveModels counts distinct assigned models.
func (r *Registry) ActiveModels() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.workers))
	for _, rec := range r.workers {
		if rec.AssignedModel != "" {
			seen[rec.AssignedModel] = struct{}{}
		}
	}
	return len(seen)
}

// reassignLocked recomputes the assignment snapshot and applies it.
// Callers hold the write lock.
func (r *Registry) reassignLocked() {
	candidates := make([]assign.Candidate, 0, len(r.workers))
	for _, rec := range r.workers {
		candidates = append(candidates, assign.Candidate{
			WorkerID: rec.WorkerID,
			Score:    rec.Specs.PerformanceScore,
		})
	}

	snap := assign.Build(candidates, r.catalog)
	for id, rec := range r.workers {
		if p, ok := snap.Placements[id]; ok && p.Model != "" {
			rec.AssignedModel = p.Model
			rec.Group = p.Group
		} else if r.catalog.Len() == 0 {
			// Groups are 1-based; the fallback fleet is one group.
			rec.AssignedModel = FallbackModel
			rec.Group = 1
		}
	}
	r.log.Info().
		Int("workers", len(r.workers)).
		Int("models", r.catalog.Len()).
		Ints("group_sizes", snap.GroupSizes).
		Msg("📊 assignment updated")
}

// addrFor completes a registration address: bare IPs get the standard
// worker port, explicit host:port passes through.
func (r *Registry) addrFor(ip string) string {
	if ip == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(ip); err == nil {
		return ip
	}
	return net.JoinHostPort(ip, strconv.Itoa(r.workerPort))
}
