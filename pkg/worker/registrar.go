package worker

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

const registerTimeout = 10 * time.Second

// Registrar announces the worker to the coordinator and keeps the
// registration alive. Registration is idempotent on the coordinator
// side, so the heartbeat is a periodic re-register; it doubles as the
// channel through which assignment changes reach the worker.
type Registrar struct {
	coordinator string
	info        *lbv1.WorkerInfo
	heartbeat   time.Duration
	log         zerolog.Logger

	mu       sync.Mutex
	assigned string
}

func NewRegistrar(coordinator string, info *lbv1.WorkerInfo, heartbeat time.Duration, log zerolog.Logger) *Registrar {
	return &Registrar{
		coordinator: coordinator,
		info:        info,
		heartbeat:   heartbeat,
		log:         log,
	}
}

// AssignedModel returns the model from the most recent registration.
func (r *Registrar) AssignedModel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assigned
}

// Run registers with the coordinator, retrying while it comes up, then
// heartbeats until ctx is cancelled. On shutdown it deregisters so the
// coordinator can reassign immediately instead of waiting for the
// liveness reaper.
func (r *Registrar) Run(ctx context.Context) error {
	conn, err := lbv1.Dial(r.coordinator)
	if err != nil {
		return fmt.Errorf("dial coordinator %s: %w", r.coordinator, err)
	}
	defer conn.Close()
	client := lbv1.NewCoordinatorClient(conn)

	reg, err := retry.DoWithData(func() (*lbv1.Registration, error) {
		return r.register(ctx, client)
	},
		retry.Attempts(5),
		retry.Delay(2*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn().Err(err).Uint("attempt", n+1).Msg("⚠️ registration failed, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("register with coordinator: %w", err)
	}
	r.noteAssignment(reg)
	r.log.Info().
		Str("assigned_model", reg.AssignedModel).
		Int32("group", reg.ClientGroup).
		Int32("total_workers", reg.TotalClients).
		Msg("✅ registered with coordinator")

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.deregister(client)
			return nil
		case <-ticker.C:
			reg, err := r.register(ctx, client)
			if err != nil {
				r.log.Warn().Err(err).Msg("⚠️ heartbeat failed")
				continue
			}
			r.noteAssignment(reg)
		}
	}
}

func (r *Registrar) register(ctx context.Context, client lbv1.CoordinatorClient) (*lbv1.Registration, error) {
	cctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()
	reg, err := client.RegisterWorker(cctx, r.info)
	if err != nil {
		return nil, err
	}
	if !reg.Success {
		return nil, fmt.Errorf("registration rejected: %s", reg.Message)
	}
	return reg, nil
}

func (r *Registrar) noteAssignment(reg *lbv1.Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assigned != "" && r.assigned != reg.AssignedModel {
		r.log.Info().
			Str("previous", r.assigned).
			Str("assigned_model", reg.AssignedModel).
			Msg("🔀 assignment changed")
	}
	r.assigned = reg.AssignedModel
}

// deregister runs on its own deadline; the caller's context is already
// cancelled by the time shutdown reaches here.
func (r *Registrar) deregister(client lbv1.CoordinatorClient) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.DeregisterWorker(ctx, &lbv1.DeregisterRequest{WorkerID: r.info.WorkerID}); err != nil {
		r.log.Warn().Err(err).Msg("⚠️ deregister failed")
		return
	}
	r.log.Info().Msg("👋 deregistered from coordinator")
}

// LocalIP finds the primary outbound IPv4 address. The UDP dial never
// sends a packet; it only asks the kernel for a route.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
