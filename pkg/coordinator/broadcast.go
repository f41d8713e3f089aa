package coordinator

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/catalog"
)

//go:embed dashboard/*
var dashboardFS embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FleetState is the JSON payload pushed to dashboard clients.
type FleetState struct {
	Workers       []WorkerView  `json:"workers"`
	Models        []ModelView   `json:"models"`
	Requests      []RequestView `json:"requests"`
	TotalRequests int64         `json:"total_requests"`
}

type WorkerView struct {
	WorkerID      string  `json:"worker_id"`
	Hostname      string  `json:"hostname"`
	Addr          string  `json:"addr"`
	Score         float64 `json:"score"`
	AssignedModel string  `json:"assigned_model"`
	Group         int32   `json:"group"`
	GPU           string  `json:"gpu"`
	LastSeenSec   float64 `json:"last_seen_sec"`
}

type ModelView struct {
	Name       string `json:"name"`
	Parameters string `json:"parameters"`
	Complexity int32  `json:"complexity"`
	Vision     bool   `json:"vision"`
}

// Broadcaster pushes fleet state to connected dashboard clients over
// WebSocket.
type Broadcaster struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewBroadcaster(registry *Registry, dispatcher *Dispatcher, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		registry:   registry,
		dispatcher: dispatcher,
		log:        log,
		clients:    make(map[*websocket.Conn]bool),
	}
}

// RegisterHTTP mounts the WebSocket endpoint and the embedded dashboard
// page.
func (b *Broadcaster) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/ws", b.handleWS)
	if content, err := fs.Sub(dashboardFS, "dashboard"); err == nil {
		mux.Handle("/", http.FileServer(http.FS(content)))
	}
}

// Run pushes the fleet state every interval until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.broadcast(b.state())
		}
	}
}

func (b *Broadcaster) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("⚠️ websocket upgrade failed")
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	total := len(b.clients)
	b.mu.Unlock()
	b.log.Info().Int("clients", total).Msg("📊 dashboard client connected")

	// Read loop only detects disconnect.
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			remain := len(b.clients)
			b.mu.Unlock()
			conn.Close()
			b.log.Info().Int("clients", remain).Msg("📊 dashboard client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *Broadcaster) state() *FleetState {
	state := &FleetState{
		Requests:      b.dispatcher.LiveRequests(),
		TotalRequests: b.dispatcher.TotalRequests(),
	}
	now := time.Now()
	for _, rec := range b.registry.Snapshot() {
		state.Workers = append(state.Workers, WorkerView{
			WorkerID:      rec.WorkerID,
			Hostname:      rec.Hostname,
			Addr:          rec.Addr,
			Score:         rec.Specs.PerformanceScore,
			AssignedModel: rec.AssignedModel,
			Group:         rec.Group,
			GPU:           rec.Specs.GPUInfo,
			LastSeenSec:   now.Sub(rec.LastSeen).Seconds(),
		})
	}
	for _, m := range b.registry.CatalogModels() {
		state.Models = append(state.Models, ModelView{
			Name:       m.Name,
			Parameters: catalog.FormatParameters(m.Parameters),
			Complexity: m.Complexity,
			Vision:     m.SupportsVision,
		})
	}
	return state
}

func (b *Broadcaster) broadcast(state *FleetState) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}
