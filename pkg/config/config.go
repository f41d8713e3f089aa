// Package config loads per-binary settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Coordinator configures the coordinator binary.
type Coordinator struct {
	Bind          string        `envconfig:"BIND" default:":50051"`
	WorkerPort    int           `envconfig:"WORKER_PORT" default:"50052"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	StatusTimeout time.Duration `envconfig:"STATUS_TIMEOUT" default:"5s"`
	JoinGrace     time.Duration `envconfig:"JOIN_GRACE" default:"5s"`
	MaxHandlers   int           `envconfig:"MAX_HANDLERS" default:"20"`
	SummaryModel  string        `envconfig:"SUMMARY_MODEL" default:"gemma3:1b"`
	WorkerTimeout time.Duration `envconfig:"WORKER_TIMEOUT" default:"90s"`
	ReapInterval  time.Duration `envconfig:"REAP_INTERVAL" default:"15s"`
	Dashboard     string        `envconfig:"DASHBOARD" default:":8080"`
	Metrics       string        `envconfig:"METRICS" default:":9091"`
	Runtime       string        `envconfig:"RUNTIME" default:"ollama"`
	OllamaURL     string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Worker configures the worker binary. An empty WorkerID falls back to
// the hostname. AdvertiseAddr may be a bare IP only when Bind keeps the
// default worker port: the coordinator completes bare IPs with its
// WORKER_PORT, so a worker bound elsewhere must advertise host:port.
type Worker struct {
	WorkerID      string        `envconfig:"WORKER_ID"`
	Bind          string        `envconfig:"BIND" default:":50052"`
	AdvertiseAddr string        `envconfig:"ADVERTISE_ADDR"`
	Coordinator   string        `envconfig:"COORDINATOR" default:"localhost:50051"`
	Slots         int           `envconfig:"SLOTS" default:"1"`
	Heartbeat     time.Duration `envconfig:"HEARTBEAT" default:"30s"`
	Metrics       string        `envconfig:"METRICS" default:":9092"`
	Runtime       string        `envconfig:"RUNTIME" default:"ollama"`
	OllamaURL     string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Edge configures the HTTP edge binary.
type Edge struct {
	Bind        string `envconfig:"BIND" default:":5000"`
	Coordinator string `envconfig:"COORDINATOR" default:"localhost:50051"`
	ChatFile    string `envconfig:"CHAT_FILE" default:"chat_history.json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadCoordinator() (*Coordinator, error) {
	var cfg Coordinator
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load coordinator config: %w", err)
	}
	return &cfg, nil
}

func LoadWorker() (*Worker, error) {
	var cfg Worker
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load worker config: %w", err)
	}
	if cfg.WorkerID == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("no WORKER_ID and hostname unavailable: %w", err)
		}
		cfg.WorkerID = host
	}
	return &cfg, nil
}

func LoadEdge() (*Edge, error) {
	var cfg Edge
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load edge config: %w", err)
	}
	return &cfg, nil
}

// Logger builds the process logger: console writer on stderr, level
// from config, timestamps on. Unknown levels fall back to info.
func Logger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Logger()
}
