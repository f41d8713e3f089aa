// Package runtime abstracts "run this prompt through this model" so
// inference and summarization can be exercised without a live model
// server.
package runtime

import (
	"context"
	"fmt"
	"time"
)

// Runner executes prompts against locally installed models.
type Runner interface {
	// Generate runs one whole-message completion. Images are raw bytes
	// for vision-capable models, empty otherwise.
	Generate(ctx context.Context, model, prompt string, images [][]byte) (string, error)
	// List returns the locally installed model identifiers.
	List(ctx context.Context) ([]string, error)
}

// New builds the Runner selected by kind: "ollama" (default) talks to a
// local ollama server, "sim" answers in-process.
func New(kind, ollamaURL string) (Runner, error) {
	switch kind {
	case "", "ollama":
		return NewOllama(ollamaURL)
	case "sim":
		return &Sim{Delay: 500 * time.Millisecond}, nil
	default:
		return nil, fmt.Errorf("unknown runtime %q (want ollama or sim)", kind)
	}
}
