package runtime

import (
	"context"
	"fmt"
	"time"
)

// Sim answers every prompt in-process after Delay. It stands in for a
// real model server on hosts that have none, and backs unit tests.
type Sim struct {
	Delay  time.Duration
	Models []string
	// Reply overrides the canned answer when set.
	Reply func(model, prompt string) string
}

var simDefaultModels = []string{"llama3.2:1b", "llama3.2:3b", "llama3.1:8b"}

func (s *Sim) Generate(ctx context.Context, model, prompt string, images [][]byte) (string, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.Reply != nil {
		return s.Reply(model, prompt), nil
	}
	return fmt.Sprintf("[%s] simulated answer (%d prompt chars, %d images)",
		model, len(prompt), len(images)), nil
}

func (s *Sim) List(ctx context.Context) ([]string, error) {
	if len(s.Models) == 0 {
		return append([]string(nil), simDefaultModels...), nil
	}
	return append([]string(nil), s.Models...), nil
}
