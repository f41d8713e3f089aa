package runtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama runs prompts through a local ollama server.
type Ollama struct {
	client *api.Client
}

// NewOllama connects to the ollama server at rawURL, typically
// http://localhost:11434.
func NewOllama(rawURL string) (*Ollama, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", rawURL, err)
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient)}, nil
}

func (o *Ollama) Generate(ctx context.Context, model, prompt string, images [][]byte) (string, error) {
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: new(bool), // whole-message responses only
	}
	for _, img := range images {
		req.Images = append(req.Images, api.ImageData(img))
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate %s: %w", model, err)
	}
	return strings.TrimSpace(out.String()), nil
}

func (o *Ollama) List(ctx context.Context) ([]string, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
