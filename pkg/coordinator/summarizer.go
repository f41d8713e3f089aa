package coordinator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fogfleet/balancer/pkg/catalog"
	"github.com/fogfleet/balancer/pkg/runtime"
)

// Summarizer merges parallel worker answers into one reply by running a
// synthesis prompt through a local model. It never fails a request: any
// problem degrades to the best client's response verbatim.
type Summarizer struct {
	runner    runtime.Runner
	registry  *Registry
	preferred string
	metrics   *Metrics
	log       zerolog.Logger
}

// NewSummarizer builds a summarizer preferring the given model. The
// preference is typically a small, fast model; when the catalog does
// not carry it the heaviest known model is used instead.
func NewSummarizer(runner runtime.Runner, registry *Registry, preferred string, metrics *Metrics, log zerolog.Logger) *Summarizer {
	return &Summarizer{
		runner:    runner,
		registry:  registry,
		preferred: preferred,
		metrics:   metrics,
		log:       log,
	}
}

// Summarize collapses results (sorted best-first) into the unified body
// plus the processing-details footer, and reports the model whose words
// the body carries. Empty or failed summarization falls back to the
// best client's text.
func (s *Summarizer) Summarize(ctx context.Context, results []WorkerResult) (body, model string) {
	best := results[0]
	body, model = best.Text, best.Model

	sumModel := s.registry.SummaryModel(s.preferred)
	out, err := s.runner.Generate(ctx, sumModel, s.buildPrompt(results), nil)
	switch {
	case err != nil:
		s.metrics.SummaryFallbacks.Inc()
		s.log.Warn().Err(err).Str("model", sumModel).Msg("⚠️ summarization failed, using best client response")
	case strings.TrimSpace(out) == "":
		s.metrics.SummaryFallbacks.Inc()
		s.log.Warn().Str("model", sumModel).Msg("⚠️ summarization returned nothing, using best client response")
	default:
		body, model = strings.TrimSpace(out), sumModel
	}

	return body + s.footer(results), model
}

// buildPrompt lays each response under a header naming its model and
// size, then asks for one coherent synthesis.
func (s *Summarizer) buildPrompt(results []WorkerResult) string {
	var b strings.Builder
	b.WriteString("Multiple AI models answered the same question. Combine their answers into one clear, accurate response. Resolve contradictions in favor of the larger models and do not mention that several models were involved.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "Response %d (Model: %s - %s):\n%s\n\n", i+1, r.Model, s.paramLabel(r.Model), r.Text)
	}
	b.WriteString("Unified answer:")
	return b.String()
}

func (s *Summarizer) paramLabel(model string) string {
	if desc, ok := s.registry.ModelInfo(model); ok {
		return catalog.FormatParameters(desc.Parameters)
	}
	return "unknown size"
}

// footer renders the processing-details block: per model, the workers
// that ran it and their individual times, then aggregate totals.
func (s *Summarizer) footer(results []WorkerResult) string {
	byModel := make(map[string][]WorkerResult)
	var models []string
	for _, r := range results {
		if _, ok := byModel[r.Model]; !ok {
			models = append(models, r.Model)
		}
		byModel[r.Model] = append(byModel[r.Model], r)
	}
	sort.Strings(models)

	var total float64
	var b strings.Builder
	b.WriteString("\n\n--- Processing Details ---\n")
	for _, m := range models {
		parts := make([]string, 0, len(byModel[m]))
		for _, r := range byModel[m] {
			parts = append(parts, fmt.Sprintf("%s (%.1fs)", r.WorkerID, r.Seconds))
			total += r.Seconds
		}
		fmt.Fprintf(&b, "Model %s (%s): %s\n", m, s.paramLabel(m), strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Workers: %d | Total processing time: %.1fs | Average: %.1fs",
		len(results), total, total/float64(len(results)))
	return b.String()
}
