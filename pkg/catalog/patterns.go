package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// family is one row of the parse table: a pattern that extracts a
// parameter count from a model identifier, plus whether that family
// accepts image input. Rows are tried in order and the first match
// wins, so more specific tags (llama3.2 before llama3, vision variants
// before their text siblings) stay on top. New families are added here,
// not in code.
type family struct {
	pattern *regexp.Regexp
	vision  bool
	extract func(groups []string) int64
}

// timesBillion reads a single captured size tag ("3", "0.5") as
// billions of parameters.
func timesBillion(groups []string) int64 {
	f, _ := strconv.ParseFloat(groups[1], 64)
	return int64(f * 1e9)
}

// expertsTimesBillion handles mixture-of-experts tags like "8x7b".
func expertsTimesBillion(groups []string) int64 {
	experts, _ := strconv.ParseInt(groups[1], 10, 64)
	size, _ := strconv.ParseInt(groups[2], 10, 64)
	return experts * size * 1e9
}

var families = []family{
	{pattern: regexp.MustCompile(`llama3\.2-vision:(\d+(?:\.\d+)?)b`), vision: true, extract: timesBillion},
	{pattern: regexp.MustCompile(`llama3\.2:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`llama3\.1:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`llama3:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`llama2:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`mixtral:(\d+)x(\d+)b`), extract: expertsTimesBillion},
	{pattern: regexp.MustCompile(`mistral:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`codellama:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`gemma3:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`gemma2:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`gemma:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`phi3:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`qwen2:(\d+(?:\.\d+)?)b`), extract: timesBillion},
	{pattern: regexp.MustCompile(`llava:(\d+(?:\.\d+)?)b`), vision: true, extract: timesBillion},
	{pattern: regexp.MustCompile(`moondream:(\d+(?:\.\d+)?)b`), vision: true, extract: timesBillion},
	{pattern: regexp.MustCompile(`minicpm-v:(\d+(?:\.\d+)?)b`), vision: true, extract: timesBillion},
	// Last resort: the first "<N>b" size tag anywhere in the identifier.
	{pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)b`), extract: timesBillion},
}

// visionHints marks identifiers as image-capable even when the family
// row does not, e.g. custom tags of multimodal builds.
var visionHints = []string{"vision", "llava", "moondream", "minicpm-v"}

// parseParams extracts a parameter count and vision capability from a
// model identifier. ok is false when no pattern matches.
func parseParams(name string) (params int64, vision bool, ok bool) {
	lower := strings.ToLower(name)
	for _, f := range families {
		groups := f.pattern.FindStringSubmatch(lower)
		if groups == nil {
			continue
		}
		vision = f.vision
		if !vision {
			for _, hint := range visionHints {
				if strings.Contains(lower, hint) {
					vision = true
					break
				}
			}
		}
		return f.extract(groups), vision, true
	}
	return 0, false, false
}
