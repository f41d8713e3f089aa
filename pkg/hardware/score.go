// Package hardware evaluates the local host into the HardwareSpecs
// record a worker advertises at registration time, and derives the
// 0-100 performance score the assignment engine groups workers by.
package hardware

import (
	"math"
	"strings"
)

// GPUTier maps a set of case-insensitive substrings to the points that
// class of adapter contributes to the performance score.
type GPUTier struct {
	Points     float64
	Substrings []string
}

// GPULadder is the ordered lookup table behind the gpu term of Score.
// Tiers are evaluated top to bottom and the first matching substring
// wins, so newer generations must stay above the generic vendor rows.
var GPULadder = []GPUTier{
	{Points: 30, Substrings: []string{"a100", "h100", "rtx 40", "rtx 50"}},
	{Points: 28, Substrings: []string{"rtx 30", "v100", "a40", "apple m3"}},
	{Points: 25, Substrings: []string{"rtx 20", "gtx 16", "quadro", "apple m2", "rx 7", "rx 6"}},
	{Points: 22, Substrings: []string{"rtx", "apple m1"}},
	{Points: 20, Substrings: []string{"rx 5", "vega", "intel arc", "apple"}},
	{Points: 18, Substrings: []string{"gtx"}},
	{Points: 15, Substrings: []string{"geforce", "nvidia", "radeon", "amd"}},
	{Points: 12, Substrings: []string{"iris"}},
	{Points: 8, Substrings: []string{"intel"}},
}

// UnknownGPUPoints is scored when no ladder tier matches; the empty
// string always lands here.
const UnknownGPUPoints = 5.0

// GPUPoints resolves the ladder for one adapter string.
func GPUPoints(gpu string) float64 {
	s := strings.ToLower(gpu)
	for _, tier := range GPULadder {
		for _, sub := range tier.Substrings {
			if strings.Contains(s, sub) {
				return tier.Points
			}
		}
	}
	return UnknownGPUPoints
}

// Score derives the performance score from raw host attributes.
//
// Formula:
//   - cpu = min(20, cores*1.5) + min(20, freq_ghz*6)   (0-40)
//   - ram = min(30, ram_gb*1.5)                        (0-30)
//   - gpu = ladder lookup                              (0-30)
//
// The sum is clamped to [0, 100].
func Score(cores int, freqGHz, ramGB float64, gpu string) float64 {
	cpu := math.Min(20, float64(cores)*1.5) + math.Min(20, freqGHz*6)
	ram := math.Min(30, ramGB*1.5)
	total := cpu + ram + GPUPoints(gpu)
	return math.Max(0, math.Min(100, total))
}
