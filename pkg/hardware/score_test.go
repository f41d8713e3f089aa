package hardware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreFormula(t *testing.T) {
	// 8 cores -> 12, 3.0 GHz -> 18, 16 GB -> 24, RTX 3080 -> 28.
	require.InDelta(t, 82.0, Score(8, 3.0, 16, "NVIDIA GeForce RTX 3080"), 1e-9)

	// 4 cores -> 6, 2.5 GHz -> 15, 8 GB -> 12, unknown -> 5.
	require.InDelta(t, 38.0, Score(4, 2.5, 8, "Matrox G200"), 1e-9)
}

func TestScoreCapsEachTerm(t *testing.T) {
	// 64 cores caps at 20, 5 GHz caps at 20, 256 GB caps at 30, H100 -> 30.
	require.InDelta(t, 100.0, Score(64, 5.0, 256, "NVIDIA H100"), 1e-9)
}

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		cores int
		freq  float64
		ram   float64
		gpu   string
	}{
		{0, 0, 0, ""},
		{1, 0.1, 0.5, "something"},
		{128, 6.0, 1024, "NVIDIA A100"},
		{-4, -1, -8, ""}, // hostile input still clamps
	}
	for _, c := range cases {
		s := Score(c.cores, c.freq, c.ram, c.gpu)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 100.0)
	}
}

func TestEmptyGPUScoresUnknownTier(t *testing.T) {
	// cpu = 6 + 15 = 21, ram = 12, gpu = 5.
	require.InDelta(t, 21+12+UnknownGPUPoints, Score(4, 2.5, 8, ""), 1e-9)
}

func TestGPULadder(t *testing.T) {
	cases := []struct {
		gpu    string
		points float64
	}{
		{"NVIDIA GeForce RTX 4090", 30},
		{"NVIDIA A100-SXM4-80GB", 30},
		{"NVIDIA H100 PCIe", 30},
		{"NVIDIA GeForce RTX 3070", 28},
		{"Tesla V100-PCIE-16GB", 28},
		{"Apple M3 Pro", 28},
		{"NVIDIA GeForce RTX 2060", 25},
		{"NVIDIA GeForce GTX 1660 Ti", 25},
		{"Quadro P4000", 25},
		{"Apple M2", 25},
		{"AMD Radeon RX 7900 XT", 25},
		{"AMD Radeon RX 6800", 25},
		{"NVIDIA RTX A2000", 22},
		{"Apple M1", 22},
		{"AMD Radeon RX 5700", 20},
		{"Radeon Vega 8", 20},
		{"Intel Arc A770", 20},
		{"NVIDIA GeForce GTX 1080", 18},
		{"NVIDIA GeForce MX150", 15},
		{"AMD Radeon Graphics", 15},
		{"Intel Iris Xe Graphics", 12},
		{"Intel UHD Graphics 630", 8},
		{"Unknown GPU", UnknownGPUPoints},
		{"", UnknownGPUPoints},
	}
	for _, c := range cases {
		require.InDelta(t, c.points, GPUPoints(c.gpu), 1e-9, "gpu %q", c.gpu)
	}
}

func TestGPULadderIsCaseInsensitive(t *testing.T) {
	require.Equal(t, GPUPoints("nvidia geforce rtx 4090"), GPUPoints("NVIDIA GEFORCE RTX 4090"))
}

func TestFallbackSpecsAreStable(t *testing.T) {
	a, b := FallbackSpecs(), FallbackSpecs()
	require.Equal(t, a, b)
	require.InDelta(t, FallbackScore, a.PerformanceScore, 1e-9)
}

func TestParseNvidiaSMI(t *testing.T) {
	name, vram, ok := parseNvidiaSMI("NVIDIA GeForce RTX 3080, 10240\n")
	require.True(t, ok)
	require.Equal(t, "NVIDIA GeForce RTX 3080", name)
	require.InDelta(t, 10.0, vram, 1e-9)

	_, _, ok = parseNvidiaSMI("\n")
	require.False(t, ok)
}

func TestParseLspciVGA(t *testing.T) {
	out := "01:00.0 VGA compatible controller: NVIDIA Corporation GA104 [GeForce RTX 3070] (rev a1)\n"
	require.Equal(t, "NVIDIA Corporation GA104 [GeForce RTX 3070] (rev a1)", parseLspciVGA(out))
}

func TestParseSystemProfiler(t *testing.T) {
	out := "Graphics/Displays:\n\n    Apple M3 Pro:\n\n      Chipset Model: Apple M3 Pro\n      Type: GPU\n"
	require.Equal(t, "Apple M3 Pro", parseSystemProfiler(out))
}

func TestParseWmic(t *testing.T) {
	out := "Name\r\nNVIDIA GeForce RTX 3060\r\n\r\n"
	require.Equal(t, "NVIDIA GeForce RTX 3060", parseWmic(out))
}
