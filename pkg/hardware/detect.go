package hardware

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

// Stable fallbacks for attributes the host refuses to report. Workers
// with undetectable hardware must still land on a deterministic score.
const (
	FallbackCores   = 4
	FallbackFreqGHz = 2.5
	FallbackRAMGB   = 8.0
	FallbackGPU     = "Unknown GPU"
	FallbackScore   = 50.0
)

// Detect assembles the registration record for the local host. Every
// attribute degrades independently to its fallback, so a partially
// undetectable host still registers with a usable record.
func Detect(ctx context.Context) *lbv1.HardwareSpecs {
	specs := &lbv1.HardwareSpecs{
		CPUCores:        FallbackCores,
		CPUFrequencyGHz: FallbackFreqGHz,
		RAMGB:           FallbackRAMGB,
		GPUInfo:         FallbackGPU,
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		specs.CPUCores = int32(n)
	} else {
		log.Warn().Err(err).Msg("⚠️  CPU core detection failed, using fallback")
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].Mhz > 0 {
		specs.CPUFrequencyGHz = round2(infos[0].Mhz / 1000)
	} else {
		log.Warn().Err(err).Msg("⚠️  CPU frequency detection failed, using fallback")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		specs.RAMGB = round2(float64(vm.Total) / (1 << 30))
	} else {
		log.Warn().Err(err).Msg("⚠️  RAM detection failed, using fallback")
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		specs.OSInfo = strings.TrimSpace(fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion))
	} else {
		specs.OSInfo = runtime.GOOS
	}

	if gpu, vramGB := detectGPU(ctx); gpu != "" {
		specs.GPUInfo = gpu
		specs.GPUMemoryGB = vramGB
	} else {
		log.Warn().Msg("⚠️  GPU detection failed, using fallback")
	}

	specs.PerformanceScore = Score(int(specs.CPUCores), specs.CPUFrequencyGHz, specs.RAMGB, specs.GPUInfo)
	return specs
}

// FallbackSpecs is the record used when evaluation is impossible, for
// example when a registration arrives with no specs at all. Its score
// is fixed so downstream grouping stays deterministic.
func FallbackSpecs() *lbv1.HardwareSpecs {
	return &lbv1.HardwareSpecs{
		CPUCores:         FallbackCores,
		CPUFrequencyGHz:  FallbackFreqGHz,
		RAMGB:            FallbackRAMGB,
		GPUInfo:          FallbackGPU,
		OSInfo:           runtime.GOOS,
		PerformanceScore: FallbackScore,
	}
}

// detectGPU shells out to the platform's GPU inventory tool. Returns
// ("", 0) when no adapter can be identified.
func detectGPU(ctx context.Context) (string, float64) {
	switch runtime.GOOS {
	case "linux":
		if name, vram, ok := queryNvidiaSMI(ctx); ok {
			return name, vram
		}
		if out, err := exec.CommandContext(ctx, "sh", "-c", "lspci | grep -i 'vga\\|3d controller'").Output(); err == nil {
			if name := parseLspciVGA(string(out)); name != "" {
				return name, 0
			}
		}
	case "darwin":
		if out, err := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType").Output(); err == nil {
			if name := parseSystemProfiler(string(out)); name != "" {
				return name, 0
			}
		}
	case "windows":
		if name, vram, ok := queryNvidiaSMI(ctx); ok {
			return name, vram
		}
		if out, err := exec.CommandContext(ctx, "wmic", "path", "win32_VideoController", "get", "name").Output(); err == nil {
			if name := parseWmic(string(out)); name != "" {
				return name, 0
			}
		}
	}
	return "", 0
}

func queryNvidiaSMI(ctx context.Context) (string, float64, bool) {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return "", 0, false
	}
	return parseNvidiaSMI(string(out))
}

// parseNvidiaSMI reads "NVIDIA GeForce RTX 3080, 10240" style lines;
// memory is reported in MiB.
func parseNvidiaSMI(out string) (string, float64, bool) {
	line := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if line == "" {
		return "", 0, false
	}
	name := line
	var vramGB float64
	if i := strings.LastIndex(line, ","); i >= 0 {
		name = strings.TrimSpace(line[:i])
		if mib, err := strconv.ParseFloat(strings.TrimSpace(line[i+1:]), 64); err == nil {
			vramGB = round2(mib / 1024)
		}
	}
	if name == "" {
		return "", 0, false
	}
	return name, vramGB, true
}

// parseLspciVGA extracts the device description after the class column:
// "01:00.0 VGA compatible controller: NVIDIA Corporation GA104 [GeForce RTX 3070]".
func parseLspciVGA(out string) string {
	line := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if i := strings.Index(line, ": "); i >= 0 {
		return strings.TrimSpace(line[i+2:])
	}
	return line
}

// parseSystemProfiler finds the "Chipset Model:" line.
func parseSystemProfiler(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Chipset Model:"); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

// parseWmic skips the "Name" header and blank lines.
func parseWmic(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "Name") {
			continue
		}
		return line
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
