package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-inspector/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of MEMORY_LIMIT given to the Go heap.
	// The rest is left to libvips and ffprobe.
	DefaultMemoryRatio = 0.85

	// DefaultVipsCache is the libvips operation cache without a known limit.
	DefaultVipsCache = 16 << 20
	// MaxVipsCache caps the libvips operation cache.
	MaxVipsCache = 128 << 20
)

// Result describes the memory setup of the helper.
type Result struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string
	// ContainerLimit is MEMORY_LIMIT in bytes, 0 when unset.
	ContainerLimit int64
	// GoMemLimit is the soft heap limit in effect, 0 when none.
	GoMemLimit int64
	// Ratio is the share of ContainerLimit given to the heap.
	Ratio float64
	// VipsCache is the byte budget of the libvips operation cache.
	VipsCache int
}

// Configured reports whether a heap limit is in effect.
func (r Result) Configured() bool {
	return r.GoMemLimit > 0
}

// ConfigureFromEnv sets the Go soft memory limit and sizes the libvips
// cache. Call it before InitVips.
//
//   - GOMEMLIMIT, when set, is left alone and only reported
//   - MEMORY_LIMIT (bytes) sets the limit to MEMORY_RATIO of it
//   - MEMORY_RATIO defaults to DefaultMemoryRatio
func ConfigureFromEnv() Result {
	result := Result{Source: "none"}

	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		result.VipsCache = VipsCacheFor(result.GoMemLimit)
		return result
	}

	limitEnv := os.Getenv("MEMORY_LIMIT")
	if limitEnv == "" {
		logging.Debug("MEMORY_LIMIT not set, no heap limit configured")
		result.VipsCache = DefaultVipsCache
		return result
	}
	limit, err := strconv.ParseInt(limitEnv, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Invalid MEMORY_LIMIT %q, no heap limit configured", limitEnv)
		result.VipsCache = DefaultVipsCache
		return result
	}

	result.ContainerLimit = limit
	result.Ratio = ratioFromEnv()
	result.GoMemLimit = int64(float64(limit) * result.Ratio)
	result.Source = "MEMORY_LIMIT"
	result.VipsCache = VipsCacheFor(result.GoMemLimit)
	debug.SetMemoryLimit(result.GoMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s), vips cache %s",
		formatBytes(result.GoMemLimit), result.Ratio*100, formatBytes(limit), formatBytes(int64(result.VipsCache)))
	return result
}

func ratioFromEnv() float64 {
	env := os.Getenv("MEMORY_RATIO")
	if env == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(env, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("Invalid MEMORY_RATIO %q, using %.2f", env, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// VipsCacheFor returns the libvips cache budget for a heap limit: one
// thirty-second of it, between DefaultVipsCache and MaxVipsCache.
func VipsCacheFor(goMemLimit int64) int {
	if goMemLimit <= 0 {
		return DefaultVipsCache
	}
	n := goMemLimit / 32
	switch {
	case n < DefaultVipsCache:
		return DefaultVipsCache
	case n > MaxVipsCache:
		return MaxVipsCache
	}
	return int(n)
}

// formatBytes renders a byte count with binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
