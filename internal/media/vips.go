package media

import (
	"fmt"
	"math"
	"sync"

	"media-inspector/internal/logging"
	"media-inspector/internal/metadata"
	"media-inspector/internal/workers"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library with an operation cache of at
// most maxCacheMem bytes (16 MiB when zero). Only the first call has effect.
func InitVips(maxCacheMem int) error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() so it follows our log level
	vipsLogLevel, logHandler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(logHandler, vipsLogLevel)

	if maxCacheMem <= 0 {
		maxCacheMem = 16 * 1024 * 1024
	}
	vips.Startup(&vips.Config{
		ConcurrencyLevel: workers.ForCPU(4),
		MaxCacheMem:      maxCacheMem,
		MaxCacheSize:     20,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelInfo:
		return vips.LogLevelWarning, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	case logging.LevelWarn:
		return vips.LogLevelError, func(domain string, l vips.LogLevel, msg string) {
			if l >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	default:
		return vips.LogLevelCritical, func(domain string, l vips.LogLevel, msg string) {
			if l >= vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	}
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// probeWithVips reads the header properties of path through libvips.
// libvips loads lazily, so no pixels are decoded here.
func probeWithVips(path string) (metadata.ImageInfo, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return metadata.ImageInfo{}, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if ref.Width() <= 0 || ref.Height() <= 0 {
		return metadata.ImageInfo{}, fmt.Errorf("vips reported no image properties")
	}

	bands := ref.Bands()
	colorMode := vipsColorMode(ref.Interpretation(), bands)
	depth := bands * vipsBandBits(ref.BandFormat())

	// libvips stores resolution in pixels per millimetre and defaults to 1.
	dpi := 0
	if res := ref.ResX(); res > 1 {
		dpi = int(math.Round(res * 25.4))
	}

	return metadata.ImageInfo{
		Width:     ref.Width(),
		Height:    ref.Height(),
		DPI:       dpi,
		ColorMode: colorMode,
		Depth:     depth,
	}, nil
}

func vipsColorMode(interp vips.Interpretation, bands int) string {
	switch interp {
	case vips.InterpretationBW, vips.InterpretationGrey16:
		if bands > 1 {
			return "GRAYA"
		}
		return "GRAY"
	case vips.InterpretationCMYK:
		return "CMYK"
	case vips.InterpretationSRGB, vips.InterpretationRGB, vips.InterpretationRGB16, vips.InterpretationScRGB:
		if bands > 3 {
			return "RGBA"
		}
		return "RGB"
	case vips.InterpretationLAB, vips.InterpretationLABS, vips.InterpretationLABQ:
		return "Lab"
	default:
		return ""
	}
}

func vipsBandBits(f vips.BandFormat) int {
	switch f {
	case vips.BandFormatUchar, vips.BandFormatChar:
		return 8
	case vips.BandFormatUshort, vips.BandFormatShort:
		return 16
	case vips.BandFormatUint, vips.BandFormatInt, vips.BandFormatFloat:
		return 32
	case vips.BandFormatDouble:
		return 64
	default:
		return 8
	}
}
