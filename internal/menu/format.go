package menu

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatInt groups thousands: 1920 -> "1,920".
func formatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatDecimal rounds to at most digits decimals and drops trailing zeros.
func formatDecimal(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	out := formatInt(n)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// aspectRatio reduces width:height. Ratios with a term above 30 are not
// worth showing. In approximate mode a dimension one pixel off a nicer
// ratio is rounded to it and marked with "~".
func aspectRatio(width, height int, approximate bool) (string, bool) {
	if width <= 0 || height <= 0 {
		return "", false
	}
	g := gcd(width, height)
	if g == 1 {
		return "", false
	}
	circa := false
	if approximate && g < 8 {
		best := 0
		for _, c := range []int{gcd(width+1, height), gcd(width-1, height), gcd(width, height+1), gcd(width, height-1)} {
			if c > best {
				best = c
			}
		}
		if best > g {
			g = best * gcd(width/best, height/best)
			circa = true
		}
	}
	w, h := width/g, height/g
	if w > 30 || h > 30 {
		return "", false
	}
	prefix := ""
	if circa {
		prefix = "~ "
	}
	return fmt.Sprintf("%s%d : %d", prefix, w, h), true
}

type resolution struct {
	name          string
	width, height int
}

// resolutions is searched in order; the first name wins for shared sizes.
var resolutions = []resolution{
	{"MCGA", 320, 200},
	{"QVGA", 320, 240},
	{"VGA", 640, 480},
	{"Super VGA", 800, 600},
	{"XGA", 1024, 768},
	{"SXGA", 1280, 1024},
	{"UXGA", 1600, 1200},
	{"Video CD", 352, 240},
	{"VHS", 333, 480},
	{"Betamax", 350, 480},
	{"Super Betamax", 420, 480},
	{"Betacam SP", 460, 480},
	{"Super VHS", 580, 480},
	{"Enhanced Definition Betamax", 700, 480},
	{"Digital8", 500, 480},
	{"NTSC DV", 720, 480},
	{"NTSC D1", 720, 486},
	{"NTSC D1 Square pixel", 720, 543},
	{"NTSC D1 Widescreen Square Pixel", 782, 486},
	{"EDTV (Enhanced Definition Television)", 854, 480},
	{"PAL D1/DV", 720, 576},
	{"PAL D1/DV Square pixel", 788, 576},
	{"PAL D1/DV Widescreen Square pixel", 1050, 576},
	{"HDV/HDTV 720", 1280, 720},
	{"HDTV 1080", 1440, 1080},
	{"DVCPRO HD 720", 960, 720},
	{"HDTV 1080 (FullHD)", 1920, 1080},
	{"2K Flat (1.85:1)", 1998, 1080},
	{"UHD 4K", 3840, 2160},
	{"UHD 8K", 7680, 4320},
	{"Cineon Half", 1828, 1332},
	{"Cineon Full", 3656, 2664},
	{"Film (2K)", 2048, 1556},
	{"Film (4K)", 4096, 3112},
	{"Digital Cinema (2K)", 2048, 1080},
	{"Digital Cinema (4K)", 4096, 2160},
	{"Digital Cinema (16K)", 15360, 8640},
	{"Digital Cinema (64K)", 61440, 34560},
}

// resolutionName names a standard resolution, in either orientation.
func resolutionName(width, height int) string {
	if height > width {
		width, height = height, width
	}
	for _, r := range resolutions {
		if r.width == width && r.height == height {
			return r.name
		}
	}
	return ""
}

// formatTime renders seconds as hh:mm:ss.
func formatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	t := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", t/3600, (t/60)%60, t%60)
}

var bitUnits = []string{"bps", "kbps", "Mbps", "Gbps", "Tbps"}

// formatBits renders a bit rate with a decimal unit. A value just above a
// unit boundary stays in the smaller unit: 1,200 kbps rather than 1 Mbps.
func formatBits(bits int64) string {
	b := float64(bits)
	i := 0
	for b > 1000 && i < len(bitUnits)-1 {
		b /= 1000
		i++
	}
	if i > 0 && b < 1.5 {
		i--
	}
	v := math.Round(float64(bits) / math.Pow(1000, float64(i)))
	return formatInt(int64(v)) + " " + bitUnits[i]
}

var byteUnits = []string{"kB", "MB", "GB", "TB", "PB"}

// formatBytes renders a file size with decimal units.
func formatBytes(n int64) string {
	if n < 1000 {
		if n == 1 {
			return "1 byte"
		}
		return formatInt(n) + " bytes"
	}
	v := float64(n) / 1000
	i := 0
	for v >= 1000 && i < len(byteUnits)-1 {
		v /= 1000
		i++
	}
	return formatDecimal(v, 1) + " " + byteUnits[i]
}

// formatCount picks the label for n; the result is filled when n > 0.
func formatCount(n int, none, single, many string) (string, bool) {
	switch {
	case n <= 0:
		return none, false
	case n == 1:
		return single, true
	default:
		return fmt.Sprintf(many, formatInt(int64(n))), true
	}
}

// languageName returns the English name of an ISO language code, or the
// code itself when it is not known.
func languageName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}

type printUnit struct {
	label string
	scale float64
}

var printUnits = map[string]printUnit{
	"cm": {"cm", 2.54},
	"mm": {"mm", 25.4},
	"in": {"inch", 1},
}
