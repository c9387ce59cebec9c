// Package ffprobe implements container.Demuxer on top of the ffprobe
// command line tool.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"media-inspector/internal/container"
)

// DefaultBinary is looked up in PATH.
const DefaultBinary = "ffprobe"

// waitDelay bounds how long Wait blocks on I/O after the process is killed.
const waitDelay = 2 * time.Second

// ErrNoStreams is returned by FindStreamInfo when ffprobe reported no
// streams.
var ErrNoStreams = errors.New("ffprobe: no streams")

// Demuxer runs ffprobe for each opened file.
type Demuxer struct {
	Binary string
}

// New returns a Demuxer using binary, or DefaultBinary when empty.
func New(binary string) *Demuxer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Demuxer{Binary: binary}
}

// Available reports whether the ffprobe binary can be found.
func (d *Demuxer) Available() bool {
	_, err := exec.LookPath(d.Binary)
	return err == nil
}

// Open starts ffprobe on path. The process runs until FindStreamInfo has read
// its output or Close kills it.
func (d *Demuxer) Open(ctx context.Context, path string) (container.FormatContext, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, d.Binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_error",
		inputURL(path),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffprobe stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffprobe start: %w", err)
	}

	return &formatContext{cmd: cmd, stdout: stdout, stderr: &stderr, cancel: cancel}, nil
}

type formatContext struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc

	waitOnce sync.Once
	waitErr  error

	streams  []container.StreamDesc
	duration int64
	bitRate  int64
	tags     map[string]string
}

func (fc *formatContext) wait() error {
	fc.waitOnce.Do(func() {
		fc.waitErr = fc.cmd.Wait()
	})
	return fc.waitErr
}

func (fc *formatContext) FindStreamInfo(ctx context.Context) error {
	var res result
	decodeErr := json.NewDecoder(fc.stdout).Decode(&res)
	// Drain so ffprobe can exit even if the JSON was followed by noise.
	_, _ = io.Copy(io.Discard, fc.stdout)

	if err := fc.wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if res.Error.Code != 0 {
			return fmt.Errorf("ffprobe error %d: %s", res.Error.Code, res.Error.Message)
		}
		return fmt.Errorf("ffprobe error: %w - %s", err, strings.TrimSpace(fc.stderr.String()))
	}
	if decodeErr != nil {
		return fmt.Errorf("ffprobe output: %w", decodeErr)
	}
	if len(res.Streams) == 0 {
		return ErrNoStreams
	}

	fc.duration = parseTicks(res.Format.Duration, container.NoPTS)
	fc.bitRate, _ = strconv.ParseInt(res.Format.BitRate, 10, 64)
	fc.tags = res.Format.Tags
	fc.streams = make([]container.StreamDesc, 0, len(res.Streams))
	for _, s := range res.Streams {
		fc.streams = append(fc.streams, s.desc())
	}
	return nil
}

func (fc *formatContext) Streams() []container.StreamDesc { return fc.streams }
func (fc *formatContext) Duration() int64                 { return fc.duration }
func (fc *formatContext) BitRate() int64                  { return fc.bitRate }

func (fc *formatContext) Tags() map[string]string {
	if fc.tags == nil {
		return map[string]string{}
	}
	return fc.tags
}

// Close kills ffprobe if it is still running and reaps it.
func (fc *formatContext) Close() error {
	fc.cancel()
	_ = fc.wait()
	return nil
}

type result struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
	Error   struct {
		Code    int    `json:"code"`
		Message string `json:"string"`
	} `json:"error"`
}

type format struct {
	Duration string            `json:"duration"`
	BitRate  string            `json:"bit_rate"`
	Tags     map[string]string `json:"tags"`
}

type stream struct {
	Index             int               `json:"index"`
	CodecName         string            `json:"codec_name"`
	CodecType         string            `json:"codec_type"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	SampleAspectRatio string            `json:"sample_aspect_ratio"`
	AvgFrameRate      string            `json:"avg_frame_rate"`
	Duration          string            `json:"duration"`
	NbFrames          string            `json:"nb_frames"`
	Tags              map[string]string `json:"tags"`
}

func (s stream) desc() container.StreamDesc {
	d := container.StreamDesc{
		Index:             s.Index,
		Kind:              mapCodecType(s.CodecType),
		CodecName:         s.CodecName,
		Width:             s.Width,
		Height:            s.Height,
		SampleAspectRatio: parseRational(s.SampleAspectRatio, ':'),
		AvgFrameRate:      parseRational(s.AvgFrameRate, '/'),
		Duration:          parseTicks(s.Duration, container.NoPTS),
		Tags:              s.Tags,
	}
	d.FrameCount, _ = strconv.ParseInt(s.NbFrames, 10, 64)
	if d.Tags == nil {
		d.Tags = map[string]string{}
	}
	return d
}

// inputURL keeps ffprobe from reading path as an option or as a protocol
// URL. Relative paths are made absolute; "file:" pins the file protocol.
func inputURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file:" + path
}

func mapCodecType(t string) container.MediaKind {
	switch t {
	case "video":
		return container.KindVideo
	case "audio":
		return container.KindAudio
	case "subtitle":
		return container.KindSubtitle
	case "attachment":
		return container.KindAttachment
	default:
		return container.KindData
	}
}

// parseTicks converts a seconds string ("10.500000") to TimeBase ticks.
func parseTicks(s string, fallback int64) int64 {
	if s == "" || s == "N/A" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	ticks := math.Round(f * container.TimeBase)
	// float64(math.MaxInt64) rounds up to 2^63, and MinInt64 is NoPTS.
	if ticks >= math.MaxInt64 || ticks <= math.MinInt64 {
		return fallback
	}
	return int64(ticks)
}

func parseRational(s string, sep byte) container.Rational {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return container.Rational{}
	}
	num, err1 := strconv.Atoi(s[:i])
	den, err2 := strconv.Atoi(s[i+1:])
	if err1 != nil || err2 != nil {
		return container.Rational{}
	}
	return container.Rational{Num: num, Den: den}
}
