package metadata

import (
	"encoding/json"
	"fmt"
)

// StreamType is the variant tag of a StreamInfo.
type StreamType string

const (
	// StreamVideo tags a VideoStream.
	StreamVideo StreamType = "video"
	// StreamAudio tags an AudioStream.
	StreamAudio StreamType = "audio"
	// StreamSubtitle tags a SubtitleStream.
	StreamSubtitle StreamType = "subtitle"
	// StreamAttachment tags an AttachmentStream.
	StreamAttachment StreamType = "attachment"
)

// StreamInfo is one elementary stream of a container. The set of
// implementations is closed to this package.
type StreamInfo interface {
	Kind() StreamType
	isStream()
}

// VideoStream describes a video track.
type VideoStream struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   float64 `json:"duration"`
	Codec      string  `json:"codec"`
	Ratio      string  `json:"ratio,omitempty"`
	Lang       string  `json:"lang,omitempty"`
	BitRate    int64   `json:"bitRate"`
	FrameCount int     `json:"frameCount"`
}

// AudioStream describes an audio track.
type AudioStream struct {
	Duration float64 `json:"duration"`
	Codec    string  `json:"codec"`
	Lang     string  `json:"lang,omitempty"`
	BitRate  int64   `json:"bitRate"`
}

// SubtitleStream describes a subtitle track.
type SubtitleStream struct {
	Title string `json:"title,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

// AttachmentStream is an opaque attached payload (fonts, cover art).
type AttachmentStream struct{}

func (VideoStream) Kind() StreamType      { return StreamVideo }
func (AudioStream) Kind() StreamType      { return StreamAudio }
func (SubtitleStream) Kind() StreamType   { return StreamSubtitle }
func (AttachmentStream) Kind() StreamType { return StreamAttachment }

func (VideoStream) isStream()      {}
func (AudioStream) isStream()      {}
func (SubtitleStream) isStream()   {}
func (AttachmentStream) isStream() {}

// Streams is an ordered stream list.
type Streams []StreamInfo

// Video returns the video streams in order.
func (s Streams) Video() []VideoStream {
	var out []VideoStream
	for _, st := range s {
		if v, ok := st.(VideoStream); ok {
			out = append(out, v)
		}
	}
	return out
}

// Audio returns the audio streams in order.
func (s Streams) Audio() []AudioStream {
	var out []AudioStream
	for _, st := range s {
		if a, ok := st.(AudioStream); ok {
			out = append(out, a)
		}
	}
	return out
}

// Subtitles returns the subtitle streams in order.
func (s Streams) Subtitles() []SubtitleStream {
	var out []SubtitleStream
	for _, st := range s {
		if t, ok := st.(SubtitleStream); ok {
			out = append(out, t)
		}
	}
	return out
}

// Languages returns the distinct non-empty language codes of the audio and
// video streams, in first-seen order.
func (s Streams) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(lang string) {
		if lang == "" || seen[lang] {
			return
		}
		seen[lang] = true
		out = append(out, lang)
	}
	for _, st := range s {
		switch v := st.(type) {
		case VideoStream:
			add(v.Lang)
		case AudioStream:
			add(v.Lang)
		}
	}
	return out
}

type taggedVideo struct {
	Type StreamType `json:"type"`
	VideoStream
}

type taggedAudio struct {
	Type StreamType `json:"type"`
	AudioStream
}

type taggedSubtitle struct {
	Type StreamType `json:"type"`
	SubtitleStream
}

type taggedAttachment struct {
	Type StreamType `json:"type"`
}

// MarshalJSON writes the list as an array of objects tagged by "type".
func (s Streams) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, 0, len(s))
	for _, st := range s {
		switch v := st.(type) {
		case VideoStream:
			out = append(out, taggedVideo{StreamVideo, v})
		case AudioStream:
			out = append(out, taggedAudio{StreamAudio, v})
		case SubtitleStream:
			out = append(out, taggedSubtitle{StreamSubtitle, v})
		case AttachmentStream:
			out = append(out, taggedAttachment{StreamAttachment})
		default:
			return nil, fmt.Errorf("unsupported stream type %T", st)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the variants from their "type" tags.
func (s *Streams) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Streams, 0, len(raw))
	for i, r := range raw {
		var head struct {
			Type StreamType `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return fmt.Errorf("stream %d: %w", i, err)
		}
		switch head.Type {
		case StreamVideo:
			var v VideoStream
			if err := json.Unmarshal(r, &v); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			out = append(out, v)
		case StreamAudio:
			var a AudioStream
			if err := json.Unmarshal(r, &a); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			out = append(out, a)
		case StreamSubtitle:
			var t SubtitleStream
			if err := json.Unmarshal(r, &t); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			out = append(out, t)
		case StreamAttachment:
			out = append(out, AttachmentStream{})
		default:
			return fmt.Errorf("stream %d: unknown type %q", i, head.Type)
		}
	}
	*s = out
	return nil
}
