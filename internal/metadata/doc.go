// Package metadata defines the normalized records that every decoder and
// container adapter output is mapped into.
//
// Image decoders produce an ImageInfo. Audio/video adapters produce a
// Streams list, an ordered sequence of StreamInfo values in the container's
// native stream order. StreamInfo is a closed set of variants:
//
//	VideoStream      // width, height, duration, codec, ratio, lang, bit rate, frames
//	AudioStream      // duration, codec, lang, bit rate
//	SubtitleStream   // title, lang
//	AttachmentStream // no fields
//
// Consumers switch on the concrete type:
//
//	for _, s := range info.Streams {
//	    switch v := s.(type) {
//	    case metadata.VideoStream:
//	        // v.Width, v.Height ...
//	    case metadata.AudioStream:
//	        // v.Codec ...
//	    }
//	}
//
// Fields missing from the source are left empty or zero. An empty string or
// a zero duration means "unknown", never "absent stream".
//
// Records cross the helper process boundary as JSON. Streams carry a "type"
// discriminator so a list decodes back into the same variants.
package metadata
