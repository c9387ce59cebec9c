// Package container reads the elementary stream layout of audio and video
// files and normalizes it into metadata.Streams.
//
// Two adapters implement Adapter:
//
//   - DemuxAdapter works on a demuxer's view of the file (one StreamDesc per
//     elementary stream, microsecond time base). The ffprobe package provides
//     the Demuxer used in production.
//   - AssetAdapter works on a track-level Asset. OpenMP4 provides a pure Go
//     ISO-BMFF reader.
//
// Callers only depend on Adapter, so engines can be reordered or swapped in
// configuration. Adapters never return errors: a file that cannot be opened
// or probed yields an empty stream list.
package container
