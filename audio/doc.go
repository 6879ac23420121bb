// Package audio classifies and decodes audio recordings.
//
// It decides which files of a corpus are audio by extension and decodes them
// into per-channel float64 sample buffers:
//   - WAV and MP3 through beep stream decoders
//   - FLAC through a direct frame parser
//   - Samples normalized to [-1, 1], mono files yield a single channel
package audio
