// Command spectrobox converts every audio file (.mp3, .flac, .wav) below a
// directory into a spectrogram PNG.
//
// The images mirror the source tree under the destination directory, one
// <file name>.png per recording. Files whose image already exists are
// skipped, so an interrupted batch can simply be run again.
//
// Usage:
//
//	spectrobox [-d destination] [-w workers] [-config file.yaml] [-raw] [-progress] <source>
//
// The destination defaults to Spectrogrambox_result next to the source
// directory. A worker count of 0 uses every CPU; other values are clamped to
// the CPU count.
package main
