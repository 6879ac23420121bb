// Package spectrogram computes decibel-scaled magnitude spectrograms.
//
// A mono sample buffer is cut into overlapping frames without centering
// padding, windowed with a periodic Hann window and transformed with an FFT.
// Magnitudes are converted to decibels relative to the loudest bin of the same
// recording, so every matrix peaks at exactly 0 dB. Matrices can be exported as
// half-float raw files next to the rendered images.
package spectrogram
