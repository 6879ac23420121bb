// Package batch turns audio files into spectrogram images in parallel.
//
// Each Task maps one source file to one PNG under the destination root. An
// existing PNG means the task is done, so rerunning a batch only processes
// what is missing. A failing file never stops the rest of the batch.
package batch
