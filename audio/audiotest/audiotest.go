// Package audiotest writes small audio fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const flacBlockSize = 4096

// Sine returns n samples of a sine at freq Hz and amplitude amp.
func Sine(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// WriteWAV encodes the given channels as a 16-bit PCM wav file at path,
// creating parent directories. One or two channels are supported.
func WriteWAV(t testing.TB, path string, sampleRate int, channels ...[]float64) {
	t.Helper()
	if len(channels) == 0 || len(channels) > 2 {
		t.Fatalf("WriteWAV: %d channels", len(channels))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) && pos < len(channels[0]) {
			l := channels[0][pos]
			r := l
			if len(channels) == 2 {
				r = channels[1][pos]
			}
			samples[n] = [2]float64{l, r}
			n++
			pos++
		}
		return n, n > 0
	})
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: len(channels),
		Precision:   2,
	}
	if err := wav.Encode(f, streamer, format); err != nil {
		t.Fatal(err)
	}
}

// WriteFLAC encodes the given channels as a 16-bit flac file at path with
// verbatim subframes, creating parent directories. One or two channels are
// supported and each needs at least 16 samples.
func WriteFLAC(t testing.TB, path string, sampleRate int, channels ...[]float64) {
	t.Helper()
	if len(channels) == 0 || len(channels) > 2 {
		t.Fatalf("WriteFLAC: %d channels", len(channels))
	}
	n := len(channels[0])
	if n < 16 {
		t.Fatalf("WriteFLAC: %d samples, need at least 16", n)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: 16,
		NSamples:      uint64(n),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		t.Fatal(err)
	}
	layout := frame.ChannelsMono
	if len(channels) == 2 {
		layout = frame.ChannelsLR
	}
	for start := 0; start < n; {
		end := start + flacBlockSize
		// a trailing block shorter than 16 samples is not encodable
		if end > n || n-end < 16 {
			end = n
		}
		subframes := make([]*frame.Subframe, len(channels))
		for i, ch := range channels {
			samples := make([]int32, end-start)
			for j := range samples {
				samples[j] = int32(math.Round(ch[start+j] * 32767))
			}
			subframes[i] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				NSamples:  len(samples),
				Samples:   samples,
			}
		}
		fr := &frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(end - start),
				SampleRate:    uint32(sampleRate),
				Channels:      layout,
				BitsPerSample: 16,
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(fr); err != nil {
			t.Fatal(err)
		}
		start = end
	}
	// Close rewrites the stream info and closes f.
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

// WriteGarbage writes bytes that no decoder accepts.
func WriteGarbage(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
}
