package spectrogram

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"github.com/neurlang/spectrobox/audio"
	"github.com/r9y9/gossp/stft"
	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultFFTSize is the analysis frame length in samples.
	DefaultFFTSize = 2048

	// Amin is the smallest magnitude considered when taking logarithms.
	Amin = 1e-5

	// TopDB is the dynamic range kept below the peak; quieter bins are clamped.
	TopDB = 80.0
)

// ErrDecode is returned for an empty sample buffer.
var ErrDecode = audio.ErrDecode

// ErrInvalidParameter is returned for unusable STFT parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

// Params holds the STFT parameters. Zero HopSize and WindowSize mean default.
type Params struct {
	FFTSize    int `yaml:"fft_size"`
	HopSize    int `yaml:"hop_size"`
	WindowSize int `yaml:"window_size"`
}

// NewParams returns the default parameters.
func NewParams() Params {
	return Params{FFTSize: DefaultFFTSize}
}

// Resolve fills in the defaults: WindowSize falls back to FFTSize and HopSize
// to WindowSize/4.
func (p Params) Resolve() (Params, error) {
	if p.FFTSize <= 0 {
		return p, fmt.Errorf("%w: fft size %d", ErrInvalidParameter, p.FFTSize)
	}
	if p.WindowSize == 0 {
		p.WindowSize = p.FFTSize
	}
	if p.WindowSize < 0 || p.WindowSize > p.FFTSize {
		return p, fmt.Errorf("%w: window size %d with fft size %d", ErrInvalidParameter, p.WindowSize, p.FFTSize)
	}
	if p.HopSize == 0 {
		p.HopSize = p.WindowSize / 4
	}
	if p.HopSize <= 0 {
		return p, fmt.Errorf("%w: hop size %d", ErrInvalidParameter, p.HopSize)
	}
	return p, nil
}

// Matrix is a spectrogram in decibels indexed [frequency bin][time frame].
type Matrix struct {
	Data       [][]float64
	SampleRate int
	Params     Params
}

// Bins returns the number of frequency bins.
func (m *Matrix) Bins() int {
	return len(m.Data)
}

// Frames returns the number of time frames.
func (m *Matrix) Frames() int {
	if len(m.Data) == 0 {
		return 0
	}
	return len(m.Data[0])
}

// BinFrequency returns the centre frequency of bin b in Hz.
func (m *Matrix) BinFrequency(b int) float64 {
	return float64(b) * float64(m.SampleRate) / float64(m.Params.FFTSize)
}

// FrameTime returns the start time of frame t in seconds.
func (m *Matrix) FrameTime(t int) float64 {
	return float64(t*m.Params.HopSize) / float64(m.SampleRate)
}

// Max returns the largest value in the matrix.
func (m *Matrix) Max() float64 {
	v := math.Inf(-1)
	for _, row := range m.Data {
		if len(row) > 0 {
			v = math.Max(v, floats.Max(row))
		}
	}
	return v
}

// Min returns the smallest value in the matrix.
func (m *Matrix) Min() float64 {
	v := math.Inf(1)
	for _, row := range m.Data {
		if len(row) > 0 {
			v = math.Min(v, floats.Min(row))
		}
	}
	return v
}

// Compute returns the dB spectrogram of samples.
func Compute(samples []float64, sampleRate int, p Params) (*Matrix, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrDecode)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, sampleRate)
	}
	p, err := p.Resolve()
	if err != nil {
		return nil, err
	}
	if len(samples) < p.FFTSize {
		return nil, fmt.Errorf("%w: %d samples is shorter than fft size %d", ErrInvalidParameter, len(samples), p.FFTSize)
	}

	data := magnitudes(samples, p)
	amplitudeToDB(data)

	return &Matrix{Data: data, SampleRate: sampleRate, Params: p}, nil
}

// magnitudes returns |STFT| as [bin][frame] for the non-negative frequencies.
// Frames start at sample 0 and step by the hop; a trailing partial frame is
// dropped.
func magnitudes(samples []float64, p Params) [][]float64 {
	s := stft.New(p.HopSize, p.FFTSize)
	s.Window = analysisWindow(p.WindowSize, p.FFTSize)

	spectrum := s.STFT(samples)

	bins := s.FrameLen/2 + 1
	data := make([][]float64, bins)
	for j := range data {
		data[j] = make([]float64, len(spectrum))
	}
	for i := range spectrum {
		for j := 0; j < bins; j++ {
			data[j][i] = cmplx.Abs(spectrum[i][j])
		}
	}
	return data
}

// analysisWindow returns a periodic Hann window of length size, centred in a
// frame of length frame with zeros on both sides.
func analysisWindow(size, frame int) []float64 {
	hann := window.Hann(size + 1)[:size]
	if size == frame {
		return hann
	}
	out := make([]float64, frame)
	copy(out[(frame-size)/2:], hann)
	return out
}

// amplitudeToDB converts magnitudes in place to dB relative to their maximum.
func amplitudeToDB(data [][]float64) {
	peak := 0.0
	for _, row := range data {
		peak = math.Max(peak, floats.Max(row))
	}
	ref := 20 * math.Log10(math.Max(Amin, peak))
	floor := -TopDB
	for _, row := range data {
		for i, v := range row {
			db := 20*math.Log10(math.Max(Amin, v)) - ref
			if db < floor {
				db = floor
			}
			row[i] = db
		}
	}
}
