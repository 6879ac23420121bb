package spectrogram

import (
	"bytes"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/neurlang/spectrobox/audio/audiotest"
	"gonum.org/v1/gonum/dsp/fourier"
)

func TestResolveDefaults(t *testing.T) {
	tests := []struct {
		in   Params
		want Params
	}{
		{Params{FFTSize: 2048}, Params{FFTSize: 2048, HopSize: 512, WindowSize: 2048}},
		{Params{FFTSize: 1024, WindowSize: 512}, Params{FFTSize: 1024, HopSize: 128, WindowSize: 512}},
		{Params{FFTSize: 1024, HopSize: 100}, Params{FFTSize: 1024, HopSize: 100, WindowSize: 1024}},
		{NewParams(), Params{FFTSize: 2048, HopSize: 512, WindowSize: 2048}},
	}
	for _, tt := range tests {
		got, err := tt.in.Resolve()
		if err != nil {
			t.Fatalf("Resolve(%+v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, p := range []Params{
		{FFTSize: 0},
		{FFTSize: -8},
		{FFTSize: 8, HopSize: -1},
		{FFTSize: 8, WindowSize: 3},
		{FFTSize: 8, WindowSize: 16},
		{FFTSize: 8, WindowSize: -2},
		{FFTSize: 2},
	} {
		if _, err := p.Resolve(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Resolve(%+v) error = %v, want ErrInvalidParameter", p, err)
		}
	}
}

func TestComputeShape(t *testing.T) {
	samples := audiotest.Sine(44100, 44100, 440, 0.8)
	m, err := Compute(samples, 44100, NewParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if m.Params.WindowSize != 2048 || m.Params.HopSize != 512 {
		t.Errorf("resolved params = %+v, want window 2048 hop 512", m.Params)
	}
	wantFrames := (len(samples)-2048)/512 + 1
	if m.Frames() != wantFrames {
		t.Errorf("Frames = %d, want %d", m.Frames(), wantFrames)
	}
	if m.Bins() != 1025 {
		t.Errorf("Bins = %d, want 1025", m.Bins())
	}
	if got := m.BinFrequency(1024); got != 22050 {
		t.Errorf("BinFrequency(1024) = %v, want 22050", got)
	}
	if got := m.FrameTime(2); math.Abs(got-1024.0/44100) > 1e-12 {
		t.Errorf("FrameTime(2) = %v", got)
	}
}

func TestComputeFrameCountExact(t *testing.T) {
	p := Params{FFTSize: 64}
	for _, n := range []int{64, 65, 79, 80, 81, 1000} {
		m, err := Compute(audiotest.Sine(n, 8000, 500, 0.5), 8000, p)
		if err != nil {
			t.Fatalf("Compute(n=%d): %v", n, err)
		}
		if want := (n-64)/16 + 1; m.Frames() != want {
			t.Errorf("n=%d: Frames = %d, want %d", n, m.Frames(), want)
		}
	}
}

func TestComputePeakIsZeroDB(t *testing.T) {
	samples := audiotest.Sine(8000, 8000, 1000, 0.3)
	m, err := Compute(samples, 8000, Params{FFTSize: 256})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Max(); got != 0 {
		t.Errorf("Max = %v, want exactly 0", got)
	}
	if got := m.Min(); got < -TopDB {
		t.Errorf("Min = %v, want >= %v", got, -TopDB)
	}

	// 1000 Hz at 8000 Hz sample rate lands on bin 32 of a 256 point FFT.
	mid := m.Frames() / 2
	best := 0
	for b := range m.Data {
		if m.Data[b][mid] > m.Data[best][mid] {
			best = b
		}
	}
	if best != 32 {
		t.Errorf("loudest bin = %d, want 32", best)
	}
}

func TestComputeReferenceIsPerRecording(t *testing.T) {
	loud := audiotest.Sine(4000, 8000, 440, 0.9)
	quiet := make([]float64, len(loud))
	for i, v := range loud {
		quiet[i] = v * 0.1
	}
	p := Params{FFTSize: 256}
	a, err := Compute(loud, 8000, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(quiet, 8000, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Data {
		for j := range a.Data[i] {
			if math.Abs(a.Data[i][j]-b.Data[i][j]) > 1e-6 {
				t.Fatalf("bin %d frame %d: %v vs %v", i, j, a.Data[i][j], b.Data[i][j])
			}
		}
	}
}

func TestComputeSilence(t *testing.T) {
	m, err := Compute(make([]float64, 512), 8000, Params{FFTSize: 128})
	if err != nil {
		t.Fatal(err)
	}
	if m.Max() != 0 || m.Min() != 0 {
		t.Errorf("silence range = [%v, %v], want all 0", m.Min(), m.Max())
	}
}

func TestComputeErrors(t *testing.T) {
	if _, err := Compute(nil, 44100, NewParams()); !errors.Is(err, ErrDecode) {
		t.Errorf("empty samples: %v, want ErrDecode", err)
	}
	if _, err := Compute(make([]float64, 100), 44100, NewParams()); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("short signal: %v, want ErrInvalidParameter", err)
	}
	if _, err := Compute(make([]float64, 4096), 0, NewParams()); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero sample rate: %v, want ErrInvalidParameter", err)
	}
	if _, err := Compute(make([]float64, 4096), 44100, Params{FFTSize: 2048, HopSize: -4}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative hop: %v, want ErrInvalidParameter", err)
	}
}

func TestAnalysisWindow(t *testing.T) {
	got := analysisWindow(4, 8)
	want := []float64{0, 0, 0, 0.5, 1, 0.5, 0, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("analysisWindow(4, 8) = %v, want %v", got, want)
		}
	}
	if w := analysisWindow(16, 16); len(w) != 16 || w[0] != 0 || math.Abs(w[8]-1) > 1e-12 {
		t.Errorf("analysisWindow(16, 16) = %v", w)
	}
}

// The framing and FFT must agree with an independent real FFT of the same
// windowed frame, for full length and zero padded windows.
func TestMagnitudesMatchReferenceFFT(t *testing.T) {
	samples := audiotest.Sine(1000, 8000, 700, 0.6)
	for i := range samples {
		samples[i] += 0.1 * math.Cos(float64(i)*0.37)
	}
	tests := []Params{
		{FFTSize: 128, HopSize: 32},
		{FFTSize: 256, WindowSize: 200},
	}
	for _, in := range tests {
		p, err := in.Resolve()
		if err != nil {
			t.Fatal(err)
		}
		n := p.FFTSize
		mags := magnitudes(samples, p)
		if want := (len(samples)-n)/p.HopSize + 1; len(mags[0]) != want {
			t.Fatalf("%+v: %d frames, want %d", p, len(mags[0]), want)
		}

		win := analysisWindow(p.WindowSize, n)
		fft := fourier.NewFFT(n)
		buf := make([]float64, n)
		for _, frame := range []int{0, 3, len(mags[0]) - 1} {
			for k := range buf {
				buf[k] = samples[frame*p.HopSize+k] * win[k]
			}
			coeff := fft.Coefficients(nil, buf)
			for b := range mags {
				want := cmplx.Abs(coeff[b])
				if math.Abs(mags[b][frame]-want) > 1e-9*math.Max(1, want) {
					t.Fatalf("%+v: frame %d bin %d: %v, want %v", p, frame, b, mags[b][frame], want)
				}
			}
		}
	}
}

func TestRawRoundTrip(t *testing.T) {
	m, err := Compute(audiotest.Sine(2048, 8000, 300, 0.5), 8000, Params{FFTSize: 256})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := m.WriteFloat16(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFloat16(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bins() != m.Bins() || got.Frames() != m.Frames() || got.SampleRate != 8000 || got.Params != m.Params {
		t.Fatalf("header mismatch: got %d x %d %+v", got.Bins(), got.Frames(), got.Params)
	}
	for b := range m.Data {
		for f := range m.Data[b] {
			if math.Abs(got.Data[b][f]-m.Data[b][f]) > 0.04 {
				t.Fatalf("value [%d][%d] = %v, want ~%v", b, f, got.Data[b][f], m.Data[b][f])
			}
		}
	}

	if _, err := ReadFloat16(bytes.NewReader([]byte("RIFF0000000000000000000000000000000000"))); !errors.Is(err, ErrBadRaw) {
		t.Errorf("bad magic: %v, want ErrBadRaw", err)
	}
}
