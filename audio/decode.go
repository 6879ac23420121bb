package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/mewkiz/flac"
)

// ErrDecode marks audio that could not be read, is corrupt or holds no samples.
var ErrDecode = errors.New("decode error")

// Decoded is a fully decoded recording.
type Decoded struct {
	// Channels holds one sample slice per channel, all of equal length.
	Channels   [][]float64
	SampleRate int
}

// Channel returns the samples of channel i, or nil if there is no such channel.
func (d *Decoded) Channel(i int) []float64 {
	if i < 0 || i >= len(d.Channels) {
		return nil
	}
	return d.Channels[i]
}

// Len returns the number of samples per channel.
func (d *Decoded) Len() int {
	if len(d.Channels) == 0 {
		return 0
	}
	return len(d.Channels[0])
}

// Shape returns (samples, channels), the layout the batch log prints.
func (d *Decoded) Shape() (int, int) {
	return d.Len(), len(d.Channels)
}

// Duration returns the play time of the recording.
func (d *Decoded) Duration() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(d.Len()) * time.Second / time.Duration(d.SampleRate)
}

// Decoder turns a file into samples.
type Decoder interface {
	Decode(path string) (*Decoded, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(path string) (*Decoded, error)

// Decode calls f(path).
func (f DecoderFunc) Decode(path string) (*Decoded, error) { return f(path) }

// Default decodes by file extension using Decode.
var Default Decoder = DecoderFunc(Decode)

// Decode reads the file at path and returns all of its channels.
// Every failure is reported with the ErrDecode kind.
func Decode(path string) (*Decoded, error) {
	var d *Decoded
	var err error
	switch ext := filepath.Ext(path); ext {
	case ".wav":
		d, err = decodeStream(path, func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(f)
		})
	case ".mp3":
		d, err = decodeStream(path, func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(f)
		})
	case ".flac":
		d, err = decodeFlac(path)
	default:
		err = fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if d.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid sample rate %d", ErrDecode, path, d.SampleRate)
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: no samples", ErrDecode, path)
	}
	return d, nil
}

func decodeStream(path string, open func(*os.File) (beep.StreamSeekCloser, beep.Format, error)) (*Decoded, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stream, format, err := open(file)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	channels := format.NumChannels
	if channels < 1 {
		channels = 1
	}
	if channels > 2 {
		channels = 2
	}
	out := make([][]float64, channels)
	if n := stream.Len(); n > 0 {
		for ch := range out {
			out[ch] = make([]float64, 0, n)
		}
	}

	var samples = make([][2]float64, 512)
	for {
		n, ok := stream.Stream(samples)
		for i := 0; i < n; i++ {
			for ch := range out {
				out[ch] = append(out[ch], samples[i][ch])
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	return &Decoded{Channels: out, SampleRate: int(format.SampleRate)}, nil
}

func decodeFlac(path string) (*Decoded, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, fmt.Errorf("flac stream has no channels")
	}
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))

	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, 0, stream.Info.NSamples)
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, s := range frame.Subframes[ch].Samples {
				out[ch] = append(out[ch], float64(s)/scale)
			}
		}
	}

	return &Decoded{Channels: out, SampleRate: int(stream.Info.SampleRate)}, nil
}
