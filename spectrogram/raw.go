package spectrogram

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/x448/float16"
)

var rawMagic = [4]byte{'S', 'P', 'B', 'X'}

const rawVersion = 1

// rawHeader precedes the row-major half-float payload of a raw matrix file.
type rawHeader struct {
	Magic      [4]byte
	Version    uint16
	_          uint16
	Bins       uint32
	Frames     uint32
	SampleRate uint32
	FFTSize    uint32
	HopSize    uint32
	WindowSize uint32
}

// ErrBadRaw is returned when reading a file that is not a raw matrix.
var ErrBadRaw = errors.New("not a raw spectrogram")

// WriteFloat16 writes the matrix as a little-endian header followed by one
// IEEE half float per value, bin by bin.
func (m *Matrix) WriteFloat16(w io.Writer) error {
	hdr := rawHeader{
		Magic:      rawMagic,
		Version:    rawVersion,
		Bins:       uint32(m.Bins()),
		Frames:     uint32(m.Frames()),
		SampleRate: uint32(m.SampleRate),
		FFTSize:    uint32(m.Params.FFTSize),
		HopSize:    uint32(m.Params.HopSize),
		WindowSize: uint32(m.Params.WindowSize),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	row := make([]uint16, m.Frames())
	for _, data := range m.Data {
		for i, v := range data {
			row[i] = float16.Fromfloat32(float32(v)).Bits()
		}
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return nil
}

// ReadFloat16 reads a matrix written by WriteFloat16.
func ReadFloat16(r io.Reader) (*Matrix, error) {
	var hdr rawHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRaw, err)
	}
	if hdr.Magic != rawMagic || hdr.Version != rawVersion {
		return nil, ErrBadRaw
	}
	m := &Matrix{
		Data:       make([][]float64, hdr.Bins),
		SampleRate: int(hdr.SampleRate),
		Params: Params{
			FFTSize:    int(hdr.FFTSize),
			HopSize:    int(hdr.HopSize),
			WindowSize: int(hdr.WindowSize),
		},
	}
	row := make([]uint16, hdr.Frames)
	for b := range m.Data {
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRaw, err)
		}
		m.Data[b] = make([]float64, hdr.Frames)
		for i, v := range row {
			m.Data[b][i] = float64(float16.Frombits(v).Float32())
		}
	}
	return m, nil
}
