package batch

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neurlang/spectrobox/audio"
	"github.com/neurlang/spectrobox/render"
	"github.com/neurlang/spectrobox/spectrogram"
)

// ErrPanic marks a task that panicked.
var ErrPanic = errors.New("task panicked")

// Renderer draws one matrix to one image file.
type Renderer interface {
	RenderAndSave(m *spectrogram.Matrix, outputPath, title string) error
}

// Driver runs tasks one at a time. Each worker owns its own Driver.
type Driver struct {
	Decoder  audio.Decoder
	Params   spectrogram.Params
	Renderer Renderer

	// Raw also writes the dB matrix as half floats next to the image.
	Raw bool

	Worker int

	// Logf, if set, receives a line when a file starts processing.
	Logf func(format string, args ...any)
}

func (d *Driver) name() string {
	return fmt.Sprintf("worker-%d", d.Worker)
}

// Process converts one file. It never panics and never returns an error:
// every failure is reported in the Outcome.
func (d *Driver) Process(task Task) (out Outcome) {
	start := time.Now()
	out = Outcome{Task: task, Worker: d.Worker}
	defer func() {
		if p := recover(); p != nil {
			out.Status = Failed
			out.Err = fmt.Errorf("%w: %s: %v", ErrPanic, task.FilePath, p)
		}
		if out.Status == Failed {
			out.Log = fmt.Sprintf("ERROR with file=%s\n%v", task.FilePath, out.Err)
		}
		out.Elapsed = time.Since(start)
	}()

	output, err := OutputPath(task)
	if err != nil {
		out.Status, out.Err = Failed, err
		return out
	}
	out.Output = output

	if _, err := os.Stat(output); err == nil {
		out.Status = Skipped
		out.Log = fmt.Sprintf("[ALREADY PROCESSED]\t%s\t(%s)", task.Name(), output)
		return out
	}

	if d.Logf != nil {
		d.Logf("[%s]\tFILE:\t%s", d.name(), task.FilePath)
	}

	decoded, err := d.Decoder.Decode(task.FilePath)
	if err != nil {
		out.Status, out.Err = Failed, err
		return out
	}
	samples, channels := decoded.Shape()

	m, err := spectrogram.Compute(decoded.Channel(0), decoded.SampleRate, d.Params)
	if err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("%s: %w", task.FilePath, err)
		return out
	}

	if d.Raw {
		if err := writeRaw(m, output+".f16"); err != nil {
			out.Status, out.Err = Failed, err
			return out
		}
	}

	if err := d.Renderer.RenderAndSave(m, output, task.Name()); err != nil {
		if d.Raw {
			os.Remove(output + ".f16")
		}
		out.Status, out.Err = Failed, err
		return out
	}

	var log strings.Builder
	fmt.Fprintf(&log, "[%s]\n", d.name())
	fmt.Fprintf(&log, "\t%s\n", task.Name())
	fmt.Fprintf(&log, "\t\tSignal's sample rate: %d\n", decoded.SampleRate)
	fmt.Fprintf(&log, "\t\tSignal's shape: (%d, %d)\n", samples, channels)
	fmt.Fprintf(&log, "\t\tProcess duration: %d seconds", int(math.Round(time.Since(start).Seconds())))
	out.Status = Processed
	out.Log = log.String()
	return out
}

// writeRaw stores m at path. It runs before the image is written so that the
// image stays the last artifact of a task.
func writeRaw(m *spectrogram.Matrix, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", render.ErrRender, path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", render.ErrRender, path, err)
	}
	w := bufio.NewWriter(f)
	err = m.WriteFloat16(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %s: %w", render.ErrRender, path, err)
	}
	return nil
}
