package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/neurlang/spectrobox/spectrogram"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrRender marks failures to draw or write an image.
var ErrRender = errors.New("render error")

// inferno holds eleven evenly spaced samples of the inferno colour map.
var inferno = []color.Color{
	color.RGBA{0x00, 0x00, 0x04, 0xff},
	color.RGBA{0x16, 0x0b, 0x39, 0xff},
	color.RGBA{0x42, 0x0a, 0x68, 0xff},
	color.RGBA{0x6a, 0x17, 0x6e, 0xff},
	color.RGBA{0x93, 0x26, 0x67, 0xff},
	color.RGBA{0xbc, 0x37, 0x54, 0xff},
	color.RGBA{0xdd, 0x51, 0x3a, 0xff},
	color.RGBA{0xf3, 0x78, 0x19, 0xff},
	color.RGBA{0xfc, 0xa5, 0x0a, 0xff},
	color.RGBA{0xf6, 0xd7, 0x46, 0xff},
	color.RGBA{0xfc, 0xff, 0xa4, 0xff},
}

// Inferno returns a new inferno colour map interpolated in CIE LAB space.
func Inferno() (palette.ColorMap, error) {
	return moreland.NewLuminance(inferno)
}

// Renderer draws spectrograms with a fixed Style. Its colour map is rescaled
// for every image, so a Renderer must not be shared between goroutines.
type Renderer struct {
	style Style
	cmap  palette.ColorMap
}

// New returns a Renderer for style.
func New(style Style) (*Renderer, error) {
	cmap, err := Inferno()
	if err != nil {
		return nil, err
	}
	return &Renderer{style: style, cmap: cmap}, nil
}

// RenderAndSave draws m titled title and writes it as a PNG to outputPath,
// creating missing parent directories and replacing any existing file.
func (r *Renderer) RenderAndSave(m *spectrogram.Matrix, outputPath, title string) (err error) {
	if m == nil || m.Bins() == 0 || m.Frames() == 0 {
		return fmt.Errorf("%w: %s: empty spectrogram", ErrRender, outputPath)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrRender, outputPath, p)
		}
	}()

	canvas := r.draw(m, title)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, outputPath, err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, outputPath, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		f.Close()
		os.Remove(outputPath)
		return fmt.Errorf("%w: %s: %w", ErrRender, outputPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: %s: %w", ErrRender, outputPath, err)
	}
	return nil
}

func (r *Renderer) draw(m *spectrogram.Matrix, title string) *vgimg.Canvas {
	lo, hi := m.Min(), m.Max()
	if lo >= hi {
		lo = hi - spectrogram.TopDB
	}
	r.cmap.SetMax(hi)
	r.cmap.SetMin(lo)

	heat := plotter.NewHeatMap(newGrid(m, r.style.FreqMax), r.cmap.Palette(256))
	heat.Min, heat.Max = lo, hi
	heat.NaN = r.style.DataBackground
	heat.Rasterized = true

	p := plot.New()
	r.setFonts(p)
	p.Title.Text = title
	p.X.Label.Text = "Time [s]"
	p.Y.Label.Text = "Frequency [Hz]"
	p.X.Padding, p.Y.Padding = 0, 0
	p.Add(fill{r.style.DataBackground}, raster{heat})
	p.Y.Min, p.Y.Max = 0, r.style.FreqMax
	ticks := make([]plot.Tick, len(r.style.FreqTicks))
	for i, t := range r.style.FreqTicks {
		ticks[i] = plot.Tick{Value: t.Value, Label: t.Label}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	bar := plot.New()
	r.setFonts(bar)
	bar.HideX()
	bar.X.Padding, bar.Y.Padding = 0, 0
	bar.Add(&plotter.ColorBar{ColorMap: r.cmap, Vertical: true})
	bar.Y.Tick.Marker = dbfsTicks{}

	c := vgimg.NewWith(
		vgimg.UseWH(r.style.Width, r.style.Height),
		vgimg.UseDPI(r.style.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	dc := draw.New(c)
	cbw := r.style.ColorBarWidth
	left := draw.Crop(dc, 0, -cbw, 0, 0)
	right := draw.Crop(dc, dc.Max.X-dc.Min.X-cbw, 0, 0, 0)

	// line the colour bar up with the data area of the heatmap
	data := p.DataCanvas(left)
	pad := vg.Points(4)
	right = draw.Crop(right, pad, -pad, data.Min.Y-right.Min.Y, data.Max.Y-right.Max.Y)

	p.Draw(left)
	bar.Draw(right)
	return c
}

func (r *Renderer) setFonts(p *plot.Plot) {
	size := r.style.FontSize
	p.Title.TextStyle.Font.Size = size * 1.2
	p.X.Label.TextStyle.Font.Size = size
	p.Y.Label.TextStyle.Font.Size = size
	p.X.Tick.Label.Font.Size = size
	p.Y.Tick.Label.Font.Size = size
}

// grid exposes the rows of a matrix at or below a frequency ceiling.
type grid struct {
	m    *spectrogram.Matrix
	rows int
}

func newGrid(m *spectrogram.Matrix, freqMax float64) grid {
	rows := 0
	for rows < m.Bins() && m.BinFrequency(rows) <= freqMax {
		rows++
	}
	if rows == 0 {
		rows = 1
	}
	return grid{m: m, rows: rows}
}

func (g grid) Dims() (c, r int)   { return g.m.Frames(), g.rows }
func (g grid) Z(c, r int) float64 { return g.m.Data[r][c] }
func (g grid) X(c int) float64    { return g.m.FrameTime(c) }
func (g grid) Y(r int) float64    { return g.m.BinFrequency(r) }

// raster hides the per-cell glyph boxes of a heat map, which would otherwise
// be one allocation per matrix element during layout.
type raster struct {
	heat *plotter.HeatMap
}

func (r raster) Plot(c draw.Canvas, p *plot.Plot) { r.heat.Plot(c, p) }

func (r raster) DataRange() (xmin, xmax, ymin, ymax float64) { return r.heat.DataRange() }

// fill paints the whole data area, so bins above Nyquist show as background.
type fill struct {
	color color.Color
}

func (f fill) Plot(c draw.Canvas, _ *plot.Plot) {
	c.SetColor(f.color)
	c.Fill(c.Rectangle.Path())
}

// dbfsTicks labels the colour bar in whole decibels.
type dbfsTicks struct{}

func (dbfsTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = dbfsLabel(ticks[i].Value)
		}
	}
	return ticks
}

func dbfsLabel(v float64) string {
	return fmt.Sprintf("%+2.f dBFS", v)
}
