package render

import (
	"image/color"
	"strconv"

	"gonum.org/v1/plot/vg"
)

// Tick is a labelled mark on the frequency axis.
type Tick struct {
	Value float64
	Label string
}

// Style is the immutable layout shared by every render of a batch.
type Style struct {
	Width, Height vg.Length
	DPI           int
	FontSize      vg.Length

	// FreqMax is the top of the frequency axis in Hz, regardless of Nyquist.
	FreqMax   float64
	FreqTicks []Tick

	ColorBarWidth  vg.Length
	DataBackground color.Color
}

// DefaultStyle returns the standard layout.
func DefaultStyle() Style {
	return Style{
		Width:          10 * vg.Inch,
		Height:         4 * vg.Inch,
		DPI:            150,
		FontSize:       vg.Points(8),
		FreqMax:        24000,
		FreqTicks:      FrequencyTicks(24000, 2000),
		ColorBarWidth:  vg.Inch,
		DataBackground: color.Black,
	}
}

// FrequencyTicks returns ticks from 0 to max every step Hz, labelled "0",
// "2k", "4k" and so on.
func FrequencyTicks(max, step float64) []Tick {
	var ticks []Tick
	for v := 0.0; v <= max; v += step {
		ticks = append(ticks, Tick{Value: v, Label: frequencyLabel(v)})
	}
	return ticks
}

func frequencyLabel(hz float64) string {
	if hz == 0 {
		return "0"
	}
	return strconv.FormatFloat(hz/1000, 'f', -1, 64) + "k"
}
