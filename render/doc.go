// Package render draws spectrogram matrices as PNG heatmaps.
//
// The layout is fixed: time in seconds on the horizontal axis, a linear
// 0-24 kHz frequency axis with ticks every 2 kHz, an inferno colour map on a
// black data area and a dBFS colour bar, on a 10x4 inch canvas at 150 DPI.
package render
