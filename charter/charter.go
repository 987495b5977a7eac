// Package charter renders frame parameter tracks and spectra as HTML line
// charts for inspecting an utterance.
package charter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"gorsynth/holmes"
	"gorsynth/klatt"
	"gorsynth/spectrum"
)

// Series is one named line.
type Series struct {
	Name string
	Data []float64
}

// Groups of channels charted together.
var (
	FormantParams   = []klatt.Param{klatt.Fn, klatt.F1, klatt.F2, klatt.F3}
	BandwidthParams = []klatt.Param{klatt.B1, klatt.B2, klatt.B3}
	SourceParams    = []klatt.Param{klatt.Av, klatt.Avc, klatt.Asp, klatt.Af}
	ParallelParams  = []klatt.Param{klatt.An, klatt.A1, klatt.A2, klatt.A3, klatt.A4, klatt.A5, klatt.A6, klatt.Ab}
)

// MakeChart builds a line chart with one line per series over xLabels.
func MakeChart(title, subtitle string, xLabels []string, series ...Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
	)

	line.SetXAxis(xLabels)
	for _, s := range series {
		items := make([]opts.LineData, len(s.Data))
		for i, v := range s.Data {
			items[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, items)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: false}))

	return line
}

func frameLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprint(i)
	}
	return labels
}

// Tracks pulls the named channels out of frames.
func Tracks(frames []holmes.Frame, params []klatt.Param) []Series {
	out := make([]Series, len(params))
	for i, p := range params {
		data := make([]float64, len(frames))
		for j, f := range frames {
			data[j] = f.Params[p]
		}
		out[i] = Series{Name: p.String(), Data: data}
	}
	return out
}

// FrameCharts charts the pitch and the main parameter groups of frames.
// With all set every channel gets a chart of its own as well.
func FrameCharts(name string, frames []holmes.Frame, all bool) []*charts.Line {
	labels := frameLabels(len(frames))

	f0 := make([]float64, len(frames))
	for i, f := range frames {
		f0[i] = f.F0
	}

	lines := []*charts.Line{
		MakeChart("F0", name, labels, Series{Name: "f0", Data: f0}),
		MakeChart("Formants", name, labels, Tracks(frames, FormantParams)...),
		MakeChart("Bandwidths", name, labels, Tracks(frames, BandwidthParams)...),
		MakeChart("Source amplitudes", name, labels, Tracks(frames, SourceParams)...),
		MakeChart("Parallel amplitudes", name, labels, Tracks(frames, ParallelParams)...),
	}

	if all {
		for p := klatt.Param(0); p < klatt.ParamCount; p++ {
			lines = append(lines, MakeChart(p.String(), name, labels, Tracks(frames, []klatt.Param{p})...))
		}
	}

	return lines
}

// SpectrumChart charts a magnitude spectrum in dB against frequency.
func SpectrumChart(name string, mags []float64, sampleRate int) *charts.Line {
	labels := make([]string, len(mags))
	for i := range mags {
		labels[i] = fmt.Sprintf("%.0f", spectrum.BandFrequency(i, len(mags), sampleRate))
	}

	return MakeChart("Spectrum (dB)", name, labels, Series{Name: "magnitude", Data: spectrum.Decibels(mags, -90)})
}

// WritePage renders lines onto one HTML page at path, creating its
// directory when needed.
func WritePage(path string, lines ...*charts.Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	page := components.NewPage()
	for _, l := range lines {
		page.AddCharts(l)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := page.Render(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
