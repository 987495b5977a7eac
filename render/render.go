// Package render drives the frame generator and the synthesizer over an
// utterance, streaming samples to a sound file writer or collecting them in
// memory.
package render

import (
	"fmt"
	"math"

	"gorsynth/elements"
	"gorsynth/holmes"
	"gorsynth/klatt"
	"gorsynth/logger"
)

// Writer takes one frame of samples at a time. audioio writers created with
// a buffer of SamplesPerFrame frames satisfy it.
type Writer interface {
	InterleaveChannel(channel int, data []int) error
	WriteNext() error
}

// Config gathers everything needed to render.
type Config struct {
	Synth   klatt.Config
	Speaker klatt.Speaker
	Frames  holmes.Config
}

// DefaultConfig is the stock voice at 16 kHz.
func DefaultConfig() Config {
	return Config{
		Synth:   klatt.DefaultConfig(),
		Speaker: klatt.DefaultSpeaker(),
		Frames:  holmes.DefaultConfig(),
	}
}

// Renderer pairs a frame generator with a synthesizer. Each call renders a
// whole utterance from a clean state. It is not safe for concurrent use.
type Renderer struct {
	table *elements.Table
	gen   *holmes.FrameGenerator
	synth *klatt.Synthesizer
}

// New builds a renderer over table.
func New(table *elements.Table, cfg Config) (*Renderer, error) {
	gen, err := holmes.NewFrameGenerator(table, cfg.Frames)
	if err != nil {
		return nil, fmt.Errorf("frame generator: %w", err)
	}

	synth, err := klatt.NewSynthesizer(cfg.Synth, cfg.Speaker)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: %w", err)
	}

	return &Renderer{table: table, gen: gen, synth: synth}, nil
}

// Synthesizer exposes the underlying synthesizer, for its stats and
// settings.
func (r *Renderer) Synthesizer() *klatt.Synthesizer {
	return r.synth
}

func (r *Renderer) SamplesPerFrame() int {
	return r.synth.SamplesPerFrame()
}

func (r *Renderer) SampleRate() int {
	return r.synth.SampleRate()
}

func (r *Renderer) start(segments []holmes.Segment, contour []float64) (*holmes.Sequence, error) {
	r.gen.Reset()
	r.synth.Reset()
	return r.gen.Frames(segments, contour)
}

// Frames returns the parameter frames of an utterance without
// synthesizing it.
func (r *Renderer) Frames(segments []holmes.Segment, contour []float64) ([]holmes.Frame, error) {
	r.gen.Reset()
	return r.gen.Generate(segments, contour)
}

// Samples renders an utterance into memory.
func (r *Renderer) Samples(segments []holmes.Segment, contour []float64) ([]int16, klatt.Stats, error) {
	seq, err := r.start(segments, contour)
	if err != nil {
		return nil, klatt.Stats{}, err
	}

	out := make([]int16, 0, seq.Total()*r.synth.SamplesPerFrame())
	for {
		f, ok := seq.Next()
		if !ok {
			break
		}
		out = append(out, r.synth.GenerateFrame(f.F0, f.Params)...)
	}

	stats := r.synth.Stats()
	logStats(seq.Total(), stats)

	return out, stats, nil
}

// Run renders an utterance into w, one frame per WriteNext. It reports
// progress as a percentage, then sends on done, or sends the first error
// on errors and stops.
func (r *Renderer) Run(
	segments []holmes.Segment,
	contour []float64,
	w Writer,
	progress chan<- int,
	errors chan<- error,
	done chan<- bool,
) {
	seq, err := r.start(segments, contour)
	if err != nil {
		errors <- err
		return
	}

	total := seq.Total()
	data := make([]int, r.synth.SamplesPerFrame())

	last := 0
	progress <- 0

	for {
		f, ok := seq.Next()
		if !ok {
			break
		}

		for i, s := range r.synth.GenerateFrame(f.F0, f.Params) {
			data[i] = int(s)
		}

		if err := w.InterleaveChannel(0, data); err != nil {
			errors <- err
			return
		}

		if err := w.WriteNext(); err != nil {
			errors <- err
			return
		}

		if pct := int(math.Floor(100 * float64(seq.Emitted()) / float64(total))); pct != last {
			last = pct
			progress <- pct
		}
	}

	if last != 100 {
		progress <- 100
	}

	logStats(total, r.synth.Stats())

	done <- true
}

func logStats(frames int, st klatt.Stats) {
	logger.L.Debugw("rendered utterance",
		"frames", frames,
		"samples", st.Samples,
		"clipped", st.Clipped,
		"voiced_periods", st.VoicedSyncs,
		"mean_f0", st.MeanF0(),
	)

	if st.Clipped > 0 {
		logger.L.Warnf("%d of %d samples clipped", st.Clipped, st.Samples)
	}
}
