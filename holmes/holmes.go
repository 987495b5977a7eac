// Package holmes turns a sequence of phonetic elements and an F0 contour into
// per-frame synthesis parameters. Each element contributes a steady target
// per channel, and transitions between neighbours are shaped by which
// element dominates the boundary.
package holmes

import (
	"fmt"
	"math"

	"gorsynth/elements"
	"gorsynth/klatt"
)

const (
	// voicingSmooth is the fast one-pole coefficient used for av and avc.
	voicingSmooth = 0.85
	// voicingSnap is the level below which a voicing channel heading for
	// zero is forced to exactly zero.
	voicingSnap = 1e-6

	startRise = 1.1
	endFall   = 0.7
)

// Segment is an element held for a number of frames.
type Segment struct {
	Element int
	Frames  int
}

// Frame is one synthesis frame.
type Frame struct {
	F0     float64
	Params klatt.Params
}

// Config controls timing and smoothing.
type Config struct {
	F0Default float64 // Hz, used when no contour is given
	Speed     float64 // duration multiplier, > 1 is slower
	Smooth    float64 // one-pole coefficient at speed 1, in (0, 1]
}

// DefaultConfig returns 120 Hz, normal speed and a smoothing of 0.5.
func DefaultConfig() Config {
	return Config{
		F0Default: 120,
		Speed:     1,
		Smooth:    0.5,
	}
}

// FrameGenerator owns the smoothing state shared by the sequences it
// produces. It is not safe for concurrent use.
type FrameGenerator struct {
	table *elements.Table
	cfg   Config

	smooth     float64
	fastSmooth float64

	state klatt.Params
}

// NewFrameGenerator validates cfg against table.
func NewFrameGenerator(table *elements.Table, cfg Config) (*FrameGenerator, error) {
	if table == nil {
		return nil, fmt.Errorf("element table is required")
	}

	if !(cfg.F0Default > 0) {
		return nil, fmt.Errorf("default F0 must be positive, got %f", cfg.F0Default)
	}

	if !(cfg.Speed > 0) || math.IsInf(cfg.Speed, 0) {
		return nil, fmt.Errorf("speed must be positive, got %f", cfg.Speed)
	}

	if !(cfg.Smooth > 0 && cfg.Smooth <= 1) {
		return nil, fmt.Errorf("smooth must be in (0, 1], got %f", cfg.Smooth)
	}

	return &FrameGenerator{
		table:      table,
		cfg:        cfg,
		smooth:     math.Pow(cfg.Smooth, 1/cfg.Speed),
		fastSmooth: math.Pow(voicingSmooth, 1/cfg.Speed),
	}, nil
}

// Reset clears the smoothing state.
func (g *FrameGenerator) Reset() {
	g.state = klatt.Params{}
}

// Frames validates segments and returns a lazy sequence over their frames.
// A contour shorter than one value is replaced by a gentle declination from
// 1.1x to 0.7x the default F0 across the whole utterance.
func (g *FrameGenerator) Frames(segments []Segment, contour []float64) (*Sequence, error) {
	total := 0
	for i, s := range segments {
		if _, ok := g.table.ByIndex(s.Element); !ok {
			return nil, fmt.Errorf("segment %d: element index %d out of range [0, %d)", i, s.Element, g.table.Len())
		}
		if s.Frames < 0 {
			return nil, fmt.Errorf("segment %d: frame count cannot be negative, got %d", i, s.Frames)
		}
		total += s.Frames
	}

	if len(contour) < 1 {
		contour = DefaultContour(g.cfg.F0Default, total)
	}

	seq := &Sequence{
		g:     g,
		segs:  segments,
		seg:   -1,
		total: total,
		f0:    newF0Walker(contour),
	}

	if len(segments) > 0 {
		first, _ := g.table.ByIndex(segments[0].Element)
		g.state = first.Steady()
	}

	return seq, nil
}

// Generate collects every frame of segments.
func (g *FrameGenerator) Generate(segments []Segment, contour []float64) ([]Frame, error) {
	seq, err := g.Frames(segments, contour)
	if err != nil {
		return nil, err
	}

	out := make([]Frame, 0, seq.Total())
	for {
		f, ok := seq.Next()
		if !ok {
			return out, nil
		}
		out = append(out, f)
	}
}

// DefaultContour declines from 1.1 to 0.7 times f0 over frames.
func DefaultContour(f0 float64, frames int) []float64 {
	return []float64{f0 * startRise, float64(frames), f0 * endFall}
}

type slope struct {
	value  float64
	frames int
}

// Sequence yields the frames of one utterance in order. Once exhausted it
// stays exhausted.
type Sequence struct {
	g    *FrameGenerator
	segs []Segment

	seg     int
	t       int
	emitted int
	total   int

	cur   *elements.Element
	start [klatt.ParamCount]slope
	end   [klatt.ParamCount]slope

	f0 f0Walker
}

// Total is the number of frames the sequence yields.
func (s *Sequence) Total() int {
	return s.total
}

// Emitted is the number of frames yielded so far.
func (s *Sequence) Emitted() int {
	return s.emitted
}

// Segment is the index of the segment the last frame came from.
func (s *Sequence) Segment() int {
	return s.seg
}

// Next returns the next frame, or false when the sequence is done.
func (s *Sequence) Next() (Frame, bool) {
	if s.seg >= len(s.segs) {
		return Frame{}, false
	}

	for s.seg < 0 || s.t >= s.segs[s.seg].Frames {
		if s.seg+1 >= len(s.segs) {
			s.seg = len(s.segs)
			return Frame{}, false
		}
		s.enter(s.seg + 1)
	}

	dur := s.segs[s.seg].Frames
	g := s.g

	var p klatt.Params
	for j := 0; j < klatt.ParamCount; j++ {
		switch klatt.Param(j) {
		case klatt.Aturb:
			// breathiness follows the voice bar
			p[j] = p[klatt.Avc]
			g.state[j] = p[j]
			continue
		case klatt.B1p:
			p[j] = p[klatt.B1]
			g.state[j] = p[j]
			continue
		}

		v := interpolateParam(s.start[j].value, s.start[j].frames, s.end[j].value, s.end[j].frames, s.cur.Params[j].Steady, s.t, dur)

		if j == int(klatt.Av) || j == int(klatt.Avc) {
			target := math.Max(0, v)
			g.state[j] = g.fastSmooth*target + (1-g.fastSmooth)*g.state[j]
			if target == 0 && g.state[j] < voicingSnap {
				g.state[j] = 0
			}
		} else {
			g.state[j] = g.smooth*v + (1-g.smooth)*g.state[j]
		}
		p[j] = g.state[j]
	}

	s.t++
	s.emitted++

	return Frame{F0: s.f0.next(), Params: p}, true
}

// enter moves to segment i and works out its boundary slopes.
func (s *Sequence) enter(i int) {
	tbl := s.g.table
	speed := s.g.cfg.Speed

	s.seg = i
	s.t = 0

	cur, _ := tbl.ByIndex(s.segs[i].Element)
	last := cur
	if i > 0 {
		last, _ = tbl.ByIndex(s.segs[i-1].Element)
	}
	next, _ := tbl.ByIndex(tbl.Boundary())
	if i+1 < len(s.segs) {
		next, _ = tbl.ByIndex(s.segs[i+1].Element)
	}

	s.cur = cur
	for j := 0; j < klatt.ParamCount; j++ {
		c, l, n := cur.Params[j], last.Params[j], next.Params[j]

		if c.Rank > l.Rank {
			s.start[j] = slope{value: blend(c, l), frames: int(float64(c.Id) * speed)}
		} else {
			s.start[j] = slope{value: blend(l, c), frames: int(float64(l.Ed) * speed)}
		}

		if n.Rank > c.Rank {
			s.end[j] = slope{value: blend(n, c), frames: int(float64(n.Ed) * speed)}
		} else {
			s.end[j] = slope{value: blend(c, n), frames: int(float64(c.Id) * speed)}
		}
	}
}

// blend is the boundary value when dom dominates: its steady value pulled
// towards other by dom's proportion.
func blend(dom, other elements.InterpParam) float64 {
	f := dom.Prop * 0.01
	return dom.Steady*(1-f) + f*other.Steady
}

func lerp(a, b float64, t, d int) float64 {
	if t <= 0 {
		return a
	}
	if t >= d {
		return b
	}
	return a + (b-a)*float64(t)/float64(d)
}

// interpolateParam shapes one channel inside an element of dur frames: a
// ramp from start to mid over startT, a hold, and a ramp to end over endT.
// When the ramps overlap they are cross faded.
func interpolateParam(start float64, startT int, end float64, endT int, mid float64, t, dur int) float64 {
	steady := dur - (startT + endT)

	if steady >= 0 {
		if t < startT {
			return lerp(start, mid, t, startT)
		}
		t -= startT
		if t <= steady {
			return mid
		}
		return lerp(mid, end, t-steady, endT)
	}

	f := 1 - float64(t)/float64(dur)
	sp := lerp(start, mid, t, startT)
	ep := lerp(end, mid, dur-t, endT)
	return f*sp + (1-f)*ep
}

// f0Walker steps through a contour [f0, dur, f0, dur, f0, ...] one frame at
// a time. A zero duration is an instant jump.
type f0Walker struct {
	contour []float64
	idx     int
	cur     float64
	target  float64
	dur     int
	t       int
}

func newF0Walker(contour []float64) f0Walker {
	w := f0Walker{
		contour: contour,
		cur:     contour[0],
		dur:     1,
	}
	w.target = w.cur
	if len(contour) > 2 {
		w.target = contour[2]
	}
	if len(contour) > 1 {
		w.dur = int(contour[1])
	}
	return w
}

func (w *f0Walker) next() float64 {
	var f0 float64
	if w.dur > 0 {
		f0 = lerp(w.cur, w.target, w.t, w.dur)
	} else {
		f0 = w.target
	}
	w.t++

	for w.t >= w.dur && w.idx+2 < len(w.contour)-2 {
		w.t = 0
		w.idx += 2
		w.cur = w.target

		w.dur = 1
		if d := w.contour[w.idx+1]; d > 0 {
			w.dur = int(d)
		}
		if w.idx+2 < len(w.contour) {
			w.target = w.contour[w.idx+2]
		}
		if w.dur == 0 || w.dur == 1 {
			w.cur = w.target
		}
	}

	return f0
}
