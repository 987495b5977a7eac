package holmes

import (
	"math"
	"testing"

	"gorsynth/elements"
	"gorsynth/klatt"
	. "gorsynth/testing_utilities"
)

func uniform(name string, rank int, steady, prop float64, ed, id int) elements.Element {
	e := elements.Element{Name: name, Rank: rank, Du: 4, Ud: 4}
	for j := range e.Params {
		e.Params[j] = elements.InterpParam{Steady: steady, Prop: prop, Ed: ed, Id: id, Rank: rank}
	}
	return e
}

func testTable(t *testing.T, elems ...elements.Element) *elements.Table {
	t.Helper()
	all := append([]elements.Element{uniform("END", 0, 0, 0, 0, 0)}, elems...)
	tbl, err := elements.NewTable(all)
	Ok(t, err)
	return tbl
}

func noSmoothing(t *testing.T, tbl *elements.Table) *FrameGenerator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Smooth = 1
	g, err := NewFrameGenerator(tbl, cfg)
	Ok(t, err)
	return g
}

func TestLerp(t *testing.T) {
	Equals(t, 10.0, lerp(10, 20, 0, 4))
	Equals(t, 10.0, lerp(10, 20, -3, 4))
	Equals(t, 15.0, lerp(10, 20, 2, 4))
	Equals(t, 20.0, lerp(10, 20, 4, 4))
	Equals(t, 20.0, lerp(10, 20, 9, 4))
	Equals(t, 20.0, lerp(10, 20, 0, 0))
}

func TestInterpolateParam(t *testing.T) {
	// ramp up over 2, hold, ramp down over 2 within 8 frames
	exp := []float64{0, 50, 100, 100, 100, 75, 50, 25}
	for i, e := range exp {
		Equals(t, e, interpolateParam(0, 2, 0, 4, 100, i, 8))
	}

	// overlapping ramps are cross faded
	v := interpolateParam(0, 4, 40, 4, 100, 1, 4)
	f := 1 - 1.0/4
	Close(t, f*25+(1-f)*lerp(40, 100, 3, 4), v, 1e-12)
}

func TestDominance(t *testing.T) {
	tbl := testTable(t,
		uniform("A", 10, 100, 50, 4, 4),
		uniform("B", 20, 200, 50, 2, 2),
	)
	a := tbl.MustIndex("A")
	b := tbl.MustIndex("B")
	g := noSmoothing(t, tbl)

	seq, err := g.Frames([]Segment{{a, 6}, {b, 6}}, []float64{100})
	Ok(t, err)

	for i := 0; i < 6; i++ {
		seq.Next()
	}
	Equals(t, 0, seq.Segment())

	f, ok := seq.Next()
	Assert(t, ok, "expected a frame")
	Equals(t, 1, seq.Segment())

	// B outranks A so B's own internal duration and proportion shape the
	// boundary: 200 pulled halfway to 100 and ramping over 2 frames
	Equals(t, slope{value: 150, frames: 2}, seq.start[klatt.F1])
	Equals(t, 150.0, f.Params[klatt.F1])

	f, _ = seq.Next()
	Equals(t, 175.0, f.Params[klatt.F1])

	f, _ = seq.Next()
	Equals(t, 200.0, f.Params[klatt.F1])
}

func TestEndSlopeUsesBoundary(t *testing.T) {
	tbl := testTable(t, uniform("A", 10, 100, 50, 4, 2))
	a := tbl.MustIndex("A")
	g := noSmoothing(t, tbl)

	seq, err := g.Frames([]Segment{{a, 4}}, []float64{100})
	Ok(t, err)
	seq.Next()

	// END ranks lower, so A dominates its own exit
	Equals(t, slope{value: 50, frames: 2}, seq.end[klatt.F2])
}

func TestEndToEnd(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	segs := []Segment{
		{Element: tbl.MustIndex("a"), Frames: 9},
		{Element: tbl.MustIndex("Q"), Frames: 6},
	}
	frames, err := g.Generate(segs, []float64{120, 15})
	Ok(t, err)

	Equals(t, 15, len(frames))
	for i, f := range frames {
		Equals(t, 120.0, f.F0)
		Equals(t, klatt.ParamCount, len(f.Params))
		for j, v := range f.Params {
			Assert(t, !math.IsNaN(v) && !math.IsInf(v, 0), "frame %d %s is not finite: %v", i, klatt.Param(j), v)
		}
	}

	Assert(t, frames[4].Params[klatt.Av] > 50, "vowel should be voiced, got %v", frames[4].Params[klatt.Av])

	// the silence drives voicing below the first audible table step
	last := frames[len(frames)-1].Params
	Equals(t, 0.0, klatt.DbToLinear(last[klatt.Av]))
	Assert(t, last[klatt.Av] < 0.01, "voicing should have decayed, got %v", last[klatt.Av])
}

func TestVoicingSnapsToZero(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	segs := []Segment{
		{Element: tbl.MustIndex("a"), Frames: 9},
		{Element: tbl.MustIndex("Q"), Frames: 12},
	}
	frames, err := g.Generate(segs, nil)
	Ok(t, err)

	Equals(t, 0.0, frames[len(frames)-1].Params[klatt.Av])
	Equals(t, 0.0, frames[len(frames)-1].Params[klatt.Avc])
}

func TestDerivedChannels(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	segs := []Segment{
		{Element: tbl.MustIndex("Z"), Frames: 6},
		{Element: tbl.MustIndex("a"), Frames: 9},
	}
	frames, err := g.Generate(segs, nil)
	Ok(t, err)

	for _, f := range frames {
		Equals(t, f.Params[klatt.Avc], f.Params[klatt.Aturb])
		Equals(t, f.Params[klatt.B1], f.Params[klatt.B1p])
	}
}

func TestFirstElementSeedsState(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	a, _ := tbl.ByName("a")
	frames, err := g.Generate([]Segment{{Element: tbl.MustIndex("a"), Frames: 3}}, nil)
	Ok(t, err)

	// no blend from a missing predecessor
	Equals(t, a.Params[klatt.F1].Steady, frames[0].Params[klatt.F1])
}

func TestZeroDurationSegment(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	segs := []Segment{
		{Element: tbl.MustIndex("Q"), Frames: 0},
		{Element: tbl.MustIndex("a"), Frames: 5},
		{Element: tbl.MustIndex("T"), Frames: 0},
		{Element: tbl.MustIndex("Q"), Frames: 3},
	}
	frames, err := g.Generate(segs, nil)
	Ok(t, err)
	Equals(t, 8, len(frames))

	frames, err = g.Generate([]Segment{{Element: 1, Frames: 0}}, nil)
	Ok(t, err)
	Equals(t, 0, len(frames))
}

func TestDefaultContour(t *testing.T) {
	c := DefaultContour(110, 20)
	Equals(t, 3, len(c))
	Close(t, 121, c[0], 1e-9)
	Equals(t, 20.0, c[1])
	Close(t, 77, c[2], 1e-9)

	tbl := elements.Default()
	cfg := DefaultConfig()
	cfg.F0Default = 100
	g, err := NewFrameGenerator(tbl, cfg)
	Ok(t, err)

	frames, err := g.Generate([]Segment{{Element: tbl.MustIndex("a"), Frames: 10}}, nil)
	Ok(t, err)

	Close(t, 110, frames[0].F0, 1e-9)
	Close(t, 110-40*0.9, frames[9].F0, 1e-9)
	for i := 1; i < len(frames); i++ {
		Assert(t, frames[i].F0 < frames[i-1].F0, "F0 should decline at frame %d", i)
	}
}

func TestContourPitchPulse(t *testing.T) {
	w := newF0Walker([]float64{100, 2, 90, 0, 130, 3, 100})

	var got []float64
	for i := 0; i < 6; i++ {
		got = append(got, w.next())
	}

	// 100 -> 90 over 2 frames, jump to 130 for a frame, glide to 100 over 3
	exp := []float64{100, 95, 130, 130, 120, 110}
	for i := range exp {
		Close(t, exp[i], got[i], 1e-9)
	}
}

func TestSpeedScalesTransitions(t *testing.T) {
	tbl := testTable(t,
		uniform("A", 10, 100, 50, 4, 4),
		uniform("B", 20, 200, 50, 2, 2),
	)
	cfg := DefaultConfig()
	cfg.Smooth = 1
	cfg.Speed = 2
	g, err := NewFrameGenerator(tbl, cfg)
	Ok(t, err)

	seq, err := g.Frames([]Segment{{tbl.MustIndex("A"), 8}, {tbl.MustIndex("B"), 8}}, []float64{100})
	Ok(t, err)
	for i := 0; i < 9; i++ {
		seq.Next()
	}
	Equals(t, 4, seq.start[klatt.F1].frames)
}

func TestSmoothingFollowsSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 2
	g, err := NewFrameGenerator(elements.Default(), cfg)
	Ok(t, err)

	Close(t, math.Sqrt(0.5), g.smooth, 1e-12)
	Close(t, math.Sqrt(0.85), g.fastSmooth, 1e-12)
}

func TestFramesValidation(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	_, err = g.Frames([]Segment{{Element: tbl.Len(), Frames: 3}}, nil)
	Assert(t, err != nil, "expected an error for an unknown element")

	_, err = g.Frames([]Segment{{Element: -1, Frames: 3}}, nil)
	Assert(t, err != nil, "expected an error for a negative element")

	_, err = g.Frames([]Segment{{Element: 1, Frames: -3}}, nil)
	Assert(t, err != nil, "expected an error for a negative duration")
}

func TestNewFrameGeneratorValidation(t *testing.T) {
	cases := map[string]Config{
		"zero f0":     {F0Default: 0, Speed: 1, Smooth: 0.5},
		"zero speed":  {F0Default: 120, Speed: 0, Smooth: 0.5},
		"zero smooth": {F0Default: 120, Speed: 1, Smooth: 0},
		"big smooth":  {F0Default: 120, Speed: 1, Smooth: 1.5},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewFrameGenerator(elements.Default(), cfg)
			Assert(t, err != nil, "expected an error")
		})
	}

	_, err := NewFrameGenerator(nil, DefaultConfig())
	Assert(t, err != nil, "expected an error without a table")
}

func TestSequenceStaysExhausted(t *testing.T) {
	tbl := elements.Default()
	g, err := NewFrameGenerator(tbl, DefaultConfig())
	Ok(t, err)

	seq, err := g.Frames([]Segment{{Element: 1, Frames: 2}}, nil)
	Ok(t, err)
	Equals(t, 2, seq.Total())

	seq.Next()
	seq.Next()
	_, ok := seq.Next()
	Assert(t, !ok, "sequence should be done")
	_, ok = seq.Next()
	Assert(t, !ok, "sequence should stay done")
	Equals(t, 2, seq.Emitted())
}
