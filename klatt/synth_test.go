package klatt

import (
	"math"
	"testing"

	. "gorsynth/testing_utilities"
)

func vowelParams() Params {
	var p Params
	p[Fn] = 250
	p[F1] = 700
	p[F2] = 1220
	p[F3] = 2600
	p[B1] = 130
	p[B2] = 70
	p[B3] = 160
	p[Av] = 62
	p[Avc] = 0
	p[Kopen] = 30
	p[Tlt] = 10
	p[B1p] = 130
	return p
}

func fricativeParams() Params {
	var p Params
	p[Fn] = 250
	p[F1] = 400
	p[F2] = 1800
	p[F3] = 2500
	p[B1] = 200
	p[B2] = 120
	p[B3] = 220
	p[A3] = 30
	p[A4] = 40
	p[A5] = 45
	p[A6] = 50
	p[Af] = 60
	p[B1p] = 200
	return p
}

func newTestSynth(t *testing.T, cfg Config) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(cfg, DefaultSpeaker())
	Ok(t, err)
	return s
}

func render(s *Synthesizer, f0 float64, frames []Params) []int16 {
	var out []int16
	for _, p := range frames {
		out = append(out, s.GenerateFrame(f0, p)...)
	}
	return out
}

func utterance() []Params {
	var silence Params
	frames := []Params{silence, silence}
	for i := 0; i < 20; i++ {
		frames = append(frames, vowelParams())
	}
	for i := 0; i < 10; i++ {
		frames = append(frames, fricativeParams())
	}
	for i := 0; i < 10; i++ {
		frames = append(frames, vowelParams())
	}
	return append(frames, silence, silence)
}

func TestNewSynthesizerValidation(t *testing.T) {
	cases := map[string]struct {
		edit func(*Config)
	}{
		"zero sample rate": {edit: func(c *Config) { c.SampleRate = 0 }},
		"negative frame":   {edit: func(c *Config) { c.MsPerFrame = -10 }},
		"empty frame":      {edit: func(c *Config) { c.MsPerFrame = 0.01 }},
		"unknown source":   {edit: func(c *Config) { c.Source = VoiceSource(9) }},
		"unknown model":    {edit: func(c *Config) { c.Model = Model(5) }},
		"negative jitter":  {edit: func(c *Config) { c.Jitter = -1 }},
		"negative flutter": {edit: func(c *Config) { c.Flutter = -20 }},
		"negative shimmer": {edit: func(c *Config) { c.Shimmer = -0.1 }},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.edit(&cfg)
			_, err := NewSynthesizer(cfg, DefaultSpeaker())
			Assert(t, err != nil, "expected an error")
		})
	}

	spk := DefaultSpeaker()
	spk.F0Hz = 0
	_, err := NewSynthesizer(DefaultConfig(), spk)
	Assert(t, err != nil, "expected an error for a speaker without F0")
}

func TestSamplesPerFrame(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	Equals(t, 160, s.SamplesPerFrame())
	Equals(t, 160, len(s.GenerateFrame(120, vowelParams())))

	cfg := DefaultConfig()
	cfg.SampleRate = 22050
	cfg.MsPerFrame = 5
	s = newTestSynth(t, cfg)
	Equals(t, 110, s.SamplesPerFrame())
}

func TestCascadeClamp(t *testing.T) {
	cases := map[string]struct {
		rate    int
		cascade int
		exp     int
	}{
		"too few":        {rate: 16000, cascade: 0, exp: 1},
		"too many":       {rate: 16000, cascade: 12, exp: 8},
		"eight at 16k":   {rate: 16000, cascade: 8, exp: 8},
		"eight at 11025": {rate: 11025, cascade: 8, exp: 6},
		"seven at 8000":  {rate: 8000, cascade: 7, exp: 6},
		"five untouched": {rate: 8000, cascade: 5, exp: 5},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SampleRate = c.rate
			cfg.Cascade = c.cascade
			s := newTestSynth(t, cfg)
			Equals(t, c.exp, s.cascade)
		})
	}
}

func TestDeterministic(t *testing.T) {
	a := render(newTestSynth(t, DefaultConfig()), 120, utterance())
	b := render(newTestSynth(t, DefaultConfig()), 120, utterance())
	Equals(t, a, b)
}

func TestResetReproducesOutput(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	first := render(s, 110, utterance())

	s.Reset()
	second := render(s, 110, utterance())

	Equals(t, first, second)
}

func TestSeedChangesJitter(t *testing.T) {
	cfg := DefaultConfig()
	a := render(newTestSynth(t, cfg), 120, utterance())

	cfg.Seed = 99
	b := render(newTestSynth(t, cfg), 120, utterance())

	Assert(t, len(a) == len(b), "lengths differ")
	Assert(t, !equalSamples(a, b), "different jitter seeds rendered identical audio")
}

func equalSamples(a, b []int16) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOutputInRange(t *testing.T) {
	loud := vowelParams()
	loud[Av] = 200
	loud[Avc] = 90
	loud[Af] = 90
	loud[Asp] = 90
	loud[Ab] = 90
	loud[A2] = 90
	loud[F1] = 50000
	loud[Fn] = 20000

	for _, src := range []VoiceSource{Impulsive, Natural, Soft, Custom} {
		for _, model := range []Model{CascadeParallel, AllParallel} {
			cfg := DefaultConfig()
			cfg.Source = src
			cfg.Model = model
			cfg.Cascade = 8
			s := newTestSynth(t, cfg)

			out := render(s, 120, append(utterance(), loud, loud, loud))
			for i, v := range out {
				Assert(t, v >= -32767 && v <= 32767, "%s/%s sample %d out of range: %d", src, model, i, v)
			}
		}
	}
}

func TestProducesSound(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	out := render(s, 120, utterance())

	peak := 0
	for _, v := range out {
		if a := int(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	Assert(t, peak > 500, "expected audible output, peak %d", peak)
}

func TestPitchTracking(t *testing.T) {
	for _, f0 := range []float64{90, 120, 200} {
		s := newTestSynth(t, DefaultConfig())
		for i := 0; i < 100; i++ {
			s.GenerateFrame(f0, vowelParams())
		}

		st := s.Stats()
		Assert(t, st.VoicedSyncs > 50, "too few pitch periods at %v Hz: %d", f0, st.VoicedSyncs)
		Assert(t, math.Abs(st.MeanF0()-f0) < 0.1*f0, "mean F0 %v too far from %v", st.MeanF0(), f0)
	}
}

func TestNonPositiveF0UsesSpeaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jitter = 0
	cfg.Flutter = 0

	s := newTestSynth(t, cfg)
	for i := 0; i < 20; i++ {
		s.GenerateFrame(0, vowelParams())
	}
	Close(t, 120, s.Stats().MeanF0(), 1)

	s = newTestSynth(t, cfg)
	s.GenerateFrame(math.NaN(), vowelParams())
	Close(t, 120, s.f0, 1e-9)
}

func TestSilenceResetsResonators(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	for i := 0; i < 10; i++ {
		s.GenerateFrame(120, vowelParams())
	}

	s.GenerateFrame(120, Params{})
	for i, r := range s.resonators() {
		Assert(t, r.quiet(), "resonator %d still ringing after silence", i)
	}
	Equals(t, noiseRampLength, s.ramp)

	out := s.GenerateFrame(120, vowelParams())
	Assert(t, out[0] > -32767 && out[0] < 32767, "first resumed sample clipped: %d", out[0])
}

func TestFricationDoesNotReset(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	for i := 0; i < 10; i++ {
		s.GenerateFrame(120, vowelParams())
	}

	s.GenerateFrame(120, fricativeParams())
	Assert(t, !s.r2c.quiet(), "cascade history should survive a frication frame")
}

func TestVoicingFudge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jitter = 0
	s := newTestSynth(t, cfg)

	p := vowelParams()
	p[Av] = 7
	s.GenerateFrame(120, p)
	Equals(t, 0.0, s.ampAv)

	p[Av] = 64
	s.GenerateFrame(120, p)
	Equals(t, DbToLinear(57), s.ampAv)
}

func TestOpenPhase(t *testing.T) {
	cases := map[string]struct {
		override int
		kopen    float64
		exp      func(t0 int) int
	}{
		"frame kopen":    {kopen: 30, exp: func(int) int { return 30 }},
		"default third":  {kopen: 0, exp: func(t0 int) int { return t0 / 3 }},
		"override wins":  {override: 100, kopen: 30, exp: func(int) int { return 100 }},
		"override floor": {override: 1, kopen: 30, exp: func(int) int { return 4 }},
		"override ceil":  {override: 100000, exp: func(t0 int) int { return t0 }},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.KopenOverride = c.override
			s := newTestSynth(t, cfg)

			p := vowelParams()
			p[Kopen] = c.kopen
			s.GenerateFrame(120, p)

			Equals(t, c.exp(s.t0), s.nopen)
		})
	}
}

func TestNoiseModulationPoint(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())

	p := vowelParams()
	p[Kskew] = 40
	s.GenerateFrame(120, p)
	Equals(t, s.t0-40, s.nmod)

	p[Kskew] = -5
	s.GenerateFrame(120, p)
	Equals(t, s.t0, s.nmod)
}

func TestVoicelessPeriod(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	s.GenerateFrame(120, vowelParams())

	s.params = fricativeParams()
	s.pitchSync()
	Equals(t, minPeriod, s.t0)
	Equals(t, minPeriod, s.nopen)
	Equals(t, minPeriod, s.nmod)
	Equals(t, 0.0, s.ampAv)
}

func TestNoiseIsSignedAndCentred(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())

	sum := 0.0
	lo, hi := 0.0, 0.0
	for i := 0; i < 20000; i++ {
		n := s.genNoise()
		sum += n
		lo = math.Min(lo, n)
		hi = math.Max(hi, n)
	}

	Assert(t, lo >= -8*8192 && hi <= 8*8191, "noise out of range [%v, %v]", lo, hi)
	Assert(t, lo < 0 && hi > 0, "noise should swing both ways")
	Assert(t, math.Abs(sum/20000) < 500, "noise mean %v is biased", sum/20000)
}

func TestFlutterWraps(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	for i := 0; i <= flutterWrap; i++ {
		s.flutter(120)
	}
	Equals(t, 0, s.flutterT)

	cfg := DefaultConfig()
	cfg.Flutter = 0
	s = newTestSynth(t, cfg)
	Equals(t, 120.0, s.flutter(120))
}

func TestTiltAlpha(t *testing.T) {
	Equals(t, 0.0, tiltAlpha(0))
	Equals(t, 0.0, tiltAlpha(-3))
	Close(t, 1-math.Pow(10, -0.5), tiltAlpha(10), 1e-12)
	Equals(t, 0.99, tiltAlpha(200))
}
