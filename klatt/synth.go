package klatt

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Model selects the filter topology.
type Model int

const (
	// CascadeParallel sends voicing through the formant cascade and noise
	// through the parallel bank.
	CascadeParallel Model = iota
	// AllParallel drives every formant from the parallel bank.
	AllParallel
)

func (m Model) String() string {
	switch m {
	case CascadeParallel:
		return "cascade_parallel"
	case AllParallel:
		return "all_parallel"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel accepts a topology by name.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cascade_parallel", "cascade-parallel", "cascade":
		return CascadeParallel, nil
	case "all_parallel", "all-parallel", "parallel":
		return AllParallel, nil
	}
	return 0, fmt.Errorf("unknown synthesis model %q, valid options are: cascade_parallel, all_parallel", name)
}

const (
	MaxCascade = 8

	noiseSeed       = 5
	noiseRampLength = 80
	dcBlockR        = 0.99

	// Voicing is attenuated by a fixed calibration offset before the table
	// lookup.
	voicingFudgeDb = 7

	minPeriod = 4 // quarter samples

	flutterWrap = 1000
)

// Parallel branch gains applied on top of the dB amplitudes.
const (
	gainR1p    = 0.4
	gainRnp    = 0.6
	gainR2p    = 0.15
	gainR3p    = 0.06
	gainR4p    = 0.04
	gainR5p    = 0.022
	gainR6p    = 0.03
	gainBypass = 0.05
	gainAsp    = 0.05
	gainAf     = 0.25
	gainTurb   = 0.05
	gainBreath = 0.1
)

// Config holds the synthesizer settings that are fixed for its lifetime.
type Config struct {
	SampleRate int
	MsPerFrame float64

	Source         VoiceSource
	CustomWaveform []float64 // used by the Custom source

	Model   Model
	Cascade int // number of cascade formants, clamped to 1..8

	TiltDb        float64
	BreathinessDb float64
	KopenOverride int // open phase in quarter samples, <= 0 leaves it to the frame

	Jitter  float64 // relative pitch period perturbation
	Shimmer float64 // relative amplitude perturbation
	Flutter float64 // 0..100

	Seed int64 // jitter and shimmer generator seed
}

// DefaultConfig returns 16 kHz, 10 ms frames and the natural source.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		MsPerFrame: 10,
		Source:     Natural,
		Model:      CascadeParallel,
		Cascade:    5,
		Jitter:     0.015,
		Shimmer:    0.04,
		Flutter:    20,
		Seed:       noiseSeed,
	}
}

// Stats accumulates counters over the life of a synthesizer.
type Stats struct {
	Samples     int
	Clipped     int
	VoicedSyncs int
	F0Sum       float64 // sum of 4*sr/T0 over voiced pitch syncs
}

// MeanF0 is the average fundamental implied by the voiced pitch periods.
func (st Stats) MeanF0() float64 {
	if st.VoicedSyncs == 0 {
		return 0
	}
	return st.F0Sum / float64(st.VoicedSyncs)
}

// Synthesizer turns per-frame parameter vectors into 16 bit samples.
// It is not safe for concurrent use; separate instances share nothing.
type Synthesizer struct {
	cfg     Config
	speaker Speaker

	samplesPerFrame int
	cascade         int
	voiceMix        float64
	table           []float64

	params Params
	f0     float64

	// pitch synchronous state
	nper  int
	t0    int
	nopen int
	nmod  int

	ampAv     float64
	ampAvc    float64
	ampTurb   float64
	ampBreath float64
	ampBypass float64
	ampAsp    float64
	ampAf     float64

	tiltAlpha float64
	tiltPrev  float64

	ramp             int
	voicelessStarted bool
	wasVoiced        bool

	seed     uint32
	rng      *rand.Rand
	flutterT int
	ns       int
	dcX, dcY float64
	stats    Stats

	// cascade
	rgl  Resonator
	rnpc Resonator
	rnz  Resonator
	r1c  Resonator
	r2c  Resonator
	r3c  Resonator
	r4c  Resonator
	rsc  Resonator
	r5c  Resonator
	r6c  Resonator
	r7c  Resonator
	r8c  Resonator

	// parallel
	r1p  Resonator
	rnpp Resonator
	r2p  Resonator
	r3p  Resonator
	r4p  Resonator
	r5p  Resonator
	r6p  Resonator

	rout Resonator
}

// NewSynthesizer validates cfg and speaker and returns a synthesizer ready
// for its first frame.
func NewSynthesizer(cfg Config, speaker Speaker) (*Synthesizer, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}

	if !(cfg.MsPerFrame > 0) {
		return nil, fmt.Errorf("ms per frame must be positive, got %f", cfg.MsPerFrame)
	}

	spf := int(float64(cfg.SampleRate) * cfg.MsPerFrame / 1000)
	if spf < 1 {
		return nil, fmt.Errorf("frame of %f ms at %d Hz holds no samples", cfg.MsPerFrame, cfg.SampleRate)
	}

	if _, ok := voiceSourceNames[cfg.Source]; !ok {
		return nil, fmt.Errorf("unknown voice source, got %d", int(cfg.Source))
	}

	if cfg.Model != CascadeParallel && cfg.Model != AllParallel {
		return nil, fmt.Errorf("unknown synthesis model, got %d", int(cfg.Model))
	}

	if cfg.Jitter < 0 || cfg.Shimmer < 0 || cfg.Flutter < 0 {
		return nil, fmt.Errorf("jitter, shimmer and flutter cannot be negative, got %f, %f, %f", cfg.Jitter, cfg.Shimmer, cfg.Flutter)
	}

	if err := speaker.validate(); err != nil {
		return nil, err
	}

	s := &Synthesizer{
		cfg:             cfg,
		speaker:         speaker,
		samplesPerFrame: spf,
		table:           sourceTable(cfg.Source, cfg.CustomWaveform),
	}

	s.cascade = cfg.Cascade
	if s.cascade < 1 {
		s.cascade = 1
	}
	if s.cascade > MaxCascade {
		s.cascade = MaxCascade
	}
	if s.cascade >= 7 && cfg.SampleRate < 16000 {
		s.cascade = 6
	}

	if cfg.Model == AllParallel {
		s.voiceMix = 1
	}

	s.Reset()

	return s, nil
}

// Reset returns the synthesizer to its just-constructed state so a new
// utterance renders exactly as it would on a fresh instance.
func (s *Synthesizer) Reset() {
	s.params = Params{}
	s.f0 = s.speaker.F0Hz

	s.nper = 0
	s.t0 = minPeriod
	s.nopen = 0
	s.nmod = 0
	s.ampAv, s.ampAvc, s.ampTurb, s.ampBreath = 0, 0, 0, 0
	s.ampBypass, s.ampAsp, s.ampAf = 0, 0, 0

	s.tiltAlpha = tiltAlpha(s.cfg.TiltDb)
	s.tiltPrev = 0

	s.ramp = 0
	s.voicelessStarted = false
	s.wasVoiced = false

	s.seed = noiseSeed
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	s.flutterT = 0
	s.ns = 0
	s.dcX, s.dcY = 0, 0
	s.stats = Stats{}

	for _, r := range s.resonators() {
		*r = Resonator{}
	}
}

// SamplesPerFrame is the length of every slice GenerateFrame returns.
func (s *Synthesizer) SamplesPerFrame() int {
	return s.samplesPerFrame
}

// SampleRate returns the output rate in Hz.
func (s *Synthesizer) SampleRate() int {
	return s.cfg.SampleRate
}

// Stats returns the counters accumulated since the last Reset.
func (s *Synthesizer) Stats() Stats {
	return s.stats
}

func (s *Synthesizer) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sample Rate: %d\n", s.cfg.SampleRate)
	fmt.Fprintf(&b, "Frame: %.2f ms (%d samples)\n", s.cfg.MsPerFrame, s.samplesPerFrame)
	fmt.Fprintf(&b, "Source: %s\n", s.cfg.Source)
	fmt.Fprintf(&b, "Model: %s\n", s.cfg.Model)
	fmt.Fprintf(&b, "Cascade Formants: %d\n", s.cascade)
	fmt.Fprintf(&b, "Jitter: %.3f Shimmer: %.3f Flutter: %.0f\n", s.cfg.Jitter, s.cfg.Shimmer, s.cfg.Flutter)
	return b.String()
}

func (s *Synthesizer) resonators() []*Resonator {
	return []*Resonator{
		&s.rgl, &s.rnpc, &s.rnz, &s.r1c, &s.r2c, &s.r3c, &s.r4c, &s.rsc,
		&s.r5c, &s.r6c, &s.r7c, &s.r8c,
		&s.r1p, &s.rnpp, &s.r2p, &s.r3p, &s.r4p, &s.r5p, &s.r6p,
		&s.rout,
	}
}

// GenerateFrame synthesizes one frame at fundamental f0. A non-positive (or
// NaN) f0 falls back to the speaker's F0.
func (s *Synthesizer) GenerateFrame(f0 float64, params Params) []int16 {
	s.params = params

	voiced := params.Voiced()
	if !voiced {
		if params.Silent() && (s.wasVoiced || !s.voicelessStarted) {
			for _, r := range s.resonators() {
				r.Reset()
			}
			s.ramp = 0
		}
		s.voicelessStarted = true
		s.ampAv, s.ampAvc, s.ampTurb = 0, 0, 0
	} else {
		s.voicelessStarted = false
	}
	s.wasVoiced = voiced

	if !(f0 > 0) || math.IsInf(f0, 0) {
		f0 = s.speaker.F0Hz
	}
	s.f0 = s.flutter(f0)

	s.setupFrame()
	s.setCascade(s.samplesPerFrame)

	out := make([]int16, s.samplesPerFrame)
	for i := range out {
		out[i] = s.sample(voiced)

		s.r1c.Interpolate()
		s.r2c.Interpolate()
		s.r3c.Interpolate()

		s.ns++
	}
	s.stats.Samples += len(out)

	return out
}

func (s *Synthesizer) sample(voiced bool) int16 {
	noise := s.genNoise()

	var voice, lpvoice float64
	if voiced {
		voice = s.genVoice(noise)
		lpvoice = s.rgl.Process(voice)
	}

	if s.nper < s.nopen {
		voice += s.ampTurb * noise
	}

	if s.nper > s.nmod {
		noise *= 0.5
	}

	voice *= s.ampAv
	if s.cfg.Shimmer > 0 && s.ampAv > 0 {
		voice *= 1 + s.cfg.Shimmer*(s.rng.Float64()*2-1)
	}

	ramp := 1.0
	if s.ramp < noiseRampLength {
		ramp = float64(s.ramp) / noiseRampLength
		s.ramp++
	}

	voice += s.ampAsp * ramp * noise
	voice += s.ampAvc * lpvoice
	noise *= s.ampAf * ramp

	out := s.filterSample(voice, noise)

	if math.IsNaN(out) {
		return 0
	}
	if out > math.MaxInt16 {
		out = math.MaxInt16
		s.stats.Clipped++
	} else if out < -math.MaxInt16 {
		out = -math.MaxInt16
		s.stats.Clipped++
	}

	return int16(out)
}

// genNoise approximates gaussian noise by summing sixteen signed 14 bit
// draws from a linear congruential generator.
func (s *Synthesizer) genNoise() float64 {
	sum := 0.0
	for i := 0; i < 16; i++ {
		s.seed = s.seed*1664525 + 1
		sum += float64(int32(s.seed<<1) >> 18)
	}
	return sum / 2
}

// genVoice steps the glottal source four times, once per quarter sample,
// and returns the last value.
func (s *Synthesizer) genVoice(noise float64) float64 {
	var voice float64

	for i := 0; i < 4; i++ {
		if s.nper >= s.t0 {
			s.nper = 0
			s.pitchSync()
		}

		alpha := 0.0
		if s.t0 > 0 {
			alpha = float64(s.nper) / float64(s.t0)
		}

		if s.table != nil {
			voice = tableSample(s.table, alpha*float64(len(s.table))) * (4096.0 / 2500.0)
		} else {
			voice = impulsiveSample(alpha)
		}

		if s.ampBreath > 0 {
			voice += s.ampBreath * noise
		}

		if s.tiltAlpha > 0 {
			voice = voice*(1-s.tiltAlpha) + s.tiltPrev*s.tiltAlpha
			s.tiltPrev = voice
		}

		s.nper++
	}

	return voice
}

// pitchSync runs at the start of every glottal period.
func (s *Synthesizer) pitchSync() {
	ep := &s.params

	if ep.Voiced() {
		base := int(4 * float64(s.cfg.SampleRate) / s.f0)
		if s.cfg.Jitter > 0 {
			jit := float64(base) * s.cfg.Jitter * (s.rng.Float64()*2 - 1)
			s.t0 = maxInt(minPeriod, int(float64(base)+jit))
		} else {
			s.t0 = maxInt(minPeriod, base)
		}

		s.ampAv = DbToLinear(math.Max(0, ep[Av]-voicingFudgeDb))
		s.ampAvc = DbToLinear(ep[Avc])
		s.ampTurb = s.ampAvc * gainTurb

		switch {
		case s.cfg.KopenOverride > 0:
			s.nopen = clampInt(s.cfg.KopenOverride, minPeriod, s.t0)
		case ep[Kopen] > 0:
			s.nopen = clampInt(int(ep[Kopen]), minPeriod, s.t0)
		default:
			s.nopen = s.t0 / 3
		}

		s.ampBreath = DbToLinear(math.Max(s.cfg.BreathinessDb, ep[Aturb])) * gainBreath
		s.nmod = s.t0 - clampInt(int(ep[Kskew]), 0, s.t0)

		s.stats.VoicedSyncs++
		s.stats.F0Sum += 4 * float64(s.cfg.SampleRate) / float64(s.t0)
	} else {
		s.t0 = minPeriod
		s.nopen = s.t0
		s.ampAv = 0
		s.ampAvc = 0
		s.ampBreath = 0
		s.nmod = s.t0
	}

	if s.t0 != minPeriod || s.ns == 0 {
		s.rgl.Set(ResonatorCoeffs(s.cfg.SampleRate, 0, 2*s.f0, true))
	}

	s.tiltAlpha = tiltAlpha(math.Max(s.cfg.TiltDb, ep[Tlt]))
}

func tiltAlpha(db float64) float64 {
	if !(db > 0) {
		return 0
	}
	return math.Min(0.99, 1-math.Pow(10, -db/20))
}

// setupFrame loads the parallel bank, the noise gains and the output stage.
func (s *Synthesizer) setupFrame() {
	sr := s.cfg.SampleRate
	ep := &s.params
	spk := &s.speaker

	s.r2p.Set(parallelCoeffs(sr, spk.f2(ep), ep[B2], DbToLinear(ep[A2])*gainR2p))
	s.r3p.Set(parallelCoeffs(sr, spk.f3(ep), ep[B3], DbToLinear(ep[A3])*gainR3p))
	s.r1p.Set(parallelCoeffs(sr, spk.f1(ep), ep[B1p], DbToLinear(ep[A1])*gainR1p))
	s.rnpp.Set(parallelCoeffs(sr, spk.FNPHz, spk.BNHz, DbToLinear(ep[An])*gainRnp))
	s.r4p.Set(parallelCoeffs(sr, spk.F4Hz, spk.B4pHz, DbToLinear(ep[A4])*gainR4p))
	s.r5p.Set(parallelCoeffs(sr, spk.F5Hz, spk.B5pHz, DbToLinear(ep[A5])*gainR5p))
	s.r6p.Set(parallelCoeffs(sr, spk.F6Hz, spk.B6pHz, DbToLinear(ep[A6])*gainR6p))

	s.ampBypass = DbToLinear(ep[Ab]) * gainBypass
	s.ampAsp = DbToLinear(ep[Asp]) * gainAsp
	s.ampAf = DbToLinear(ep[Af]) * gainAf

	gain := spk.Gain0 - 3
	if gain <= 0 {
		gain = 57
	}
	a, b, c := ResonatorCoeffs(sr, 0, float64(sr)/2, true)
	s.rout.Set(a*DbToLinear(gain), b, c)
}

// parallelCoeffs is a parallel branch resonator with its input gain folded
// into a.
func parallelCoeffs(sampleRate int, freq, bandwidth, gain float64) (a, b, c float64) {
	a, b, c = ResonatorCoeffs(sampleRate, freq, bandwidth, false)
	return a * gain, b, c
}

// setCascade loads the cascade. F1..F3 glide over steps samples, the rest
// switch immediately.
func (s *Synthesizer) setCascade(steps int) {
	sr := s.cfg.SampleRate
	ep := &s.params
	spk := &s.speaker

	s.rnpc.Set(ResonatorCoeffs(sr, spk.FNPHz, spk.BNHz, true))
	s.rnz.Set(AntiresonatorCoeffs(sr, ep[Fn], spk.BNHz))
	s.rsc.Set(ResonatorCoeffs(sr, 3500, 1800, true))

	if s.cascade >= 8 {
		s.r8c.Set(ResonatorCoeffs(sr, 7500, 600, true))
	}
	if s.cascade >= 7 {
		s.r7c.Set(ResonatorCoeffs(sr, 6500, 500, true))
	}
	if s.cascade >= 6 {
		s.r6c.Set(ResonatorCoeffs(sr, spk.F6Hz, spk.B6Hz, true))
	}
	if s.cascade >= 5 {
		s.r5c.Set(ResonatorCoeffs(sr, spk.F5Hz, spk.B5Hz, true))
	}
	if s.cascade >= 4 {
		s.r4c.Set(ResonatorCoeffs(sr, spk.F4Hz, spk.B4Hz, true))
	}

	a, b, c := ResonatorCoeffs(sr, spk.f3(ep), ep[B3], true)
	s.r3c.SetTarget(a, b, c, steps)
	a, b, c = ResonatorCoeffs(sr, spk.f2(ep), ep[B2], true)
	s.r2c.SetTarget(a, b, c, steps)
	a, b, c = ResonatorCoeffs(sr, spk.f1(ep), ep[B1], true)
	s.r1c.SetTarget(a, b, c, steps)
}

func (s *Synthesizer) filterSample(voice, noise float64) float64 {
	var cascade float64

	if s.cfg.Model != AllParallel {
		cascade = s.rnpc.Process(voice)
		cascade = s.rnz.ProcessZero(cascade)
		cascade = s.r1c.Process(cascade)
		if s.cascade >= 2 {
			cascade = s.r2c.Process(cascade)
		}
		if s.cascade >= 3 {
			cascade = s.r3c.Process(cascade)
		}
		if s.cascade >= 4 {
			cascade = s.r4c.Process(cascade)
			cascade = s.rsc.Process(cascade)
		}
		if s.cascade >= 5 {
			cascade = s.r5c.Process(cascade)
		}
		if s.cascade >= 6 {
			cascade = s.r6c.Process(cascade)
		}
		if s.cascade >= 7 {
			cascade = s.r7c.Process(cascade)
		}
		if s.cascade >= 8 {
			cascade = s.r8c.Process(cascade)
		}
	}

	parVoiced := (s.r1p.Process(voice) + s.rnpp.Process(voice)) * s.voiceMix
	parNoise := s.r2p.Process(noise) +
		s.r3p.Process(noise) +
		s.r4p.Process(noise) +
		s.r5p.Process(noise) +
		s.r6p.Process(noise) +
		s.ampBypass*noise

	out := s.rout.Process(cascade + parVoiced + parNoise)

	return s.dcBlock(out)
}

func (s *Synthesizer) dcBlock(x float64) float64 {
	y := x - s.dcX + dcBlockR*s.dcY
	s.dcX = x
	s.dcY = y
	return y
}

// flutter adds a slow three-sine wobble to f0 and steps its clock once.
func (s *Synthesizer) flutter(f0 float64) float64 {
	if s.cfg.Flutter <= 0 {
		return f0
	}

	t := float64(s.flutterT)
	wobble := math.Sin(2*math.Pi*12.7*t) + math.Sin(2*math.Pi*7.1*t) + math.Sin(2*math.Pi*4.7*t)
	delta := (s.cfg.Flutter / 50) * (f0 / 100) * wobble * 10

	s.flutterT++
	if s.flutterT > flutterWrap {
		s.flutterT = 0
	}

	return f0 + delta
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
