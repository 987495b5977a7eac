// Package phonemes converts SAMPA phoneme strings into element segments and a
// stress driven F0 contour for the frame generator.
package phonemes

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gorsynth/elements"
	"gorsynth/holmes"
)

// sampa maps each SAMPA symbol to the elements that realise it.
var sampa = map[string][]string{
	// silences
	".": {"END"},
	" ": {"Q"},
	"_": {"Q"},
	"#": {"Q"},

	// affricates
	"tS": {"T", "CH"},
	"dZ": {"D", "DY", "DZ", "ZH", "ZH"},

	// plosives
	"p": {"P", "PY", "PZ"},
	"b": {"B", "BY", "BZ"},
	"t": {"T", "TY", "TZ"},
	"d": {"D", "DY", "DZ"},
	"k": {"K", "KY", "KZ"},
	"g": {"G", "GY", "GZ"},
	"?": {"QQ"},

	// nasals
	"m": {"M"},
	"n": {"N"},
	"N": {"NG"},

	// trills and flaps
	"4":  {"DT"},
	"rr": {"R", "QQ", "R"},
	"R":  {"RX"},
	"`":  {"RX"},

	// fricatives
	"f": {"F"},
	"v": {"V"},
	"T": {"TH"},
	"D": {"DH"},
	"s": {"S"},
	"z": {"Z"},
	"S": {"SH"},
	"Z": {"ZH"},
	"x": {"X"},
	"h": {"H"},

	// laterals and approximants
	"l": {"L"},
	"K": {"HL"},
	"5": {"LL"},
	"w": {"W"},
	"j": {"Y"},
	"r": {"R"},

	// diphthongs
	"eI": {"AI", "I"},
	"aI": {"IE", "I"},
	"OI": {"OI", "I"},
	"aU": {"AI", "OV"},
	"@U": {"OA", "OV"},
	"I@": {"IA", "IB"},
	"e@": {"AIR", "IB"},
	"U@": {"OOR", "IB"},
	"O@": {"OI", "IB"},
	"oU": {"o", "OV"},

	// vowels
	"i":   {"EE"},
	"y":   {"YY"},
	"1":   {"EY"},
	"}":   {"JU"},
	"M":   {"UW"},
	"u":   {"UU"},
	"I":   {"I"},
	"Y":   {"IU"},
	"U":   {"OO"},
	"e":   {"e"},
	"e~":  {"eN"},
	"2":   {"EU"},
	"@\\": {"Ur"},
	"8":   {"UR"},
	"7":   {"UE"},
	"o":   {"o"},
	"o~":  {"oN"},
	"@":   {"A"},
	"E":   {"EH"},
	"9":   {"oe"},
	"9~":  {"oeN"},
	"3":   {"ER"},
	"3\\": {"Er"},
	"V":   {"U"},
	"O":   {"AW"},
	"{":   {"AA"},
	"6":   {"AA"},
	"a":   {"a"},
	"a~":  {"aN"},
	"&":   {"OE"},
	"A":   {"AR"},
	"Q":   {"O"},
}

// symbols holds the keys of sampa, longest first.
var symbols = func() []string {
	keys := make([]string, 0, len(sampa))
	for k := range sampa {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

const (
	// declinePerFrame is how far F0 drifts down each frame between stresses.
	declinePerFrame = 0.12
	declineFloor    = 0.7
	stressPulse     = 0.02
	startRise       = 1.1
)

// Options controls timing and intonation.
type Options struct {
	Speed          float64
	F0Default      float64
	Flat           bool // monotone at F0Default
	WordBoundaries bool
}

// DefaultOptions returns normal speed, 120 Hz and natural intonation.
func DefaultOptions() Options {
	return Options{Speed: 1, F0Default: 120}
}

// Result is a converted utterance.
type Result struct {
	Segments []holmes.Segment
	Contour  []float64
	// WordBoundaries holds the frame each word starts at, when requested.
	WordBoundaries []int
}

// Frames is the total length of the segments.
func (r Result) Frames() int {
	n := 0
	for _, s := range r.Segments {
		n += s.Frames
	}
	return n
}

// Symbols returns the recognised SAMPA symbols, longest first.
func Symbols() []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}

// Convert turns a SAMPA string into segments and an F0 contour. Stress marks
// ' , and + (primary, secondary, tertiary) lengthen the following vowel and
// kick the pitch up; between stresses the pitch declines. Characters that
// are not SAMPA are skipped.
func Convert(table *elements.Table, phonemes string, opts Options) (Result, error) {
	if table == nil {
		return Result{}, fmt.Errorf("element table is required")
	}
	if !(opts.Speed > 0) {
		return Result{}, fmt.Errorf("speed must be positive, got %f", opts.Speed)
	}
	if !(opts.F0Default > 0) {
		return Result{}, fmt.Errorf("default F0 must be positive, got %f", opts.F0Default)
	}

	c := converter{
		table: table,
		opts:  opts,
		f0:    opts.F0Default * startRise,
	}
	if opts.Flat {
		c.f0 = opts.F0Default
	}
	c.res.Contour = []float64{c.f0}
	if opts.WordBoundaries {
		c.res.WordBoundaries = []int{0}
		c.wordStart = true
	}

	for i := 0; i < len(phonemes); {
		switch phonemes[i] {
		case '\'':
			c.stressMark(3)
			i++
			continue
		case ',':
			c.stressMark(2)
			i++
			continue
		case '+':
			c.stressMark(1)
			i++
			continue
		case '-', ':':
			i++
			continue
		}

		sym, ok := match(phonemes[i:])
		if !ok {
			i++
			continue
		}
		c.phoneme(sym)
		i += len(sym)
	}

	c.trailingPause()

	if !opts.Flat {
		if elapsed := c.t - c.lastStress; elapsed > 0 {
			c.f0 = c.decline(elapsed)
			c.res.Contour = append(c.res.Contour, float64(elapsed), c.f0)
		}
	}

	return c.res, nil
}

func match(s string) (string, bool) {
	for _, sym := range symbols {
		if strings.HasPrefix(s, sym) {
			return sym, true
		}
	}
	return "", false
}

type converter struct {
	table *elements.Table
	opts  Options
	res   Result

	stress     int
	t          int
	lastStress int
	seenVowel  bool
	wordStart  bool
	f0         float64
}

func (c *converter) decline(elapsed int) float64 {
	return math.Max(c.f0-declinePerFrame*float64(elapsed), declineFloor*c.opts.F0Default)
}

func (c *converter) stressMark(level int) {
	c.stress = level
	if c.opts.Flat {
		return
	}

	c.seenVowel = false

	if elapsed := c.t - c.lastStress; elapsed > 0 {
		c.f0 = c.decline(elapsed)
		c.res.Contour = append(c.res.Contour, float64(elapsed), c.f0)
	}
	c.lastStress = c.t

	// zero duration: an instant pitch pulse
	c.f0 += c.opts.F0Default * float64(c.stress) * stressPulse
	c.res.Contour = append(c.res.Contour, 0, c.f0)
}

func (c *converter) phoneme(sym string) {
	if c.opts.WordBoundaries && sym == " " {
		c.wordStart = true
	}

	for _, name := range sampa[sym] {
		idx, ok := c.table.Index(name)
		if !ok {
			continue
		}
		e, _ := c.table.ByIndex(idx)

		var dur int
		if c.stress > 0 && e.Stressable() {
			dur = int((float64(e.Ud) + float64(e.Du-e.Ud)*float64(c.stress)/3) * c.opts.Speed)
		} else {
			dur = int(float64(e.Du) * c.opts.Speed)
		}
		c.res.Segments = append(c.res.Segments, holmes.Segment{Element: idx, Frames: dur})

		if c.opts.WordBoundaries && c.wordStart && sym != " " && sym != "." {
			if last := c.res.WordBoundaries[len(c.res.WordBoundaries)-1]; last != c.t {
				c.res.WordBoundaries = append(c.res.WordBoundaries, c.t)
			}
			c.wordStart = false
		}

		c.t += dur

		if e.Stressable() {
			c.seenVowel = true
		} else if c.seenVowel {
			c.stress = 0
		}
	}

	c.stress = 0
}

// trailingPause lets the tail decay into silence when the input does not
// end in a pause.
func (c *converter) trailingPause() {
	segs := c.res.Segments
	if len(segs) == 0 {
		return
	}

	last, _ := c.table.ByIndex(segs[len(segs)-1].Element)
	if last.Name == elements.PauseName || last.Name == elements.BoundaryName {
		return
	}

	idx, ok := c.table.Index(elements.PauseName)
	if !ok {
		idx = c.table.Boundary()
	}
	e, _ := c.table.ByIndex(idx)

	dur := int(float64(e.Du) * c.opts.Speed)
	if dur <= 0 {
		dur = e.Du
		if dur < 1 {
			dur = 1
		}
	}

	c.res.Segments = append(c.res.Segments, holmes.Segment{Element: idx, Frames: dur})
	c.t += dur
}
