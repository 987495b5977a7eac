package render

import (
	"fmt"
	"io"
	"strings"

	"gorsynth/elements"
	"gorsynth/holmes"
	"gorsynth/klatt"
)

// VoicingThreshold is the av or avc level above which a frame counts as
// voiced in a report. Smoothing tails below it are treated as silence.
const VoicingThreshold = 0.1

// Voicing classifies a frame for reports.
func Voicing(p *klatt.Params) string {
	switch {
	case p[klatt.Av] > VoicingThreshold:
		return "VOICED"
	case p[klatt.Avc] > VoicingThreshold:
		return "VOICE-BAR"
	}
	return "VOICELESS"
}

// Report writes a human readable breakdown of an utterance: its element
// sequence, a table of the main frame parameters and a voicing summary.
// Long utterances show only the first, middle and last ten frames unless
// all is set.
func Report(w io.Writer, table *elements.Table, msPerFrame float64, segments []holmes.Segment, frames []holmes.Frame, all bool) error {
	ew := &errWriter{w: w}

	total := 0
	for _, s := range segments {
		total += s.Frames
	}

	ew.printf("=== ELEMENT SEQUENCE ===\n")
	ew.printf("  Total duration: %d frames (%.0fms at %gms/frame)\n\n", total, float64(total)*msPerFrame, msPerFrame)
	ew.printf("  %4s %10s %5s %s\n", "Idx", "Element", "Dur", "Unicode")
	ew.printf("  %4s %10s %5s %s\n", strings.Repeat("-", 4), strings.Repeat("-", 10), strings.Repeat("-", 5), strings.Repeat("-", 8))
	for _, s := range segments {
		e, ok := table.ByIndex(s.Element)
		if !ok {
			return fmt.Errorf("element index %d out of range", s.Element)
		}
		ew.printf("  %4d %10s %5d %s\n", s.Element, e.Name, s.Frames, e.Unicode)
	}

	ew.printf("\n=== FRAME PARAMETERS ===\n")
	ew.printf("  %5s %6s %8s %8s %8s %8s %6s %6s %6s\n", "Frame", "F0", "av", "avc", "af", "asp", "f1", "f2", "f3")
	ew.printf("  %5s %6s %8s %8s %8s %8s %6s %6s %6s\n",
		strings.Repeat("-", 5), strings.Repeat("-", 6),
		strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 8),
		strings.Repeat("-", 6), strings.Repeat("-", 6), strings.Repeat("-", 6))

	row := func(i int) {
		f := frames[i]
		p := &f.Params
		ew.printf("  %5d %6.1f %8.2f %8.2f %8.2f %8.2f %6.0f %6.0f %6.0f\n",
			i, f.F0, p[klatt.Av], p[klatt.Avc], p[klatt.Af], p[klatt.Asp], p[klatt.F1], p[klatt.F2], p[klatt.F3])
	}

	if all || len(frames) <= 30 {
		for i := range frames {
			row(i)
		}
	} else {
		ew.printf("  (first 10, middle 10 and last 10 frames)\n")
		for i := 0; i < 10; i++ {
			row(i)
		}
		ew.printf("  ...\n")
		mid := len(frames) / 2
		for i := mid - 5; i < mid+5; i++ {
			row(i)
		}
		ew.printf("  ...\n")
		for i := len(frames) - 10; i < len(frames); i++ {
			row(i)
		}
	}

	voiced := 0
	for i := range frames {
		if Voicing(&frames[i].Params) != "VOICELESS" {
			voiced++
		}
	}

	ew.printf("\n=== SUMMARY ===\n")
	ew.printf("  Total frames: %d\n", len(frames))
	ew.printf("  Voiced frames (av or avc > %g): %d\n", VoicingThreshold, voiced)
	ew.printf("  Voiceless frames: %d\n", len(frames)-voiced)

	ew.printf("\n=== FINAL FRAMES ===\n")
	start := len(frames) - 5
	if start < 0 {
		start = 0
	}
	for i := start; i < len(frames); i++ {
		p := &frames[i].Params
		ew.printf("  Frame %d: av=%.2f, avc=%.2f, af=%.2f -> %s\n", i, p[klatt.Av], p[klatt.Avc], p[klatt.Af], Voicing(p))
	}

	return ew.err
}

// errWriter keeps the first write error so the report can be written
// without checking each line.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
