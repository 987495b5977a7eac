package cli

import (
	"os"
	"path/filepath"
	"testing"

	"gorsynth/config"
	. "gorsynth/testing_utilities"
)

func TestParseOutputFilePath(t *testing.T) {
	tmp := t.TempDir()

	changed := config.Default()
	changed.Frames.Speed = 1.25
	changed.Speaker.F0 = 95
	changed.Frames.Flat = true
	changed.Synth.Source = "soft"
	changed.Synth.Model = "all_parallel"
	changed.Synth.SampleRate = 11025

	tests := map[string]struct {
		outputPath string
		parsedArgs *Arguments
		expected   string
		hasError   bool
	}{
		"full file path": {
			outputPath: filepath.Join(tmp, "hello.wav"),
			parsedArgs: &Arguments{},
			expected:   filepath.Join(tmp, "hello.wav"),
		},
		"aiff file path": {
			outputPath: filepath.Join(tmp, "hello.aiff"),
			parsedArgs: &Arguments{},
			expected:   filepath.Join(tmp, "hello.aiff"),
		},
		"full file path but directory does not exist": {
			outputPath: filepath.Join(tmp, "nothere", "hello.wav"),
			parsedArgs: &Arguments{},
			hasError:   true,
		},
		"unsupported extension": {
			outputPath: filepath.Join(tmp, "hello.mp3"),
			parsedArgs: &Arguments{},
			hasError:   true,
		},
		"directory only, defaults": {
			outputPath: tmp,
			parsedArgs: &Arguments{Phonemes: "h@'loU", Config: config.Default()},
			expected:   filepath.Join(tmp, "h_loU.wav"),
		},
		"directory only, no defaults": {
			outputPath: tmp,
			parsedArgs: &Arguments{Phonemes: "a", Config: changed},
			expected:   filepath.Join(tmp, "a-sp125-f95-flat-soft-par-r11025.wav"),
		},
		"directory only, nothing nameable": {
			outputPath: tmp,
			parsedArgs: &Arguments{Phonemes: "''"},
			expected:   filepath.Join(tmp, "utterance.wav"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			output, err := parseOutputFilePath(test.outputPath, test.parsedArgs)

			if !test.hasError {
				Ok(t, err)
				Equals(t, test.expected, output)
			} else {
				Assert(t, err != nil, "err should not be nil")
			}
		})
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"h@'loU":  "h_loU",
		"a b":     "a_b",
		"@@@":     "utterance",
		"tSi:z  ": "tSi_z",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}

	for in, exp := range cases {
		t.Run(in, func(t *testing.T) {
			Equals(t, exp, slug(in))
		})
	}
}

func TestParseFlagsSay(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.wav")

	args, err := ParseFlags([]string{"gorsynth", "say", "-p", "h@'loU", "-f", out, "-speed", "1.5", "-parallel", "-q"}, "test")
	Ok(t, err)

	Equals(t, SayCommand, args.Command)
	Equals(t, "h@'loU", args.Phonemes)
	Equals(t, out, args.OutputPath)
	Assert(t, args.Quiet, "quiet should be set")
	Equals(t, 1.5, args.Config.Frames.Speed)
	Equals(t, "all_parallel", args.Config.Synth.Model)

	// untouched settings keep their defaults
	Equals(t, 16000, args.Config.Synth.SampleRate)
	Equals(t, "natural", args.Config.Synth.Source)
}

func TestParseFlagsOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	voice := filepath.Join(dir, "voice.yaml")
	Ok(t, os.WriteFile(voice, []byte("speaker:\n  f0: 100\nsynth:\n  jitter: 0.5\n"), 0644))

	args, err := ParseFlags([]string{"gorsynth", "say", "-c", voice, "-p", "a", "-f", dir, "-jitter", "0.1"}, "test")
	Ok(t, err)

	Equals(t, voice, args.ConfigPath)
	Equals(t, 100.0, args.Config.Speaker.F0)
	Equals(t, 0.1, args.Config.Synth.Jitter)
	Equals(t, filepath.Join(dir, "a-f100.wav"), args.OutputPath)
}

func TestParseFlagsWaveImpliesCustom(t *testing.T) {
	dir := t.TempDir()

	args, err := ParseFlags([]string{"gorsynth", "say", "-p", "a", "-f", dir, "-wave", "pulse.wav"}, "test")
	Ok(t, err)
	Equals(t, "custom", args.Config.Synth.Source)
	Equals(t, "pulse.wav", args.Config.Synth.Waveform)

	args, err = ParseFlags([]string{"gorsynth", "say", "-p", "a", "-f", dir, "-wave", "pulse.wav", "-source", "soft"}, "test")
	Ok(t, err)
	Equals(t, "soft", args.Config.Synth.Source)
}

func TestParseFlagsPhonemeFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hello.txt")
	Ok(t, os.WriteFile(in, []byte("  h@'loU\n"), 0644))

	args, err := ParseFlags([]string{"gorsynth", "frames", "-i", in}, "test")
	Ok(t, err)
	Equals(t, "h@'loU", args.Phonemes)
}

func TestParseFlagsFrames(t *testing.T) {
	dir := t.TempDir()

	args, err := ParseFlags([]string{"gorsynth", "frames", "-p", "a", "-chart", dir, "-all", "-w", "hamming", "-flat"}, "test")
	Ok(t, err)

	Equals(t, FramesCommand, args.Command)
	Equals(t, dir, args.ChartDir)
	Assert(t, args.AllFrames, "all should be set")
	Equals(t, "hamming", args.Window)
	Assert(t, args.Config.Frames.Flat, "flat should be set")
	Equals(t, "", args.OutputPath)
}

func TestParseFlagsErrors(t *testing.T) {
	dir := t.TempDir()

	cases := map[string][]string{
		"no command":      {"gorsynth"},
		"unknown command": {"gorsynth", "time"},
		"no phonemes":     {"gorsynth", "say", "-f", dir},
		"no output":       {"gorsynth", "say", "-p", "a"},
		"bad output":      {"gorsynth", "say", "-p", "a", "-f", filepath.Join(dir, "x.ogg")},
		"bad flag":        {"gorsynth", "say", "-p", "a", "-f", dir, "-bogus"},
		"bad window":      {"gorsynth", "frames", "-p", "a", "-w", "kaiser"},
		"missing config":  {"gorsynth", "frames", "-p", "a", "-c", filepath.Join(dir, "nope.yaml")},
		"missing input":   {"gorsynth", "frames", "-i", filepath.Join(dir, "nope.txt")},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFlags(args, "test")
			Assert(t, err != nil, "expected an error for %v", args)
		})
	}
}

func TestParseFlagsVersion(t *testing.T) {
	for _, v := range []string{"version", "-v", "--version"} {
		args, err := ParseFlags([]string{"gorsynth", v}, "1.2.3")
		Ok(t, err)
		Equals(t, VersionCommand, args.Command)
	}
}
