package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorsynth/audioio"
	"gorsynth/config"
	"gorsynth/spectrum"
)

const (
	SayCommand     = "say"
	FramesCommand  = "frames"
	VersionCommand = "version"
)

type Arguments struct {
	Command    string
	Phonemes   string
	OutputPath string
	ConfigPath string
	Quiet      bool

	// frames only
	ChartDir  string
	AllFrames bool
	Window    string

	// Config is the voice file with any flags applied on top.
	Config *config.Config
}

func usage(version string) error {
	return fmt.Errorf("usage: gorsynth <command> <args>\n\nversion %s\n\nAvailable Commands:\n\n    say       synthesize SAMPA phonemes to a WAVE or AIFF file\n    frames    print the frame parameters of SAMPA phonemes, optionally charting them\n    version   print the version\n\nFor specific command options:\n\ngorsynth <command> -h\n\n", version)
}

// voiceFlags are the settings shared by say and frames. Each one overrides
// the voice file only when given on the command line.
type voiceFlags struct {
	phonemes  *string
	input     *string
	configAt  *string
	rate      *int
	ms        *float64
	speed     *float64
	smooth    *float64
	f0        *float64
	flat      *bool
	source    *string
	wave      *string
	cascade   *int
	parallel  *bool
	tilt      *float64
	breath    *float64
	kopen     *int
	jitter    *float64
	shimmer   *float64
	flutter   *float64
	seed      *int64
	elements  *string
	logLevel  *string
	logFile   *string
	quiet     *bool
	wordBound *bool
}

func addVoiceFlags(fs *flag.FlagSet) *voiceFlags {
	def := config.Default()

	return &voiceFlags{
		phonemes:  fs.String("p", "", "phonemes: SAMPA string to speak, stress marks ' , + before a vowel"),
		input:     fs.String("i", "", "input file: path to a text file holding the SAMPA string, used when -p is not given"),
		configAt:  fs.String("c", "", "config: path to a YAML voice file, flags override it"),
		rate:      fs.Int("r", def.Synth.SampleRate, "sample rate in Hz"),
		ms:        fs.Float64("ms", def.Synth.MsPerFrame, "milliseconds per frame"),
		speed:     fs.Float64("speed", def.Frames.Speed, "speed: duration multiplier, greater than 1 is slower"),
		smooth:    fs.Float64("smooth", def.Frames.Smooth, "smoothing: parameter smoothing coefficient in (0, 1], 1 disables smoothing"),
		f0:        fs.Float64("f0", def.Speaker.F0, "base pitch in Hz"),
		flat:      fs.Bool("flat", false, "flat intonation: monotone at the base pitch"),
		source:    fs.String("source", def.Synth.Source, "voice source: impulsive, natural, soft or custom"),
		wave:      fs.String("wave", "", "waveform: WAVE or AIFF file holding one glottal period for the custom source"),
		cascade:   fs.Int("cascade", def.Synth.Cascade, "number of cascade formants, 1 to 8"),
		parallel:  fs.Bool("parallel", false, "all parallel synthesis instead of cascade/parallel"),
		tilt:      fs.Float64("tilt", def.Synth.TiltDb, "spectral tilt in dB"),
		breath:    fs.Float64("breath", def.Synth.BreathinessDb, "breathiness in dB"),
		kopen:     fs.Int("kopen", def.Synth.Kopen, "open phase override in quarter samples, 0 uses the phoneme's"),
		jitter:    fs.Float64("jitter", def.Synth.Jitter, "relative pitch period jitter"),
		shimmer:   fs.Float64("shimmer", def.Synth.Shimmer, "relative amplitude shimmer"),
		flutter:   fs.Float64("flutter", def.Synth.Flutter, "slow pitch flutter, 0 to 100"),
		seed:      fs.Int64("seed", def.Synth.Seed, "seed for jitter and shimmer"),
		elements:  fs.String("elements", "", "element table: YAML file replacing the built in table"),
		logLevel:  fs.String("log", def.Log.Level, "log level: debug, info, warn or error"),
		logFile:   fs.String("log-file", "", "also write logs to this rotating file"),
		quiet:     fs.Bool("q", false, "quiet flag: suppress informational output"),
		wordBound: fs.Bool("words", false, "report word boundaries"),
	}
}

// apply loads the voice file, then lays every flag given on the command
// line over it.
func (v *voiceFlags) apply(fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if *v.configAt != "" {
		var err error
		cfg, err = config.Load(*v.configAt)
		if err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "r":
			cfg.Synth.SampleRate = *v.rate
		case "ms":
			cfg.Synth.MsPerFrame = *v.ms
		case "speed":
			cfg.Frames.Speed = *v.speed
		case "smooth":
			cfg.Frames.Smooth = *v.smooth
		case "f0":
			cfg.Speaker.F0 = *v.f0
		case "flat":
			cfg.Frames.Flat = *v.flat
		case "source":
			cfg.Synth.Source = *v.source
		case "wave":
			cfg.Synth.Waveform = *v.wave
			if !isSet(fs, "source") {
				cfg.Synth.Source = "custom"
			}
		case "cascade":
			cfg.Synth.Cascade = *v.cascade
		case "parallel":
			if *v.parallel {
				cfg.Synth.Model = "all_parallel"
			} else {
				cfg.Synth.Model = "cascade_parallel"
			}
		case "tilt":
			cfg.Synth.TiltDb = *v.tilt
		case "breath":
			cfg.Synth.BreathinessDb = *v.breath
		case "kopen":
			cfg.Synth.Kopen = *v.kopen
		case "jitter":
			cfg.Synth.Jitter = *v.jitter
		case "shimmer":
			cfg.Synth.Shimmer = *v.shimmer
		case "flutter":
			cfg.Synth.Flutter = *v.flutter
		case "seed":
			cfg.Synth.Seed = *v.seed
		case "elements":
			cfg.Elements = *v.elements
		case "log":
			cfg.Log.Level = *v.logLevel
		case "log-file":
			cfg.Log.File = *v.logFile
		case "words":
			cfg.Frames.WordBoundaries = *v.wordBound
		}
	})

	return cfg, nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// readPhonemes takes -p, or the contents of -i.
func (v *voiceFlags) readPhonemes(command string) (string, error) {
	if *v.phonemes != "" {
		return *v.phonemes, nil
	}

	if *v.input != "" {
		data, err := os.ReadFile(*v.input)
		if err != nil {
			return "", err
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			return s, nil
		}
	}

	return "", fmt.Errorf("Required argument missing:\n\n-p <SAMPA phonemes> or -i <path to phoneme file> is required, for help:\n\ngorsynth %s -h\n\n", command)
}

func ParseFlags(args []string, version string) (*Arguments, error) {
	cmdError := usage(version)

	if len(args) < 2 {
		return nil, cmdError
	}

	parsedArgs := &Arguments{Command: args[1]}

	switch args[1] {
	case SayCommand:
		sayCmd := flag.NewFlagSet(SayCommand, flag.ContinueOnError)
		voice := addVoiceFlags(sayCmd)
		sayOutput := sayCmd.String("f", "", "output file: path to write a .wav or .aif file, or an existing directory to name one automatically. It will be overwritten if it exists")

		if err := sayCmd.Parse(args[2:]); err != nil {
			return nil, err
		}

		phonemes, err := voice.readPhonemes(SayCommand)
		if err != nil {
			return nil, err
		}
		parsedArgs.Phonemes = phonemes
		parsedArgs.ConfigPath = *voice.configAt
		parsedArgs.Quiet = *voice.quiet

		if parsedArgs.Config, err = voice.apply(sayCmd); err != nil {
			return nil, err
		}

		if len(*sayOutput) == 0 {
			return nil, fmt.Errorf("Required argument missing:\n\n-f <path to output file> is required, for help:\n\ngorsynth say -h\n\n")
		}

		if parsedArgs.OutputPath, err = parseOutputFilePath(*sayOutput, parsedArgs); err != nil {
			return nil, err
		}
	case FramesCommand:
		framesCmd := flag.NewFlagSet(FramesCommand, flag.ContinueOnError)
		voice := addVoiceFlags(framesCmd)
		chartDir := framesCmd.String("chart", "", "chart directory: write HTML charts of the parameter tracks and spectrum here")
		all := framesCmd.Bool("all", false, "all frames: print every frame and chart every parameter")
		window := framesCmd.String("w", "vonhann", "window: spectrum analysis window, one of: "+spectrum.WindowNamesString())

		if err := framesCmd.Parse(args[2:]); err != nil {
			return nil, err
		}

		phonemes, err := voice.readPhonemes(FramesCommand)
		if err != nil {
			return nil, err
		}
		parsedArgs.Phonemes = phonemes
		parsedArgs.ConfigPath = *voice.configAt
		parsedArgs.Quiet = *voice.quiet
		parsedArgs.AllFrames = *all

		if _, err := spectrum.ParseWindow(*window); err != nil {
			return nil, err
		}
		parsedArgs.Window = *window

		if *chartDir != "" {
			parsedArgs.ChartDir, _ = filepath.Abs(*chartDir)
		}

		if parsedArgs.Config, err = voice.apply(framesCmd); err != nil {
			return nil, err
		}
	case VersionCommand, "-v", "--version":
		parsedArgs.Command = VersionCommand
	default:
		return nil, cmdError
	}

	return parsedArgs, nil
}

// parseOutputFilePath resolves -f. A file path must have a sound file
// extension and an existing directory. An existing directory gets a file
// name built from the phonemes and any settings that differ from the
// defaults.
func parseOutputFilePath(outputPath string, parsedArgs *Arguments) (string, error) {
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		return filepath.Join(absPath, outputFileName(parsedArgs)), nil
	}

	if _, err := audioio.FileTypeFromExtension(absPath); err != nil {
		return "", fmt.Errorf("output %s must be an existing directory or end in .wav, .wave, .aif or .aiff", outputPath)
	}

	dir := filepath.Dir(absPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("output directory %s does not exist", dir)
	}

	return absPath, nil
}

func outputFileName(parsedArgs *Arguments) string {
	var b strings.Builder
	b.WriteString(slug(parsedArgs.Phonemes))

	cfg := parsedArgs.Config
	if cfg == nil {
		cfg = config.Default()
	}
	def := config.Default()

	if cfg.Frames.Speed != def.Frames.Speed {
		b.WriteString("-sp" + compact(cfg.Frames.Speed))
	}
	if cfg.Speaker.F0 != def.Speaker.F0 {
		b.WriteString("-f" + compact(cfg.Speaker.F0))
	}
	if cfg.Frames.Flat {
		b.WriteString("-flat")
	}
	if cfg.Synth.Source != def.Synth.Source {
		b.WriteString("-" + strings.ToLower(cfg.Synth.Source))
	}
	if cfg.Synth.Model != def.Synth.Model {
		b.WriteString("-par")
	}
	if cfg.Synth.SampleRate != def.Synth.SampleRate {
		b.WriteString("-r" + strconv.Itoa(cfg.Synth.SampleRate))
	}

	return b.String() + audioio.TypeWAVE.Extension()
}

// compact drops the decimal point: 1.25 becomes 125, 0.5 becomes 05.
func compact(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", "", 1)
}

// slug makes a file name safe stem out of a phoneme string.
func slug(phonemes string) string {
	var b strings.Builder
	underscore := false

	for _, r := range phonemes {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	s := strings.TrimRight(b.String(), "_")
	if len(s) > 32 {
		s = strings.TrimRight(s[:32], "_")
	}
	if s == "" {
		s = "utterance"
	}
	return s
}
