// Package config loads voice settings from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gorsynth/audioio"
	"gorsynth/elements"
	"gorsynth/holmes"
	"gorsynth/klatt"
	"gorsynth/logger"
	"gorsynth/render"
)

// Config is the whole voice file.
type Config struct {
	Synth    SynthConfig   `yaml:"synth"`
	Speaker  SpeakerConfig `yaml:"speaker"`
	Frames   FramesConfig  `yaml:"frames"`
	Elements string        `yaml:"elements"` // optional element table, YAML
	Log      LogConfig     `yaml:"log"`
}

// SynthConfig mirrors klatt.Config with names for the enums.
type SynthConfig struct {
	SampleRate    int     `yaml:"sample_rate"`
	MsPerFrame    float64 `yaml:"ms_per_frame"`
	Source        string  `yaml:"source"`
	Waveform      string  `yaml:"waveform"` // sound file for the custom source
	Model         string  `yaml:"model"`
	Cascade       int     `yaml:"cascade"`
	TiltDb        float64 `yaml:"tilt_db"`
	BreathinessDb float64 `yaml:"breathiness_db"`
	Kopen         int     `yaml:"kopen"`
	Jitter        float64 `yaml:"jitter"`
	Shimmer       float64 `yaml:"shimmer"`
	Flutter       float64 `yaml:"flutter"`
	Seed          int64   `yaml:"seed"`
}

// SpeakerConfig mirrors klatt.Speaker.
type SpeakerConfig struct {
	F0    float64 `yaml:"f0"`
	Gain0 float64 `yaml:"gain0"`

	F4  float64 `yaml:"f4"`
	B4  float64 `yaml:"b4"`
	F5  float64 `yaml:"f5"`
	B5  float64 `yaml:"b5"`
	F6  float64 `yaml:"f6"`
	B6  float64 `yaml:"b6"`
	FNP float64 `yaml:"fnp"`
	BN  float64 `yaml:"bn"`

	B4p float64 `yaml:"b4p"`
	B5p float64 `yaml:"b5p"`
	B6p float64 `yaml:"b6p"`
	B1p float64 `yaml:"b1p"`

	F1Offset float64 `yaml:"f1_offset"`
	F1Scale  float64 `yaml:"f1_scale"`
	F2Offset float64 `yaml:"f2_offset"`
	F2Scale  float64 `yaml:"f2_scale"`
	F3Offset float64 `yaml:"f3_offset"`
	F3Scale  float64 `yaml:"f3_scale"`
}

// FramesConfig controls timing and intonation.
type FramesConfig struct {
	Speed          float64 `yaml:"speed"`
	Smooth         float64 `yaml:"smooth"`
	Flat           bool    `yaml:"flat"`
	WordBoundaries bool    `yaml:"word_boundaries"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Default returns the stock voice.
func Default() *Config {
	sc := klatt.DefaultConfig()
	spk := klatt.DefaultSpeaker()
	fc := holmes.DefaultConfig()

	return &Config{
		Synth: SynthConfig{
			SampleRate: sc.SampleRate,
			MsPerFrame: sc.MsPerFrame,
			Source:     sc.Source.String(),
			Model:      sc.Model.String(),
			Cascade:    sc.Cascade,
			Jitter:     sc.Jitter,
			Shimmer:    sc.Shimmer,
			Flutter:    sc.Flutter,
			Seed:       sc.Seed,
		},
		Speaker: SpeakerConfig{
			F0:       spk.F0Hz,
			Gain0:    spk.Gain0,
			F4:       spk.F4Hz,
			B4:       spk.B4Hz,
			F5:       spk.F5Hz,
			B5:       spk.B5Hz,
			F6:       spk.F6Hz,
			B6:       spk.B6Hz,
			FNP:      spk.FNPHz,
			BN:       spk.BNHz,
			B4p:      spk.B4pHz,
			B5p:      spk.B5pHz,
			B6p:      spk.B6pHz,
			B1p:      spk.B1pHz,
			F1Scale:  spk.F1Scale,
			F2Scale:  spk.F2Scale,
			F3Scale:  spk.F3Scale,
			F1Offset: spk.F1Offset,
			F2Offset: spk.F2Offset,
			F3Offset: spk.F3Offset,
		},
		Frames: FramesConfig{
			Speed:  fc.Speed,
			Smooth: fc.Smooth,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads a YAML voice file over the defaults. ${VAR} references are
// expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults fills settings whose zero value is never valid.
func setDefaults(cfg *Config) {
	def := Default()

	if cfg.Synth.SampleRate == 0 {
		cfg.Synth.SampleRate = def.Synth.SampleRate
	}
	if cfg.Synth.MsPerFrame == 0 {
		cfg.Synth.MsPerFrame = def.Synth.MsPerFrame
	}
	if cfg.Synth.Source == "" {
		cfg.Synth.Source = def.Synth.Source
	}
	if cfg.Synth.Model == "" {
		cfg.Synth.Model = def.Synth.Model
	}
	if cfg.Synth.Cascade == 0 {
		cfg.Synth.Cascade = def.Synth.Cascade
	}
	if cfg.Speaker.F0 == 0 {
		cfg.Speaker.F0 = def.Speaker.F0
	}
	if cfg.Speaker.F1Scale == 0 {
		cfg.Speaker.F1Scale = 1
	}
	if cfg.Speaker.F2Scale == 0 {
		cfg.Speaker.F2Scale = 1
	}
	if cfg.Speaker.F3Scale == 0 {
		cfg.Speaker.F3Scale = 1
	}
	if cfg.Frames.Speed == 0 {
		cfg.Frames.Speed = def.Frames.Speed
	}
	if cfg.Frames.Smooth == 0 {
		cfg.Frames.Smooth = def.Frames.Smooth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// Render converts the file settings into renderer settings, loading the
// custom waveform when one is named.
func (c *Config) Render() (render.Config, error) {
	src, err := klatt.ParseVoiceSource(c.Synth.Source)
	if err != nil {
		return render.Config{}, err
	}

	model, err := klatt.ParseModel(c.Synth.Model)
	if err != nil {
		return render.Config{}, err
	}

	sc := klatt.Config{
		SampleRate:    c.Synth.SampleRate,
		MsPerFrame:    c.Synth.MsPerFrame,
		Source:        src,
		Model:         model,
		Cascade:       c.Synth.Cascade,
		TiltDb:        c.Synth.TiltDb,
		BreathinessDb: c.Synth.BreathinessDb,
		KopenOverride: c.Synth.Kopen,
		Jitter:        c.Synth.Jitter,
		Shimmer:       c.Synth.Shimmer,
		Flutter:       c.Synth.Flutter,
		Seed:          c.Synth.Seed,
	}

	if c.Synth.Waveform != "" {
		wave, err := audioio.LoadWaveform(c.Synth.Waveform)
		if err != nil {
			return render.Config{}, err
		}
		sc.CustomWaveform = wave
		if src != klatt.Custom {
			logger.L.Warnf("waveform %s is ignored by the %s source", c.Synth.Waveform, src)
		}
	}

	s := c.Speaker
	return render.Config{
		Synth: sc,
		Speaker: klatt.Speaker{
			F0Hz:     s.F0,
			Gain0:    s.Gain0,
			F4Hz:     s.F4,
			B4Hz:     s.B4,
			F5Hz:     s.F5,
			B5Hz:     s.B5,
			F6Hz:     s.F6,
			B6Hz:     s.B6,
			FNPHz:    s.FNP,
			BNHz:     s.BN,
			B4pHz:    s.B4p,
			B5pHz:    s.B5p,
			B6pHz:    s.B6p,
			B1pHz:    s.B1p,
			F1Offset: s.F1Offset,
			F1Scale:  s.F1Scale,
			F2Offset: s.F2Offset,
			F2Scale:  s.F2Scale,
			F3Offset: s.F3Offset,
			F3Scale:  s.F3Scale,
		},
		Frames: holmes.Config{
			F0Default: s.F0,
			Speed:     c.Frames.Speed,
			Smooth:    c.Frames.Smooth,
		},
	}, nil
}

// Table returns the element table the file names, or the built in one.
func (c *Config) Table() (*elements.Table, error) {
	if c.Elements == "" {
		return elements.Default(), nil
	}

	f, err := os.Open(c.Elements)
	if err != nil {
		return nil, fmt.Errorf("opening element table: %w", err)
	}
	defer f.Close()

	return elements.Load(f)
}

// Logger converts the log settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}
