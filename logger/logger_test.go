package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	. "gorsynth/testing_utilities"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"DEBUG": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}

	for name, exp := range cases {
		t.Run(name, func(t *testing.T) {
			level, err := ParseLevel(name)
			Ok(t, err)
			Equals(t, exp, level)
		})
	}

	_, err := ParseLevel("loud")
	Assert(t, err != nil, "expected an error for an unknown level")
}

func TestInitRejectsBadLevel(t *testing.T) {
	before := L
	Assert(t, Init(Config{Level: "chatty"}) != nil, "expected an error")
	Assert(t, L == before, "a failed Init should leave the logger alone")
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gorsynth.log")
	Ok(t, Init(Config{Level: "debug", File: path}))
	defer Init(Config{Level: "warn"})

	L.Debugw("rendered", "frames", 42)
	Sync()

	data, err := os.ReadFile(path)
	Ok(t, err)
	Assert(t, strings.Contains(string(data), "rendered"), "log file should hold the entry, got %q", string(data))
}
