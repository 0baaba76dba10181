package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    defaultZapLevel,
		"":         defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("warn") {
		t.Fatalf("warn should be valid")
	}
	if ValidLevel("trace") {
		t.Fatalf("trace should not be valid")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Infow("block_heat", "temp_c", 21.5)
	l.Errorw("sensor_read_failed", "err", "boom")
}
