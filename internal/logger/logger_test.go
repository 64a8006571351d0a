package logger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{" WARN ", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"fatal", zapcore.InfoLevel, false},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := parseLevel(tt.input)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChildLoggers(t *testing.T) {
	for _, log := range []Logger{New("error", false), New("debug", true), Nop()} {
		child := log.Named("resolver").With(String("roll_no", "2306249"), Bool("found", true))
		if child == nil {
			t.Fatal("With/Named returned nil")
		}

		child.Debug("lookup",
			Strings("domains", []string{"Music"}),
			Int("count", 1),
			Duration("took", time.Millisecond),
			Time("at", time.Now()),
			Error(errors.New("boom")))
		child.Infof("resolved %d domains", 1)
	}
}
