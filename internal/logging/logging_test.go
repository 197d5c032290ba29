package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/koteyur/physac2d/internal/config"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		cfg  config.LoggingConfig
		want zapcore.Level
	}{
		{config.LoggingConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{config.LoggingConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel},
		{config.LoggingConfig{Level: "loud", Format: "console"}, zapcore.InfoLevel},
	}
	for _, c := range cases {
		t.Run(c.cfg.Level+"_"+c.cfg.Format, func(t *testing.T) {
			log, err := New(c.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !log.Core().Enabled(c.want) {
				t.Errorf("level %v disabled", c.want)
			}
			if c.want > zapcore.DebugLevel && log.Core().Enabled(c.want-1) {
				t.Errorf("level below %v enabled", c.want)
			}
		})
	}
}
