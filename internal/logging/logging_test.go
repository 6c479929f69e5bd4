package logging_test

import (
	"testing"

	"github.com/iterate-binary-hack/submitdiff/internal/logging"
	"github.com/m-mizutani/gt"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", "console", zapcore.DebugLevel, false},
		{"INFO", "json", zapcore.InfoLevel, false},
		{"warn", "", zapcore.WarnLevel, false},
		{"error", "console", zapcore.ErrorLevel, false},
		{"verbose", "console", 0, true},
		{"info", "xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := logging.New(tt.level, tt.format)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				gt.Bool(t, logger.Core().Enabled(tt.want-1)).False()
			}
		})
	}
}
