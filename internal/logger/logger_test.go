package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level       string
		wantDebugOn bool
		wantInfoOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, false},
		{"error", false, false},
		{"", false, true},
		{"garbage", false, true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			log := New(tt.level)
			require.NotNil(t, log)

			ctx := context.Background()
			assert.Equal(t, tt.wantDebugOn, log.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfoOn, log.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestNew_SetsDefault(t *testing.T) {
	log := New("info")
	assert.Equal(t, log, slog.Default())
}
