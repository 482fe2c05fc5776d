package xlog_test

import (
	"testing"

	"github.com/omeyang/xlogutil/pkg/observability/xlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    xlog.Level
		wantErr bool
	}{
		{"debug", xlog.LevelDebug, false},
		{" INFO ", xlog.LevelInfo, false},
		{"", xlog.LevelInfo, false},
		{"warning", xlog.LevelWarn, false},
		{"Warn", xlog.LevelWarn, false},
		{"error", xlog.LevelError, false},
		{"trace", xlog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := xlog.ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, xlog.ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelText(t *testing.T) {
	assert.Equal(t, "WARN", xlog.LevelWarn.String())
	assert.Equal(t, "INFO+2", xlog.Level(2).String())

	b, err := xlog.LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ERROR", string(b))

	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, xlog.LevelDebug, l)
	assert.Error(t, l.UnmarshalText([]byte("loud")))
}
