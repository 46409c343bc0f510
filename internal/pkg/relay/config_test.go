package relay

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New())
	require.Nil(t, err)
	assert.True(t, cfg.Transcode)
	assert.Equal(t, 16000, cfg.AISampleRate)
	assert.Equal(t, 500*time.Millisecond, cfg.KeepAliveInterval)
	assert.Equal(t, 6, cfg.KeepAliveMax)
	assert.Equal(t, 256, cfg.BufferLimit)
}

func TestLoadConfig_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("relay.transcode", false)
	v.Set("relay.aiSampleRate", 8000)
	v.Set("relay.keepAliveInterval", "250ms")
	v.Set("relay.bufferLimit", 10)
	cfg, err := LoadConfig(v)
	require.Nil(t, err)
	assert.False(t, cfg.Transcode)
	assert.Equal(t, 8000, cfg.AISampleRate)
	assert.Equal(t, 250*time.Millisecond, cfg.KeepAliveInterval)
	assert.Equal(t, 10, cfg.BufferLimit)
}

func TestLoadConfig_Fails(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "sample rate", key: "relay.aiSampleRate", value: 0},
		{name: "interval", key: "relay.keepAliveInterval", value: "0s"},
		{name: "buffer", key: "relay.bufferLimit", value: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := LoadConfig(v)
			assert.NotNil(t, err)
		})
	}
}

func TestLoadConfig_NoViper(t *testing.T) {
	_, err := LoadConfig(nil)
	assert.NotNil(t, err)
}
