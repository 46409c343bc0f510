package relay

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds relay session tuning
type Config struct {
	// Transcode enables PCM to μ-law conversion of the voice-AI audio.
	// When off the voice-AI session is asked to speak μ-law and its
	// frames pass through unchanged. Inbound telephony audio is always
	// decoded to linear before it reaches the voice-AI side
	Transcode         bool
	AISampleRate      int
	KeepAliveInterval time.Duration
	KeepAliveMax      int
	BufferLimit       int
}

// LoadConfig reads relay settings from the app config
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("no config")
	}
	v.SetDefault("relay.transcode", true)
	v.SetDefault("relay.aiSampleRate", 16000)
	v.SetDefault("relay.keepAliveInterval", 500*time.Millisecond)
	v.SetDefault("relay.keepAliveMax", 6)
	v.SetDefault("relay.bufferLimit", 256)
	res := &Config{Transcode: v.GetBool("relay.transcode"),
		AISampleRate:      v.GetInt("relay.aiSampleRate"),
		KeepAliveInterval: v.GetDuration("relay.keepAliveInterval"),
		KeepAliveMax:      v.GetInt("relay.keepAliveMax"),
		BufferLimit:       v.GetInt("relay.bufferLimit")}
	if res.AISampleRate <= 0 {
		return nil, fmt.Errorf("wrong relay.aiSampleRate %d", res.AISampleRate)
	}
	if res.KeepAliveInterval <= 0 {
		return nil, fmt.Errorf("wrong relay.keepAliveInterval %v", res.KeepAliveInterval)
	}
	if res.BufferLimit <= 0 {
		return nil, fmt.Errorf("wrong relay.bufferLimit %d", res.BufferLimit)
	}
	return res, nil
}
