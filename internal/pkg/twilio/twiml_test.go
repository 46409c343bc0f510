package twilio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectStreamTwiML(t *testing.T) {
	res, err := ConnectStreamTwiML("wss://relay.example.com/stream?callId=c1", "c1")
	require.Nil(t, err)
	assert.Contains(t, res, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, res, `<Connect>`)
	assert.Contains(t, res, `<Stream url="wss://relay.example.com/stream?callId=c1" track="both_tracks">`)
	assert.Contains(t, res, `<Parameter name="callId" value="c1">`)
}

func TestConnectStreamTwiML_NoURL(t *testing.T) {
	_, err := ConnectStreamTwiML("", "c1")
	assert.NotNil(t, err)
}

func TestApologyTwiML(t *testing.T) {
	res := ApologyTwiML()
	assert.Contains(t, res, "<Say>")
	assert.Contains(t, res, "technical difficulties")
	assert.Contains(t, res, "<Hangup>")
}
