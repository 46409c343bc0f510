package voiceai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	cl, err := NewClient("https://api.example.com/signed-url", "ag1", "key")
	require.Nil(t, err)
	require.NotNil(t, cl)
}

func TestNewClient_Fails(t *testing.T) {
	tests := []struct {
		name               string
		url, agent, apiKey string
	}{
		{name: "No URL", url: "", agent: "ag1", apiKey: "k"},
		{name: "No agent", url: "http://l", agent: "", apiKey: "k"},
		{name: "No key", url: "http://l", agent: "ag1", apiKey: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.agent, tt.apiKey)
			assert.NotNil(t, err)
		})
	}
}

func TestGetSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ag1", r.URL.Query().Get("agent_id"))
		assert.Equal(t, "key", r.Header.Get("xi-api-key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"signed_url": "wss://voice.example.com/conv?token=abc"})
	}))
	defer srv.Close()

	cl, err := NewClient(srv.URL, "ag1", "key")
	require.Nil(t, err)
	res, err := cl.GetSignedURL(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "wss://voice.example.com/conv?token=abc", res)
}

func TestGetSignedURL_FailsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "wrong key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cl, _ := NewClient(srv.URL, "ag1", "key")
	cl.backoff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	_, err := cl.GetSignedURL(context.Background())
	assert.NotNil(t, err)
}

func TestGetSignedURL_FailsOnEmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	cl, _ := NewClient(srv.URL, "ag1", "key")
	cl.backoff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	_, err := cl.GetSignedURL(context.Background())
	assert.NotNil(t, err)
}

func TestGetSignedURL_Retries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"signed_url": "wss://voice.example.com/conv"})
	}))
	defer srv.Close()

	cl, _ := NewClient(srv.URL, "ag1", "key")
	cl.backoff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3) }
	res, err := cl.GetSignedURL(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "wss://voice.example.com/conv", res)
	assert.Equal(t, 2, calls)
}
