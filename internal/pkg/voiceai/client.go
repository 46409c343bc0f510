package voiceai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Conn is the subset of websocket functionality the relay needs from either side
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client negotiates voice-AI sessions via the provider handshake
type Client struct {
	httpclient *http.Client
	signURL    string
	agentID    string
	apiKey     string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates a voice-AI client
func NewClient(signURL, agentID, apiKey string) (*Client, error) {
	res := Client{}
	if signURL == "" {
		return nil, fmt.Errorf("no signURL")
	}
	if agentID == "" {
		return nil, fmt.Errorf("no agentID")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no apiKey")
	}
	res.signURL = signURL
	res.agentID = agentID
	res.apiKey = apiKey
	res.timeout = time.Second * 10
	res.httpclient = &http.Client{}
	res.backoff = newSimpleBackoff
	return &res, nil
}

type signedURLResponse struct {
	SignedURL string `json:"signed_url"`
}

// GetSignedURL requests a time-limited connection URL from the provider
func (cl *Client) GetSignedURL(ctx context.Context) (string, error) {
	return goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, cl.timeout)
		defer cancelF()
		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?agent_id=%s", cl.signURL, cl.agentID), nil)
		if err != nil {
			return "", false, err
		}
		req = req.WithContext(ctx)
		req.Header.Set("xi-api-key", cl.apiKey)
		resp, err := cl.httpclient.Do(req)
		if err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 1000); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return "", goapp.IsRetryableCode(resp.StatusCode), err
		}
		var respData signedURLResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't unmarshal: %w", err)
		}
		if respData.SignedURL == "" {
			return "", false, fmt.Errorf("can't get signed URL from response")
		}
		return respData.SignedURL, false, nil
	}, cl.backoff())
}

// Dial negotiates a signed URL and opens the voice-AI websocket
func (cl *Client) Dial(ctx context.Context) (Conn, error) {
	urlStr, err := cl.GetSignedURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get signed URL: %w", err)
	}
	c, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("can't dial voice-AI URL: %w", err)
	}
	return c, nil
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
