package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// Client communicates with the telephony provider REST API
type Client struct {
	httpclient *http.Client
	apiURL     string
	accountSid string
	authToken  string
	from       string
	timeout    time.Duration
}

// NewClient creates a telephony REST client
func NewClient(apiURL, accountSid, authToken, from string) (*Client, error) {
	res := Client{}
	if apiURL == "" {
		return nil, fmt.Errorf("no apiURL")
	}
	if accountSid == "" {
		return nil, fmt.Errorf("no accountSid")
	}
	if authToken == "" {
		return nil, fmt.Errorf("no authToken")
	}
	if from == "" {
		return nil, fmt.Errorf("no from number")
	}
	res.apiURL = apiURL
	res.accountSid = accountSid
	res.authToken = authToken
	res.from = from
	res.timeout = time.Second * 30
	res.httpclient = &http.Client{Transport: newTransport()}
	return &res, nil
}

// DialParams configures one outbound call
type DialParams struct {
	To                string
	TwimlURL          string
	StatusCallback    string
	RecordingCallback string
}

type dialResponse struct {
	Sid string `json:"sid"`
}

// Dial asks the provider to place an outbound call.
// Not retried - a repeated dial would ring the candidate twice
func (cl *Client) Dial(ctx context.Context, prm *DialParams) (string, error) {
	form := url.Values{}
	form.Set("To", prm.To)
	form.Set("From", cl.from)
	form.Set("Url", prm.TwimlURL)
	form.Set("StatusCallback", prm.StatusCallback)
	form.Set("StatusCallbackEvent", "completed")
	form.Set("Record", "true")
	if prm.RecordingCallback != "" {
		form.Set("RecordingStatusCallback", prm.RecordingCallback)
	}

	ctx, cancelF := context.WithTimeout(ctx, cl.timeout)
	defer cancelF()
	urlStr := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", cl.apiURL, cl.accountSid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(cl.accountSid, cl.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	goapp.Log.Info().Str("url", urlStr).Str("method", req.Method).Msg("call")
	resp, err := cl.httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 1000); err != nil {
		return "", fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	var respData dialResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("can't unmarshal: %w", err)
	}
	if respData.Sid == "" {
		return "", fmt.Errorf("can't get sid from response")
	}
	return respData.Sid, nil
}

// DownloadRecording fetches the recording media from the provider
func (cl *Client) DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	ctx, cancelF := context.WithTimeout(ctx, cl.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL+".mp3", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(cl.accountSid, cl.authToken)
	resp, err := cl.httpclient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		return nil, fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	res, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read body: %w", err)
	}
	return res, nil
}

func newTransport() http.RoundTripper {
	// default roundripper is not well suited for our case
	// it has just 2 idle connections per host, so try to tune a bit
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}
