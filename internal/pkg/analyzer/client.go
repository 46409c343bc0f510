package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"

	aapi "github.com/priyamsameer95-sys/hr-screening101/internal/pkg/analyzer/api"
)

// Client communicates with the analysis service
type Client struct {
	httpclient *http.Client
	analyzeURL string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates an analyzer client
func NewClient(analyzeURL string) (*Client, error) {
	res := Client{}
	if analyzeURL == "" {
		return nil, fmt.Errorf("no analyzeURL")
	}
	res.analyzeURL = analyzeURL
	res.timeout = time.Second * 120
	res.httpclient = &http.Client{Transport: newTransport()}
	res.backoff = newSimpleBackoff
	return &res, nil
}

// Analyze asks the analysis service to evaluate the call transcript
func (sp *Client) Analyze(ctx context.Context, in *aapi.AnalyzeInput) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("can't marshal input: %w", err)
	}
	_, err = goapp.InvokeWithBackoff(ctx, func() (any, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
		defer cancelF()
		req, err := http.NewRequest(http.MethodPost, sp.analyzeURL, bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		req = req.WithContext(ctx)
		req.Header.Set("Content-Type", "application/json")
		resp, err := sp.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 1000); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return nil, goapp.IsRetryableCode(resp.StatusCode), err
		}
		return nil, false, nil
	}, sp.backoff())
	return err
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 10
	res.MaxIdleConns = 5
	res.MaxIdleConnsPerHost = 2
	res.IdleConnTimeout = time.Second * 90
	res.DialContext = (&net.Dialer{Timeout: time.Second * 5}).DialContext
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
