package twilio

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
)

// StatusForm captures the subset of provider status callback fields we care about.
// The provider sends application/x-www-form-urlencoded
type StatusForm struct {
	CallSid      string
	CallStatus   string
	CallDuration int
}

// ParseStatusForm decodes the status webhook request body
func ParseStatusForm(r *http.Request) (*StatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	res := &StatusForm{
		CallSid:    r.PostFormValue("CallSid"),
		CallStatus: r.PostFormValue("CallStatus"),
	}
	if d := r.PostFormValue("CallDuration"); d != "" {
		if v, err := strconv.Atoi(d); err == nil {
			res.CallDuration = v
		}
	}
	return res, nil
}

// RecordingForm captures the recording callback fields
type RecordingForm struct {
	CallSid           string
	RecordingSid      string
	RecordingStatus   string
	RecordingURL      string
	RecordingDuration string
}

// ParseRecordingForm decodes the recording webhook request body
func ParseRecordingForm(r *http.Request) (*RecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &RecordingForm{
		CallSid:           r.PostFormValue("CallSid"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingStatus:   r.PostFormValue("RecordingStatus"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
	}, nil
}

var statusMap = map[string]status.Status{
	"initiated":   status.Scheduled,
	"ringing":     status.InProgress,
	"in-progress": status.InProgress,
	"answered":    status.InProgress,
	"completed":   status.Completed,
	"busy":        status.Busy,
	"no-answer":   status.NoAnswer,
	"failed":      status.Failed,
	"canceled":    status.Failed,
}

// MapStatus maps provider status vocabulary onto the call status enum.
// Unknown values map to Failed
func MapStatus(providerStatus string) status.Status {
	if res, ok := statusMap[strings.ToLower(providerStatus)]; ok {
		return res
	}
	return status.Failed
}
