package mocks

import (
	"context"
	"io"
	"time"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/mock"

	aapi "github.com/priyamsameer95-sys/hr-screening101/internal/pkg/analyzer/api"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/twilio"
)

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader) error {
	args := m.Called(ctx, name, r)
	return args.Error(0)
}

// LoadFile func mock
func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return to[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertCall(ctx context.Context, call *persistence.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *DB) LoadCall(ctx context.Context, id string) (*persistence.Call, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Call](args.Get(0)), args.Error(1)
}

func (m *DB) LoadCallBySid(ctx context.Context, sid string) (*persistence.Call, error) {
	args := m.Called(ctx, sid)
	return to[*persistence.Call](args.Get(0)), args.Error(1)
}

func (m *DB) LoadCallContext(ctx context.Context, id string) (*persistence.CallContext, error) {
	args := m.Called(ctx, id)
	return to[*persistence.CallContext](args.Get(0)), args.Error(1)
}

func (m *DB) SetCallSid(ctx context.Context, id, sid string) error {
	args := m.Called(ctx, id, sid)
	return args.Error(0)
}

func (m *DB) SetConversationID(ctx context.Context, id, conversationID string) error {
	args := m.Called(ctx, id, conversationID)
	return args.Error(0)
}

func (m *DB) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *DB) FinishCall(ctx context.Context, id string, st status.Status, at time.Time, errMsg string) error {
	args := m.Called(ctx, id, st, at, errMsg)
	return args.Error(0)
}

func (m *DB) SetDuration(ctx context.Context, id string, seconds int32) error {
	args := m.Called(ctx, id, seconds)
	return args.Error(0)
}

func (m *DB) InsertTranscript(ctx context.Context, entry *persistence.TranscriptEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *DB) LoadTranscripts(ctx context.Context, callID string) ([]persistence.TranscriptEntry, error) {
	args := m.Called(ctx, callID)
	return to[[]persistence.TranscriptEntry](args.Get(0)), args.Error(1)
}

func (m *DB) ReapStale(ctx context.Context, maxAge time.Duration) ([]string, error) {
	args := m.Called(ctx, maxAge)
	return to[[]string](args.Get(0)), args.Error(1)
}

func (m *DB) SetCandidateStatus(ctx context.Context, id, st string) error {
	args := m.Called(ctx, id, st)
	return args.Error(0)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Analyzer is analysis client mock
type Analyzer struct{ mock.Mock }

func (m *Analyzer) Analyze(ctx context.Context, in *aapi.AnalyzeInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

// AnalyzerProvider is consul provider mock
type AnalyzerProvider struct{ mock.Mock }

func (m *AnalyzerProvider) Get(srv string, allowNew bool) (aapi.Analyzer, string, error) {
	args := m.Called(srv, allowNew)
	return to[aapi.Analyzer](args.Get(0)), args.String(1), args.Error(2)
}

// EmailSender is smtp client mock
type EmailSender struct{ mock.Mock }

func (m *EmailSender) Send(e *email.Email) error {
	args := m.Called(e)
	return args.Error(0)
}

// Dialer is telephony REST client mock
type Dialer struct{ mock.Mock }

func (m *Dialer) Dial(ctx context.Context, prm *twilio.DialParams) (string, error) {
	args := m.Called(ctx, prm)
	return args.String(0), args.Error(1)
}

func (m *Dialer) DownloadRecording(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	return to[[]byte](args.Get(0)), args.Error(1)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
