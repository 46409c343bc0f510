package dial

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/messages"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test/mocks"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/twilio"
)

var (
	dbMock     *mocks.DB
	dialerMock *mocks.Dialer
	saverMock  *mocks.Filer
	senderMock *mocks.Sender
	tData      *Data
	tEcho      *echo.Echo
)

func initTest(t *testing.T) {
	dbMock = &mocks.DB{}
	dialerMock = &mocks.Dialer{}
	saverMock = &mocks.Filer{}
	senderMock = &mocks.Sender{}
	tData = &Data{DB: dbMock, Dialer: dialerMock, Saver: saverMock, MsgSender: senderMock,
		PublicURL: "https://dial.example.com", StreamURL: "wss://relay.example.com"}
	tEcho = initRoutes(tData)
	dbMock.On("InsertCall", mock.Anything, mock.Anything).Return(nil)
	dbMock.On("LoadCallContext", mock.Anything, mock.Anything).Return(testCallCtx(), nil)
	dbMock.On("SetCallSid", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("MarkInProgress", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("FinishCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("SetDuration", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dialerMock.On("Dial", mock.Anything, mock.Anything).Return("CA1", nil)
	dialerMock.On("DownloadRecording", mock.Anything, mock.Anything).Return([]byte("audio"), nil)
	saverMock.On("SaveFile", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	senderMock.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func testCallCtx() *persistence.CallContext {
	return &persistence.CallContext{
		Call:      &persistence.Call{ID: "c1", CandidateID: "cnd1"},
		Candidate: &persistence.Candidate{ID: "cnd1", FullName: "Jonas", PhoneNumber: "+37060000000"},
		Campaign:  &persistence.Campaign{ID: "cmp1", Position: "Go Developer"}}
}

func testCall() *persistence.Call {
	return &persistence.Call{ID: "c1", CandidateID: "cnd1", Status: status.InProgress.String(),
		CallSid:        sql.NullString{String: "CA1", Valid: true},
		ConversationID: sql.NullString{String: "conv1", Valid: true}}
}

func Test_Call(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"candidateId":"cnd1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, resp.Body.String(), `"callSid":"CA1"`)
	require.Equal(t, 1, len(dialerMock.Calls))
	prm := dialerMock.Calls[0].Arguments[1].(*twilio.DialParams)
	assert.Equal(t, "+37060000000", prm.To)
	assert.Contains(t, prm.TwimlURL, "https://dial.example.com/twiml?callId=")
	assert.Equal(t, "https://dial.example.com/status", prm.StatusCallback)
	assert.Equal(t, "https://dial.example.com/recording", prm.RecordingCallback)
	dbMock.AssertCalled(t, "SetCallSid", mock.Anything, mock.Anything, "CA1")
}

func Test_Call_NoCandidateID(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	test.Code(t, tEcho, req, http.StatusBadRequest)
}

func Test_Call_UnknownCandidate(t *testing.T) {
	initTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("InsertCall", mock.Anything, mock.Anything).Return(nil)
	dbMock.On("LoadCallContext", mock.Anything, mock.Anything).Return(nil, persistence.ErrNotFound)
	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"candidateId":"olia"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	test.Code(t, tEcho, req, http.StatusBadRequest)
}

func Test_Call_DialFails(t *testing.T) {
	initTest(t)
	dialerMock.ExpectedCalls = nil
	dialerMock.On("Dial", mock.Anything, mock.Anything).Return("", fmt.Errorf("olia err"))
	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"candidateId":"cnd1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	test.Code(t, tEcho, req, http.StatusInternalServerError)
	dbMock.AssertCalled(t, "FinishCall", mock.Anything, mock.Anything, status.Failed, mock.Anything, "Can't start call")
}

func Test_Twiml(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/twiml?callId=c1", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, resp.Body.String(), `<Stream url="wss://relay.example.com/stream?callId=c1" track="both_tracks">`)
	assert.Contains(t, resp.Body.String(), `<Parameter name="callId" value="c1">`)
}

func Test_Twiml_ApologyOnUnknownCall(t *testing.T) {
	initTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadCallContext", mock.Anything, mock.Anything).Return(nil, persistence.ErrNotFound)
	req := httptest.NewRequest(http.MethodGet, "/twiml?callId=olia", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "technical difficulties")
	assert.Contains(t, resp.Body.String(), "<Hangup>")
}

func Test_Twiml_ApologyOnNoID(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/twiml", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "technical difficulties")
}

func statusReq(t *testing.T, callStatus, duration string) *http.Request {
	t.Helper()
	form := url.Values{}
	form.Set("CallSid", "CA1")
	form.Set("CallStatus", callStatus)
	if duration != "" {
		form.Set("CallDuration", duration)
	}
	req := httptest.NewRequest(http.MethodPost, "/status", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func Test_Status_InProgress(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(testCall(), nil)
	test.Code(t, tEcho, statusReq(t, "ringing", ""), http.StatusOK)
	dbMock.AssertCalled(t, "MarkInProgress", mock.Anything, "c1", mock.Anything)
	dbMock.AssertNotCalled(t, "FinishCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_Status_Completed(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(testCall(), nil)
	test.Code(t, tEcho, statusReq(t, "completed", "42"), http.StatusOK)
	dbMock.AssertCalled(t, "FinishCall", mock.Anything, "c1", status.Completed, mock.Anything, "")
	dbMock.AssertCalled(t, "SetDuration", mock.Anything, "c1", int32(42))
	require.Equal(t, 1, len(senderMock.Calls))
	assert.Equal(t, messages.Analyze, senderMock.Calls[0].Arguments[2])
	cm := senderMock.Calls[0].Arguments[1].(*messages.CallMessage)
	assert.Equal(t, "c1", cm.ID)
	assert.Equal(t, "conv1", cm.ConversationID)
}

func Test_Status_Completed_NoConversation(t *testing.T) {
	initTest(t)
	call := testCall()
	call.ConversationID = sql.NullString{}
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(call, nil)
	test.Code(t, tEcho, statusReq(t, "completed", "42"), http.StatusOK)
	assert.Equal(t, 0, len(senderMock.Calls))
}

func Test_Status_NoAnswer(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(testCall(), nil)
	test.Code(t, tEcho, statusReq(t, "no-answer", ""), http.StatusOK)
	dbMock.AssertCalled(t, "FinishCall", mock.Anything, "c1", status.NoAnswer, mock.Anything, "")
	assert.Equal(t, 0, len(senderMock.Calls))
}

func Test_Status_Failed(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(testCall(), nil)
	test.Code(t, tEcho, statusReq(t, "failed", ""), http.StatusOK)
	dbMock.AssertCalled(t, "FinishCall", mock.Anything, "c1", status.Failed, mock.Anything, "Call failed")
}

func Test_Status_UnknownCall(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(nil, persistence.ErrNotFound)
	test.Code(t, tEcho, statusReq(t, "completed", ""), http.StatusOK)
	dbMock.AssertNotCalled(t, "FinishCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_Recording(t *testing.T) {
	initTest(t)
	dbMock.On("LoadCallBySid", mock.Anything, "CA1").Return(testCall(), nil)
	form := url.Values{}
	form.Set("CallSid", "CA1")
	form.Set("RecordingSid", "RE1")
	form.Set("RecordingUrl", "https://api.example.com/rec/RE1")
	req := httptest.NewRequest(http.MethodPost, "/recording", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	test.Code(t, tEcho, req, http.StatusOK)
	dialerMock.AssertCalled(t, "DownloadRecording", mock.Anything, "https://api.example.com/rec/RE1")
	require.Equal(t, 1, len(saverMock.Calls))
	assert.Equal(t, "c1/RE1.mp3", saverMock.Calls[0].Arguments[1])
}

func Test_Dial_Live(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	test.Code(t, tEcho, req, 200)
}

func Test_validate(t *testing.T) {
	initTest(t)
	assert.Nil(t, validate(tData))
	tests := []struct {
		name string
		chg  func(d *Data)
	}{
		{name: "no db", chg: func(d *Data) { d.DB = nil }},
		{name: "no dialer", chg: func(d *Data) { d.Dialer = nil }},
		{name: "no saver", chg: func(d *Data) { d.Saver = nil }},
		{name: "no sender", chg: func(d *Data) { d.MsgSender = nil }},
		{name: "no public URL", chg: func(d *Data) { d.PublicURL = "" }},
		{name: "no stream URL", chg: func(d *Data) { d.StreamURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			tt.chg(tData)
			assert.NotNil(t, validate(tData))
		})
	}
}
