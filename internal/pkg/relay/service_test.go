package relay

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test/mocks"
)

var (
	tData *Data
	tEcho *echo.Echo
)

func initServiceTest(t *testing.T) {
	tData = &Data{Cfg: testCfg(), DB: &mocks.DB{}, AI: &fakeDialer{conn: newTestConn()},
		Sender: &mocks.Sender{}}
	tEcho = initRoutes(tData)
}

func TestWrongPath(t *testing.T) {
	initServiceTest(t)
	req := httptest.NewRequest(http.MethodGet, "/invalid", nil)
	test.Code(t, tEcho, req, http.StatusNotFound)
}

func Test_Stream_NoCallID(t *testing.T) {
	initServiceTest(t)
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	test.Code(t, tEcho, req, http.StatusBadRequest)
}

func Test_Stream_HealthCheck(t *testing.T) {
	initServiceTest(t)
	req := httptest.NewRequest(http.MethodGet, "/stream?health=check", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "OK")
}

func Test_Stream_NoUpgrade(t *testing.T) {
	initServiceTest(t)
	req := httptest.NewRequest(http.MethodGet, "/stream?callId=c1", nil)
	test.Code(t, tEcho, req, http.StatusBadRequest)
}

func Test_Live(t *testing.T) {
	initServiceTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.Equal(t, `{"service":"OK"}`, resp.Body.String())
}

func Test_validate(t *testing.T) {
	initServiceTest(t)
	type args struct {
		data *Data
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{name: "OK", args: args{data: tData}, wantErr: false},
		{name: "Fail Cfg", args: args{data: &Data{DB: tData.DB, AI: tData.AI, Sender: tData.Sender}}, wantErr: true},
		{name: "Fail DB", args: args{data: &Data{Cfg: tData.Cfg, AI: tData.AI, Sender: tData.Sender}}, wantErr: true},
		{name: "Fail AI", args: args{data: &Data{Cfg: tData.Cfg, DB: tData.DB, Sender: tData.Sender}}, wantErr: true},
		{name: "Fail Sender", args: args{data: &Data{Cfg: tData.Cfg, DB: tData.DB, AI: tData.AI}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validate(tt.args.data); (err != nil) != tt.wantErr {
				t.Errorf("StartWebServer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
