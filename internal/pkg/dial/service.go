package dial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/messages"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/twilio"
)

// Dialer starts outbound calls and fetches recordings
type Dialer interface {
	Dial(ctx context.Context, prm *twilio.DialParams) (string, error)
	DownloadRecording(ctx context.Context, url string) ([]byte, error)
}

// FileSaver provides save file functionality
type FileSaver interface {
	SaveFile(ctx context.Context, name string, r io.Reader) error
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// DB provides call persistence
type DB interface {
	InsertCall(ctx context.Context, call *persistence.Call) error
	LoadCallBySid(ctx context.Context, sid string) (*persistence.Call, error)
	LoadCallContext(ctx context.Context, id string) (*persistence.CallContext, error)
	SetCallSid(ctx context.Context, id, sid string) error
	MarkInProgress(ctx context.Context, id string, at time.Time) error
	FinishCall(ctx context.Context, id string, st status.Status, at time.Time, errMsg string) error
	SetDuration(ctx context.Context, id string, seconds int32) error
}

// Data keeps data required for service work
type Data struct {
	Port      int
	DB        DB
	Dialer    Dialer
	Saver     FileSaver
	MsgSender MsgSender
	// PublicURL is the external base of this service, used for webhook callbacks
	PublicURL string
	// StreamURL is the external websocket base of the relay service
	StreamURL string
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP HRS dial service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Dialer == nil {
		return fmt.Errorf("no dialer")
	}
	if data.Saver == nil {
		return fmt.Errorf("no file saver")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	if data.PublicURL == "" {
		return fmt.Errorf("no public URL")
	}
	if data.StreamURL == "" {
		return fmt.Errorf("no stream URL")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("hrs_dial", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/call", call(data))
	e.GET("/twiml", twiml(data))
	e.POST("/twiml", twiml(data))
	e.POST("/status", statusWebhook(data))
	e.POST("/recording", recordingWebhook(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

type callInput struct {
	CandidateID   string `json:"candidateId"`
	AttemptNumber int    `json:"attemptNumber,omitempty"`
}

type callResult struct {
	ID      string `json:"id"`
	CallSid string `json:"callSid"`
}

func call(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("call method")()
		ctx := c.Request().Context()

		var inp callInput
		if err := c.Bind(&inp); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong input")
		}
		if inp.CandidateID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no candidateId")
		}
		if inp.AttemptNumber < 1 {
			inp.AttemptNumber = 1
		}

		call := persistence.Call{ID: uuid.New().String(), CandidateID: inp.CandidateID,
			Status: status.Scheduled.String(), AttemptNumber: inp.AttemptNumber, Created: time.Now()}
		if err := data.DB.InsertCall(ctx, &call); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		cCtx, err := data.DB.LoadCallContext(ctx, call.ID)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			if errors.Is(err, persistence.ErrNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown candidate")
			}
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		sid, err := data.Dialer.Dial(ctx, &twilio.DialParams{
			To:                cCtx.Candidate.PhoneNumber,
			TwimlURL:          fmt.Sprintf("%s/twiml?callId=%s", data.PublicURL, call.ID),
			StatusCallback:    data.PublicURL + "/status",
			RecordingCallback: data.PublicURL + "/recording",
		})
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			if errInt := data.DB.FinishCall(ctx, call.ID, status.Failed, time.Now(), "Can't start call"); errInt != nil {
				goapp.Log.Error().Err(errInt).Send()
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "can't start call")
		}
		if err := data.DB.SetCallSid(ctx, call.ID, sid); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		goapp.Log.Info().Str("ID", call.ID).Str("sid", sid).Msg("call started")
		return c.JSON(http.StatusOK, callResult{ID: call.ID, CallSid: sid})
	}
}

// twiml always answers 200 with valid instructions. When the call can't
// be bridged the caller hears an apology instead of a dead line
func twiml(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("twiml method")()
		ctx := c.Request().Context()

		callID := c.QueryParam("callId")
		if callID == "" {
			goapp.Log.Error().Msg("no callId")
			return c.XMLBlob(http.StatusOK, []byte(twilio.ApologyTwiML()))
		}
		if _, err := data.DB.LoadCallContext(ctx, callID); err != nil {
			goapp.Log.Error().Err(err).Str("ID", callID).Send()
			return c.XMLBlob(http.StatusOK, []byte(twilio.ApologyTwiML()))
		}
		res, err := twilio.ConnectStreamTwiML(fmt.Sprintf("%s/stream?callId=%s", data.StreamURL, callID), callID)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", callID).Send()
			return c.XMLBlob(http.StatusOK, []byte(twilio.ApologyTwiML()))
		}
		return c.XMLBlob(http.StatusOK, []byte(res))
	}
}

func statusWebhook(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("status method")()
		ctx := c.Request().Context()

		form, err := twilio.ParseStatusForm(c.Request())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		call, err := data.DB.LoadCallBySid(ctx, form.CallSid)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				goapp.Log.Warn().Str("sid", form.CallSid).Msg("unknown call")
				return c.NoContent(http.StatusOK)
			}
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		st := twilio.MapStatus(form.CallStatus)
		goapp.Log.Info().Str("ID", call.ID).Str("status", st.String()).Msg("status webhook")
		switch {
		case st == status.InProgress:
			if err := data.DB.MarkInProgress(ctx, call.ID, time.Now()); err != nil {
				goapp.Log.Error().Err(err).Send()
				return echo.NewHTTPError(http.StatusInternalServerError)
			}
		case st.IsTerminal():
			errMsg := ""
			if st == status.Failed {
				errMsg = fmt.Sprintf("Call %s", form.CallStatus)
			}
			if err := data.DB.FinishCall(ctx, call.ID, st, time.Now(), errMsg); err != nil {
				goapp.Log.Error().Err(err).Send()
				return echo.NewHTTPError(http.StatusInternalServerError)
			}
			if form.CallDuration > 0 {
				if err := data.DB.SetDuration(ctx, call.ID, int32(form.CallDuration)); err != nil {
					goapp.Log.Error().Err(err).Send()
				}
			}
			if st == status.Completed && call.ConversationID.Valid {
				err := data.MsgSender.SendMessage(ctx, &messages.CallMessage{
					QueueMessage: amessages.QueueMessage{ID: call.ID}, ConversationID: call.ConversationID.String},
					messages.Analyze)
				if err != nil {
					goapp.Log.Error().Err(err).Send()
					return echo.NewHTTPError(http.StatusInternalServerError)
				}
			}
		}
		return c.NoContent(http.StatusOK)
	}
}

func recordingWebhook(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("recording method")()
		ctx := c.Request().Context()

		form, err := twilio.ParseRecordingForm(c.Request())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		call, err := data.DB.LoadCallBySid(ctx, form.CallSid)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				goapp.Log.Warn().Str("sid", form.CallSid).Msg("unknown call")
				return c.NoContent(http.StatusOK)
			}
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		audio, err := data.Dialer.DownloadRecording(ctx, form.RecordingURL)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		name := fmt.Sprintf("%s/%s.mp3", call.ID, form.RecordingSid)
		if err := data.Saver.SaveFile(ctx, name, bytes.NewReader(audio)); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		goapp.Log.Info().Str("ID", call.ID).Str("file", name).Msg("recording saved")
		return c.NoContent(http.StatusOK)
	}
}
