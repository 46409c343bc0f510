package relay

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/websocket"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Data keeps data required for service work
type Data struct {
	Port   int
	Cfg    *Config
	DB     CallStore
	AI     AIDialer
	Sender MsgSender
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP HRS relay service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("hrs_relay", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/stream", streamHandler(data))
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

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func streamHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if c.QueryParam("health") == "check" {
			return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
		}
		callID := c.QueryParam("callId")
		if callID == "" {
			goapp.Log.Error().Msg("no callId")
			return echo.NewHTTPError(http.StatusBadRequest, "No callId")
		}
		if !websocket.IsWebSocketUpgrade(c.Request()) {
			return echo.NewHTTPError(http.StatusBadRequest, "Expected websocket upgrade")
		}
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		s := NewSession(data, callID, ws)
		if err := s.Run(c.Request().Context()); err != nil {
			goapp.Log.Error().Err(err).Str("ID", callID).Send()
		}
		return nil
	}
}

func validate(data *Data) error {
	if data.Cfg == nil {
		return fmt.Errorf("no Cfg")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.AI == nil {
		return fmt.Errorf("no AI dialer")
	}
	if data.Sender == nil {
		return fmt.Errorf("no Sender")
	}
	return nil
}
