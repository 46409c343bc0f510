package main

import (
	"context"
	"io"

	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/dial"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/postgres"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/twilio"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &dial.Data{}
	data.Port = cfg.GetInt("port")
	data.PublicURL = cfg.GetString("publicUrl")
	data.StreamURL = cfg.GetString("streamUrl")

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.MsgSender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	data.Dialer, err = twilio.NewClient(cfg.GetString("telephony.url"), cfg.GetString("telephony.accountSid"),
		cfg.GetString("telephony.authToken"), cfg.GetString("telephony.from"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init telephony client")
	}

	filer, err := miniofs.NewFiler(ctx, miniofs.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}
	data.Saver = &filerSaver{filer: filer}

	printBanner()

	if err := dial.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service")
}

// filerSaver adapts miniofs.Filer to dial.FileSaver, which does not take a file size
type filerSaver struct {
	filer *miniofs.Filer
}

func (s *filerSaver) SaveFile(ctx context.Context, name string, r io.Reader) error {
	return s.filer.SaveFile(ctx, name, r, -1)
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    __  ______  _____
   / / / / __ \/ ___/
  / /_/ / /_/ /\__ \
 / __  / _, _/___/ /
/_/ /_/_/ |_|/____/   dial v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/priyamsameer95-sys/hr-screening101"))
}
