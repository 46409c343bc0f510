package main

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/postgres"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/relay"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/utils"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/voiceai"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &relay.Data{}
	data.Port = cfg.GetInt("port")

	ctx := context.Background()

	var err error
	data.Cfg, err = relay.LoadConfig(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init relay config")
	}

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

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

	data.Sender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	data.AI, err = voiceai.NewClient(cfg.GetString("voiceAI.signURL"),
		cfg.GetString("voiceAI.agentID"), cfg.GetString("voiceAI.key"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init voice AI client")
	}

	printBanner()

	go utils.RunPerfEndpoint()

	if err := relay.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service")
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
/_/ /_/_/ |_|/____/   relay v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/priyamsameer95-sys/hr-screening101"))
}
