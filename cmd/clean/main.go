package main

import (
	"context"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/clean"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/postgres"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &clean.Data{}
	data.Port = cfg.GetInt("port")

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

	cleaner, err := clean.NewCleaner(db, cfg.GetDuration("timer.expire"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init cleaner")
	}
	data.Cleaner = cleaner

	goapp.Log.Info().Dur("duration", cfg.GetDuration("timer.expire")).Msg("expire")

	printBanner()

	ctxTimer, cancelFunc := context.WithCancel(ctx)
	doneCh := startCleanTimer(ctxTimer, cleaner, cfg.GetDuration("timer.runEvery"))
	err = clean.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func startCleanTimer(ctx context.Context, cleaner *clean.Cleaner, runEvery time.Duration) <-chan struct{} {
	if runEvery <= 0 {
		runEvery = time.Minute * 10
	}
	goapp.Log.Info().Dur("runEvery", runEvery).Msg("starting clean timer")
	res := make(chan struct{})
	go func() {
		defer close(res)
		ticker := time.NewTicker(runEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := cleaner.Do(ctx)
				if err != nil {
					goapp.Log.Error().Err(err).Msg("clean run failed")
					continue
				}
				if n > 0 {
					goapp.Log.Info().Int("reaped", n).Msg("clean run")
				}
			}
		}
	}()
	return res
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
/_/ /_/_/ |_|/____/   clean v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/priyamsameer95-sys/hr-screening101"))
}
