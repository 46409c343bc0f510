package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"

	aapi "github.com/priyamsameer95-sys/hr-screening101/internal/pkg/analyzer/api"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/messages"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/utils"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/utils/handler"
)

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// DB provides persistence functionality
type DB interface {
	LoadCallContext(ctx context.Context, id string) (*persistence.CallContext, error)
	LoadTranscripts(ctx context.Context, callID string) ([]persistence.TranscriptEntry, error)
}

// AnalyzerProvider returns an active analysis service instance
type AnalyzerProvider interface {
	Get(srv string, allowNew bool) (aapi.Analyzer, string, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	MsgSender   MsgSender
	DB          DB
	AnalyzerPr  AnalyzerProvider
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for analyze events
// returns channel for tracking if all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("workers", data.WorkerCount).Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}

	wm := gue.WorkMap{
		messages.Analyze: handler.Create(data, handleAnalyze, handler.DefaultOpts[messages.CallMessage]().
			WithFailure(failureHandler(data)).WithTimeout(time.Minute*10).
			WithBackoff(handler.DefaultBackoffOrTest(data.Testing))),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Analyze),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("hrs-worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

func handleAnalyze(ctx context.Context, m *messages.CallMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling analyze")
	cCtx, err := data.DB.LoadCallContext(ctx, m.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			goapp.Log.Warn().Str("ID", m.ID).Msg("call gone, skip analysis")
			return nil
		}
		return fmt.Errorf("can't load call context: %w", err)
	}
	transcripts, err := data.DB.LoadTranscripts(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("can't load transcripts: %w", err)
	}
	if len(transcripts) == 0 {
		goapp.Log.Info().Str("ID", m.ID).Msg("no transcript, skip analysis")
		return nil
	}
	anl, srv, err := data.AnalyzerPr.Get("", true)
	if err != nil {
		return fmt.Errorf("can't get analyzer: %w", err)
	}
	if anl == nil {
		return fmt.Errorf("no analyzer available")
	}
	goapp.Log.Info().Str("ID", m.ID).Str("srv", srv).Msg("invoking analyzer")
	convID := m.ConversationID
	if convID == "" {
		convID = utils.FromSQLStr(cCtx.Call.ConversationID)
	}
	in := &aapi.AnalyzeInput{CallID: m.ID, ConversationID: convID,
		Position: cCtx.Campaign.Position, Transcript: make([]aapi.Utterance, 0, len(transcripts))}
	for _, tr := range transcripts {
		in.Transcript = append(in.Transcript, aapi.Utterance{Speaker: tr.Speaker, Text: tr.Text})
	}
	if err := anl.Analyze(ctx, in); err != nil {
		return fmt.Errorf("can't analyze: %w", err)
	}
	err = data.MsgSender.SendMessage(ctx, &amessages.InformMessage{
		QueueMessage: *amessages.NewQueueMessageFromM(&m.QueueMessage),
		Type:         amessages.InformTypeFinished, At: time.Now()}, messages.Inform)
	if err != nil {
		return fmt.Errorf("can't send msg: %w", err)
	}
	goapp.Log.Info().Str("ID", m.ID).Msg("Analysis completed")
	return nil
}

func failureHandler(data *ServiceData) func(context.Context, *messages.CallMessage, error, *gue.Job) (bool, time.Duration, error) {
	return func(ctx context.Context, m *messages.CallMessage, err error, j *gue.Job) (bool, time.Duration, error) {
		if j.ErrorCount > 3 {
			goapp.Log.Warn().Str("ID", m.ID).Int32("errCount", j.ErrorCount).Msg("give up")
			errInt := data.MsgSender.SendMessage(ctx, &amessages.InformMessage{
				QueueMessage: *amessages.NewQueueMessageFromM(&m.QueueMessage),
				Type:         amessages.InformTypeFailed, At: time.Now()}, messages.Inform)
			return false, 0, errInt
		}
		return true, 0, nil
	}
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.AnalyzerPr == nil {
		return fmt.Errorf("no AnalyzerPr")
	}
	return nil
}
