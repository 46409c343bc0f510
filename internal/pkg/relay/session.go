package relay

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gorilla/websocket"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/audio"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/messages"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/prompt"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/twilio"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/voiceai"
)

// CallStore provides call persistence for the relay session
type CallStore interface {
	LoadCallContext(ctx context.Context, id string) (*persistence.CallContext, error)
	SetConversationID(ctx context.Context, id, conversationID string) error
	MarkInProgress(ctx context.Context, id string, at time.Time) error
	FinishCall(ctx context.Context, id string, st status.Status, at time.Time, errMsg string) error
	InsertTranscript(ctx context.Context, entry *persistence.TranscriptEntry) error
}

// MsgSender sends queue messages
type MsgSender interface {
	SendMessage(ctx context.Context, msg amessages.Message, queue string) error
}

// Conn is one side's websocket connection
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// AIDialer opens voice-AI conversations
type AIDialer interface {
	Dial(ctx context.Context) (voiceai.Conn, error)
}

// Session relays one call between the telephony media stream and the
// voice-AI conversation. All mutable state is owned by the run loop
// goroutine, the two connection readers only feed it events
type Session struct {
	cfg    *Config
	store  CallStore
	sender MsgSender
	dialer AIDialer

	callID string
	tel    Conn
	ai     Conn

	streamSid      string
	conversationID string
	pending        []string
	audioSeen      bool
	ticks          int
	seq            int

	finishOnce sync.Once
	nowF       func() time.Time
}

// NewSession creates a relay session over an accepted telephony connection
func NewSession(data *Data, callID string, tel Conn) *Session {
	return &Session{cfg: data.Cfg, store: data.DB, sender: data.Sender, dialer: data.AI,
		callID: callID, tel: tel, nowF: time.Now}
}

type telEvent struct {
	msg *twilio.StreamMessage
	err error
}

type aiEvent struct {
	msg *voiceai.Message
	err error
}

// Run loads the call context, opens the voice-AI side and pumps events
// until either side disconnects
func (s *Session) Run(ctx context.Context) error {
	defer s.closeConns()
	cCtx, err := s.store.LoadCallContext(ctx, s.callID)
	if err != nil {
		return fmt.Errorf("can't load call context: %w", err)
	}
	pr := prompt.Build(cCtx)
	// handshake failure drops the telephony connection without writing FAILED,
	// the telephony status webhook owns the terminal write for this case
	ai, err := s.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("can't dial voice AI: %w", err)
	}
	s.ai = ai
	outFormat := ""
	if !s.cfg.Transcode {
		outFormat = "ulaw_8000"
	}
	init, err := voiceai.NewInitMessage(pr, outFormat)
	if err != nil {
		return err
	}
	if err := s.ai.WriteMessage(websocket.TextMessage, init); err != nil {
		return fmt.Errorf("can't send init msg: %w", err)
	}
	goapp.Log.Info().Str("ID", s.callID).Msg("session started")
	return s.loop(ctx)
}

func (s *Session) loop(ctx context.Context) error {
	telCh := make(chan telEvent, 1)
	aiCh := make(chan aiEvent, 1)
	go readTelephony(s.tel, telCh)
	go readAI(s.ai, aiCh)
	ticker := time.NewTicker(s.cfg.KeepAliveInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	telDone, aiDone := false, false
	for !(telDone && aiDone) {
		select {
		case <-ctxDone:
			ctxDone = nil
			s.finish(context.WithoutCancel(ctx), status.Completed, "")
		case ev := <-telCh:
			if ev.err != nil {
				telDone = true
				goapp.Log.Debug().Err(ev.err).Str("ID", s.callID).Msg("telephony read ended")
				s.finish(ctx, status.Completed, "")
				continue
			}
			s.handleTelephony(ctx, ev.msg)
		case ev := <-aiCh:
			if ev.err != nil {
				aiDone = true
				goapp.Log.Debug().Err(ev.err).Str("ID", s.callID).Msg("voice-AI read ended")
				s.finish(ctx, status.Completed, "")
				continue
			}
			s.handleAI(ctx, ev.msg)
		case <-ticker.C:
			s.keepAlive()
		}
	}
	goapp.Log.Info().Str("ID", s.callID).Msg("session finished")
	return nil
}

func readTelephony(conn Conn, ch chan<- telEvent) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			ch <- telEvent{err: err}
			return
		}
		msg, err := twilio.ParseStreamMessage(data)
		if err != nil {
			goapp.Log.Warn().Err(err).Msg("skip telephony msg")
			continue
		}
		ch <- telEvent{msg: msg}
	}
}

func readAI(conn Conn, ch chan<- aiEvent) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			ch <- aiEvent{err: err}
			return
		}
		msg, err := voiceai.ParseMessage(data)
		if err != nil {
			goapp.Log.Warn().Err(err).Msg("skip voice-AI msg")
			continue
		}
		ch <- aiEvent{msg: msg}
	}
}

func (s *Session) handleTelephony(ctx context.Context, msg *twilio.StreamMessage) {
	switch msg.Event {
	case twilio.EventStart:
		if msg.Start == nil || msg.Start.StreamSid == "" {
			goapp.Log.Warn().Str("ID", s.callID).Msg("start msg without streamSid")
			return
		}
		s.streamSid = msg.Start.StreamSid
		goapp.Log.Info().Str("ID", s.callID).Str("streamSid", s.streamSid).Msg("stream started")
		s.flushPending()
	case twilio.EventMedia:
		if msg.Media == nil || msg.Media.Payload == "" {
			return
		}
		// the voice-AI input side always takes linear audio
		payload := audio.ToPCMBase64(msg.Media.Payload, s.cfg.AISampleRate)
		chunk, err := voiceai.NewAudioChunk(payload)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return
		}
		s.writeAI(chunk)
	case twilio.EventMark:
		goapp.Log.Debug().Str("ID", s.callID).Msg("mark")
	case twilio.EventStop:
		goapp.Log.Info().Str("ID", s.callID).Msg("stream stopped")
		s.finish(ctx, status.Completed, "")
	default:
		goapp.Log.Debug().Str("event", goapp.Sanitize(msg.Event)).Msg("skip telephony msg")
	}
}

func (s *Session) handleAI(ctx context.Context, msg *voiceai.Message) {
	switch msg.Type {
	case voiceai.TypeConversationMetadata:
		s.conversationID = msg.ConversationID
		goapp.Log.Info().Str("ID", s.callID).Str("conversationID", s.conversationID).Msg("conversation started")
		if err := s.store.SetConversationID(ctx, s.callID, s.conversationID); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
		if err := s.store.MarkInProgress(ctx, s.callID, s.nowF()); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	case voiceai.TypeAudio:
		if msg.Audio == "" {
			return
		}
		payload := msg.Audio
		if s.cfg.Transcode {
			payload = audio.ToMuLawBase64(payload, s.cfg.AISampleRate)
		}
		if s.streamSid == "" {
			s.buffer(payload)
			return
		}
		s.audioSeen = true
		s.sendMedia(payload)
	case voiceai.TypeTranscript:
		s.seq++
		speaker := persistence.SpeakerCandidate
		if msg.Role == voiceai.RoleAgent {
			speaker = persistence.SpeakerAgent
		}
		entry := &persistence.TranscriptEntry{CallID: s.callID, Speaker: speaker,
			Text: msg.Transcript, Confidence: 0.95, Sequence: s.seq, Created: s.nowF()}
		if err := s.store.InsertTranscript(ctx, entry); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	case voiceai.TypeInterruption:
		goapp.Log.Debug().Str("ID", s.callID).Msg("interruption")
	case voiceai.TypePing:
		pong, err := voiceai.NewPong(msg.EventID)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return
		}
		s.writeAI(pong)
	default:
		goapp.Log.Debug().Str("type", goapp.Sanitize(msg.Type)).Msg("skip voice-AI msg")
	}
}

// buffer keeps voice-AI audio until the telephony stream announces its
// identifier. The buffer is bounded, on overflow the oldest frame goes
func (s *Session) buffer(payload string) {
	if len(s.pending) >= s.cfg.BufferLimit {
		s.pending = s.pending[1:]
		goapp.Log.Warn().Str("ID", s.callID).Msg("audio buffer full, dropped oldest frame")
	}
	s.pending = append(s.pending, payload)
}

func (s *Session) flushPending() {
	if len(s.pending) == 0 {
		return
	}
	for _, p := range s.pending {
		s.sendMedia(p)
	}
	s.pending = nil
	s.audioSeen = true
}

func (s *Session) sendMedia(payload string) {
	data, err := twilio.NewMediaMessage(s.streamSid, payload)
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return
	}
	if err := s.tel.WriteMessage(websocket.TextMessage, data); err != nil {
		goapp.Log.Error().Err(err).Send()
	}
}

// keepAlive feeds silence frames to the telephony side until the first real
// audio frame goes out, the stream would time out waiting for the
// voice-AI side's first response otherwise
func (s *Session) keepAlive() {
	if s.streamSid == "" || s.audioSeen || s.ticks >= s.cfg.KeepAliveMax {
		return
	}
	s.ticks++
	s.sendMedia(base64.StdEncoding.EncodeToString(audio.SilenceFrame()))
}

func (s *Session) writeAI(data []byte) {
	if err := s.ai.WriteMessage(websocket.TextMessage, data); err != nil {
		goapp.Log.Error().Err(err).Send()
	}
}

// finish closes both sides, writes the terminal status and triggers
// analysis. Runs once no matter how many teardown paths fire
func (s *Session) finish(ctx context.Context, st status.Status, errMsg string) {
	s.finishOnce.Do(func() {
		goapp.Log.Info().Str("ID", s.callID).Str("status", st.String()).Msg("closing session")
		s.closeConns()
		if err := s.store.FinishCall(ctx, s.callID, st, s.nowF(), errMsg); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
		if s.conversationID == "" {
			goapp.Log.Info().Str("ID", s.callID).Msg("no conversation, skip analysis")
			return
		}
		msg := &messages.CallMessage{QueueMessage: amessages.QueueMessage{ID: s.callID},
			ConversationID: s.conversationID}
		if err := s.sender.SendMessage(ctx, msg, messages.Analyze); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	})
}

func (s *Session) closeConns() {
	if s.tel != nil {
		_ = s.tel.Close()
	}
	if s.ai != nil {
		_ = s.ai.Close()
	}
}
