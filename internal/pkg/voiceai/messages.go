package voiceai

import (
	"encoding/json"
	"fmt"
)

// Inbound message type discriminants
const (
	TypeConversationMetadata = "conversation_initiation_metadata"
	TypeAudio                = "audio"
	TypeTranscript           = "transcript"
	TypeInterruption         = "interruption"
	TypePing                 = "ping"
)

// RoleAgent is the provider role value mapped to the AGENT speaker
const RoleAgent = "agent"

// Message is one inbound frame of the voice-AI websocket,
// decoded at the boundary into a closed set of variants by Type
type Message struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Audio          string `json:"audio,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	Role           string `json:"role,omitempty"`
	// EventID is echoed back verbatim in pong replies - the provider
	// may send it as a number or a string
	EventID json.RawMessage `json:"event_id,omitempty"`
}

// ParseMessage decodes one voice-AI frame
func ParseMessage(data []byte) (*Message, error) {
	var res Message
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("can't unmarshal voice-AI msg: %w", err)
	}
	if res.Type == "" {
		return nil, fmt.Errorf("no type in voice-AI msg")
	}
	return &res, nil
}

type initMessage struct {
	Type            string           `json:"type"`
	CustomLLMBody   *customLLMBody   `json:"custom_llm_extra_body,omitempty"`
	ConversationCfg *conversationCfg `json:"conversation_config_override,omitempty"`
}

type customLLMBody struct {
	SystemPrompt string `json:"system_prompt"`
}

type conversationCfg struct {
	TTS *ttsCfg `json:"tts,omitempty"`
}

type ttsCfg struct {
	OutputFormat string `json:"output_audio_format"`
}

// NewInitMessage marshals the session-configuration message carrying the rendered
// prompt and, when outputFormat is not empty, an output-audio-encoding override
func NewInitMessage(prompt, outputFormat string) ([]byte, error) {
	msg := initMessage{Type: "conversation_initiation_client_data",
		CustomLLMBody: &customLLMBody{SystemPrompt: prompt}}
	if outputFormat != "" {
		msg.ConversationCfg = &conversationCfg{TTS: &ttsCfg{OutputFormat: outputFormat}}
	}
	res, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("can't marshal init msg: %w", err)
	}
	return res, nil
}

type audioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

// NewAudioChunk marshals one user audio frame for the voice-AI side
func NewAudioChunk(payload string) ([]byte, error) {
	res, err := json.Marshal(audioChunk{UserAudioChunk: payload})
	if err != nil {
		return nil, fmt.Errorf("can't marshal audio chunk: %w", err)
	}
	return res, nil
}

type pongMessage struct {
	Type    string          `json:"type"`
	EventID json.RawMessage `json:"event_id,omitempty"`
}

// NewPong marshals the reply to a ping, carrying the same event id
func NewPong(eventID json.RawMessage) ([]byte, error) {
	res, err := json.Marshal(pongMessage{Type: "pong", EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("can't marshal pong: %w", err)
	}
	return res, nil
}
