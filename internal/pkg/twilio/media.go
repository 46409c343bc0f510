package twilio

import (
	"encoding/json"
	"fmt"
)

// Media stream event discriminants
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
	EventMark  = "mark"
)

type (
	// StreamMessage is one inbound frame of the media stream websocket,
	// decoded at the boundary into a closed set of variants by Event
	StreamMessage struct {
		Event     string     `json:"event"`
		StreamSid string     `json:"streamSid,omitempty"`
		Start     *StartData `json:"start,omitempty"`
		Media     *MediaData `json:"media,omitempty"`
	}

	// StartData carries the telephony session identifier.
	// The identifier is required on every outbound media message
	StartData struct {
		StreamSid string `json:"streamSid"`
		CallSid   string `json:"callSid,omitempty"`
	}

	// MediaData carries one base64 μ-law audio frame
	MediaData struct {
		Payload string `json:"payload"`
	}
)

// ParseStreamMessage decodes one media stream frame
func ParseStreamMessage(data []byte) (*StreamMessage, error) {
	var res StreamMessage
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("can't unmarshal stream msg: %w", err)
	}
	if res.Event == "" {
		return nil, fmt.Errorf("no event in stream msg")
	}
	return &res, nil
}

// NewMediaMessage marshals one outbound media frame for the telephony side
func NewMediaMessage(streamSid, payload string) ([]byte, error) {
	res, err := json.Marshal(StreamMessage{Event: EventMedia, StreamSid: streamSid,
		Media: &MediaData{Payload: payload}})
	if err != nil {
		return nil, fmt.Errorf("can't marshal media msg: %w", err)
	}
	return res, nil
}
