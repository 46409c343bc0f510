package api

import "context"

// AnalyzeInput keeps structure for the analyze method
type AnalyzeInput struct {
	CallID         string      `json:"callId"`
	ConversationID string      `json:"conversationId,omitempty"`
	Position       string      `json:"position,omitempty"`
	Transcript     []Utterance `json:"transcript"`
}

// Utterance is one transcript line passed for analysis
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Analyzer triggers post-call screening analysis
type Analyzer interface {
	Analyze(ctx context.Context, in *AnalyzeInput) error
}
