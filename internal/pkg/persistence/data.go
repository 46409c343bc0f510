package persistence

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound indicates a missing record or a broken link in the call context chain
var ErrNotFound = errors.New("record not found")

type (

	// Call is one attempt to reach one candidate.
	// Terminal statuses are final, records are never deleted
	Call struct {
		ID             string
		CandidateID    string
		Status         string
		CallSid        sql.NullString
		ConversationID sql.NullString
		AttemptNumber  int
		Duration       sql.NullInt32
		ErrorMessage   sql.NullString
		Created        time.Time
		StartedAt      sql.NullTime
		EndedAt        sql.NullTime
	}

	// TranscriptEntry is one utterance captured during a call.
	// Sequence numbers strictly increase per call in event arrival order
	TranscriptEntry struct {
		CallID     string
		Speaker    string
		Text       string
		Confidence float64
		Sequence   int
		Created    time.Time
	}

	// Candidate holds identity and optional profile fields used to personalize the agent prompt
	Candidate struct {
		ID             string
		CampaignID     string
		FullName       string
		PhoneNumber    string
		Email          sql.NullString
		Status         string
		CurrentCompany sql.NullString
		YearsOfExp     sql.NullInt32
	}

	// Campaign holds descriptive fields for prompt rendering
	Campaign struct {
		ID          string
		Name        string
		CompanyName string
		AgentName   string
		Position    string
		Description sql.NullString
		TemplateID  sql.NullString
	}

	// Question is one screening question, ordered within a template
	Question struct {
		ID         string
		TemplateID string
		Text       string
		OrderIndex int
	}

	// CallContext is everything the relay needs to configure a voice-AI session,
	// loaded as one read at session start
	CallContext struct {
		Call      *Call
		Candidate *Candidate
		Campaign  *Campaign
		Questions []Question
	}
)

// Speaker role values for transcript entries
const (
	SpeakerAgent     = "AGENT"
	SpeakerCandidate = "CANDIDATE"
)
