package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// InsertCall inserts call record into DB
func (db *DB) InsertCall(ctx context.Context, call *persistence.Call) error {
	rows, err := db.pool.Query(ctx, `INSERT INTO calls(id, candidate_id, status, attempt_number, created)
	VALUES($1, $2, $3, $4, $5)`, call.ID, call.CandidateID, call.Status, call.AttemptNumber, call.Created)
	if err != nil {
		return fmt.Errorf("can't insert call: %w", err)
	}
	defer rows.Close()
	return nil
}

const callFields = `id, candidate_id, status, call_sid, conversation_id, attempt_number,
	duration_seconds, error_message, created, started_at, ended_at`

// LoadCall loads call from DB
func (db *DB) LoadCall(ctx context.Context, id string) (*persistence.Call, error) {
	return db.loadCall(ctx, `SELECT `+callFields+` FROM calls WHERE id = $1`, id)
}

// LoadCallBySid loads call by the telephony session identifier
func (db *DB) LoadCallBySid(ctx context.Context, sid string) (*persistence.Call, error) {
	return db.loadCall(ctx, `SELECT `+callFields+` FROM calls WHERE call_sid = $1`, sid)
}

func (db *DB) loadCall(ctx context.Context, sql, prm string) (*persistence.Call, error) {
	var res persistence.Call
	err := db.pool.QueryRow(ctx, sql, prm).Scan(&res.ID, &res.CandidateID, &res.Status,
		&res.CallSid, &res.ConversationID, &res.AttemptNumber, &res.Duration, &res.ErrorMessage,
		&res.Created, &res.StartedAt, &res.EndedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("can't load call: %w", err)
	}
	return &res, nil
}

// LoadCallContext loads the call with its candidate, campaign and ordered questions as one read.
// Returns persistence.ErrNotFound if any required link in the chain is missing
func (db *DB) LoadCallContext(ctx context.Context, id string) (*persistence.CallContext, error) {
	call, err := db.LoadCall(ctx, id)
	if err != nil {
		return nil, err
	}
	var cnd persistence.Candidate
	err = db.pool.QueryRow(ctx, `SELECT id, campaign_id, full_name, phone_number, email, status,
		current_company, years_of_experience FROM candidates WHERE id = $1`, call.CandidateID).
		Scan(&cnd.ID, &cnd.CampaignID, &cnd.FullName, &cnd.PhoneNumber, &cnd.Email, &cnd.Status,
			&cnd.CurrentCompany, &cnd.YearsOfExp)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no candidate for call %s: %w", id, persistence.ErrNotFound)
		}
		return nil, fmt.Errorf("can't load candidate: %w", err)
	}
	var cmp persistence.Campaign
	err = db.pool.QueryRow(ctx, `SELECT id, name, company_name, agent_name, position, description,
		question_template_id FROM campaigns WHERE id = $1`, cnd.CampaignID).
		Scan(&cmp.ID, &cmp.Name, &cmp.CompanyName, &cmp.AgentName, &cmp.Position, &cmp.Description,
			&cmp.TemplateID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no campaign for candidate %s: %w", cnd.ID, persistence.ErrNotFound)
		}
		return nil, fmt.Errorf("can't load campaign: %w", err)
	}
	if !cmp.TemplateID.Valid {
		return nil, fmt.Errorf("campaign %s has no question template: %w", cmp.ID, persistence.ErrNotFound)
	}
	questions, err := db.loadQuestions(ctx, cmp.TemplateID.String)
	if err != nil {
		return nil, err
	}
	return &persistence.CallContext{Call: call, Candidate: &cnd, Campaign: &cmp, Questions: questions}, nil
}

func (db *DB) loadQuestions(ctx context.Context, templateID string) ([]persistence.Question, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, template_id, question_text, order_index FROM questions
		WHERE template_id = $1 ORDER BY order_index`, templateID)
	if err != nil {
		return nil, fmt.Errorf("can't load questions: %w", err)
	}
	defer rows.Close()
	res := []persistence.Question{}
	for rows.Next() {
		var q persistence.Question
		if err := rows.Scan(&q.ID, &q.TemplateID, &q.Text, &q.OrderIndex); err != nil {
			return nil, fmt.Errorf("can't scan question: %w", err)
		}
		res = append(res, q)
	}
	return res, nil
}

// SetCallSid records the telephony session identifier on the call
func (db *DB) SetCallSid(ctx context.Context, id, sid string) error {
	_, err := db.pool.Exec(ctx, `UPDATE calls SET call_sid = $2 WHERE id = $1`, id, sid)
	if err != nil {
		return fmt.Errorf("can't set call sid: %w", err)
	}
	return nil
}

// SetConversationID records the voice-AI conversation identifier on the call
func (db *DB) SetConversationID(ctx context.Context, id, conversationID string) error {
	_, err := db.pool.Exec(ctx, `UPDATE calls SET conversation_id = $2 WHERE id = $1`, id, conversationID)
	if err != nil {
		return fmt.Errorf("can't set conversation id: %w", err)
	}
	return nil
}

// MarkInProgress moves the call to IN_PROGRESS.
// Both the relay and the telephony status webhook write this - the write is
// idempotent, keeps the earliest start timestamp and never touches terminal states
func (db *DB) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	_, err := db.pool.Exec(ctx, `UPDATE calls SET status = $2, started_at = COALESCE(started_at, $3)
		WHERE id = $1 AND status IN ($4, $2)`, id, status.InProgress.String(), at, status.Scheduled.String())
	if err != nil {
		return fmt.Errorf("can't mark call in progress: %w", err)
	}
	return nil
}

// FinishCall writes a terminal status.
// Terminal states are entered once and are final - a call already reaped to
// FAILED stays FAILED no matter which teardown path fires later
func (db *DB) FinishCall(ctx context.Context, id string, st status.Status, at time.Time, errMsg string) error {
	if !st.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", st)
	}
	_, err := db.pool.Exec(ctx, `UPDATE calls SET status = $2, ended_at = COALESCE(ended_at, $3),
		error_message = COALESCE(error_message, $4)
		WHERE id = $1 AND status IN ($5, $6)`, id, st.String(), at, toSQLStrOrNil(errMsg),
		status.Scheduled.String(), status.InProgress.String())
	if err != nil {
		return fmt.Errorf("can't finish call: %w", err)
	}
	return nil
}

func toSQLStrOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// SetDuration records the provider reported call duration
func (db *DB) SetDuration(ctx context.Context, id string, seconds int32) error {
	_, err := db.pool.Exec(ctx, `UPDATE calls SET duration_seconds = $2,
		ended_at = COALESCE(ended_at, $3) WHERE id = $1`, id, seconds, time.Now())
	if err != nil {
		return fmt.Errorf("can't set duration: %w", err)
	}
	return nil
}

// InsertTranscript appends one transcript entry
func (db *DB) InsertTranscript(ctx context.Context, entry *persistence.TranscriptEntry) error {
	rows, err := db.pool.Query(ctx, `INSERT INTO transcripts(call_id, speaker, text, confidence,
		sequence_number, created) VALUES($1, $2, $3, $4, $5, $6)`,
		entry.CallID, entry.Speaker, entry.Text, entry.Confidence, entry.Sequence, entry.Created)
	if err != nil {
		return fmt.Errorf("can't insert transcript: %w", err)
	}
	defer rows.Close()
	return nil
}

// LoadTranscripts returns the call's transcript entries in sequence order
func (db *DB) LoadTranscripts(ctx context.Context, callID string) ([]persistence.TranscriptEntry, error) {
	rows, err := db.pool.Query(ctx, `SELECT call_id, speaker, text, confidence, sequence_number, created
		FROM transcripts WHERE call_id = $1 ORDER BY sequence_number`, callID)
	if err != nil {
		return nil, fmt.Errorf("can't load transcripts: %w", err)
	}
	defer rows.Close()
	res := []persistence.TranscriptEntry{}
	for rows.Next() {
		var e persistence.TranscriptEntry
		if err := rows.Scan(&e.CallID, &e.Speaker, &e.Text, &e.Confidence, &e.Sequence, &e.Created); err != nil {
			return nil, fmt.Errorf("can't scan transcript: %w", err)
		}
		res = append(res, e)
	}
	return res, nil
}

// ReapStale force fails calls stuck IN_PROGRESS longer than maxAge and returns their IDs
func (db *DB) ReapStale(ctx context.Context, maxAge time.Duration) ([]string, error) {
	exp := time.Now().Add(-maxAge)
	rows, err := db.pool.Query(ctx, `UPDATE calls SET status = $1, ended_at = $2,
		error_message = $3 WHERE status = $4 AND started_at < $5 RETURNING id`,
		status.Failed.String(), time.Now(), fmt.Sprintf("Call timed out - exceeded %v limit", maxAge),
		status.InProgress.String(), exp)
	if err != nil {
		return nil, fmt.Errorf("can't reap stale calls: %w", err)
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("can't retrieve IDs: %w", err)
		}
		res = append(res, id)
	}
	return res, nil
}

// SetCandidateStatus updates the candidate status field
func (db *DB) SetCandidateStatus(ctx context.Context, id, st string) error {
	_, err := db.pool.Exec(ctx, `UPDATE candidates SET status = $2 WHERE id = $1`, id, st)
	if err != nil {
		return fmt.Errorf("can't set candidate status: %w", err)
	}
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
