package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazoom/assistant-memory/internal/model"
)

// AppendMessageParams holds parameters for appending a conversation turn.
type AppendMessageParams struct {
	SessionID      string
	UserIdentifier string
	Role           string
	Content        string
	TokenCount     int
	Metadata       map[string]string
}

// HistoryParams holds parameters for fetching conversation history.
type HistoryParams struct {
	SessionID      string
	UserIdentifier string
	Role           string // optional filter
	Limit          int
}

// GetOrCreateSession returns the session with the given id, creating it
// on first reference. An empty sessionID gets a generated one.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, sessionID, userIdentifier string) (*model.ConversationSession, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	now := time.Now().UTC()
	ts := now.Format(timeFormat)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, session_id, user_identifier, started_at, last_active, intelligence_level, total_messages, is_active)
		 VALUES (?, ?, ?, ?, ?, 'super', 0, 1)
		 ON CONFLICT(session_id) DO NOTHING`,
		s.newID(), sessionID, userIdentifier, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s.getSession(ctx, sessionID)
}

func (s *SQLiteStore) getSession(ctx context.Context, sessionID string) (*model.ConversationSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_identifier, started_at, last_active, intelligence_level, total_messages, is_active
		 FROM sessions WHERE session_id = ?`, sessionID)

	var sess model.ConversationSession
	var startedAt, lastActive string
	err := row.Scan(&sess.ID, &sess.SessionID, &sess.UserIdentifier, &startedAt,
		&lastActive, &sess.IntelligenceLevel, &sess.TotalMessages, &sess.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	sess.LastActive, _ = time.Parse(time.RFC3339, lastActive)
	return &sess, nil
}

// CloseSession flags a session inactive. It is never physically removed
// by this path.
func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID, userIdentifier string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET is_active = 0 WHERE session_id = ? AND user_identifier = ?`,
		sessionID, userIdentifier)
	return err
}

// ActiveSessions lists a user's active sessions, most recently active first.
func (s *SQLiteStore) ActiveSessions(ctx context.Context, userIdentifier string, limit int) ([]model.ConversationSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_identifier, started_at, last_active, intelligence_level, total_messages, is_active
		 FROM sessions WHERE user_identifier = ? AND is_active = 1
		 ORDER BY last_active DESC LIMIT ?`, userIdentifier, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ConversationSession
	for rows.Next() {
		var sess model.ConversationSession
		var startedAt, lastActive string
		if err := rows.Scan(&sess.ID, &sess.SessionID, &sess.UserIdentifier, &startedAt,
			&lastActive, &sess.IntelligenceLevel, &sess.TotalMessages, &sess.IsActive); err != nil {
			return nil, err
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		sess.LastActive, _ = time.Parse(time.RFC3339, lastActive)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AppendMessage stores a conversation turn, creating the owning session
// if needed, and bumps the session's message count and last_active.
func (s *SQLiteStore) AppendMessage(ctx context.Context, p AppendMessageParams) (*model.Message, error) {
	if !model.ValidRoles[p.Role] {
		return nil, fmt.Errorf("append message: invalid role %q", p.Role)
	}

	sess, err := s.GetOrCreateSession(ctx, p.SessionID, p.UserIdentifier)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ts := now.Format(timeFormat)
	msg := &model.Message{
		ID:         s.newID(),
		SessionID:  sess.SessionID,
		Role:       p.Role,
		Content:    p.Content,
		Timestamp:  now,
		TokenCount: p.TokenCount,
		Metadata:   p.Metadata,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, timestamp, token_count, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, ts, msg.TokenCount, marshalMap(p.Metadata))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET total_messages = total_messages + 1, last_active = ? WHERE session_id = ?`,
		ts, msg.SessionID)
	if err != nil {
		return nil, fmt.Errorf("bump session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns a session's messages in chronological order.
func (s *SQLiteStore) History(ctx context.Context, p HistoryParams) ([]model.Message, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT m.id, m.session_id, m.role, m.content, m.timestamp, m.token_count, m.metadata
	          FROM messages m
	          INNER JOIN sessions s ON s.session_id = m.session_id
	          WHERE m.session_id = ? AND s.user_identifier = ?`
	args := []interface{}{p.SessionID, p.UserIdentifier}

	if p.Role != "" {
		query += ` AND m.role = ?`
		args = append(args, p.Role)
	}
	query += ` ORDER BY m.timestamp ASC LIMIT ?`
	args = append(args, limit)

	return s.queryMessages(ctx, query, args...)
}

// RecentMessages returns a user's latest messages across all sessions.
func (s *SQLiteStore) RecentMessages(ctx context.Context, userIdentifier string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryMessages(ctx,
		`SELECT m.id, m.session_id, m.role, m.content, m.timestamp, m.token_count, m.metadata
		 FROM messages m
		 INNER JOIN sessions s ON s.session_id = m.session_id
		 WHERE s.user_identifier = ?
		 ORDER BY m.timestamp DESC LIMIT ?`, userIdentifier, limit)
}

// ClearHistory bulk-deletes a session's messages.
func (s *SQLiteStore) ClearHistory(ctx context.Context, sessionID, userIdentifier string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ? AND session_id IN
		   (SELECT session_id FROM sessions WHERE user_identifier = ?)`,
		sessionID, userIdentifier)
	return err
}

// CleanupSessions removes a user's inactive sessions (and their
// messages) that have been idle longer than the given age.
func (s *SQLiteStore) CleanupSessions(ctx context.Context, userIdentifier string, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id IN
		   (SELECT session_id FROM sessions WHERE user_identifier = ? AND is_active = 0 AND last_active < ?)`,
		userIdentifier, cutoff)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_identifier = ? AND is_active = 0 AND last_active < ?`,
		userIdentifier, cutoff)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var ts string
		var metaJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &ts, &m.TokenCount, &metaJSON); err != nil {
			return nil, err
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if metaJSON.Valid {
			unmarshalMap(metaJSON.String, &m.Metadata)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
