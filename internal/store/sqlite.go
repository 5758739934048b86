package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hazoom/assistant-memory/internal/model"
)

// timeFormat is RFC3339 with fixed-width nanoseconds so text timestamps
// sort correctly under lexicographic ORDER BY.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id              TEXT PRIMARY KEY,
		user_identifier TEXT NOT NULL,
		key             TEXT NOT NULL,
		value           TEXT NOT NULL,
		memory_type     TEXT NOT NULL DEFAULT 'fact',
		description     TEXT NOT NULL DEFAULT '',
		importance      INTEGER NOT NULL DEFAULT 5,
		tags            TEXT,
		metadata        TEXT,
		access_count    INTEGER NOT NULL DEFAULT 0,
		last_accessed   TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		is_active       INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_identifier, key)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user_type ON memories(user_identifier, memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance, is_active);

	CREATE TABLE IF NOT EXISTS memory_keywords (
		memory_id TEXT NOT NULL REFERENCES memories(id),
		keyword   TEXT NOT NULL,
		relevance REAL NOT NULL DEFAULT 1.0,
		PRIMARY KEY (memory_id, keyword)
	);
	CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON memory_keywords(keyword, relevance);

	CREATE TABLE IF NOT EXISTS sessions (
		id                 TEXT PRIMARY KEY,
		session_id         TEXT NOT NULL UNIQUE,
		user_identifier    TEXT NOT NULL DEFAULT 'anonymous',
		started_at         TEXT NOT NULL,
		last_active        TEXT NOT NULL,
		intelligence_level TEXT NOT NULL DEFAULT 'super',
		total_messages     INTEGER NOT NULL DEFAULT 0,
		is_active          INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_identifier, is_active);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);

	CREATE TABLE IF NOT EXISTS messages (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(session_id),
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		timestamp   TEXT NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		metadata    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS preferences (
		user_identifier            TEXT PRIMARY KEY,
		default_intelligence_level TEXT NOT NULL DEFAULT 'super',
		preferred_response_style   TEXT NOT NULL DEFAULT 'detailed',
		notification_settings      TEXT,
		ui_preferences             TEXT,
		privacy_settings           TEXT,
		created_at                 TEXT NOT NULL,
		updated_at                 TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS knowledge (
		id              TEXT PRIMARY KEY,
		category        TEXT NOT NULL,
		title           TEXT NOT NULL,
		content         TEXT NOT NULL,
		summary         TEXT NOT NULL DEFAULT '',
		keywords        TEXT,
		source          TEXT NOT NULL DEFAULT '',
		relevance_score REAL NOT NULL DEFAULT 1.0,
		access_count    INTEGER NOT NULL DEFAULT 0,
		is_verified     INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge(category, relevance_score);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StoreMemory upserts a memory by (user, key) and maintains the keyword
// index for its tags.
func (s *SQLiteStore) StoreMemory(ctx context.Context, p StoreParams) (*model.MemoryRecord, error) {
	if strings.TrimSpace(p.Key) == "" {
		return nil, fmt.Errorf("store memory: key is required")
	}
	memoryType := p.MemoryType
	if memoryType == "" {
		memoryType = "fact"
	}
	if !model.ValidMemoryTypes[memoryType] {
		return nil, fmt.Errorf("store memory: invalid memory type %q", memoryType)
	}
	importance := p.Importance
	if importance == 0 {
		importance = 5
	}
	if importance < 1 || importance > 10 {
		return nil, fmt.Errorf("store memory: importance %d out of range 1-10", p.Importance)
	}

	now := time.Now().UTC().Format(timeFormat)
	tagsJSON := marshalStrings(p.Tags)
	metaJSON := marshalMap(p.Metadata)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, user_identifier, key, value, memory_type, description, importance, tags, metadata, access_count, created_at, updated_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 1)
		 ON CONFLICT(user_identifier, key) DO UPDATE SET
		   value = excluded.value,
		   memory_type = excluded.memory_type,
		   description = excluded.description,
		   importance = excluded.importance,
		   tags = excluded.tags,
		   metadata = excluded.metadata,
		   updated_at = excluded.updated_at,
		   is_active = 1`,
		s.newID(), p.UserIdentifier, p.Key, p.Value, memoryType, p.Description,
		importance, tagsJSON, metaJSON, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert memory: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		memoryColumns+` FROM memories WHERE user_identifier = ? AND key = ?`,
		p.UserIdentifier, p.Key)
	mem, err := scanMemory(row)
	if err != nil {
		return nil, fmt.Errorf("read back memory: %w", err)
	}

	// Keyword index: insert-if-absent per tag, never updated in place.
	for _, tag := range p.Tags {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memory_keywords (memory_id, keyword, relevance) VALUES (?, ?, 1.0)`,
			mem.ID, strings.ToLower(tag))
		if err != nil {
			return nil, fmt.Errorf("index keyword: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &mem, nil
}

// GetMemory returns the active memory for (user, key), bumping its
// access counters. A miss returns (nil, nil) and mutates nothing.
func (s *SQLiteStore) GetMemory(ctx context.Context, userIdentifier, key string) (*model.MemoryRecord, error) {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed = ?
		 WHERE user_identifier = ? AND key = ? AND is_active = 1`,
		now, userIdentifier, key)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		memoryColumns+` FROM memories WHERE user_identifier = ? AND key = ? AND is_active = 1`,
		userIdentifier, key)
	mem, err := scanMemory(row)
	if err != nil {
		return nil, err
	}
	return &mem, nil
}

// ListMemories lists active memories for a user, most important first.
func (s *SQLiteStore) ListMemories(ctx context.Context, p ListParams) ([]model.MemoryRecord, error) {
	where := []string{"user_identifier = ?", "is_active = 1", "importance >= ?"}
	args := []interface{}{p.UserIdentifier, p.MinImportance}

	if p.MemoryType != "" {
		where = append(where, "memory_type = ?")
		args = append(args, p.MemoryType)
	}

	query := memoryColumns + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY importance DESC, updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.MemoryRecord
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// DeleteMemory soft-deletes a memory by flipping is_active. Missing keys
// are a no-op.
func (s *SQLiteStore) DeleteMemory(ctx context.Context, userIdentifier, key string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET is_active = 0 WHERE user_identifier = ? AND key = ?`,
		userIdentifier, key)
	return err
}

// SetImportance updates a memory's importance and refreshes updated_at.
// Missing keys are a no-op.
func (s *SQLiteStore) SetImportance(ctx context.Context, userIdentifier, key string, importance int) error {
	if importance < 1 || importance > 10 {
		return fmt.Errorf("set importance: %d out of range 1-10", importance)
	}
	now := time.Now().UTC().Format(timeFormat)
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET importance = ?, updated_at = ? WHERE user_identifier = ? AND key = ?`,
		importance, now, userIdentifier, key)
	return err
}

// ActiveKeys returns the set of active memory keys for a user.
func (s *SQLiteStore) ActiveKeys(ctx context.Context, userIdentifier string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM memories WHERE user_identifier = ? AND is_active = 1`, userIdentifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]bool{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const memoryColumns = `SELECT id, user_identifier, key, value, memory_type, description, importance,
       tags, metadata, access_count, last_accessed, created_at, updated_at, is_active`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.MemoryRecord, error) {
	var m model.MemoryRecord
	var tagsJSON, metaJSON, lastAccessed sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&m.ID, &m.UserIdentifier, &m.Key, &m.Value, &m.MemoryType, &m.Description,
		&m.Importance, &tagsJSON, &metaJSON, &m.AccessCount, &lastAccessed,
		&createdAt, &updatedAt, &m.IsActive,
	)
	if err != nil {
		return m, err
	}

	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339, lastAccessed.String)
		m.LastAccessed = &t
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
	}
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &m.Metadata)
	}
	return m, nil
}

func marshalStrings(v []string) *string {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}

func marshalMap(v map[string]string) *string {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}

func unmarshalMap(s string, v *map[string]string) {
	json.Unmarshal([]byte(s), v)
}

func unmarshalStrings(s string, v *[]string) {
	json.Unmarshal([]byte(s), v)
}
