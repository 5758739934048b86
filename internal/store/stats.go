package store

import (
	"context"
	"os"

	"github.com/hazoom/assistant-memory/internal/model"
)

// Stats holds memory statistics for one user.
type Stats struct {
	DBPath        string         `json:"db_path,omitempty"`
	DBSizeBytes   int64          `json:"db_size_bytes,omitempty"`
	TotalMemories int            `json:"total_memories"`
	ByType        map[string]int `json:"by_type"`
	TotalSessions int            `json:"total_sessions"`
	TotalMessages int            `json:"total_messages"`
	MostAccessed  []AccessStat   `json:"most_accessed,omitempty"`
}

// AccessStat is one entry of the most-accessed ranking.
type AccessStat struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	AccessCount int    `json:"access_count"`
}

// Stats returns memory statistics for a user.
func (s *SQLiteStore) Stats(ctx context.Context, userIdentifier, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, ByType: map[string]int{}}

	if dbPath != "" {
		if info, err := os.Stat(dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_identifier = ? AND is_active = 1`,
		userIdentifier).Scan(&st.TotalMemories)

	for mt := range model.ValidMemoryTypes {
		var n int
		s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE user_identifier = ? AND is_active = 1 AND memory_type = ?`,
			userIdentifier, mt).Scan(&n)
		st.ByType[mt] = n
	}

	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_identifier = ?`, userIdentifier).Scan(&st.TotalSessions)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages m INNER JOIN sessions se ON se.session_id = m.session_id
		 WHERE se.user_identifier = ?`, userIdentifier).Scan(&st.TotalMessages)

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, access_count FROM memories
		 WHERE user_identifier = ? AND is_active = 1
		 ORDER BY access_count DESC LIMIT 5`, userIdentifier)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var a AccessStat
		rows.Scan(&a.Key, &a.Value, &a.AccessCount)
		st.MostAccessed = append(st.MostAccessed, a)
	}

	return st, rows.Err()
}
