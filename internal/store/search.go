package store

import (
	"context"
	"strings"

	"github.com/hazoom/assistant-memory/internal/model"
)

// SearchMemories finds active memories whose key, value, or description
// contains the query substring (case-insensitive). Type and tag filters
// narrow the result; all given tags must be present. Ordering is the
// store default: importance, then recency.
func (s *SQLiteStore) SearchMemories(ctx context.Context, p SearchParams) ([]model.MemoryRecord, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	where := []string{"user_identifier = ?", "is_active = 1"}
	args := []interface{}{p.UserIdentifier}

	if p.MemoryType != "" {
		where = append(where, "memory_type = ?")
		args = append(args, p.MemoryType)
	}
	if p.Query != "" {
		q := "%" + strings.ToLower(p.Query) + "%"
		where = append(where, "(LOWER(key) LIKE ? OR LOWER(value) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, q, q, q)
	}
	// Tags are stored as a JSON array; require each as a quoted element.
	for _, tag := range p.Tags {
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+tag+`"%`)
	}

	query := memoryColumns + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY importance DESC, updated_at DESC LIMIT ?`
	args = append(args, limit)

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
