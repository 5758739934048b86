package store

import (
	"context"

	"github.com/hazoom/assistant-memory/internal/model"
)

// ExportMemories returns all active memories for a user, ordered by key
// for stable output.
func (s *SQLiteStore) ExportMemories(ctx context.Context, userIdentifier string) ([]model.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		memoryColumns+` FROM memories WHERE user_identifier = ? AND is_active = 1 ORDER BY key`,
		userIdentifier)
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

// ImportMemories upserts memories from an export into the given user's
// memory set. Re-importing the same export is idempotent.
func (s *SQLiteStore) ImportMemories(ctx context.Context, userIdentifier string, memories []model.MemoryRecord) (int, error) {
	imported := 0
	for _, m := range memories {
		_, err := s.StoreMemory(ctx, StoreParams{
			UserIdentifier: userIdentifier,
			Key:            m.Key,
			Value:          m.Value,
			MemoryType:     m.MemoryType,
			Description:    m.Description,
			Importance:     m.Importance,
			Tags:           m.Tags,
			Metadata:       m.Metadata,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
