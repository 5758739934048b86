package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hazoom/assistant-memory/internal/model"
)

// AddKnowledgeParams holds parameters for adding a knowledge entry.
type AddKnowledgeParams struct {
	Category string
	Title    string
	Content  string
	Summary  string
	Keywords []string
	Source   string
}

// KnowledgeSearchParams holds parameters for searching the knowledge base.
type KnowledgeSearchParams struct {
	Query    string
	Category string
	Limit    int
}

// AddKnowledge creates a global knowledge entry. The summary defaults to
// the first 200 characters of content.
func (s *SQLiteStore) AddKnowledge(ctx context.Context, p AddKnowledgeParams) (*model.KnowledgeEntry, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("add knowledge: title is required")
	}

	summary := p.Summary
	if summary == "" {
		summary = p.Content
		if len(summary) > 200 {
			summary = summary[:200]
		}
	}

	now := time.Now().UTC()
	entry := &model.KnowledgeEntry{
		ID:             s.newID(),
		Category:       p.Category,
		Title:          p.Title,
		Content:        p.Content,
		Summary:        summary,
		Keywords:       p.Keywords,
		Source:         p.Source,
		RelevanceScore: 1.0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	ts := now.Format(timeFormat)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge (id, category, title, content, summary, keywords, source, relevance_score, access_count, is_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1.0, 0, 0, ?, ?)`,
		entry.ID, entry.Category, entry.Title, entry.Content, entry.Summary,
		marshalStrings(entry.Keywords), entry.Source, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert knowledge: %w", err)
	}
	return entry, nil
}

// SearchKnowledge finds knowledge entries matching the query substring
// over title, content, summary, or keywords. Every returned entry gets
// its access count bumped and its relevance score multiplied by 1.01,
// capped at 10.0.
func (s *SQLiteStore) SearchKnowledge(ctx context.Context, p KnowledgeSearchParams) ([]model.KnowledgeEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 5
	}

	where := []string{"1 = 1"}
	args := []interface{}{}

	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}
	if p.Query != "" {
		q := "%" + strings.ToLower(p.Query) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(keywords) LIKE ?)")
		args = append(args, q, q, q, q)
	}

	query := `SELECT id, category, title, content, summary, keywords, source, relevance_score, access_count, is_verified, created_at, updated_at
	          FROM knowledge WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY relevance_score DESC, updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.KnowledgeEntry
	for rows.Next() {
		e, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Popularity reinforcement on every hit.
	for i := range entries {
		entries[i].AccessCount++
		entries[i].RelevanceScore = minFloat(10.0, entries[i].RelevanceScore*1.01)
		_, err := s.db.ExecContext(ctx,
			`UPDATE knowledge SET access_count = access_count + 1, relevance_score = MIN(10.0, relevance_score * 1.01) WHERE id = ?`,
			entries[i].ID)
		if err != nil {
			return nil, fmt.Errorf("record knowledge access: %w", err)
		}
	}

	return entries, nil
}

func scanKnowledge(row scanner) (model.KnowledgeEntry, error) {
	var e model.KnowledgeEntry
	var keywordsJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.Category, &e.Title, &e.Content, &e.Summary, &keywordsJSON,
		&e.Source, &e.RelevanceScore, &e.AccessCount, &e.IsVerified, &createdAt, &updatedAt)
	if err != nil {
		return e, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if keywordsJSON.Valid {
		unmarshalStrings(keywordsJSON.String, &e.Keywords)
	}
	return e, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
