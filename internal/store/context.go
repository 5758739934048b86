package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	UserIdentifier       string
	SessionID            string
	IncludeMemories      bool
	IncludeKnowledge     bool
	IncludeRecentHistory bool
	MaxHistory           int // 0 means 10
}

// DefaultContextParams returns context parameters with every section
// enabled and the default history window.
func DefaultContextParams(userIdentifier, sessionID string) ContextParams {
	return ContextParams{
		UserIdentifier:       userIdentifier,
		SessionID:            sessionID,
		IncludeMemories:      true,
		IncludeKnowledge:     true,
		IncludeRecentHistory: true,
		MaxHistory:           10,
	}
}

// BuildContext assembles the bounded context block handed to the
// generator: response-style line, top-importance memories, recent
// conversation turns, and a knowledge-base pointer, in that order.
// A store failure on an optional section omits the section instead of
// failing assembly, so the chat flow stays alive.
func (s *SQLiteStore) BuildContext(ctx context.Context, p ContextParams) (string, error) {
	maxHistory := p.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 10
	}

	var parts []string

	style := "detailed"
	if prefs, err := s.GetPreferences(ctx, p.UserIdentifier); err != nil {
		log.Warn("context: preferences unavailable, using default style", "user", p.UserIdentifier, "err", err)
	} else {
		style = prefs.PreferredResponseStyle
	}
	parts = append(parts, fmt.Sprintf("User preference: %s responses", style))

	if p.IncludeMemories {
		memories, err := s.ListMemories(ctx, ListParams{UserIdentifier: p.UserIdentifier, MinImportance: 7})
		if err != nil {
			log.Warn("context: omitting memory section", "user", p.UserIdentifier, "err", err)
		} else if len(memories) > 0 {
			parts = append(parts, "\n=== IMPORTANT MEMORIES ===")
			if len(memories) > 5 {
				memories = memories[:5]
			}
			for _, m := range memories {
				parts = append(parts, fmt.Sprintf("• %s: %s", m.Key, m.Value))
			}
		}
	}

	if p.IncludeRecentHistory {
		recent, err := s.History(ctx, HistoryParams{
			SessionID:      p.SessionID,
			UserIdentifier: p.UserIdentifier,
			Limit:          maxHistory,
		})
		if err != nil {
			log.Warn("context: omitting history section", "session", p.SessionID, "err", err)
		} else if len(recent) > 0 {
			parts = append(parts, "\n=== RECENT CONVERSATION ===")
			if len(recent) > 5 {
				recent = recent[len(recent)-5:]
			}
			for _, msg := range recent {
				content := msg.Content
				if len(content) > 100 {
					content = content[:100]
				}
				parts = append(parts, fmt.Sprintf("%s: %s...", msg.Role, content))
			}
		}
	}

	if p.IncludeKnowledge {
		// No retrieval here: knowledge lookup is an on-demand operation.
		parts = append(parts, "\n=== AVAILABLE KNOWLEDGE ===")
		parts = append(parts, "Access to system knowledge base for detailed information")
	}

	return strings.Join(parts, "\n"), nil
}
