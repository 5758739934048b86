package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestBuildContextStyleLine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	block, err := s.BuildContext(ctx, ContextParams{UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(block, "User preference: detailed responses") {
		t.Errorf("expected default style line first, got %q", block)
	}

	style := "concise"
	if _, err := s.UpdatePreferences(ctx, "u1", PreferenceUpdate{PreferredResponseStyle: &style}); err != nil {
		t.Fatalf("update prefs: %v", err)
	}

	block, err = s.BuildContext(ctx, ContextParams{UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(block, "User preference: concise responses") {
		t.Errorf("expected updated style line, got %q", block)
	}
}

func TestBuildContextMemoryBudget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		mustStore(t, s, StoreParams{
			UserIdentifier: "u1",
			Key:            fmt.Sprintf("important_%d", i),
			Value:          "high value",
			Importance:     8,
		})
	}
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "minor", Value: "low value", Importance: 6})

	block, err := s.BuildContext(ctx, ContextParams{UserIdentifier: "u1", IncludeMemories: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(block, "=== IMPORTANT MEMORIES ===") {
		t.Fatalf("expected memory section, got %q", block)
	}
	if got := strings.Count(block, "• "); got != 5 {
		t.Errorf("expected 5 memory lines, got %d", got)
	}
	if strings.Contains(block, "minor") {
		t.Error("expected importance floor to exclude sub-7 memories")
	}
}

func TestBuildContextHistoryWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("z", 150)
	for i := 0; i < 6; i++ {
		content := fmt.Sprintf("message %d", i)
		if i == 5 {
			content = long
		}
		if _, err := s.AppendMessage(ctx, AppendMessageParams{
			SessionID: "s1", UserIdentifier: "u1", Role: "user", Content: content,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	block, err := s.BuildContext(ctx, ContextParams{
		UserIdentifier: "u1", SessionID: "s1", IncludeRecentHistory: true,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(block, "=== RECENT CONVERSATION ===") {
		t.Fatalf("expected history section, got %q", block)
	}
	if strings.Contains(block, "message 0") {
		t.Error("expected only the last 5 turns")
	}
	if !strings.Contains(block, "message 4") {
		t.Error("expected recent turn in block")
	}
	truncated := "user: " + long[:100] + "..."
	if !strings.Contains(block, truncated) {
		t.Errorf("expected truncated long message, block:\n%s", block)
	}
}

func TestBuildContextSectionToggles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "v", Importance: 9})

	block, err := s.BuildContext(ctx, ContextParams{UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(block, "===") {
		t.Errorf("expected no sections with all toggles off, got %q", block)
	}

	block, err = s.BuildContext(ctx, ContextParams{UserIdentifier: "u1", IncludeKnowledge: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(block, "=== AVAILABLE KNOWLEDGE ===") ||
		!strings.Contains(block, "Access to system knowledge base for detailed information") {
		t.Errorf("expected knowledge pointer section, got %q", block)
	}
}

func TestBuildContextOmitsEmptySections(t *testing.T) {
	s := newTestStore(t)

	block, err := s.BuildContext(context.Background(), DefaultContextParams("u1", "s1"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(block, "IMPORTANT MEMORIES") {
		t.Error("expected no memory section for a user with no memories")
	}
	if strings.Contains(block, "RECENT CONVERSATION") {
		t.Error("expected no history section for an empty session")
	}
}
