package store

import (
	"context"
	"testing"
)

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "name", Value: "Hazem", MemoryType: "preference", Importance: 9})
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "pet", Value: "cat", MemoryType: "fact", Importance: 5})
	if _, err := s.GetMemory(ctx, "u1", "name"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := s.GetMemory(ctx, "u1", "name"); err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, role := range []string{"user", "assistant"} {
		if _, err := s.AppendMessage(ctx, AppendMessageParams{
			SessionID: "s1", UserIdentifier: "u1", Role: role, Content: "hi",
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	st, err := s.Stats(ctx, "u1", "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMemories != 2 {
		t.Errorf("expected 2 memories, got %d", st.TotalMemories)
	}
	if st.ByType["preference"] != 1 || st.ByType["fact"] != 1 {
		t.Errorf("unexpected by-type counts: %v", st.ByType)
	}
	if st.TotalSessions != 1 || st.TotalMessages != 2 {
		t.Errorf("unexpected session stats: %+v", st)
	}
	if len(st.MostAccessed) == 0 || st.MostAccessed[0].Key != "name" || st.MostAccessed[0].AccessCount != 2 {
		t.Errorf("unexpected most-accessed ranking: %+v", st.MostAccessed)
	}
}
