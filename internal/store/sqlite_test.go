package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hazoom/assistant-memory/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustStore(t *testing.T, s *SQLiteStore, p StoreParams) *model.MemoryRecord {
	t.Helper()
	m, err := s.StoreMemory(context.Background(), p)
	if err != nil {
		t.Fatalf("store memory: %v", err)
	}
	return m
}

func TestStoreAndGetMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{
		UserIdentifier: "u1",
		Key:            "user_name",
		Value:          "Hazem",
		MemoryType:     "preference",
		Description:    "User identified themselves as Hazem",
		Importance:     9,
		Tags:           []string{"personal", "identity"},
		Metadata:       map[string]string{"source": "chat"},
	})

	got, err := s.GetMemory(ctx, "u1", "user_name")
	if err != nil {
		t.Fatalf("get memory: %v", err)
	}
	if got == nil {
		t.Fatal("expected a memory, got nil")
	}
	if got.Value != "Hazem" || got.MemoryType != "preference" || got.Importance != 9 {
		t.Errorf("unexpected memory: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "personal" {
		t.Errorf("unexpected tags: %v", got.Tags)
	}
	if got.Metadata["source"] != "chat" {
		t.Errorf("unexpected metadata: %v", got.Metadata)
	}
	if got.AccessCount != 1 {
		t.Errorf("expected access_count 1 after first get, got %d", got.AccessCount)
	}
	if got.LastAccessed == nil {
		t.Error("expected last_accessed to be set")
	}

	got, err = s.GetMemory(ctx, "u1", "user_name")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got.AccessCount != 2 {
		t.Errorf("expected access_count 2 after second get, got %d", got.AccessCount)
	}
}

func TestGetMemoryMiss(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetMemory(context.Background(), "u1", "nope")
	if err != nil {
		t.Fatalf("get memory: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %+v", got)
	}
}

func TestUpsertSameKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "v1", Importance: 4})
	second := mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "v2", Importance: 8})

	if first.ID != second.ID {
		t.Errorf("expected stable row id across upsert, got %q then %q", first.ID, second.ID)
	}

	memories, err := s.ListMemories(ctx, ListParams{UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("expected exactly one memory, got %d", len(memories))
	}
	if memories[0].Value != "v2" || memories[0].Importance != 8 {
		t.Errorf("expected updated fields, got %+v", memories[0])
	}
}

func TestSoftDeleteAndReactivate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "value"})
	if err := s.DeleteMemory(ctx, "u1", "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.GetMemory(ctx, "u1", "k")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected deleted memory to be invisible, got %+v", got)
	}

	keys, err := s.ActiveKeys(ctx, "u1")
	if err != nil {
		t.Fatalf("active keys: %v", err)
	}
	if keys["k"] {
		t.Error("expected deleted key to be absent from active keys")
	}

	// Re-storing the key reactivates it and keeps access bookkeeping.
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "value2"})
	got, err = s.GetMemory(ctx, "u1", "k")
	if err != nil {
		t.Fatalf("get after re-store: %v", err)
	}
	if got == nil || got.Value != "value2" {
		t.Fatalf("expected reactivated memory, got %+v", got)
	}
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteMemory(context.Background(), "u1", "missing"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStoreMemoryValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []StoreParams{
		{UserIdentifier: "u1", Key: "", Value: "v"},
		{UserIdentifier: "u1", Key: "   ", Value: "v"},
		{UserIdentifier: "u1", Key: "k", Value: "v", MemoryType: "bogus"},
		{UserIdentifier: "u1", Key: "k", Value: "v", Importance: 11},
		{UserIdentifier: "u1", Key: "k", Value: "v", Importance: -1},
	}
	for _, p := range cases {
		if _, err := s.StoreMemory(ctx, p); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}

func TestStoreMemoryDefaults(t *testing.T) {
	s := newTestStore(t)

	m := mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "v"})
	if m.MemoryType != "fact" {
		t.Errorf("expected default type fact, got %q", m.MemoryType)
	}
	if m.Importance != 5 {
		t.Errorf("expected default importance 5, got %d", m.Importance)
	}
	if !m.IsActive {
		t.Error("expected new memory to be active")
	}
}

func TestSetImportance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "k", Value: "v", Importance: 5})
	if err := s.SetImportance(ctx, "u1", "k", 9); err != nil {
		t.Fatalf("set importance: %v", err)
	}

	got, err := s.GetMemory(ctx, "u1", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Importance != 9 {
		t.Errorf("expected importance 9, got %d", got.Importance)
	}

	if err := s.SetImportance(ctx, "u1", "k", 0); err == nil {
		t.Error("expected range error for importance 0")
	}
	if err := s.SetImportance(ctx, "u1", "missing", 5); err != nil {
		t.Errorf("expected missing key to be a no-op, got %v", err)
	}
}

func TestListMemoriesOrderingAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "low", Value: "v", Importance: 3})
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "high", Value: "v", Importance: 9})
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "mid", Value: "v", Importance: 5, MemoryType: "preference"})
	mustStore(t, s, StoreParams{UserIdentifier: "u2", Key: "other", Value: "v", Importance: 10})

	memories, err := s.ListMemories(ctx, ListParams{UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 3 {
		t.Fatalf("expected 3 memories, got %d", len(memories))
	}
	if memories[0].Key != "high" || memories[1].Key != "mid" || memories[2].Key != "low" {
		t.Errorf("unexpected ordering: %s, %s, %s", memories[0].Key, memories[1].Key, memories[2].Key)
	}

	memories, err = s.ListMemories(ctx, ListParams{UserIdentifier: "u1", MinImportance: 5})
	if err != nil {
		t.Fatalf("list with floor: %v", err)
	}
	if len(memories) != 2 {
		t.Errorf("expected 2 memories with importance >= 5, got %d", len(memories))
	}

	memories, err = s.ListMemories(ctx, ListParams{UserIdentifier: "u1", MemoryType: "preference"})
	if err != nil {
		t.Fatalf("list with type: %v", err)
	}
	if len(memories) != 1 || memories[0].Key != "mid" {
		t.Errorf("unexpected type-filtered result: %+v", memories)
	}
}

func TestActiveKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "a", Value: "v"})
	mustStore(t, s, StoreParams{UserIdentifier: "u1", Key: "b", Value: "v"})
	if err := s.DeleteMemory(ctx, "u1", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	keys, err := s.ActiveKeys(ctx, "u1")
	if err != nil {
		t.Fatalf("active keys: %v", err)
	}
	if !keys["a"] || keys["b"] || len(keys) != 1 {
		t.Errorf("unexpected active keys: %v", keys)
	}
}
