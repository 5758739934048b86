package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hazoom/assistant-memory/internal/store"
)

// fakeGenerator records the last request and replies with a canned
// string, split into word chunks when streaming.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	lastReq Request
	calls   int
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	f.calls++
	return f.reply, nil
}

func (f *fakeGenerator) Stream(ctx context.Context, req Request, fn func(chunk string) error) error {
	f.mu.Lock()
	f.lastReq = req
	f.calls++
	reply := f.reply
	f.mu.Unlock()

	for _, chunk := range strings.SplitAfter(reply, " ") {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeGenerator) last() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func newBackendStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChatPersistsAndRemembers(t *testing.T) {
	st := newBackendStore(t)
	gen := &fakeGenerator{reply: "Nice to meet you!"}
	ctx := context.Background()

	b := New(ctx, "u1", "s1", st, gen)
	reply, err := b.Chat(ctx, "My name is Hazem")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "Nice to meet you!" {
		t.Errorf("unexpected reply %q", reply)
	}

	turns := b.History()
	if len(turns) != 2 || turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("unexpected in-memory history: %+v", turns)
	}

	messages, err := st.History(ctx, store.HistoryParams{SessionID: "s1", UserIdentifier: "u1"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("expected 2 persisted messages, got %d", len(messages))
	}

	mem, err := st.GetMemory(ctx, "u1", "user_name")
	if err != nil {
		t.Fatalf("get memory: %v", err)
	}
	if mem == nil || mem.Value != "Hazem" {
		t.Errorf("expected extracted name memory, got %+v", mem)
	}
}

func TestChatStreamAccumulates(t *testing.T) {
	st := newBackendStore(t)
	gen := &fakeGenerator{reply: "streamed reply here"}
	ctx := context.Background()

	b := New(ctx, "u1", "s1", st, gen)

	var got strings.Builder
	err := b.ChatStream(ctx, "hello", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("chat stream: %v", err)
	}
	if got.String() != "streamed reply here" {
		t.Errorf("unexpected streamed output %q", got.String())
	}

	turns := b.History()
	if len(turns) != 2 || turns[1].Content != "streamed reply here" {
		t.Errorf("expected full reply in history, got %+v", turns)
	}
}

func TestObserveUserMessage(t *testing.T) {
	st := newBackendStore(t)
	ctx := context.Background()

	b := New(ctx, "u1", "s1", st, &fakeGenerator{})
	if stored := b.ObserveUserMessage(ctx, "My name is Hazem"); stored != 2 {
		t.Errorf("expected 2 stored memories, got %d", stored)
	}
	// Same utterance again: every candidate now collides with an
	// existing key.
	if stored := b.ObserveUserMessage(ctx, "My name is Hazem"); stored != 0 {
		t.Errorf("expected duplicate suppression, got %d stored", stored)
	}
}

func TestSystemContextCarriesMemories(t *testing.T) {
	st := newBackendStore(t)
	ctx := context.Background()

	b := New(ctx, "u1", "s1", st, &fakeGenerator{reply: "ok"})
	if !strings.Contains(b.SystemContext(), "Intelligence level: SUPER") {
		t.Errorf("expected level line, got %q", b.SystemContext())
	}

	if _, err := b.Chat(ctx, "My name is Hazem"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	// The refresh on a level change picks up memories stored since
	// construction.
	b.SetLevel(ctx, LevelNano)
	sc := b.SystemContext()
	if !strings.Contains(sc, "Intelligence level: NANO") {
		t.Errorf("expected updated level line, got %q", sc)
	}
	if !strings.Contains(sc, "user_name: Hazem") {
		t.Errorf("expected remembered name in system context, got %q", sc)
	}
}

func TestRequestHistoryWindow(t *testing.T) {
	st := newBackendStore(t)
	gen := &fakeGenerator{reply: "ok"}
	ctx := context.Background()

	b := New(ctx, "u1", "s1", st, gen)
	for i := 0; i < 7; i++ {
		if _, err := b.Chat(ctx, fmt.Sprintf("ping %d", i)); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}

	// Before the 7th call the history held 12 turns; only the last 10
	// go to the generator.
	if got := len(gen.last().History); got != historyWindow {
		t.Errorf("expected %d history turns in request, got %d", historyWindow, got)
	}
}

func TestDegradedBackend(t *testing.T) {
	gen := &fakeGenerator{reply: "still here"}
	ctx := context.Background()

	b := New(ctx, "u1", "s1", nil, gen)
	if stored := b.ObserveUserMessage(ctx, "My name is Hazem"); stored != 0 {
		t.Errorf("expected no memories in degraded mode, got %d", stored)
	}

	reply, err := b.Chat(ctx, "hello")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "still here" {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(b.History()) != 2 {
		t.Errorf("expected in-memory history to survive, got %d turns", len(b.History()))
	}
}
