package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hazoom/assistant-memory/internal/admit"
	"github.com/hazoom/assistant-memory/internal/extract"
	"github.com/hazoom/assistant-memory/internal/store"
)

const basePrompt = `You are HAZoom, an AI assistant with persistent memory.

You can remember user preferences, important facts from previous
conversations, and technical details users share with you. When users
mention something important, it is stored for future reference.`

// historyWindow is how many prior turns are handed to the generator.
const historyWindow = 10

// Backend is the stateful conversation handle for one (user, session)
// pair. It observes utterances for memory extraction, carries in-memory
// history, and routes generation by intelligence level.
//
// A Backend created without a working store runs in degraded mode:
// chat still works, memory operations are no-ops.
type Backend struct {
	UserIdentifier string
	SessionID      string

	store         *store.SQLiteStore // nil in degraded mode
	gen           Generator
	level         Level
	history       []Turn
	systemContext string
}

// New creates a backend and materializes its system context. st may be
// nil for a memory-less backend.
func New(ctx context.Context, userIdentifier, sessionID string, st *store.SQLiteStore, gen Generator) *Backend {
	b := &Backend{
		UserIdentifier: userIdentifier,
		SessionID:      sessionID,
		store:          st,
		gen:            gen,
		level:          LevelSuper,
	}
	b.refreshSystemContext(ctx)
	return b
}

// Level returns the current intelligence routing tier.
func (b *Backend) Level() Level {
	return b.level
}

// SetLevel changes the routing tier and regenerates the system context.
func (b *Backend) SetLevel(ctx context.Context, level Level) {
	b.level = level
	b.refreshSystemContext(ctx)
}

// SystemContext returns the current assembled system context.
func (b *Backend) SystemContext() string {
	return b.systemContext
}

func (b *Backend) refreshSystemContext(ctx context.Context) {
	parts := []string{basePrompt, fmt.Sprintf("Intelligence level: %s", strings.ToUpper(string(b.level)))}

	if b.store != nil {
		memoryContext, err := b.store.BuildContext(ctx, store.ContextParams{
			UserIdentifier:  b.UserIdentifier,
			SessionID:       b.SessionID,
			IncludeMemories: true,
		})
		if err != nil {
			log.Warn("system context: memory context unavailable", "user", b.UserIdentifier, "err", err)
		} else if memoryContext != "" {
			parts = append(parts, memoryContext)
		}
	}

	b.systemContext = strings.Join(parts, "\n\n")
}

// ObserveUserMessage runs the extraction and admission pipeline over one
// utterance, persisting admitted candidates. Errors are logged and
// swallowed so a broken pattern or store hiccup never blocks delivery.
// Returns the number of memories stored.
func (b *Backend) ObserveUserMessage(ctx context.Context, text string) int {
	if b.store == nil {
		return 0
	}

	candidates := extract.Extract(text, b.UserIdentifier)
	if len(candidates) == 0 {
		return 0
	}

	existing, err := b.store.ActiveKeys(ctx, b.UserIdentifier)
	if err != nil {
		log.Warn("memory extraction: cannot load existing keys", "user", b.UserIdentifier, "err", err)
		return 0
	}

	stored := 0
	for _, c := range candidates {
		ok, reason := admit.ShouldStore(c, existing)
		if !ok {
			log.Debug("memory rejected", "key", c.Key, "reason", reason)
			continue
		}
		_, err := b.store.StoreMemory(ctx, store.StoreParams{
			UserIdentifier: b.UserIdentifier,
			Key:            c.Key,
			Value:          c.Value,
			MemoryType:     c.MemoryType,
			Description:    c.Description,
			Importance:     c.Importance,
			Tags:           c.Tags,
		})
		if err != nil {
			log.Warn("memory store failed", "key", c.Key, "err", err)
			continue
		}
		existing[c.Key] = true
		stored++
	}
	return stored
}

// Chat handles one turn: observe the utterance for memories, persist the
// user message, generate a reply, and persist it. Generator errors are
// returned as-is.
func (b *Backend) Chat(ctx context.Context, userMessage string) (string, error) {
	b.ObserveUserMessage(ctx, userMessage)
	b.persistMessage(ctx, "user", userMessage)

	reply, err := b.gen.Generate(ctx, b.request(userMessage))
	if err != nil {
		return "", err
	}

	b.appendTurns(userMessage, reply)
	b.persistMessage(ctx, "assistant", reply)
	return reply, nil
}

// ChatStream is Chat with a streaming reply. Fragments are fed to fn;
// the full reply is persisted once the stream ends cleanly.
func (b *Backend) ChatStream(ctx context.Context, userMessage string, fn func(chunk string) error) error {
	b.ObserveUserMessage(ctx, userMessage)
	b.persistMessage(ctx, "user", userMessage)

	var reply strings.Builder
	err := b.gen.Stream(ctx, b.request(userMessage), func(chunk string) error {
		reply.WriteString(chunk)
		return fn(chunk)
	})
	if err != nil {
		return err
	}

	b.appendTurns(userMessage, reply.String())
	b.persistMessage(ctx, "assistant", reply.String())
	return nil
}

// ClearHistory drops the in-memory conversation history.
func (b *Backend) ClearHistory() {
	b.history = nil
}

// History returns a snapshot of the in-memory conversation history.
func (b *Backend) History() []Turn {
	out := make([]Turn, len(b.history))
	copy(out, b.history)
	return out
}

func (b *Backend) request(userMessage string) Request {
	history := b.history
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return Request{
		Model:         b.level.Model(),
		SystemContext: b.systemContext,
		History:       history,
		UserMessage:   userMessage,
	}
}

func (b *Backend) appendTurns(userMessage, reply string) {
	b.history = append(b.history,
		Turn{Role: "user", Content: userMessage},
		Turn{Role: "assistant", Content: reply})
}

func (b *Backend) persistMessage(ctx context.Context, role, content string) {
	if b.store == nil {
		return
	}
	_, err := b.store.AppendMessage(ctx, store.AppendMessageParams{
		SessionID:      b.SessionID,
		UserIdentifier: b.UserIdentifier,
		Role:           role,
		Content:        content,
	})
	if err != nil {
		log.Warn("persist message failed", "session", b.SessionID, "role", role, "err", err)
	}
}
