package llm

import "sync"

// DefaultHistoryTurns bounds remembered messages per session.
const DefaultHistoryTurns = 40

// history keeps per-session conversation turns for backends whose API is stateless.
type history[T any] struct {
	mu    sync.Mutex
	turns map[string][]T
	max   int
}

func newHistory[T any](max int) *history[T] {
	if max <= 0 {
		max = DefaultHistoryTurns
	}
	return &history[T]{turns: make(map[string][]T), max: max}
}

func (h *history[T]) get(id string) []T {
	if id == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]T(nil), h.turns[id]...)
}

func (h *history[T]) append(id string, msgs ...T) {
	if id == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	t := append(h.turns[id], msgs...)
	if len(t) > h.max {
		t = append([]T(nil), t[len(t)-h.max:]...)
	}
	h.turns[id] = t
}

func (h *history[T]) drop(id string) {
	h.mu.Lock()
	delete(h.turns, id)
	h.mu.Unlock()
}

func (h *history[T]) sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}
