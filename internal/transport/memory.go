package transport

import (
	"sync"

	"github.com/errbeacon/errbeacon/internal/payload"
)

// MemorySender records sent payloads for inspection in tests.
type MemorySender struct {
	mu   sync.RWMutex
	sent []payload.ErrorPayload
}

// NewMemorySender returns an empty recorder.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send records p.
func (m *MemorySender) Send(p payload.ErrorPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, p)
}

// Sent returns the recorded payloads in send order.
func (m *MemorySender) Sent() []payload.ErrorPayload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payload.ErrorPayload, len(m.sent))
	copy(out, m.sent)
	return out
}
