// Package queue persists captured payloads so they survive a host reload.
//
// The queue is an ordered sequence of payloads stored as one JSON blob under
// a single well-known key in session storage. It favors availability over
// perfect delivery: storage faults and corrupt data are logged and treated as
// an empty sequence, never surfaced to the host.
package queue

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/errbeacon/errbeacon/internal/payload"
	"github.com/errbeacon/errbeacon/internal/session"
)

// StorageKey is the well-known session storage key holding the queue blob.
const StorageKey = "pending_errors"

// DurableQueue appends payloads to session storage and drains them on the
// next startup.
type DurableQueue struct {
	store  session.Store
	logger *zap.Logger
}

// New wraps store in a DurableQueue. A nil logger disables diagnostics.
func New(store session.Store, logger *zap.Logger) *DurableQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DurableQueue{store: store, logger: logger}
}

// Enqueue appends p to the persisted sequence via read-modify-write. A failed
// enqueue loses that payload's reload durability but never reaches the host.
func (q *DurableQueue) Enqueue(p payload.ErrorPayload) {
	pending := q.read()
	pending = append(pending, p)
	data, err := json.Marshal(pending)
	if err != nil {
		q.logger.Warn("encode pending payloads", zap.Error(err))
		return
	}
	if err := q.store.Set(StorageKey, string(data)); err != nil {
		q.logger.Warn("persist pending payloads", zap.Error(err))
	}
}

// DrainAll returns every persisted payload in enqueue order and clears the
// store. The clear happens only after the read; it is best-effort and a
// failure to clear is logged, not returned. Draining an empty or absent
// store yields an empty sequence.
func (q *DurableQueue) DrainAll() []payload.ErrorPayload {
	pending := q.read()
	if err := q.store.Delete(StorageKey); err != nil {
		q.logger.Warn("clear pending payloads", zap.Error(err))
	}
	return pending
}

// read loads the persisted sequence, treating absent or corrupt data as empty.
func (q *DurableQueue) read() []payload.ErrorPayload {
	raw, ok := q.store.Get(StorageKey)
	if !ok || raw == "" {
		return nil
	}
	var pending []payload.ErrorPayload
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		q.logger.Warn("discarding corrupt pending payloads", zap.Error(err))
		return nil
	}
	return pending
}
