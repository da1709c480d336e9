package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errbeacon/errbeacon/internal/payload"
)

func TestHTTPSenderPostsPayload(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, nil)
	s.Send(payload.ErrorPayload{Type: payload.KindError, Timestamp: 99, Message: "boom"})
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	var got payload.ErrorPayload
	require.NoError(t, json.Unmarshal(bodies[0], &got))
	assert.Equal(t, payload.KindError, got.Type)
	assert.Equal(t, int64(99), got.Timestamp)
	assert.Equal(t, "boom", got.Message)
}

func TestHTTPSenderSwallowsDeliveryFailure(t *testing.T) {
	t.Parallel()

	// Nothing listens here; Send must not surface the failure.
	s := NewHTTPSender("http://127.0.0.1:0/nowhere", nil)
	assert.NotPanics(t, func() {
		s.Send(payload.ErrorPayload{Type: payload.KindError, Timestamp: 1, Message: "x"})
		s.Flush()
	})
}

func TestMemorySenderRecordsInOrder(t *testing.T) {
	t.Parallel()

	m := NewMemorySender()
	m.Send(payload.ErrorPayload{Type: payload.KindError, Timestamp: 1, Message: "first"})
	m.Send(payload.ErrorPayload{Type: payload.KindConsoleError, Timestamp: 2, Message: "second"})

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "first", sent[0].Message)
	assert.Equal(t, "second", sent[1].Message)
}
