// Package transport delivers captured payloads to the collector.
package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/errbeacon/errbeacon/internal/payload"
)

const sendTimeout = 5 * time.Second

// Sender submits one payload to the collector. Submission is non-blocking
// and best-effort: no delivery confirmation, no retry. Durability across a
// failed send is the queue's job, not the sender's.
type Sender interface {
	Send(p payload.ErrorPayload)
}

// HTTPSender posts payloads as JSON to a fixed endpoint and never waits for
// the answer on the calling goroutine.
type HTTPSender struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	inflight sync.WaitGroup
}

// NewHTTPSender returns a sender that posts to endpoint. A nil logger
// disables diagnostics.
func NewHTTPSender(endpoint string, logger *zap.Logger) *HTTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: sendTimeout},
		logger:   logger,
	}
}

// Send submits p in the background. The caller gets no delivery signal;
// failures are logged at debug level and dropped.
func (s *HTTPSender) Send(p payload.ErrorPayload) {
	body, err := json.Marshal(p)
	if err != nil {
		s.logger.Debug("encode payload", zap.Error(err))
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			s.logger.Debug("payload delivery failed", zap.Error(err))
			return
		}
		// Drain so the connection can be reused; the result is not reported.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
}

// Flush blocks until in-flight submissions have been handed to the network
// layer. Shutdown and test helper; the capture path never calls it.
func (s *HTTPSender) Flush() {
	s.inflight.Wait()
}
