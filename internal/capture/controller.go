// Package capture orchestrates failure capture and delivery for one
// development session.
//
// A Controller owns the three capture points (recovered panics, background
// task failures, intercepted error logs), the durable queue that makes
// payloads survive a reload, and the sender that forwards them to the
// collector. Initialization is idempotent per process: live-reload loops that
// re-run setup get the already-active controller back instead of a second set
// of capture points.
package capture

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/errbeacon/errbeacon/internal/payload"
	"github.com/errbeacon/errbeacon/internal/queue"
	"github.com/errbeacon/errbeacon/internal/session"
	"github.com/errbeacon/errbeacon/internal/transport"
)

// ErrEndpointRequired is returned when Config names no collector endpoint.
var ErrEndpointRequired = errors.New("capture: collector endpoint is required")

// Clock supplies capture timestamps. Injectable for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config configures Initialize. Endpoint is the only required option.
type Config struct {
	// Endpoint is the collector address payloads are posted to. Required;
	// validated unconditionally, even when initialization will otherwise
	// no-op, so misconfiguration surfaces in every environment.
	Endpoint string

	// SessionID scopes the durable queue. Defaults to a stable hash of the
	// working directory.
	SessionID string

	// StateDir overrides where session state lives. Defaults to the user
	// cache directory.
	StateDir string

	// Logger receives capture diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// ForceDev bypasses the development-environment check. Tests only.
	ForceDev bool

	// Clock, Store and Sender override their defaults. Tests only.
	Clock  Clock
	Store  session.Store
	Sender transport.Sender
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrEndpointRequired
	}
	return nil
}

// supported reports whether this environment has session storage to attach
// to. Without it capture cannot make payloads durable and stays off.
func (c Config) supported() bool {
	if c.Store != nil {
		return true
	}
	if c.StateDir != "" {
		return true
	}
	_, err := session.DefaultBaseDir()
	return err == nil
}

// development reports whether the host process is a development build,
// following the APP_ENV / GO_ENV convention.
func (c Config) development() bool {
	if c.ForceDev {
		return true
	}
	for _, key := range []string{"APP_ENV", "GO_ENV"} {
		switch os.Getenv(key) {
		case "development", "dev":
			return true
		}
	}
	return false
}

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateActive
)

// Controller is the single entry point of the capture pipeline. The zero
// value is not usable; obtain one from Initialize. All methods are safe on a
// nil receiver so hosts can call them unconditionally even when
// initialization no-opped.
type Controller struct {
	mu        sync.Mutex
	state     state
	queue     *queue.DurableQueue
	sender    transport.Sender
	clock     Clock
	logger    *zap.Logger
	lastStamp map[payload.Kind]int64
}

var (
	initMu  sync.Mutex
	current *Controller
)

// Initialize validates cfg and activates capture once per process.
//
// The validation error is the only one a caller ever sees. After it,
// three guards short-circuit to a silent no-op returning (nil, nil):
// unsupported environment, non-development build, and capture already active
// in this process. Activation drains payloads a prior session left behind,
// re-sends them in their original order, and arms the capture points.
func Initialize(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !cfg.supported() {
		return nil, nil
	}
	if !cfg.development() {
		return nil, nil
	}

	initMu.Lock()
	defer initMu.Unlock()
	if current != nil {
		return current, nil
	}
	c := newController(cfg)
	current = c
	c.activate()
	return c, nil
}

// Active returns the process-wide controller, or nil when capture never
// initialized in this process.
func Active() *Controller {
	initMu.Lock()
	defer initMu.Unlock()
	return current
}

// resetForTest clears the process-wide initialization guard.
func resetForTest() {
	initMu.Lock()
	defer initMu.Unlock()
	current = nil
}

func newController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = systemClock{}
	}
	store := cfg.Store
	if store == nil {
		store = openStore(cfg, logger)
	}
	sender := cfg.Sender
	if sender == nil {
		sender = transport.NewHTTPSender(cfg.Endpoint, logger)
	}
	return &Controller{
		queue:     queue.New(store, logger),
		sender:    sender,
		clock:     clk,
		logger:    logger,
		lastStamp: map[payload.Kind]int64{},
	}
}

// openStore builds the session store, degrading to in-memory storage when the
// session directory cannot be created. Capture keeps working; only reload
// durability is lost.
func openStore(cfg Config, logger *zap.Logger) session.Store {
	base := cfg.StateDir
	if base == "" {
		resolved, err := session.DefaultBaseDir()
		if err != nil {
			logger.Warn("no session storage location", zap.Error(err))
			return session.NewMemStore()
		}
		base = resolved
	}
	id := cfg.SessionID
	if id == "" {
		id = session.DefaultSessionID()
	}
	store, err := session.NewDirStore(session.DirConfig{BaseDir: base, SessionID: id})
	if err != nil {
		logger.Warn("session storage unavailable, payloads will not survive reload", zap.Error(err))
		return session.NewMemStore()
	}
	return store
}

// activate drains payloads left by a prior session and arms the controller.
func (c *Controller) activate() {
	c.mu.Lock()
	c.state = stateInitializing
	c.mu.Unlock()

	for _, p := range c.queue.DrainAll() {
		c.sender.Send(p)
	}

	c.mu.Lock()
	c.state = stateActive
	c.mu.Unlock()
}

func (c *Controller) active() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateActive
}

// stamp returns the capture timestamp for kind in epoch milliseconds,
// clamped so stamps never decrease within one capture point.
func (c *Controller) stamp(kind payload.Kind) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now().UnixMilli()
	if last := c.lastStamp[kind]; now < last {
		now = last
	}
	c.lastStamp[kind] = now
	return now
}

// deliver persists p before handing it to the sender, so a teardown between
// the two still leaves the payload durable for the next session's drain.
func (c *Controller) deliver(p payload.ErrorPayload) {
	c.queue.Enqueue(p)
	c.sender.Send(p)
}
