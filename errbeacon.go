// Package errbeacon captures unexpected runtime failures in a development
// session, keeps them durable across a reload of the host process, and
// forwards them to an out-of-band collector for display.
//
// A host application initializes capture once, early in startup:
//
//	ctrl, err := errbeacon.Initialize(errbeacon.Config{
//		Endpoint: "http://127.0.0.1:8417/__errbeacon",
//	})
//	if err != nil {
//		log.Fatal(err) // misconfiguration, surfaced in every environment
//	}
//	logger = ctrl.WrapLogger(logger)
//
// Outside a development environment Initialize validates the configuration
// and then no-ops, returning a nil controller whose methods are safe to call.
// Repeated initialization in the same process returns the already-active
// controller instead of arming capture twice.
package errbeacon

import (
	"github.com/errbeacon/errbeacon/internal/capture"
)

// Config configures Initialize. Endpoint is the only required option.
type Config = capture.Config

// Controller is the capture pipeline's single entry point.
type Controller = capture.Controller

// ErrEndpointRequired is returned by Initialize when Config names no
// collector endpoint.
var ErrEndpointRequired = capture.ErrEndpointRequired

// Initialize validates cfg and activates capture once per process. See
// Config and Controller for details.
func Initialize(cfg Config) (*Controller, error) {
	return capture.Initialize(cfg)
}

// Active returns the process-wide controller, or nil when capture never
// initialized in this process.
func Active() *Controller {
	return capture.Active()
}
