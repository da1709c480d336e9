package capture

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/errbeacon/errbeacon/internal/payload"
	"github.com/errbeacon/errbeacon/internal/serialize"
)

// Go runs fn on a new goroutine and captures any panic as an error payload.
// The panic is reported instead of crashing the process; during development
// the collector's rendering replaces the crash output.
func (c *Controller) Go(fn func()) {
	if fn == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.CapturePanic(r)
			}
		}()
		fn()
	}()
}

// CapturePanic builds an error payload from a recovered panic value and
// delivers it, durable-first. Hosts that run their own recover can call this
// before deciding whether to re-panic.
func (c *Controller) CapturePanic(recovered any) {
	if !c.active() || recovered == nil {
		return
	}
	stack := string(debug.Stack())
	file, line := panicSite(stack)
	c.captureError(panicMessage(recovered), file, line, 0, stack)
}

// captureError is the shared builder behind the uncaught-failure capture
// point. Column is zero for panics; the runtime does not track columns.
func (c *Controller) captureError(message, filename string, line, col int, stack string) {
	c.deliver(payload.ErrorPayload{
		Type:      payload.KindError,
		Timestamp: c.stamp(payload.KindError),
		Message:   message,
		Stack:     stack,
		Filename:  filename,
		Lineno:    line,
		Colno:     col,
	})
}

// CaptureBackgroundError reports a background task failure nobody awaited.
// Error reasons contribute their message and, when available, a stack;
// anything else is reported by its string form.
func (c *Controller) CaptureBackgroundError(reason any) {
	if !c.active() || reason == nil {
		return
	}
	p := payload.ErrorPayload{
		Type:      payload.KindUnhandledRejection,
		Timestamp: c.stamp(payload.KindUnhandledRejection),
	}
	if err, ok := reason.(error); ok {
		p.Message = err.Error()
		if st, ok := err.(interface{ StackTrace() string }); ok {
			p.Stack = st.StackTrace()
		}
	} else {
		p.Message = fmt.Sprint(reason)
	}
	c.deliver(p)
}

// WrapLogger returns a logger that writes through l unchanged while teeing
// every error-level entry into a consoleError payload. Local visibility is
// untouched: the wrapped core still writes first.
func (c *Controller) WrapLogger(l *zap.Logger) *zap.Logger {
	if !c.active() || l == nil {
		return l
	}
	return l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &teeCore{Core: core, ctrl: c}
	}))
}

// teeCore forwards everything to the wrapped core and mirrors error-level
// entries into the capture pipeline.
type teeCore struct {
	zapcore.Core
	ctrl *Controller
	with []zapcore.Field
}

func (t *teeCore) With(fields []zapcore.Field) zapcore.Core {
	carried := make([]zapcore.Field, 0, len(t.with)+len(fields))
	carried = append(carried, t.with...)
	carried = append(carried, fields...)
	return &teeCore{Core: t.Core.With(fields), ctrl: t.ctrl, with: carried}
}

func (t *teeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if t.Core.Enabled(ent.Level) {
		ce = ce.AddCore(ent, t)
	}
	return ce
}

func (t *teeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	err := t.Core.Write(ent, fields)
	if ent.Level >= zapcore.ErrorLevel {
		all := make([]zapcore.Field, 0, len(t.with)+len(fields))
		all = append(all, t.with...)
		all = append(all, fields...)
		t.ctrl.captureLogEntry(ent, all)
	}
	return err
}

func (c *Controller) captureLogEntry(ent zapcore.Entry, fields []zapcore.Field) {
	args := []any{serialize.Serialize(ent.Message)}
	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}
		args = append(args, serialize.Serialize(enc.Fields))
	}
	c.deliver(payload.ErrorPayload{
		Type:      payload.KindConsoleError,
		Timestamp: c.stamp(payload.KindConsoleError),
		Message:   ent.Message,
		Stack:     ent.Stack,
		Args:      args,
	})
}

func panicMessage(recovered any) string {
	switch v := recovered.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// panicSite extracts the file and line of the frame that panicked from a
// debug.Stack dump: the first function frame after the runtime's panic entry.
func panicSite(stack string) (string, int) {
	lines := strings.Split(stack, "\n")
	for i, l := range lines {
		// "panic({0x..., 0x...})" is the runtime's gopanic frame; the frame
		// two lines below it is the function that panicked, with its
		// location on the line after that.
		if strings.HasPrefix(l, "panic(") && i+3 < len(lines) {
			if file, line, ok := parseFrameLocation(lines[i+3]); ok {
				return file, line
			}
		}
	}
	return "", 0
}

// parseFrameLocation parses "\t/path/file.go:123 +0x1b".
func parseFrameLocation(loc string) (string, int, bool) {
	loc = strings.TrimSpace(loc)
	if i := strings.LastIndex(loc, " +0x"); i >= 0 {
		loc = loc[:i]
	}
	i := strings.LastIndex(loc, ":")
	if i < 0 {
		return "", 0, false
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil {
		return "", 0, false
	}
	return loc[:i], line, true
}
