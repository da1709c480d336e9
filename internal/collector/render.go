package collector

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/errbeacon/errbeacon/internal/payload"
)

var (
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleRejection = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleConsole   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	styleMeta      = lipgloss.NewStyle().Faint(true)
	styleStack     = lipgloss.NewStyle().Faint(true).MarginLeft(2)
)

// Render formats one payload for the developer's terminal.
func Render(p payload.ErrorPayload) string {
	var b strings.Builder

	b.WriteString(headline(p))
	b.WriteByte('\n')
	b.WriteString(styleMeta.Render(metaLine(p)))

	if len(p.Args) > 0 {
		if args, err := json.MarshalIndent(p.Args, "  ", "  "); err == nil {
			b.WriteByte('\n')
			b.WriteString("  " + string(args))
		}
	}
	if p.Stack != "" {
		b.WriteByte('\n')
		b.WriteString(styleStack.Render(strings.TrimRight(p.Stack, "\n")))
	}
	return b.String()
}

func headline(p payload.ErrorPayload) string {
	msg := p.Message
	if msg == "" {
		msg = "(no message)"
	}
	switch p.Type {
	case payload.KindUnhandledRejection:
		return styleRejection.Render("✖ unhandled rejection ") + msg
	case payload.KindConsoleError:
		return styleConsole.Render("✖ console error ") + msg
	default:
		return styleError.Render("✖ error ") + msg
	}
}

func metaLine(p payload.ErrorPayload) string {
	at := time.UnixMilli(p.Timestamp).UTC().Format(time.RFC3339)
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d at %s", p.Filename, p.Lineno, p.Colno, at)
	}
	return "at " + at
}
