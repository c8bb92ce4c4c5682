// Package terminal is the interactive surface: a line-based search field,
// a handful of slash commands and a renderer that redraws on every change.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/presentation"
)

// Commands understood at the prompt. Anything else is a city name.
const (
	CmdUnit  = "/unit"
	CmdRetry = "/retry"
	CmdClear = "/clear"
	CmdQuit  = "/quit"
)

// View is the presenter surface the terminal drives.
type View interface {
	Subscribe(fn func(presentation.Screen)) (unsubscribe func())
	SetQuery(query string)
	ClearQuery()
	Submit() bool
	ToggleUnit() domain.UnitPreference
	OnNotice(fn func(text string))
	Messages() *presentation.Messages
}

// Terminal reads commands from in and renders frames to out.
type Terminal struct {
	view   View
	in     io.Reader
	logger *zap.Logger

	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewTerminal creates a terminal over view.
//
// Parameters:
//   - view: Presenter to drive and render
//   - in: Line source, usually os.Stdin
//   - out: Render target, usually os.Stdout
//   - logger: Zap logger for input errors
//
// Returns:
//   - *Terminal: Terminal ready to Run
func NewTerminal(view View, in io.Reader, out io.Writer, logger *zap.Logger) *Terminal {
	t := &Terminal{
		view:   view,
		in:     in,
		out:    out,
		logger: logger,
	}

	view.OnNotice(t.notice)

	return t
}

// Run renders the current frame and processes input until /quit, end of
// input or ctx cancellation. A read blocked on in outlives a cancelled Run.
func (t *Terminal) Run(ctx context.Context) error {
	messages := t.view.Messages()
	t.printf("%s  (%s: %s | %s %s %s)\n", messages.Prompt(), CmdUnit, messages.UnitToggle(), CmdRetry, CmdClear, CmdQuit)

	unsubscribe := t.view.Subscribe(t.render)
	defer unsubscribe()

	lines := make(chan string)
	done := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(t.in)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		done <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil {
				t.logger.Error("failed to read input", zap.Error(err))
				return fmt.Errorf("read input: %w", err)
			}

			return nil
		case line := <-lines:
			if quit := t.handle(line); quit {
				return nil
			}
		}
	}
}

// handle applies one input line and reports whether the user asked to quit.
func (t *Terminal) handle(line string) bool {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
	case line == CmdQuit:
		return true
	case line == CmdUnit:
		t.view.ToggleUnit()
	case line == CmdRetry:
		t.view.Submit()
	case line == CmdClear:
		t.view.ClearQuery()
	case strings.HasPrefix(line, "/"):
		t.printf("? %s %s %s %s\n", CmdUnit, CmdRetry, CmdClear, CmdQuit)
	default:
		t.view.SetQuery(line)
		t.view.Submit()
	}

	return false
}

// render draws screen unless it looks the same as the previous frame.
// Query edits alone never redraw.
func (t *Terminal) render(screen presentation.Screen) {
	frame := t.frame(screen)

	t.mu.Lock()
	defer t.mu.Unlock()

	if frame == t.last {
		return
	}

	t.last = frame
	fmt.Fprint(t.out, frame)
}

func (t *Terminal) frame(screen presentation.Screen) string {
	if screen.Weather == nil {
		return "… " + screen.Status + "\n"
	}

	vm := screen.Weather
	wind, clouds, pressure := t.view.Messages().Labels()

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  %s  %s\n", vm.Location, vm.TemperatureText, vm.Description)

	var details []string
	for _, d := range []struct{ label, value string }{
		{wind, vm.WindSpeed},
		{clouds, vm.Clouds},
		{pressure, vm.Pressure},
	} {
		if d.value != "" {
			details = append(details, d.label+": "+d.value)
		}
	}

	if len(details) > 0 {
		fmt.Fprintf(&b, "  %s\n", strings.Join(details, " | "))
	}

	if vm.IconURL != "" {
		fmt.Fprintf(&b, "  %s\n", vm.IconURL)
	}

	return b.String()
}

func (t *Terminal) notice(text string) {
	t.printf("! %s\n", text)
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, format, args...)
}
