package browser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ConsoleMessage is one browser console entry.
type ConsoleMessage struct {
	Type string
	Text string
}

// ConsoleError lists unexpected console output collected during a test.
type ConsoleError struct {
	Messages []ConsoleMessage
}

func (e *ConsoleError) Error() string {
	lines := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		lines[i] = fmt.Sprintf("  console.%s: %s", m.Type, m.Text)
	}
	return fmt.Sprintf("%d unexpected console message(s):\n%s", len(e.Messages), strings.Join(lines, "\n"))
}

// ConsoleWatch collects console errors and warnings.
type ConsoleWatch struct {
	mu       sync.Mutex
	ignore   bool
	allow    []*regexp.Regexp
	messages []ConsoleMessage
}

// NewConsoleWatch returns a watch; with ignore set it never reports.
func NewConsoleWatch(ignore bool) *ConsoleWatch {
	return &ConsoleWatch{ignore: ignore}
}

// Allow suppresses messages whose text matches pattern.
func (w *ConsoleWatch) Allow(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("console allow pattern: %w", err)
	}
	w.mu.Lock()
	w.allow = append(w.allow, re)
	w.mu.Unlock()
	return nil
}

// Record keeps error and warning messages; other types are dropped.
func (w *ConsoleWatch) Record(typ, text string) {
	if typ == "warn" {
		typ = "warning"
	}
	if typ != "error" && typ != "warning" {
		return
	}
	w.mu.Lock()
	w.messages = append(w.messages, ConsoleMessage{Type: typ, Text: text})
	w.mu.Unlock()
}

// Problems returns recorded messages not covered by an allow pattern.
func (w *ConsoleWatch) Problems() []ConsoleMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ignore {
		return nil
	}
	var out []ConsoleMessage
outer:
	for _, m := range w.messages {
		for _, re := range w.allow {
			if re.MatchString(m.Text) {
				continue outer
			}
		}
		out = append(out, m)
	}
	return out
}

// Err returns a *ConsoleError when there are problems.
func (w *ConsoleWatch) Err() error {
	if p := w.Problems(); len(p) > 0 {
		return &ConsoleError{Messages: p}
	}
	return nil
}
