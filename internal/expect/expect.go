// Package expect is the assertion DSL the browser suites share. Every
// check polls its Surface until it holds or the timeout passes, and fails
// with a MismatchError naming what was expected and what was on screen.
package expect

import (
	"context"
	"fmt"
	"strings"

	"github.com/skilltree/skilltree-e2e/internal/config"
	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/poll"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

// Validator carries the selectors and poll budget shared by all checks.
type Validator struct {
	Poll          poll.Options
	PaginatorNext string
	TotalRows     string
	SaveDialogBtn string
}

// Default uses the built-in selectors and poll budget.
func Default() *Validator {
	return &Validator{
		Poll:          poll.DefaultOptions(),
		PaginatorNext: selectors.PaginatorNext,
		TotalRows:     selectors.TotalRows,
		SaveDialogBtn: selectors.SaveDialogBtn,
	}
}

// New builds a Validator from the harness configuration.
func New(cfg *config.Config) *Validator {
	v := Default()
	v.Poll = poll.Options{Interval: cfg.Poll.Interval, Timeout: cfg.Poll.Timeout}
	if cfg.Selectors.PaginatorNext != "" {
		v.PaginatorNext = cfg.Selectors.PaginatorNext
	}
	if cfg.Selectors.TotalRows != "" {
		v.TotalRows = cfg.Selectors.TotalRows
	}
	return v
}

// MismatchError is an assertion failure. Page, Row and Col are 1-based and
// zero when they do not apply.
type MismatchError struct {
	Selector string
	Page     int
	Row      int
	Col      int
	Expected string
	Actual   string
	Reason   string
}

func (e *MismatchError) Error() string {
	var where []string
	if e.Page > 0 {
		where = append(where, fmt.Sprintf("page %d", e.Page))
	}
	if e.Row > 0 {
		where = append(where, fmt.Sprintf("row %d", e.Row))
	}
	if e.Col > 0 {
		where = append(where, fmt.Sprintf("col %d", e.Col))
	}
	loc := e.Selector
	if len(where) > 0 {
		loc += " (" + strings.Join(where, ", ") + ")"
	}
	msg := fmt.Sprintf("%s: expected %q, got %q", loc, e.Expected, e.Actual)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s: expected %q, got %q", loc, e.Reason, e.Expected, e.Actual)
	}
	return msg
}

func matches(actual, expected string, exact bool) bool {
	actual = dom.NormalizeSpace(actual)
	if exact {
		return actual == dom.NormalizeSpace(expected)
	}
	return strings.Contains(actual, expected)
}

// ValidateTable runs Validator.ValidateTable with Default().
func ValidateTable(ctx context.Context, s dom.Surface, selector string, exp TableExpectation) error {
	return Default().ValidateTable(ctx, s, selector, exp)
}

// ValidateElementsOrder runs Validator.ValidateElementsOrder with Default().
func ValidateElementsOrder(ctx context.Context, s dom.Surface, selector string, expected []string) error {
	return Default().ValidateElementsOrder(ctx, s, selector, expected)
}
