// Package dom defines the page surface the assertion DSL runs against. The
// browser package adapts a Playwright page to it; Static backs it with a
// parsed HTML document for offline tests and recorded pages.
package dom

import (
	"context"
	"fmt"
	"strings"
)

// Surface is the minimal read/act view of a rendered page.
type Surface interface {
	// Texts returns the text of every element matching selector, in
	// document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Rows returns the cell texts of each visible body row of the table
	// matched by selector.
	Rows(ctx context.Context, selector string) ([][]string, error)
	Count(ctx context.Context, selector string) (int, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	IsDisabled(ctx context.Context, selector string) (bool, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
}

// NotFoundError reports a selector that matched nothing.
type NotFoundError struct {
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matches %s", e.Selector)
}

// DisabledError reports an attempt to act on a disabled element.
type DisabledError struct {
	Selector string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("element %s is disabled", e.Selector)
}

// NormalizeSpace collapses runs of whitespace the way rendered text does.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
