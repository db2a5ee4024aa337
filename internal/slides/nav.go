// Package slides checks the slide-deck viewer and produces the PDF decks
// it is tested with.
package slides

import (
	"context"
	"fmt"

	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/expect"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

// NavOptions describes a deck to walk.
type NavOptions struct {
	// Pages is the number of slides in the deck.
	Pages int
	// Texts optionally holds the expected text of each slide; empty
	// entries are not checked.
	Texts []string
	// Back also walks from the last slide back to the first.
	Back bool
	// Container scopes the viewer's controls when the page shows more
	// than one deck. Empty means the page's only viewer.
	Container string
	// Validator defaults to expect.Default().
	Validator *expect.Validator
}

func (o NavOptions) scoped(selector string) string {
	if o.Container == "" {
		return selector
	}
	return selectors.Within(o.Container, selector)
}

func (o NavOptions) textLayer() string {
	if o.Container == "" {
		return selectors.Within(selectors.SlidesContainer, selectors.SlideTextLayer)
	}
	return selectors.Within(o.Container, selectors.SlideTextLayer)
}

// Position is the viewer's slide counter text for slide i of n.
func Position(i, n int) string {
	return fmt.Sprintf("Slide %d of %d", i, n)
}

// NavThroughSlides walks the deck with the next button, checking at each
// slide that prev is disabled exactly on the first slide, next exactly on
// the last, and the counter and text match.
func NavThroughSlides(ctx context.Context, s dom.Surface, opts NavOptions) error {
	if opts.Pages < 1 {
		return fmt.Errorf("slides: deck must have at least one page, got %d", opts.Pages)
	}
	v := opts.Validator
	if v == nil {
		v = expect.Default()
	}

	for i := 1; i <= opts.Pages; i++ {
		if err := checkSlide(ctx, v, s, i, opts); err != nil {
			return err
		}
		if i < opts.Pages {
			if err := v.Click(ctx, s, opts.scoped(selectors.NextSlideBtn)); err != nil {
				return fmt.Errorf("slide %d: next: %w", i, err)
			}
		}
	}
	if !opts.Back {
		return nil
	}
	for i := opts.Pages - 1; i >= 1; i-- {
		if err := v.Click(ctx, s, opts.scoped(selectors.PrevSlideBtn)); err != nil {
			return fmt.Errorf("slide %d: prev: %w", i+1, err)
		}
		if err := checkSlide(ctx, v, s, i, opts); err != nil {
			return err
		}
	}
	return nil
}

func checkSlide(ctx context.Context, v *expect.Validator, s dom.Surface, i int, opts NavOptions) error {
	if err := v.Text(ctx, s, opts.scoped(selectors.CurrentSlide), Position(i, opts.Pages)); err != nil {
		return fmt.Errorf("slide %d: %w", i, err)
	}
	if err := v.Disabled(ctx, s, opts.scoped(selectors.PrevSlideBtn), i == 1); err != nil {
		return fmt.Errorf("slide %d: prev button: %w", i, err)
	}
	if err := v.Disabled(ctx, s, opts.scoped(selectors.NextSlideBtn), i == opts.Pages); err != nil {
		return fmt.Errorf("slide %d: next button: %w", i, err)
	}
	if i <= len(opts.Texts) && opts.Texts[i-1] != "" {
		if err := v.Text(ctx, s, opts.textLayer(), opts.Texts[i-1]); err != nil {
			return fmt.Errorf("slide %d: text: %w", i, err)
		}
	}
	return nil
}
