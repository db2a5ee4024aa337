package snapshot

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

func masks(page playwright.Page, selectors []string) []playwright.Locator {
	out := make([]playwright.Locator, len(selectors))
	for i, sel := range selectors {
		out[i] = page.Locator(sel)
	}
	return out
}

// MatchSnapshotImage captures the page (viewport, or full page with
// opts.FullPage) and matches it against the baseline called name.
func MatchSnapshotImage(page playwright.Page, store *Store, name string, opts Options) (Result, error) {
	png, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage:   playwright.Bool(opts.FullPage),
		Mask:       masks(page, opts.BlackoutSelectors),
		Animations: playwright.ScreenshotAnimationsDisabled,
		Caret:      playwright.ScreenshotCaretHide,
	})
	if err != nil {
		return Result{}, fmt.Errorf("capture %s: %w", name, err)
	}
	return store.Match(name, png, opts)
}

// MatchSnapshotImageForElement captures only the first element matching
// selector.
func MatchSnapshotImageForElement(page playwright.Page, store *Store, selector, name string, opts Options) (Result, error) {
	png, err := page.Locator(selector).First().Screenshot(playwright.LocatorScreenshotOptions{
		Mask:       masks(page, opts.BlackoutSelectors),
		Animations: playwright.ScreenshotAnimationsDisabled,
		Caret:      playwright.ScreenshotCaretHide,
	})
	if err != nil {
		return Result{}, fmt.Errorf("capture %s of %s: %w", name, selector, err)
	}
	return store.Match(name, png, opts)
}
