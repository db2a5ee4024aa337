package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/skilltree/skilltree-e2e/internal/dom"
)

const (
	rowsScript = `el => Array.from(el.querySelectorAll('tbody tr'))
  .filter(r => r.offsetParent !== null)
  .map(r => Array.from(r.querySelectorAll('td')).map(td => td.innerText))`
	disabledScript = `el => el.disabled === true
  || el.getAttribute('aria-disabled') === 'true'
  || el.getAttribute('data-p-disabled') === 'true'`
)

// PageSurface adapts a Playwright page to dom.Surface. Actions use a
// short timeout; the expect package does the retrying.
type PageSurface struct {
	page          playwright.Page
	actionTimeout float64
}

var _ dom.Surface = (*PageSurface)(nil)

func NewPageSurface(page playwright.Page) *PageSurface {
	return &PageSurface{page: page, actionTimeout: 1000}
}

func (s *PageSurface) first(selector string) (playwright.Locator, error) {
	loc := s.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &dom.NotFoundError{Selector: selector}
	}
	return loc.First(), nil
}

func (s *PageSurface) Texts(_ context.Context, selector string) ([]string, error) {
	texts, err := s.page.Locator(selector).AllInnerTexts()
	if err != nil {
		return nil, err
	}
	for i, t := range texts {
		texts[i] = dom.NormalizeSpace(t)
	}
	return texts, nil
}

func (s *PageSurface) Rows(_ context.Context, selector string) ([][]string, error) {
	loc, err := s.first(selector)
	if err != nil {
		return nil, err
	}
	raw, err := loc.Evaluate(rowsScript, nil)
	if err != nil {
		return nil, err
	}
	return toRows(raw)
}

// toRows converts the evaluated [][]string JSON value.
func toRows(raw interface{}) ([][]string, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected rows value %T", raw)
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		cells, ok := r.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected row value %T", r)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			text, _ := c.(string)
			row[i] = dom.NormalizeSpace(text)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *PageSurface) Count(_ context.Context, selector string) (int, error) {
	return s.page.Locator(selector).Count()
}

func (s *PageSurface) Click(ctx context.Context, selector string) error {
	disabled, err := s.IsDisabled(ctx, selector)
	if err != nil {
		return err
	}
	if disabled {
		return &dom.DisabledError{Selector: selector}
	}
	return s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(s.actionTimeout),
	})
}

func (s *PageSurface) Fill(_ context.Context, selector, value string) error {
	loc, err := s.first(selector)
	if err != nil {
		return err
	}
	return loc.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(s.actionTimeout)})
}

func (s *PageSurface) IsDisabled(_ context.Context, selector string) (bool, error) {
	loc, err := s.first(selector)
	if err != nil {
		return false, err
	}
	v, err := loc.Evaluate(disabledScript, nil)
	if err != nil {
		return false, err
	}
	disabled, _ := v.(bool)
	return disabled, nil
}

func (s *PageSurface) IsVisible(_ context.Context, selector string) (bool, error) {
	n, err := s.page.Locator(selector).Count()
	if err != nil || n == 0 {
		return false, err
	}
	return s.page.Locator(selector).First().IsVisible()
}
