package dom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// ClickHandler reacts to a click on a Static surface, usually by swapping
// in the next document with SetHTML.
type ClickHandler func(s *Static) error

type handler struct {
	selector string
	fn       ClickHandler
}

// Static is a Surface over a parsed HTML document. Clicks run the handlers
// registered for the clicked element; nothing else is scripted.
type Static struct {
	mu       sync.Mutex
	doc      *goquery.Document
	handlers []handler
	clicks   []string
}

var _ Surface = (*Static)(nil)

// NewStatic parses html into a surface.
func NewStatic(html string) (*Static, error) {
	s := &Static{}
	if err := s.SetHTML(html); err != nil {
		return nil, err
	}
	return s, nil
}

// SetHTML replaces the current document.
func (s *Static) SetHTML(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// OnClick registers fn for clicks on elements matching selector.
func (s *Static) OnClick(selector string, fn ClickHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler{selector: selector, fn: fn})
}

// Clicks returns the selectors clicked so far.
func (s *Static) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.clicks))
	copy(out, s.clicks)
	return out
}

// HTML renders the current document.
func (s *Static) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return goquery.OuterHtml(s.doc.Selection)
}

func (s *Static) find(selector string) *goquery.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Find(selector)
}

func (s *Static) Texts(_ context.Context, selector string) ([]string, error) {
	sel := s.find(selector)
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, el *goquery.Selection) {
		out = append(out, NormalizeSpace(el.Text()))
	})
	return out, nil
}

func (s *Static) Rows(_ context.Context, selector string) ([][]string, error) {
	table := s.find(selector)
	if table.Length() == 0 {
		return nil, &NotFoundError{Selector: selector}
	}
	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.Find("td").Length() > 0
		})
	}
	out := [][]string{}
	rows.Each(func(_ int, tr *goquery.Selection) {
		if !visible(tr) {
			return
		}
		cells := []string{}
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, NormalizeSpace(td.Text()))
		})
		out = append(out, cells)
	})
	return out, nil
}

func (s *Static) Count(_ context.Context, selector string) (int, error) {
	return s.find(selector).Length(), nil
}

func (s *Static) Click(_ context.Context, selector string) error {
	el := s.find(selector).First()
	if el.Length() == 0 {
		return &NotFoundError{Selector: selector}
	}
	if disabled(el) {
		return &DisabledError{Selector: selector}
	}

	s.mu.Lock()
	s.clicks = append(s.clicks, selector)
	var matched []ClickHandler
	for _, h := range s.handlers {
		if h.selector == selector || el.Is(h.selector) {
			matched = append(matched, h.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range matched {
		if err := fn(s); err != nil {
			return fmt.Errorf("click %s: %w", selector, err)
		}
	}
	return nil
}

func (s *Static) Fill(_ context.Context, selector, value string) error {
	el := s.find(selector).First()
	if el.Length() == 0 {
		return &NotFoundError{Selector: selector}
	}
	if disabled(el) {
		return &DisabledError{Selector: selector}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if goquery.NodeName(el) == "textarea" {
		el.SetText(value)
		return nil
	}
	el.SetAttr("value", value)
	return nil
}

// Value returns the value attribute of the first match.
func (s *Static) Value(selector string) (string, bool) {
	return s.find(selector).First().Attr("value")
}

func (s *Static) IsDisabled(_ context.Context, selector string) (bool, error) {
	el := s.find(selector).First()
	if el.Length() == 0 {
		return false, &NotFoundError{Selector: selector}
	}
	return disabled(el), nil
}

func (s *Static) IsVisible(_ context.Context, selector string) (bool, error) {
	el := s.find(selector).First()
	if el.Length() == 0 {
		return false, nil
	}
	return visible(el), nil
}

func disabled(el *goquery.Selection) bool {
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	if v, _ := el.Attr("aria-disabled"); v == "true" {
		return true
	}
	if v, _ := el.Attr("data-p-disabled"); v == "true" {
		return true
	}
	return false
}

// visible treats hidden attributes and inline display:none on the element
// or any ancestor as invisible. Stylesheets are not evaluated.
func visible(el *goquery.Selection) bool {
	for cur := el; cur.Length() > 0; cur = cur.Parent() {
		if _, ok := cur.Attr("hidden"); ok {
			return false
		}
		style, _ := cur.Attr("style")
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			return false
		}
	}
	return true
}
