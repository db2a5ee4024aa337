package expect

import (
	"context"
	"fmt"
	"strconv"

	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/poll"
)

// DefaultPageSize is the row count of one table page.
const DefaultPageSize = 5

// Cell is one expected cell; Col is the 0-based column index.
type Cell struct {
	Col   int
	Value string
}

// TableExpectation describes the full, ordered table content.
type TableExpectation struct {
	Rows [][]Cell
	// PageSize defaults to DefaultPageSize.
	PageSize int
	// NoPagination requires all rows on one page.
	NoPagination bool
	// SortHeader is clicked once before validation.
	SortHeader string
	// Exact compares whole cell text instead of substrings.
	Exact bool
	// ValidateTotal checks the total-rows indicator against len(Rows).
	ValidateTotal bool
}

func (e TableExpectation) pages() [][][]Cell {
	size := e.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if e.NoPagination || len(e.Rows) <= size {
		return [][][]Cell{e.Rows}
	}
	var out [][][]Cell
	for start := 0; start < len(e.Rows); start += size {
		end := start + size
		if end > len(e.Rows) {
			end = len(e.Rows)
		}
		out = append(out, e.Rows[start:end])
	}
	return out
}

// ValidateTable walks the table page by page and checks each visible page
// against the matching slice of exp.Rows. Rows are order sensitive.
func (v *Validator) ValidateTable(ctx context.Context, s dom.Surface, selector string, exp TableExpectation) error {
	if exp.SortHeader != "" {
		if err := v.click(ctx, s, exp.SortHeader); err != nil {
			return fmt.Errorf("sort table %s: %w", selector, err)
		}
	}

	pages := exp.pages()
	offset := 0
	for i, want := range pages {
		page := i + 1
		if i > 0 {
			if err := v.nextPage(ctx, s, selector, page); err != nil {
				return err
			}
		}
		err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
			return checkPage(ctx, s, selector, page, offset, want, exp.Exact)
		})
		if err != nil {
			return fmt.Errorf("validate table: %w", err)
		}
		offset += len(want)
	}

	if !exp.NoPagination && len(pages) > 0 {
		if err := v.noMorePages(ctx, s, selector, len(pages)); err != nil {
			return err
		}
	}

	if exp.ValidateTotal {
		want := strconv.Itoa(len(exp.Rows))
		err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
			texts, err := s.Texts(ctx, v.TotalRows)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return &dom.NotFoundError{Selector: v.TotalRows}
			}
			if !matches(texts[0], want, false) {
				return &MismatchError{Selector: v.TotalRows, Reason: "total rows", Expected: want, Actual: texts[0]}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("validate table total: %w", err)
		}
	}
	return nil
}

func checkPage(ctx context.Context, s dom.Surface, selector string, page, offset int, want [][]Cell, exact bool) error {
	rows, err := s.Rows(ctx, selector)
	if err != nil {
		return err
	}
	if len(rows) != len(want) {
		return &MismatchError{
			Selector: selector,
			Page:     page,
			Reason:   "row count",
			Expected: strconv.Itoa(len(want)),
			Actual:   strconv.Itoa(len(rows)),
		}
	}
	for r, cells := range want {
		for _, c := range cells {
			if c.Col >= len(rows[r]) {
				return &MismatchError{
					Selector: selector, Page: page, Row: offset + r + 1, Col: c.Col + 1,
					Reason: "missing column", Expected: c.Value, Actual: fmt.Sprintf("%d columns", len(rows[r])),
				}
			}
			if actual := rows[r][c.Col]; !matches(actual, c.Value, exact) {
				return &MismatchError{
					Selector: selector, Page: page, Row: offset + r + 1, Col: c.Col + 1,
					Expected: c.Value, Actual: actual,
				}
			}
		}
	}
	return nil
}

func (v *Validator) nextPage(ctx context.Context, s dom.Surface, selector string, page int) error {
	err := poll.Until(ctx, v.Poll, func(ctx context.Context) error {
		disabled, err := s.IsDisabled(ctx, v.PaginatorNext)
		if err != nil {
			return err
		}
		if disabled {
			return &MismatchError{Selector: selector, Page: page, Reason: "paginator", Expected: "next page enabled", Actual: "disabled"}
		}
		return s.Click(ctx, v.PaginatorNext)
	})
	if err != nil {
		return fmt.Errorf("advance table %s to page %d: %w", selector, page, err)
	}
	return nil
}

// noMorePages fails when the paginator still offers a page past the last
// expected one.
func (v *Validator) noMorePages(ctx context.Context, s dom.Surface, selector string, pages int) error {
	n, err := s.Count(ctx, v.PaginatorNext)
	if err != nil || n == 0 {
		return err
	}
	disabled, err := s.IsDisabled(ctx, v.PaginatorNext)
	if err != nil {
		return err
	}
	if !disabled {
		return fmt.Errorf("validate table: %w", &MismatchError{
			Selector: selector, Page: pages, Reason: "page count",
			Expected: strconv.Itoa(pages) + " pages", Actual: "more pages",
		})
	}
	return nil
}
