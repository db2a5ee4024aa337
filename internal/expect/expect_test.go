package expect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/config"
	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/poll"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

const table = `[data-cy="skillsTable"]`

func fastValidator() *Validator {
	v := Default()
	v.Poll = poll.Options{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}
	return v
}

// pagedTable renders names as a table of pageSize rows per page with a
// working next button and a total-rows indicator.
func pagedTable(t *testing.T, names []string, pageSize int) *dom.Static {
	t.Helper()
	render := func(page int) string {
		var b strings.Builder
		b.WriteString(`<table data-cy="skillsTable"><thead><tr><th>Name</th><th>Id</th></tr></thead><tbody>`)
		start := page * pageSize
		for i := start; i < start+pageSize && i < len(names); i++ {
			fmt.Fprintf(&b, `<tr><td>%s</td><td>skill%d</td></tr>`, names[i], i+1)
		}
		b.WriteString(`</tbody></table>`)
		last := (page+1)*pageSize >= len(names)
		disabled := ""
		if last {
			disabled = " disabled"
		}
		fmt.Fprintf(&b, `<button data-pc-name="pcnextpagebutton"%s>next</button>`, disabled)
		fmt.Fprintf(&b, `<span data-cy="skillsBTableTotalRows">%d</span>`, len(names))
		return b.String()
	}

	page := 0
	s, err := dom.NewStatic(render(page))
	require.NoError(t, err)
	s.OnClick(selectors.PaginatorNext, func(s *dom.Static) error {
		page++
		return s.SetHTML(render(page))
	})
	return s
}

func namesN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Very Great Skill %d", i+1)
	}
	return out
}

func rowsFor(names []string) [][]Cell {
	out := make([][]Cell, len(names))
	for i, n := range names {
		out[i] = []Cell{{Col: 0, Value: n}, {Col: 1, Value: fmt.Sprintf("skill%d", i+1)}}
	}
	return out
}

func TestValidateTablePaginates(t *testing.T) {
	names := namesN(12)
	s := pagedTable(t, names, 5)

	err := fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{
		Rows:          rowsFor(names),
		ValidateTotal: true,
	})
	require.NoError(t, err)
	assert.Len(t, s.Clicks(), 2, "12 rows at 5 per page is pages of 5, 5 and 2")
}

func TestValidateTableSinglePage(t *testing.T) {
	names := namesN(3)
	s := pagedTable(t, names, 5)
	require.NoError(t, fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{Rows: rowsFor(names)}))
	assert.Empty(t, s.Clicks())
}

func TestValidateTableOrderSensitive(t *testing.T) {
	s := pagedTable(t, []string{"B", "A"}, 5)
	err := fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{
		Rows: [][]Cell{{{Col: 0, Value: "A"}}, {{Col: 0, Value: "B"}}},
	})
	require.Error(t, err)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Page)
	assert.Equal(t, 1, mismatch.Row)
	assert.Equal(t, 1, mismatch.Col)
	assert.Equal(t, "A", mismatch.Expected)
	assert.Equal(t, "B", mismatch.Actual)

	var timeout *poll.TimeoutError
	assert.True(t, errors.As(err, &timeout))
}

func TestValidateTableRowCount(t *testing.T) {
	names := namesN(7)
	s := pagedTable(t, names, 5)
	err := fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{
		Rows:         rowsFor(names[:6]),
		PageSize:     5,
		NoPagination: false,
	})
	require.Error(t, err)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Page)
	assert.Equal(t, "row count", mismatch.Reason)
}

func TestValidateTableExtraPages(t *testing.T) {
	names := namesN(10)
	s := pagedTable(t, names, 5)
	err := fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{Rows: rowsFor(names[:5])})
	require.Error(t, err)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "page count", mismatch.Reason)
}

func TestValidateTableNoPagination(t *testing.T) {
	names := namesN(8)
	s := pagedTable(t, names, 8)
	require.NoError(t, fastValidator().ValidateTable(context.Background(), s, table, TableExpectation{
		Rows:         rowsFor(names),
		NoPagination: true,
	}))

	short := pagedTable(t, names, 5)
	err := fastValidator().ValidateTable(context.Background(), short, table, TableExpectation{
		Rows:         rowsFor(names),
		NoPagination: true,
	})
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "row count", mismatch.Reason)
}

func TestValidateTableExactAndSort(t *testing.T) {
	s, err := dom.NewStatic(`<button data-cy="sortName">Name</button>
<table data-cy="skillsTable"><tbody><tr><td>Skill 10</td></tr></tbody></table>`)
	require.NoError(t, err)
	sorted := false
	s.OnClick(`[data-cy="sortName"]`, func(*dom.Static) error {
		sorted = true
		return nil
	})

	v := fastValidator()
	require.NoError(t, v.ValidateTable(context.Background(), s, table, TableExpectation{
		Rows:       [][]Cell{{{Col: 0, Value: "Skill 1"}}},
		SortHeader: `[data-cy="sortName"]`,
	}))
	assert.True(t, sorted)

	err = v.ValidateTable(context.Background(), s, table, TableExpectation{
		Rows:  [][]Cell{{{Col: 0, Value: "Skill 1"}}},
		Exact: true,
	})
	require.Error(t, err)

	err = v.ValidateTable(context.Background(), s, table, TableExpectation{
		Rows: [][]Cell{{{Col: 3, Value: "x"}}},
	})
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "missing column", mismatch.Reason)
}

func TestValidateElementsOrder(t *testing.T) {
	s, err := dom.NewStatic(`<div data-cy="q">Question One</div><div data-cy="q">Question Two</div>`)
	require.NoError(t, err)
	v := fastValidator()

	require.NoError(t, v.ValidateElementsOrder(context.Background(), s, `[data-cy="q"]`, []string{"One", "Two"}))

	err = v.ValidateElementsOrder(context.Background(), s, `[data-cy="q"]`, []string{"Two", "One"})
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Row)
	assert.Equal(t, "Question One", mismatch.Actual)
	assert.Contains(t, err.Error(), "row 1")

	err = v.ValidateElementsOrder(context.Background(), s, `[data-cy="q"]`, []string{"One"})
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "element count", mismatch.Reason)
}

func TestStateChecks(t *testing.T) {
	ctx := context.Background()
	s, err := dom.NewStatic(`<div data-cy="answersError">Must have at least 2 answers</div>
<input data-cy="questionText">
<button data-cy="saveDialogBtn" disabled>Save</button>
<span data-cy="exportedBadge-skill1">Exported</span>`)
	require.NoError(t, err)
	v := fastValidator()

	require.NoError(t, v.Text(ctx, s, selectors.AnswerError, "Must have at least 2 answers"))
	require.NoError(t, v.Disabled(ctx, s, selectors.SaveDialogBtn, true))
	require.NoError(t, v.Count(ctx, s, selectors.AnyExportedBadge, 1))
	require.NoError(t, v.Exists(ctx, s, selectors.ExportedBadge("skill1")))
	require.NoError(t, v.Visible(ctx, s, selectors.ExportedBadge("skill2"), false))
	require.Error(t, v.Exists(ctx, s, selectors.ExportedBadge("skill2")))
	require.NoError(t, v.Fill(ctx, s, selectors.QuestionText, "What?"))

	err = v.ClickSaveDialogBtn(ctx, s)
	var disabled *dom.DisabledError
	require.ErrorAs(t, err, &disabled)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Poll:      config.PollConfig{Interval: 5 * time.Millisecond, Timeout: time.Second},
		Selectors: config.SelectorsConfig{PaginatorNext: ".next"},
	}
	v := New(cfg)
	assert.Equal(t, ".next", v.PaginatorNext)
	assert.Equal(t, selectors.TotalRows, v.TotalRows)
	assert.Equal(t, time.Second, v.Poll.Timeout)
}

func TestMismatchErrorMessage(t *testing.T) {
	err := &MismatchError{Selector: table, Page: 2, Row: 7, Col: 1, Expected: "A", Actual: "B"}
	assert.Equal(t, `[data-cy="skillsTable"] (page 2, row 7, col 1): expected "A", got "B"`, err.Error())
}
