package slides

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/dom"
	"github.com/skilltree/skilltree-e2e/internal/expect"
	"github.com/skilltree/skilltree-e2e/internal/poll"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

func fastValidator() *expect.Validator {
	v := expect.Default()
	v.Poll = poll.Options{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}
	return v
}

// deckHTML renders slide i of texts with prev/next buttons. With
// stuckNext the next button stays enabled on the last slide.
func deckHTML(texts []string, i int, stuckNext bool) string {
	n := len(texts)
	prev, next := "", ""
	if i == 1 {
		prev = " disabled"
	}
	if i == n && !stuckNext {
		next = " disabled"
	}
	return fmt.Sprintf(`<div data-cy="slidesContainer"><div class="textLayer">%s</div></div>
<button data-cy="prevSlideBtn"%s>Prev</button>
<span data-cy="currentSlideMsg">%s</span>
<button data-cy="nextSlideBtn"%s>Next</button>`, texts[i-1], prev, Position(i, n), next)
}

// viewer is a single deck with working prev/next buttons.
func viewer(t *testing.T, texts []string, stuckNext bool) *dom.Static {
	t.Helper()
	n := len(texts)
	cur := 1
	s, err := dom.NewStatic(deckHTML(texts, cur, stuckNext))
	require.NoError(t, err)
	s.OnClick(selectors.NextSlideBtn, func(s *dom.Static) error {
		if cur < n {
			cur++
		}
		return s.SetHTML(deckHTML(texts, cur, stuckNext))
	})
	s.OnClick(selectors.PrevSlideBtn, func(s *dom.Static) error {
		cur--
		return s.SetHTML(deckHTML(texts, cur, stuckNext))
	})
	return s
}

func TestNavThroughFiveSlides(t *testing.T) {
	texts := DefaultTexts(5)
	s := viewer(t, texts, false)

	err := NavThroughSlides(context.Background(), s, NavOptions{
		Pages:     5,
		Texts:     texts,
		Back:      true,
		Validator: fastValidator(),
	})
	require.NoError(t, err)
	assert.Len(t, s.Clicks(), 8, "four forward and four back")
}

func TestNavThroughScopedViewer(t *testing.T) {
	texts := DefaultTexts(2)
	cur := 1
	render := func() string {
		return `<div id="skillSlides">` + deckHTML([]string{"Done"}, 1, false) + `</div>` +
			`<div id="quizSlides">` + deckHTML(texts, cur, false) + `</div>`
	}
	s, err := dom.NewStatic(render())
	require.NoError(t, err)
	s.OnClick(selectors.Within("#quizSlides", selectors.NextSlideBtn), func(s *dom.Static) error {
		cur++
		return s.SetHTML(render())
	})
	s.OnClick(selectors.Within("#quizSlides", selectors.PrevSlideBtn), func(s *dom.Static) error {
		cur--
		return s.SetHTML(render())
	})

	err = NavThroughSlides(context.Background(), s, NavOptions{Pages: 2, Validator: fastValidator()})
	require.Error(t, err, "the first viewer on the page is a one-slide deck")
	assert.Contains(t, err.Error(), "slide 1")

	err = NavThroughSlides(context.Background(), s, NavOptions{
		Pages:     2,
		Texts:     texts,
		Back:      true,
		Container: "#quizSlides",
		Validator: fastValidator(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		selectors.Within("#quizSlides", selectors.NextSlideBtn),
		selectors.Within("#quizSlides", selectors.PrevSlideBtn),
	}, s.Clicks())
}

func TestNavDetectsEnabledNextOnLastSlide(t *testing.T) {
	s := viewer(t, DefaultTexts(3), true)
	err := NavThroughSlides(context.Background(), s, NavOptions{Pages: 3, Validator: fastValidator()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 3: next button")

	var mismatch *expect.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "true", mismatch.Expected)
}

func TestNavDetectsWrongText(t *testing.T) {
	s := viewer(t, []string{"Slide Number 1", "Something else"}, false)
	err := NavThroughSlides(context.Background(), s, NavOptions{
		Pages:     2,
		Texts:     DefaultTexts(2),
		Validator: fastValidator(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 2: text")
}

func TestNavDetectsWrongPageCount(t *testing.T) {
	s := viewer(t, DefaultTexts(4), false)
	err := NavThroughSlides(context.Background(), s, NavOptions{Pages: 5, Validator: fastValidator()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide 1")

	assert.Error(t, NavThroughSlides(context.Background(), s, NavOptions{}))
}

func TestGenerateAndInspectDeck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks", "test-slides-1.pdf")
	require.NoError(t, GenerateDeck(path, DefaultTexts(5)))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, ValidatePDF(path))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, 5, info.Pages)
	assert.Positive(t, info.Size)

	assert.Error(t, GenerateDeck(path, nil))
}

func TestValidateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	assert.Error(t, ValidatePDF(path))
	_, err := Inspect(path)
	assert.Error(t, err)
	_, err = Inspect(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
