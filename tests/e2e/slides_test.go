//go:build e2e

package e2e

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/browser"
	"github.com/skilltree/skilltree-e2e/internal/fixtures"
	"github.com/skilltree/skilltree-e2e/internal/selectors"
	"github.com/skilltree/skilltree-e2e/internal/slides"
)

const deckFile = "test-slides-1.pdf"

var deckTexts = []string{"Sample slides", "Second Slide", "Third Slide", "Another Slide", "Fourth Slide"}

func TestSlideNavigation(t *testing.T) {
	hn := newHarness(t)
	seed(t, hn, "plans/quiz-skill.yaml")

	info, err := slides.Inspect(filepath.Join(cfg.Fixtures.Dir, deckFile))
	require.NoError(t, err)
	require.Equal(t, len(deckTexts), info.Pages)

	require.NoError(t, hn.browser.CDVisit("proj1", "/subjects/subj1/skills/skill1"))
	s := hn.browser.Surface()
	require.NoError(t, hn.expect.Visible(hn.ctx, s, selectors.SlidesContainer, true))

	require.NoError(t, slides.NavThroughSlides(hn.ctx, s, slides.NavOptions{
		Pages:     info.Pages,
		Texts:     deckTexts,
		Back:      true,
		Validator: hn.expect,
	}))
}

func TestSlidesDownloadMatchesUpload(t *testing.T) {
	hn := newHarness(t)
	seed(t, hn, "plans/quiz-skill.yaml")
	fixture := filepath.Join(cfg.Fixtures.Dir, deckFile)

	require.NoError(t, hn.browser.CDVisit("proj1", "/subjects/subj1/skills/skill1"))
	saved, err := hn.browser.DownloadAndCompare(selectors.DownloadSlides, fixture)
	var mismatch *browser.DownloadMismatchError
	if errors.As(err, &mismatch) {
		t.Fatalf("downloaded deck differs from %s at byte %d", fixture, mismatch.Offset)
	}
	require.NoError(t, err)

	n, err := slides.PageCount(saved)
	require.NoError(t, err)
	assert.Equal(t, len(deckTexts), n)

	info, err := hn.fx.GetSlidesAttrs(hn.ctx, fixtures.SkillSlides(1, 1, 1))
	require.NoError(t, err)
	data, err := hn.fx.Download(hn.ctx, "/api/download/"+info.AttachmentID)
	require.NoError(t, err)
	want, err := os.ReadFile(fixture)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, data), "API download differs from the uploaded fixture")
}
