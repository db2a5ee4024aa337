package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/skilltree/skilltree-e2e/internal/selectors"
)

// Visit navigates to a path relative to the base URL. It waits for the
// document to load, not for the data the route fetches afterwards; pair
// it with Intercept and Wait for that.
func (h *Helper) Visit(path string) error {
	url := strings.TrimRight(h.Config.App.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	_, err := h.Page.Goto(url)
	if err != nil && strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
		return fmt.Errorf("redirect loop navigating to %s (check app.base_url and login redirect configuration): %w", url, err)
	}
	if err != nil {
		return fmt.Errorf("visit %s: %w", url, err)
	}
	h.log.Debug().Str("url", url).Msg("visited")
	return nil
}

// CDVisit opens a client-display route of projectID; path is relative to
// the project's progress-and-rankings root.
func (h *Helper) CDVisit(projectID, path string) error {
	root := strings.TrimPrefix(h.Config.App.ClientDisplayURL(projectID), strings.TrimRight(h.Config.App.BaseURL, "/"))
	if path != "" && path != "/" {
		root += "/" + strings.TrimLeft(path, "/")
	}
	return h.Visit(root)
}

// WaitForNetworkIdle waits for in-flight requests to finish.
func (h *Helper) WaitForNetworkIdle() error {
	return h.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

// CDClickSubj opens subject tile i (0-based) of the client display.
func (h *Helper) CDClickSubj(i int) error {
	return h.clickNth(selectors.CDSubjectTile, i)
}

// CDClickSkill opens skill i (0-based) of the current subject.
func (h *Helper) CDClickSkill(i int) error {
	return h.clickNth(selectors.Within(selectors.CDSkillProgress(i), selectors.CDSkillTitle), 0)
}

func (h *Helper) CDClickBadges() error { return h.clickNth(selectors.CDBadgesBtn, 0) }

func (h *Helper) CDClickRank() error { return h.clickNth(selectors.CDRankBtn, 0) }

func (h *Helper) CDBack() error { return h.clickNth(selectors.CDBack, 0) }

func (h *Helper) clickNth(selector string, i int) error {
	if err := h.Page.Locator(selector).Nth(i).Click(); err != nil {
		return fmt.Errorf("click %s[%d]: %w", selector, i, err)
	}
	return nil
}
