// Package browser drives a Playwright page against a running SkillTree
// instance: lifecycle, sessions, navigation, intercepts, pointer drags,
// downloads and the console watch. Page returns a dom.Surface so the
// expect package can assert against the live page.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/config"
)

// Helper provides browser setup and teardown for one test.
type Helper struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	Context    playwright.BrowserContext
	Page       playwright.Page
	Config     *config.Config

	log        zerolog.Logger
	t          testing.TB
	console    *ConsoleWatch
	intercepts *Intercepts
}

// NewHelper creates a helper; call Setup before use and TearDown after.
func NewHelper(t testing.TB, cfg *config.Config, log zerolog.Logger) *Helper {
	return &Helper{
		Config:     cfg,
		log:        log.With().Str("test", t.Name()).Logger(),
		t:          t,
		console:    NewConsoleWatch(cfg.Env.IgnoreConsoleWarnings),
		intercepts: NewIntercepts(),
	}
}

// Setup installs (unless preinstalled) and starts Playwright, launches
// Chromium and opens a page.
func (h *Helper) Setup() error {
	bc := h.Config.Browser
	if !bc.Preinstalled && os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(); err != nil {
			return fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		_ = playwright.Install()
		pw, err = playwright.Run()
		if err != nil {
			return fmt.Errorf("could not start playwright after retry (ensure driver version matches image): %w", err)
		}
	}
	h.Playwright = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(bc.Headless),
		SlowMo:   playwright.Float(float64(bc.SlowMo.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("could not launch browser: %w", err)
	}
	h.Browser = browser

	opts := playwright.BrowserNewContextOptions{
		Viewport:        &playwright.Size{Width: bc.ViewportWidth, Height: bc.ViewportHeight},
		AcceptDownloads: playwright.Bool(true),
	}
	if bc.Videos {
		opts.RecordVideo = &playwright.RecordVideo{Dir: filepath.Join(bc.ResultsDir, "videos")}
	}
	bctx, err := browser.NewContext(opts)
	if err != nil {
		return fmt.Errorf("could not create context: %w", err)
	}
	h.Context = bctx

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}
	h.Page = page
	page.SetDefaultTimeout(float64(bc.Timeout.Milliseconds()))

	page.OnConsole(func(msg playwright.ConsoleMessage) {
		h.console.Record(msg.Type(), msg.Text())
	})
	page.OnResponse(func(resp playwright.Response) {
		h.intercepts.Observe(resp.Request().Method(), resp.URL(), resp.Status())
	})

	h.log.Debug().Bool("headless", bc.Headless).Int("width", bc.ViewportWidth).Int("height", bc.ViewportHeight).Msg("browser ready")
	return nil
}

// TearDown fails the test on unexpected console output, saves a
// screenshot if the test failed and closes every browser resource.
func (h *Helper) TearDown() {
	if err := h.console.Err(); err != nil {
		h.t.Errorf("%v", err)
	}

	if h.t.Failed() && h.Config.Browser.Screenshots && h.Page != nil {
		path := h.screenshotPath(time.Now())
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if _, err := h.Page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
				h.log.Warn().Err(err).Msg("failure screenshot not saved")
			} else {
				h.log.Info().Str("path", path).Msg("failure screenshot saved")
			}
		}
	}

	if h.Page != nil {
		_ = h.Page.Close()
	}
	if h.Context != nil {
		_ = h.Context.Close()
	}
	if h.Browser != nil {
		_ = h.Browser.Close()
	}
	if h.Playwright != nil {
		_ = h.Playwright.Stop()
	}
}

func (h *Helper) screenshotPath(at time.Time) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(h.t.Name())
	return filepath.Join(h.Config.Browser.ResultsDir, "screenshots", fmt.Sprintf("%s_%d.png", name, at.Unix()))
}

// Console exposes the console watch, e.g. to allow known noise.
func (h *Helper) Console() *ConsoleWatch {
	return h.console
}

// Surface returns the assertion view of the current page.
func (h *Helper) Surface() *PageSurface {
	return NewPageSurface(h.Page)
}

// withTimeout bounds ctx by the browser timeout unless it already has a
// deadline.
func (h *Helper) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.Config.Browser.Timeout)
}
