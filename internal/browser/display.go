package browser

import (
	"fmt"
	"sort"

	"github.com/playwright-community/playwright-go"
)

// Viewport is a named screen size.
type Viewport struct {
	Width  int
	Height int
}

var viewports = map[string]Viewport{
	"iphone-6":    {375, 667},
	"iphone-x":    {375, 812},
	"samsung-s10": {360, 760},
	"ipad-2":      {768, 1024},
	"ipad-mini":   {768, 1024},
	"macbook-11":  {1366, 768},
	"macbook-13":  {1280, 800},
	"macbook-15":  {1440, 900},
	"macbook-16":  {1536, 960},
}

// LookupViewport resolves a preset name. "default" resolves to def.
func LookupViewport(name string, def Viewport) (Viewport, error) {
	if name == "" || name == "default" {
		return def, nil
	}
	v, ok := viewports[name]
	if !ok {
		return Viewport{}, fmt.Errorf("unknown viewport preset %q (known: %v)", name, ViewportPresets())
	}
	return v, nil
}

// ViewportPresets lists the preset names in sorted order.
func ViewportPresets() []string {
	names := make([]string, 0, len(viewports))
	for n := range viewports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetViewport resizes the page to a named preset.
func (h *Helper) SetViewport(preset string) error {
	v, err := LookupViewport(preset, Viewport{h.Config.Browser.ViewportWidth, h.Config.Browser.ViewportHeight})
	if err != nil {
		return err
	}
	if err := h.Page.SetViewportSize(v.Width, v.Height); err != nil {
		return fmt.Errorf("set viewport %s: %w", preset, err)
	}
	return nil
}

// SetDarkMode switches the emulated color scheme.
func (h *Helper) SetDarkMode(dark bool) error {
	scheme := playwright.ColorSchemeLight
	if dark {
		scheme = playwright.ColorSchemeDark
	}
	if err := h.Page.EmulateMedia(playwright.PageEmulateMediaOptions{ColorScheme: scheme}); err != nil {
		return fmt.Errorf("set dark mode %t: %w", dark, err)
	}
	return nil
}
