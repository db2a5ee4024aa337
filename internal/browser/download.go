package browser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// DownloadMismatchError reports a download that differs from its fixture.
type DownloadMismatchError struct {
	Fixture        string
	Downloaded     string
	FixtureSize    int
	DownloadedSize int
	// Offset of the first differing byte.
	Offset int
}

func (e *DownloadMismatchError) Error() string {
	return fmt.Sprintf("download %s differs from fixture %s at byte %d (sizes %d vs %d)",
		e.Downloaded, e.Fixture, e.Offset, e.DownloadedSize, e.FixtureSize)
}

// CompareFiles checks that downloaded is byte-identical to fixture.
func CompareFiles(fixture, downloaded string) error {
	want, err := os.ReadFile(fixture)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	got, err := os.ReadFile(downloaded)
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	if bytes.Equal(want, got) {
		return nil
	}
	offset := 0
	for offset < len(want) && offset < len(got) && want[offset] == got[offset] {
		offset++
	}
	return &DownloadMismatchError{
		Fixture:        fixture,
		Downloaded:     downloaded,
		FixtureSize:    len(want),
		DownloadedSize: len(got),
		Offset:         offset,
	}
}

// DownloadAndCompare clicks trigger, saves the resulting download under
// the configured download dir and compares it with fixture.
func (h *Helper) DownloadAndCompare(trigger, fixture string) (string, error) {
	dl, err := h.Page.ExpectDownload(func() error {
		return h.Page.Locator(trigger).First().Click()
	})
	if err != nil {
		return "", fmt.Errorf("download via %s: %w", trigger, err)
	}

	dir := h.Config.Fixtures.DownloadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	saved := filepath.Join(dir, dl.SuggestedFilename())
	if err := dl.SaveAs(saved); err != nil {
		return "", fmt.Errorf("save download %s: %w", dl.SuggestedFilename(), err)
	}
	h.log.Info().Str("file", saved).Str("fixture", fixture).Msg("download saved")
	return saved, CompareFiles(fixture, saved)
}
