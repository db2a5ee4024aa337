//go:build e2e

package e2e

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/browser"
	"github.com/skilltree/skilltree-e2e/internal/client"
	"github.com/skilltree/skilltree-e2e/internal/expect"
	"github.com/skilltree/skilltree-e2e/internal/fixtures"
	"github.com/skilltree/skilltree-e2e/internal/metrics"
)

// harness is the per-test session: one browser page and one fixture
// client sharing the same login.
type harness struct {
	t       *testing.T
	ctx     context.Context
	browser *browser.Helper
	client  *client.Client
	auth    *browser.Auth
	fx      *fixtures.Builder
	expect  *expect.Validator
	metrics *metrics.Recorder
}

// newHarness resets the database when configured, starts a browser and
// logs the admin user in.
func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	if db != nil {
		_, err := db.Reset(ctx)
		require.NoError(t, err, "reset database")
	}

	h := browser.NewHelper(t, cfg, log)
	require.NoError(t, h.Setup(), "Failed to setup browser")
	t.Cleanup(h.TearDown)

	rec := metrics.NewRecorder()
	c := client.New(&client.Config{
		BaseURL: cfg.App.BaseURL,
		Timeout: cfg.App.RequestTimeout,
		Debug:   cfg.App.Debug,
		Logger:  &log,
		Metrics: rec,
	})
	auth := browser.NewAuth(h, c)
	_, err := auth.LoginAsAdminUser(ctx)
	require.NoError(t, err, "admin login")

	return &harness{
		t:       t,
		ctx:     ctx,
		browser: h,
		client:  c,
		auth:    auth,
		fx:      fixtures.New(c, fixtures.WithLogger(log), fixtures.WithFixturesDir(cfg.Fixtures.Dir)),
		expect:  expect.New(cfg),
		metrics: rec,
	}
}

func (hn *harness) visit(path string) {
	hn.t.Helper()
	require.NoError(hn.t, hn.browser.Visit(path))
}

// uniqueUser returns a throwaway account name.
func uniqueUser() string {
	return "e2e-" + uuid.NewString()[:8] + "@skills.org"
}
