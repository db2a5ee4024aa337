package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/client/errors"
	"github.com/skilltree/skilltree-e2e/internal/metrics"
	"github.com/skilltree/skilltree-e2e/internal/stubapi"
)

func newTestClient(t *testing.T) (*Client, *metrics.Recorder) {
	t.Helper()
	srv := httptest.NewServer(stubapi.New(stubapi.DefaultOptions()).Handler())
	t.Cleanup(srv.Close)
	rec := metrics.NewRecorder()
	return New(&Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Metrics: rec}), rec
}

func TestLoginAndSession(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	err := c.Get(ctx, "/app/userInfo", nil)
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))

	require.NoError(t, c.Login(ctx, "skills@skills.org", "password"))
	assert.Equal(t, "skills@skills.org", c.CurrentUser())

	names := map[string]bool{}
	for _, ck := range c.Cookies() {
		names[ck.Name] = true
	}
	assert.True(t, names["SESSION"])
	assert.True(t, names["XSRF-TOKEN"])

	var info struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, c.Get(ctx, "/app/userInfo", &info))
	assert.Equal(t, "skills@skills.org", info.UserID)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.CurrentUser())
	assert.Empty(t, c.Cookies())
}

func TestLoginDiscardsPreviousSession(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	require.NoError(t, c.Login(ctx, "skills@skills.org", "password"))
	err := c.Login(ctx, "skills@skills.org", "wrong")
	require.Error(t, err)
	assert.Empty(t, c.CurrentUser())
	assert.True(t, errors.IsUnauthorized(c.Get(ctx, "/app/userInfo", nil)))
}

func TestAPIErrors(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestClient(t)
	require.NoError(t, c.Login(ctx, "skills@skills.org", "password"))

	err := c.Get(ctx, "/admin/projects/missing", nil)
	require.Error(t, err)
	apiErr, ok := errors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ProjectNotFound", apiErr.Code)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Equal(t, "/admin/projects/missing", apiErr.Path)
	assert.Contains(t, apiErr.Message, "missing")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, c.Post(ctx, "/app/projects/proj1", map[string]interface{}{"projectId": "proj1", "name": "This is project 1"}, nil))
	require.NoError(t, c.Post(ctx, "/admin/projects/proj1/subjects/subj1", map[string]interface{}{"name": "Subject 1"}, nil))
	require.NoError(t, c.Post(ctx, "/admin/projects/proj1/subjects/subj1/skills/skill1", map[string]interface{}{"name": "Very Great Skill 1"}, nil))
	require.NoError(t, c.Post(ctx, "/admin/projects/proj1/skills/skill1/export", nil, nil))

	err = c.Post(ctx, "/admin/projects/proj1/skills/skill1/export", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Requests(http.MethodGet, http.StatusNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Failures(http.MethodPost)))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := metrics.NewRecorder()
	c := New(&Config{BaseURL: url, Timeout: time.Second, Metrics: rec})
	err := c.Ping(context.Background())
	require.Error(t, err)

	var netErr *errors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.MethodGet, netErr.Operation)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Failures(http.MethodGet)))
}

func TestUploadAndDownload(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)
	require.NoError(t, c.Login(ctx, "skills@skills.org", "password"))
	require.NoError(t, c.Post(ctx, "/admin/quiz-definitions/quiz1", map[string]interface{}{"name": "This is quiz 1", "type": "Quiz"}, nil))

	content := []byte("%PDF-1.4 fake deck")
	path := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	var saved struct {
		URL string `json:"url"`
	}
	require.NoError(t, c.Upload(ctx, "/admin/quiz-definitions/quiz1/slides", "file", path, map[string]string{"width": "600"}, &saved))
	require.NotEmpty(t, saved.URL)

	got, err := c.GetBytes(ctx, saved.URL)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestBaseURLTrimmed(t *testing.T) {
	c := New(&Config{BaseURL: "http://localhost:8080/"})
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	require.NoError(t, c.CreateAccount(ctx, "new@skills.org", "password1", false))
	assert.Equal(t, "new@skills.org", c.CurrentUser())
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@skills.org", me.UserID)
	assert.Empty(t, me.Roles)

	err = c.CreateAccount(ctx, "new@skills.org", "password1", false)
	assert.True(t, errors.IsConflict(err))

	err = c.CreateAccount(ctx, "root2@skills.org", "password1", true)
	assert.True(t, errors.IsForbidden(err), "root@skills.org already holds the root role")
}
