package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderObserve(t *testing.T) {
	r := NewRecorder()

	r.Observe("POST", 200, 10*time.Millisecond)
	r.Observe("POST", 200, 20*time.Millisecond)
	r.Observe("POST", 400, 5*time.Millisecond)
	r.Observe("GET", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Requests("POST", 200)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Requests("POST", 400)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Failures("POST")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Failures("GET")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Observe("GET", 200, time.Second) })
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe("PUT", 201, time.Millisecond)

	path := filepath.Join(t.TempDir(), "fixtures.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `skilltree_fixture_requests_total{method="PUT",status="201"} 1`)
}
