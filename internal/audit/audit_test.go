package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/config"
)

const report = `{
  "lighthouseVersion": "11.4.0",
  "categories": {
    "performance":    {"id": "performance", "score": 0.72},
    "accessibility":  {"id": "accessibility", "score": 0.98},
    "best-practices": {"id": "best-practices", "score": 1},
    "seo":            {"id": "seo", "score": null}
  }
}`

func TestParseScores(t *testing.T) {
	scores, err := ParseScores([]byte(report))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"performance": 0.72, "accessibility": 0.98, "best-practices": 1}, scores)

	_, err = ParseScores([]byte(`{"categories": {}}`))
	assert.Error(t, err)
	_, err = ParseScores([]byte(`<html>`))
	assert.Error(t, err)
}

func TestCheckScores(t *testing.T) {
	scores := map[string]float64{"performance": 0.72, "accessibility": 0.98}
	require.NoError(t, CheckScores("http://x", scores, map[string]float64{"accessibility": 0.9}))

	err := CheckScores("http://x", scores, map[string]float64{"performance": 0.9, "accessibility": 0.9, "seo": 0.5})
	var scoreErr *ScoreError
	require.ErrorAs(t, err, &scoreErr)
	require.Len(t, scoreErr.Failures, 2)
	assert.Equal(t, "performance", scoreErr.Failures[0].Category)
	assert.True(t, scoreErr.Failures[1].Missing)
	assert.Equal(t, "lighthouse http://x below threshold: performance: 0.72 < 0.90, seo: no score", err.Error())
}

func TestLighthouseRunner(t *testing.T) {
	var gotName string
	var gotArgs []string
	l := NewLighthouseRunner("", zerolog.Nop())
	l.exec = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(report), nil
	}

	scores, err := l.Run(context.Background(), "http://localhost:8080/", map[string]float64{"performance": 0.5, "accessibility": 0.9})
	require.NoError(t, err)
	assert.Equal(t, 0.72, scores["performance"])
	assert.Equal(t, "lighthouse", gotName)
	assert.Equal(t, "http://localhost:8080/", gotArgs[0])
	assert.Contains(t, gotArgs, "--only-categories=accessibility,performance")
	assert.Contains(t, gotArgs, "--output=json")

	_, err = l.Run(context.Background(), "http://localhost:8080/", map[string]float64{"performance": 0.9})
	var scoreErr *ScoreError
	assert.ErrorAs(t, err, &scoreErr)

	l.exec = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	_, err = l.Run(context.Background(), "http://x", nil)
	assert.ErrorContains(t, err, "run lighthouse")
}

func TestParseViolations(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"id": "color-contrast", "impact": "serious", "description": "contrast",
			"help": "Elements must have sufficient color contrast",
			"targets": []interface{}{"#a", ".b"},
		},
		map[string]interface{}{"id": "region", "impact": "moderate", "targets": []interface{}{}},
	}
	v, err := parseViolations(raw)
	require.NoError(t, err)
	require.Len(t, v, 2)
	assert.Equal(t, []string{"#a", ".b"}, v[0].Targets)

	failing := FilterViolations(v, []string{"critical", "SERIOUS"})
	require.Len(t, failing, 1)
	assert.Equal(t, "color-contrast", failing[0].ID)

	err = &ViolationsError{Violations: failing}
	assert.Equal(t, "1 accessibility violation(s): color-contrast (serious, 2 nodes)", err.Error())

	_, err = parseViolations("nope")
	assert.Error(t, err)
}

func TestA11yOptionsFrom(t *testing.T) {
	opts := A11yOptionsFrom(config.AuditConfig{AxeURL: "https://cdn/axe.js", FailImpacts: []string{"critical"}})
	assert.Equal(t, "https://cdn/axe.js", opts.ScriptURL)
	assert.Empty(t, opts.Script)
	assert.Equal(t, []string{"critical"}, opts.FailImpacts)
}
