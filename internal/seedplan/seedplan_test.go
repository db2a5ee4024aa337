package seedplan

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/client"
	"github.com/skilltree/skilltree-e2e/internal/fixtures"
	"github.com/skilltree/skilltree-e2e/internal/stubapi"
)

const catalogPlan = `
name: catalog-export
description: two projects, one exported skill imported into the second
steps:
  - op: createProject
    args: {project: 1}
  - op: createSubject
    args: {project: 1}
  - op: createSkill
    args: {project: 1, skill: 1}
    overrides:
      pointIncrement: 50
  - op: createSkill
    args: {project: 1, skill: 2}
  - op: exportSkillToCatalog
    args: {project: 1, skill: 1}
  - op: createProject
    args: {project: 2}
  - op: createSubject
    args: {project: 2}
  - op: importSkillFromCatalog
    args: {project: 2, fromProject: 1, fromSkill: 1}
  - op: finalizeCatalogImport
    args: {project: 2}
  - op: reportSkill
    args: {project: 1, skill: 2, user: user0, when: -48h}
`

func newBuilder(t *testing.T) *fixtures.Builder {
	t.Helper()
	srv := httptest.NewServer(stubapi.New(stubapi.DefaultOptions()).Handler())
	t.Cleanup(srv.Close)
	c := client.New(&client.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, c.Login(context.Background(), "skills@skills.org", "password"))
	return fixtures.New(c)
}

func TestParse(t *testing.T) {
	plan, err := Parse([]byte(catalogPlan))
	require.NoError(t, err)
	assert.Equal(t, "catalog-export", plan.Name)
	require.Len(t, plan.Steps, 10)

	skill := plan.Steps[2]
	assert.Equal(t, "createSkill", skill.Op)
	assert.Equal(t, 1, skill.Args.Subject, "subject defaults to 1")
	assert.Equal(t, 50, skill.Overrides["pointIncrement"])
	assert.Equal(t, "-48h", plan.Steps[9].Args.When)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"no steps", "name: x\nsteps: []\n", "steps"},
		{"missing name", "steps:\n  - op: createProject\n    args: {project: 1}\n", "(root)"},
		{"unknown op", "name: x\nsteps:\n  - op: dropDatabase\n", "steps.0.op"},
		{"zero index", "name: x\nsteps:\n  - op: createProject\n    args: {project: 0}\n", "steps.0.args.project"},
		{"unknown arg", "name: x\nsteps:\n  - op: createProject\n    args: {project: 1, colour: red}\n", "steps.0.args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var invalid *InvalidPlanError
			require.ErrorAs(t, err, &invalid)
			paths := make([]string, len(invalid.Errors))
			for i, e := range invalid.Errors {
				paths[i] = e.Path
			}
			assert.Contains(t, paths, tt.path)
		})
	}

	_, err := Parse([]byte("name: [unclosed"))
	assert.ErrorContains(t, err, "parse seed plan yaml")
}

func TestParseChecksRequiredArgs(t *testing.T) {
	_, err := Parse([]byte("name: x\nsteps:\n  - op: createProject\n  - op: createSkill\n    args: {project: 1}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (createProject): missing args: project")

	_, err = Parse([]byte("name: x\nsteps:\n  - op: saveSlidesAttrs\n    args: {url: http://x/deck.pdf}\n"))
	assert.ErrorContains(t, err, "quiz or project+skill")
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseWhen("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseWhen("-24h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), got)

	got, err = parseWhen("2023-01-02T03:04:05Z", now)
	require.NoError(t, err)
	assert.Equal(t, 2023, got.Year())

	_, err = parseWhen("yesterday", now)
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(t)
	plan, err := Parse([]byte(catalogPlan))
	require.NoError(t, err)

	report, err := Execute(ctx, b, plan, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 10, report.Steps)

	sk, err := b.GetSkill(ctx, 1, "skill1")
	require.NoError(t, err)
	assert.True(t, sk.SharedToCatalog)
	assert.Equal(t, 50, sk.PointIncrement)

	imported, err := b.GetSkill(ctx, 2, "skill1")
	require.NoError(t, err)
	assert.Equal(t, "proj1", imported.CopiedFromProjectID)
}

func TestExecuteStopsAtFailingStep(t *testing.T) {
	b := newBuilder(t)
	plan, err := Parse([]byte("name: broken\nsteps:\n  - op: createProject\n    args: {project: 1}\n  - op: createSkill\n    args: {project: 1, subject: 4, skill: 1}\n  - op: createProject\n    args: {project: 2}\n"))
	require.NoError(t, err)

	_, err = Execute(context.Background(), b, plan, zerolog.Nop())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 2, stepErr.Index)
	assert.Equal(t, "createSkill", stepErr.Op)

	_, err = b.GetProject(context.Background(), 2)
	assert.Error(t, err, "steps after the failure never run")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogPlan), 0o600))
	plan, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "catalog-export", plan.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read seed plan")
}
