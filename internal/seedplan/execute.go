package seedplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/fixtures"
)

type opSpec struct {
	requires []string
	run      func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error
}

var ops = map[string]opSpec{
	"login": {[]string{"user"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.Client().Login(ctx, a.User, a.Password)
	}},
	"createProject": {[]string{"project"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateProject(ctx, a.Project, o)
	}},
	"createSubject": {[]string{"project"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateSubject(ctx, a.Project, a.Subject, o)
	}},
	"createSkill": {[]string{"project", "skill"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateSkill(ctx, a.Project, a.Subject, a.Skill, o)
	}},
	"createSkillsGroup": {[]string{"project", "group"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateSkillsGroup(ctx, a.Project, a.Subject, a.Group, o)
	}},
	"addSkillToGroup": {[]string{"project", "group", "skill"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.AddSkillToGroup(ctx, a.Project, a.Subject, a.Group, a.Skill, o)
	}},
	"createBadge": {[]string{"project", "badge"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateBadge(ctx, a.Project, a.Badge, o)
	}},
	"assignSkillToBadge": {[]string{"project", "badge", "skill"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.AssignSkillToBadge(ctx, a.Project, a.Badge, a.Skill, a.Subject)
	}},
	"enableBadge": {[]string{"project", "badge"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.EnableBadge(ctx, a.Project, a.Badge, o)
	}},
	"exportSkillToCatalog": {[]string{"project", "skill"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.ExportSkillToCatalog(ctx, a.Project, a.Subject, a.Skill)
	}},
	"importSkillFromCatalog": {[]string{"project", "fromProject", "fromSkill"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.ImportSkillFromCatalog(ctx, a.Project, a.Subject, a.FromProject, a.FromSkill)
	}},
	"finalizeCatalogImport": {[]string{"project"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.FinalizeCatalogImport(ctx, a.Project)
	}},
	"addLearningPathItem": {[]string{"project", "from", "to"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.AddLearningPathItem(ctx, a.Project, a.From.fixture(), a.To.fixture())
	}},
	"reportSkill": {[]string{"project", "skill", "user"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		when, err := parseWhen(a.When, time.Now())
		if err != nil {
			return err
		}
		return b.ReportSkill(ctx, a.Project, a.Skill, a.User, when)
	}},
	"createQuizDef": {[]string{"quiz"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateQuizDef(ctx, a.Quiz, o)
	}},
	"createSurveyDef": {[]string{"quiz"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateSurveyDef(ctx, a.Quiz, o)
	}},
	"createQuizQuestionDef": {[]string{"quiz", "question"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateQuizQuestionDef(ctx, a.Quiz, a.Question, o)
	}},
	"createQuizMultipleChoiceQuestionDef": {[]string{"quiz", "question"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateQuizMultipleChoiceQuestionDef(ctx, a.Quiz, a.Question, o)
	}},
	"createSurveyMultipleChoiceQuestionDef": {[]string{"quiz", "question"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateSurveyMultipleChoiceQuestionDef(ctx, a.Quiz, a.Question, o)
	}},
	"createTextInputQuestionDef": {[]string{"quiz", "question"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateTextInputQuestionDef(ctx, a.Quiz, a.Question, o)
	}},
	"createRatingQuestionDef": {[]string{"quiz", "question"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateRatingQuestionDef(ctx, a.Quiz, a.Question, o)
	}},
	"createQuizSkill": {[]string{"project", "skill", "quiz"}, func(ctx context.Context, b *fixtures.Builder, a Args, o fixtures.Overrides) error {
		return b.CreateQuizSkill(ctx, a.Project, a.Subject, a.Skill, a.Quiz, o)
	}},
	"saveSlidesAttrs": {nil, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		target := fixtures.SkillSlides(a.Project, a.Subject, a.Skill)
		if a.Quiz > 0 {
			target = fixtures.QuizSlides(a.Quiz)
		}
		return b.SaveSlidesAttrs(ctx, target, fixtures.SlidesAttrs{File: a.File, URL: a.URL, Width: a.Width})
	}},
	"assignProjectAdmin": {[]string{"project", "user"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.AssignProjectAdmin(ctx, a.Project, a.User)
	}},
	"addRootRole": {[]string{"user"}, func(ctx context.Context, b *fixtures.Builder, a Args, _ fixtures.Overrides) error {
		return b.AddRootRole(ctx, a.User)
	}},
}

func (s Step) checkArgs() error {
	spec, ok := ops[s.Op]
	if !ok {
		return fmt.Errorf("unknown op")
	}
	var missing []string
	for _, name := range spec.requires {
		if !s.Args.has(name) {
			missing = append(missing, name)
		}
	}
	if s.Op == "saveSlidesAttrs" && s.Args.Quiz == 0 && (s.Args.Project == 0 || s.Args.Skill == 0) {
		missing = append(missing, "quiz or project+skill")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing args: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (a Args) has(name string) bool {
	switch name {
	case "project":
		return a.Project > 0
	case "skill":
		return a.Skill > 0
	case "group":
		return a.Group > 0
	case "badge":
		return a.Badge > 0
	case "quiz":
		return a.Quiz > 0
	case "question":
		return a.Question > 0
	case "fromProject":
		return a.FromProject > 0
	case "fromSkill":
		return a.FromSkill > 0
	case "from":
		return a.From != nil
	case "to":
		return a.To != nil
	case "user":
		return a.User != ""
	}
	return false
}

// parseWhen reads an RFC 3339 time or an offset from now such as -48h.
// Empty means now.
func parseWhen(s string, now time.Time) (time.Time, error) {
	if s == "" || s == "now" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("when %q is neither RFC 3339 nor a duration", s)
	}
	return now.Add(d), nil
}

// StepError identifies the step that stopped a plan.
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Report summarizes an executed plan.
type Report struct {
	Plan  string
	Steps int
	Took  time.Duration
}

// Execute runs the plan's steps in order and stops at the first failure.
func Execute(ctx context.Context, b *fixtures.Builder, plan *Plan, log zerolog.Logger) (*Report, error) {
	start := time.Now()
	for i, step := range plan.Steps {
		spec, ok := ops[step.Op]
		if !ok {
			return nil, &StepError{Index: i + 1, Op: step.Op, Err: fmt.Errorf("unknown op")}
		}
		if err := spec.run(ctx, b, step.Args, step.Overrides); err != nil {
			return nil, &StepError{Index: i + 1, Op: step.Op, Err: err}
		}
		log.Debug().Int("step", i+1).Str("op", step.Op).Msg("seed step done")
	}
	r := &Report{Plan: plan.Name, Steps: len(plan.Steps), Took: time.Since(start)}
	log.Info().Str("plan", plan.Name).Int("steps", r.Steps).Dur("took", r.Took).Msg("seed plan executed")
	return r, nil
}
