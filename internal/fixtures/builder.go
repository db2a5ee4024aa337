// Package fixtures seeds SkillTree backend state from terse numeric
// references: CreateSkill(ctx, 1, 1, 2, nil) creates skill2 in subj1 of
// proj1 with the default name, points and occurrences.
//
// Every operation issues real requests through the fixture client and
// returns the first error unchanged (wrapped with context). Callers treat
// any error as fatal to the test.
package fixtures

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/client"
)

// Overrides are merged over an entity's defaults. Unknown keys are sent to
// the backend untouched.
type Overrides map[string]interface{}

// Role names understood by the backend.
const (
	RoleRoot         = "ROLE_SUPER_DUPER_USER"
	RoleProjectAdmin = "ROLE_PROJECT_ADMIN"
)

// Builder issues fixture requests on behalf of one session.
type Builder struct {
	client      *client.Client
	log         zerolog.Logger
	fixturesDir string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-operation debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithFixturesDir sets the directory relative fixture files resolve from.
func WithFixturesDir(dir string) Option {
	return func(b *Builder) { b.fixturesDir = dir }
}

// New returns a Builder over c. c must already be logged in.
func New(c *client.Client, opts ...Option) *Builder {
	b := &Builder{client: c, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Client exposes the underlying fixture client.
func (b *Builder) Client() *client.Client {
	return b.client
}

func merge(defaults map[string]interface{}, overrides Overrides) map[string]interface{} {
	out := make(map[string]interface{}, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// idFrom lets an override rename the entity in the request path too.
func idFrom(body map[string]interface{}, key, def string) string {
	if v, ok := body[key].(string); ok && v != "" {
		return v
	}
	return def
}

func (b *Builder) post(ctx context.Context, op, path string, body interface{}) error {
	b.log.Debug().Str("op", op).Str("path", path).Msg("fixture")
	if err := b.client.Post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateProject creates proj{n} named "This is project {n}".
func (b *Builder) CreateProject(ctx context.Context, n int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"projectId": ProjectID(n),
		"name":      ProjectName(n),
	}, overrides)
	return b.post(ctx, "create project", "/app/projects/"+idFrom(body, "projectId", ProjectID(n)), body)
}

// Project is the subset of project fields suites assert on.
type Project struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

// GetProject fetches proj{n}.
func (b *Builder) GetProject(ctx context.Context, n int) (*Project, error) {
	var p Project
	if err := b.client.Get(ctx, "/admin/projects/"+ProjectID(n), &p); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// CreateSubject creates subj{s} in proj{p}.
func (b *Builder) CreateSubject(ctx context.Context, p, s int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"projectId": ProjectID(p),
		"subjectId": SubjectID(s),
		"name":      SubjectName(s),
	}, overrides)
	path := fmt.Sprintf("/admin/projects/%s/subjects/%s", ProjectID(p), idFrom(body, "subjectId", SubjectID(s)))
	return b.post(ctx, "create subject", path, body)
}

func skillDefaults(p, s, k int) map[string]interface{} {
	return map[string]interface{}{
		"projectId":                          ProjectID(p),
		"subjectId":                          SubjectID(s),
		"skillId":                            SkillID(k, s),
		"name":                               SkillName(k, s),
		"type":                               "Skill",
		"pointIncrement":                     100,
		"numPerformToCompletion":             2,
		"pointIncrementInterval":             0,
		"numMaxOccurrencesIncrementInterval": -1,
		"version":                            0,
	}
}

// CreateSkill creates skill k in subj{s} of proj{p}.
func (b *Builder) CreateSkill(ctx context.Context, p, s, k int, overrides Overrides) error {
	body := merge(skillDefaults(p, s, k), overrides)
	path := fmt.Sprintf("/admin/projects/%s/subjects/%s/skills/%s", ProjectID(p), SubjectID(s), idFrom(body, "skillId", SkillID(k, s)))
	return b.post(ctx, "create skill", path, body)
}

// Skill is the subset of skill fields suites assert on.
type Skill struct {
	SkillID             string `json:"skillId"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	Enabled             bool   `json:"enabled"`
	GroupID             string `json:"groupId"`
	PointIncrement      int    `json:"pointIncrement"`
	TotalPoints         int    `json:"totalPoints"`
	SharedToCatalog     bool   `json:"sharedToCatalog"`
	ReadOnly            bool   `json:"readOnly"`
	CopiedFromProjectID string `json:"copiedFromProjectId"`
}

// GetSkill fetches a skill by id.
func (b *Builder) GetSkill(ctx context.Context, p int, skillID string) (*Skill, error) {
	var sk Skill
	if err := b.client.Get(ctx, fmt.Sprintf("/admin/projects/%s/skills/%s", ProjectID(p), skillID), &sk); err != nil {
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return &sk, nil
}

// CreateSkillsGroup creates group{g} disabled and then enables it, unless
// overrides pin enabled to false.
func (b *Builder) CreateSkillsGroup(ctx context.Context, p, s, g int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"projectId": ProjectID(p),
		"subjectId": SubjectID(s),
		"skillId":   GroupID(g),
		"name":      GroupName(g, s),
		"type":      "SkillsGroup",
	}, overrides)
	enable := true
	if v, ok := body["enabled"]; ok {
		enable = v == true || v == "true"
	}
	body["enabled"] = false

	path := fmt.Sprintf("/admin/projects/%s/subjects/%s/skills/%s", ProjectID(p), SubjectID(s), idFrom(body, "skillId", GroupID(g)))
	if err := b.post(ctx, "create skills group", path, body); err != nil {
		return err
	}
	if !enable {
		return nil
	}
	body["enabled"] = true
	return b.post(ctx, "enable skills group", path, body)
}

// AddSkillToGroup creates skill k of subj{s} inside group{g}.
func (b *Builder) AddSkillToGroup(ctx context.Context, p, s, g, k int, overrides Overrides) error {
	body := merge(skillDefaults(p, s, k), overrides)
	path := fmt.Sprintf("/admin/projects/%s/subjects/%s/groups/%s/skills/%s",
		ProjectID(p), SubjectID(s), GroupID(g), idFrom(body, "skillId", SkillID(k, s)))
	return b.post(ctx, "add skill to group", path, body)
}

// CreateBadge creates badge{b} in proj{p}. Badges start disabled.
func (b *Builder) CreateBadge(ctx context.Context, p, badge int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"projectId": ProjectID(p),
		"badgeId":   BadgeID(badge),
		"name":      BadgeName(badge),
		"iconClass": "fas fa-ghost",
	}, overrides)
	path := fmt.Sprintf("/admin/projects/%s/badges/%s", ProjectID(p), idFrom(body, "badgeId", BadgeID(badge)))
	return b.post(ctx, "create badge", path, body)
}

// AssignSkillToBadge adds skill k of subj{s} to badge{b}.
func (b *Builder) AssignSkillToBadge(ctx context.Context, p, badge, k, s int) error {
	path := fmt.Sprintf("/admin/projects/%s/badge/%s/skills/%s", ProjectID(p), BadgeID(badge), SkillID(k, s))
	return b.post(ctx, "assign skill to badge", path, nil)
}

// EnableBadge re-saves badge{b} with enabled set. The badge needs at least
// one skill.
func (b *Builder) EnableBadge(ctx context.Context, p, badge int, overrides Overrides) error {
	return b.CreateBadge(ctx, p, badge, merge(map[string]interface{}{"enabled": "true"}, overrides))
}

// ExportSkillToCatalog shares skill k of subj{s}. Exporting the same skill
// twice returns the backend's conflict; see errors.IsConflict.
func (b *Builder) ExportSkillToCatalog(ctx context.Context, p, s, k int) error {
	path := fmt.Sprintf("/admin/projects/%s/skills/%s/export", ProjectID(p), SkillID(k, s))
	return b.post(ctx, "export skill to catalog", path, nil)
}

// ImportSkillFromCatalog copies skill{srcK} of proj{srcP} into subj{dstS}
// of proj{dstP}. Imported skills stay disabled until FinalizeCatalogImport.
func (b *Builder) ImportSkillFromCatalog(ctx context.Context, dstP, dstS, srcP, srcK int) error {
	path := fmt.Sprintf("/admin/projects/%s/subjects/%s/import", ProjectID(dstP), SubjectID(dstS))
	body := []map[string]string{{"projectId": ProjectID(srcP), "skillId": SkillID(srcK, 1)}}
	return b.post(ctx, "import skill from catalog", path, body)
}

// FinalizeCatalogImport enables every pending imported skill of proj{p}.
func (b *Builder) FinalizeCatalogImport(ctx context.Context, p int) error {
	return b.post(ctx, "finalize catalog import", fmt.Sprintf("/admin/projects/%s/catalog/finalize", ProjectID(p)), nil)
}

// AddLearningPathItem makes from a prerequisite of to.
func (b *Builder) AddLearningPathItem(ctx context.Context, p int, from, to PathItem) error {
	proj := ProjectID(p)
	path := fmt.Sprintf("/admin/projects/%s/%s/prerequisite/%s/%s", proj, to.ID(), proj, from.ID())
	return b.post(ctx, "add learning path item", path, nil)
}

// ReportSkill records one occurrence of skill k (subject 1) for user.
func (b *Builder) ReportSkill(ctx context.Context, p, k int, user string, when time.Time) error {
	return b.ReportSkillID(ctx, p, SkillID(k, 1), user, when)
}

// ReportSkillID is ReportSkill for an explicit skill id.
func (b *Builder) ReportSkillID(ctx context.Context, p int, skillID, user string, when time.Time) error {
	body := map[string]interface{}{
		"userId":    user,
		"timestamp": when.UnixMilli(),
	}
	return b.post(ctx, "report skill", fmt.Sprintf("/api/projects/%s/skills/%s", ProjectID(p), skillID), body)
}

// AssignProjectAdmin grants userID admin rights on proj{p}.
func (b *Builder) AssignProjectAdmin(ctx context.Context, p int, userID string) error {
	path := fmt.Sprintf("/admin/projects/%s/users/%s/roles/%s", ProjectID(p), url.PathEscape(userID), RoleProjectAdmin)
	return b.post(ctx, "assign project admin", path, nil)
}

// AddRootRole grants userID the root role. The session must be root.
func (b *Builder) AddRootRole(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/root/users/%s/roles/%s", url.PathEscape(userID), RoleRoot)
	b.log.Debug().Str("op", "add root role").Str("path", path).Msg("fixture")
	if err := b.client.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("add root role: %w", err)
	}
	return nil
}
