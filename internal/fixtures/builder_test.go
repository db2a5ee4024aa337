package fixtures

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltree/skilltree-e2e/internal/client"
	apierrors "github.com/skilltree/skilltree-e2e/internal/client/errors"
	"github.com/skilltree/skilltree-e2e/internal/stubapi"
)

func newTestBuilder(t *testing.T, user string, opts ...Option) (*Builder, *stubapi.Server) {
	t.Helper()
	stub := stubapi.New(stubapi.DefaultOptions())
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)

	c := client.New(&client.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, c.Login(context.Background(), user, "password"))
	return New(c, opts...), stub
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "proj3", ProjectID(3))
	assert.Equal(t, "skill2", SkillID(2, 1))
	assert.Equal(t, "skill2Subj3", SkillID(2, 3))
	assert.Equal(t, "Very Great Skill 2 Subj3", SkillName(2, 3))
	assert.Equal(t, "Awesome Group 1 Subj2", GroupName(1, 2))
	assert.Equal(t, "subj2", SubjectID(2))
	assert.Equal(t, "Subject 2", SubjectName(2))
	assert.Equal(t, "Very Great Skill 1", SkillName(1, 1))
	assert.Equal(t, "group1", GroupID(1))
	assert.Equal(t, "Badge 4", BadgeName(4))
	assert.Equal(t, "quiz2", QuizID(2))
	assert.Equal(t, "This is quiz 2", QuizName(2))
	assert.Equal(t, "This is survey 2", SurveyName(2))
	assert.Equal(t, "This is a question # 3", QuestionText(3))
	assert.Equal(t, "badge4", BadgeItem(4).ID())
	assert.Equal(t, "skill5", SkillItem(5).ID())
	assert.Equal(t, "skill5Subj2", SubjectSkillItem(5, 2).ID())
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, "skills@skills.org")

	for _, n := range []int{1, 2, 7} {
		require.NoError(t, b.CreateProject(ctx, n, nil))
		p, err := b.GetProject(ctx, n)
		require.NoError(t, err)
		assert.Contains(t, p.Name, fmt.Sprintf("project %d", n))
	}

	require.NoError(t, b.CreateProject(ctx, 9, Overrides{"name": "Something Else"}))
	p, err := b.GetProject(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Something Else", p.Name)
}

func TestSkillDefaults(t *testing.T) {
	ctx := context.Background()
	b, stub := newTestBuilder(t, "skills@skills.org")

	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 2, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 2, 1, Overrides{"pointIncrement": 10}))

	sk, found := stub.Skill("proj1", "skill1")
	require.True(t, found)
	assert.Equal(t, "Very Great Skill 1", sk.Name)
	assert.Equal(t, 100, sk.PointIncrement)
	assert.Equal(t, 2, sk.NumPerformToCompletion)
	assert.Equal(t, 200, sk.TotalPoints)

	sk, found = stub.Skill("proj1", "skill1Subj2")
	require.True(t, found)
	assert.Equal(t, 10, sk.PointIncrement)

	err := b.CreateSkill(ctx, 1, 1, 3, Overrides{"name": "Very Great Skill 1"})
	require.Error(t, err)
	assert.True(t, apierrors.IsConflict(err))
	assert.Contains(t, err.Error(), "create skill")
}

func TestSkillsGroup(t *testing.T) {
	ctx := context.Background()
	b, stub := newTestBuilder(t, "skills@skills.org")
	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 1, nil))

	require.NoError(t, b.CreateSkillsGroup(ctx, 1, 1, 1, nil))
	g, found := stub.Skill("proj1", "group1")
	require.True(t, found)
	assert.True(t, g.Enabled)
	assert.Equal(t, "SkillsGroup", g.Type)

	require.NoError(t, b.CreateSkillsGroup(ctx, 1, 1, 2, Overrides{"enabled": false}))
	g, _ = stub.Skill("proj1", "group2")
	assert.False(t, g.Enabled)

	require.NoError(t, b.AddSkillToGroup(ctx, 1, 1, 1, 5, nil))
	sk, found := stub.Skill("proj1", "skill5")
	require.True(t, found)
	assert.Equal(t, "group1", sk.GroupID)
}

func TestBadges(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, "skills@skills.org")
	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 1, nil))
	require.NoError(t, b.CreateBadge(ctx, 1, 1, nil))

	err := b.EnableBadge(ctx, 1, 1, nil)
	require.Error(t, err)
	assert.True(t, apierrors.IsBadRequest(err))

	require.NoError(t, b.AssignSkillToBadge(ctx, 1, 1, 1, 1))
	require.NoError(t, b.EnableBadge(ctx, 1, 1, nil))
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	b, stub := newTestBuilder(t, "skills@skills.org")
	for _, p := range []int{1, 2} {
		require.NoError(t, b.CreateProject(ctx, p, nil))
		require.NoError(t, b.CreateSubject(ctx, p, 1, nil))
	}
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 2, nil))

	require.NoError(t, b.ExportSkillToCatalog(ctx, 1, 1, 1))
	err := b.ExportSkillToCatalog(ctx, 1, 1, 1)
	require.Error(t, err)
	assert.True(t, apierrors.IsConflict(err), err.Error())

	require.NoError(t, b.ImportSkillFromCatalog(ctx, 2, 1, 1, 1))
	sk, found := stub.Skill("proj2", "skill1")
	require.True(t, found)
	assert.False(t, sk.Enabled)
	assert.Equal(t, "proj1", sk.CopiedFromProjectID)

	require.NoError(t, b.FinalizeCatalogImport(ctx, 2))
	got, err := b.GetSkill(ctx, 2, "skill1")
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.True(t, got.ReadOnly)

	err = b.ImportSkillFromCatalog(ctx, 2, 1, 1, 2)
	require.Error(t, err)
	assert.True(t, apierrors.IsBadRequest(err))
}

func TestLearningPathAndEvents(t *testing.T) {
	ctx := context.Background()
	b, stub := newTestBuilder(t, "skills@skills.org")
	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 2, nil))
	require.NoError(t, b.CreateBadge(ctx, 1, 1, nil))

	require.NoError(t, b.AddLearningPathItem(ctx, 1, SkillItem(1), SkillItem(2)))
	require.NoError(t, b.AddLearningPathItem(ctx, 1, SkillItem(2), BadgeItem(1)))
	require.Error(t, b.AddLearningPathItem(ctx, 1, BadgeItem(1), SkillItem(1)))
	assert.Len(t, stub.Prerequisites("proj1"), 2)

	when := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, b.ReportSkill(ctx, 1, 1, "user0", when))
	events := stub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "skill1", events[0].SkillID)
	assert.True(t, when.Equal(events[0].Timestamp))
}

func TestQuestions(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, "skills@skills.org")
	require.NoError(t, b.CreateQuizDef(ctx, 1, nil))
	require.NoError(t, b.CreateSurveyDef(ctx, 2, nil))

	t.Run("choice questions need two answers", func(t *testing.T) {
		err := b.CreateQuizQuestionDef(ctx, 1, 1, Overrides{"answers": []Answer{{Answer: "only", IsCorrect: true}}})
		require.ErrorIs(t, err, ErrTooFewAnswers)
		assert.Contains(t, err.Error(), "Must have at least 2 answers")

		err = b.CreateQuizMultipleChoiceQuestionDef(ctx, 1, 1, Overrides{"answers": []map[string]interface{}{}})
		require.ErrorIs(t, err, ErrTooFewAnswers)

		questions, err := b.GetQuestions(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, questions)
	})

	t.Run("default shapes", func(t *testing.T) {
		require.NoError(t, b.CreateQuizQuestionDef(ctx, 1, 1, nil))
		require.NoError(t, b.CreateQuizMultipleChoiceQuestionDef(ctx, 1, 2, nil))
		require.NoError(t, b.CreateTextInputQuestionDef(ctx, 1, 3, nil))
		require.NoError(t, b.CreateSurveyMultipleChoiceQuestionDef(ctx, 2, 1, nil))
		require.NoError(t, b.CreateRatingQuestionDef(ctx, 2, 2, nil))

		questions, err := b.GetQuestions(ctx, 1)
		require.NoError(t, err)
		require.Len(t, questions, 3)
		assert.Equal(t, "This is a question # 1", questions[0].Question)
		assert.Len(t, questions[0].Answers, 3)
		assert.True(t, questions[0].Answers[0].IsCorrect)
		assert.Equal(t, MultipleChoice, questions[1].QuestionType)
		assert.Equal(t, TextInput, questions[2].QuestionType)
	})

	t.Run("rating is rejected in quizzes", func(t *testing.T) {
		err := b.CreateRatingQuestionDef(ctx, 1, 4, nil)
		require.Error(t, err)
		assert.True(t, apierrors.IsBadRequest(err))
	})
}

func TestSlidesRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := []byte("%PDF-1.4\n% test slides\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-slides-1.pdf"), content, 0o644))

	b, _ := newTestBuilder(t, "skills@skills.org", WithFixturesDir(dir))
	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.CreateSubject(ctx, 1, 1, nil))
	require.NoError(t, b.CreateSkill(ctx, 1, 1, 1, nil))
	require.NoError(t, b.CreateQuizDef(ctx, 1, nil))

	target := SkillSlides(1, 1, 1)
	require.NoError(t, b.SaveSlidesAttrs(ctx, target, SlidesAttrs{File: "test-slides-1.pdf", Width: 700}))
	info, err := b.GetSlidesAttrs(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 700, info.Width)
	assert.Equal(t, "test-slides-1.pdf", info.FileName)

	got, err := b.Download(ctx, info.URL)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, b.SaveSlidesAttrs(ctx, QuizSlides(1), SlidesAttrs{URL: "https://example.com/deck.pdf"}))
	info, err = b.GetSlidesAttrs(ctx, QuizSlides(1))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/deck.pdf", info.URL)

	err = b.SaveSlidesAttrs(ctx, QuizSlides(1), SlidesAttrs{File: "a.pdf", URL: "https://example.com"})
	require.ErrorIs(t, err, ErrSlidesSource)
	err = b.SaveSlidesAttrs(ctx, QuizSlides(1), SlidesAttrs{})
	require.ErrorIs(t, err, ErrSlidesSource)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	b, stub := newTestBuilder(t, "root@skills.org")
	require.NoError(t, b.CreateProject(ctx, 1, nil))
	require.NoError(t, b.AssignProjectAdmin(ctx, 1, "user0"))
	require.NoError(t, b.AddRootRole(ctx, "user0"))
	assert.Contains(t, stub.UserRoles("user0"), RoleRoot)

	admin, _ := newTestBuilder(t, "skills@skills.org")
	err := admin.AddRootRole(ctx, "user0")
	require.Error(t, err)
	assert.True(t, apierrors.IsForbidden(err))
}
