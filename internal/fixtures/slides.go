package fixtures

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// SlidesTarget names the owner of a slide deck: a skill or a quiz.
type SlidesTarget struct {
	Project int
	Subject int
	Skill   int
	Quiz    int
}

// SkillSlides targets skill k of subj{s} in proj{p}.
func SkillSlides(p, s, k int) SlidesTarget {
	return SlidesTarget{Project: p, Subject: s, Skill: k}
}

// QuizSlides targets quiz{q}.
func QuizSlides(q int) SlidesTarget {
	return SlidesTarget{Quiz: q}
}

func (t SlidesTarget) path() string {
	if t.Quiz > 0 {
		return fmt.Sprintf("/admin/quiz-definitions/%s/slides", QuizID(t.Quiz))
	}
	s := t.Subject
	if s == 0 {
		s = 1
	}
	return fmt.Sprintf("/admin/projects/%s/skills/%s/slides", ProjectID(t.Project), SkillID(t.Skill, s))
}

// SlidesAttrs configures a deck. Exactly one of File or URL is set; a
// relative File resolves against the fixtures directory.
type SlidesAttrs struct {
	File  string
	URL   string
	Width int
}

// ErrSlidesSource is returned when SlidesAttrs sets both or neither of File
// and URL.
var ErrSlidesSource = errors.New("exactly one of slides file or url must be set")

// SlidesInfo is the stored deck configuration.
type SlidesInfo struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	AttachmentID string `json:"attachmentId"`
	FileName     string `json:"fileName"`
}

// SaveSlidesAttrs uploads or links a slide deck for target.
func (b *Builder) SaveSlidesAttrs(ctx context.Context, target SlidesTarget, attrs SlidesAttrs) error {
	if (attrs.File == "") == (attrs.URL == "") {
		return fmt.Errorf("save slides: %w", ErrSlidesSource)
	}
	fields := map[string]string{}
	if attrs.Width > 0 {
		fields["width"] = strconv.Itoa(attrs.Width)
	}

	path := target.path()
	if attrs.URL != "" {
		fields["url"] = attrs.URL
		b.log.Debug().Str("op", "save slides").Str("path", path).Str("url", attrs.URL).Msg("fixture")
		if err := b.client.PostForm(ctx, path, fields); err != nil {
			return fmt.Errorf("save slides: %w", err)
		}
		return nil
	}

	file := b.FixturePath(attrs.File)
	b.log.Debug().Str("op", "save slides").Str("path", path).Str("file", file).Msg("fixture")
	if err := b.client.Upload(ctx, path, "file", file, fields, nil); err != nil {
		return fmt.Errorf("save slides: %w", err)
	}
	return nil
}

// GetSlidesAttrs returns the stored deck configuration of target.
func (b *Builder) GetSlidesAttrs(ctx context.Context, target SlidesTarget) (*SlidesInfo, error) {
	var info SlidesInfo
	if err := b.client.Get(ctx, target.path(), &info); err != nil {
		return nil, fmt.Errorf("get slides: %w", err)
	}
	return &info, nil
}

// Download fetches a backend resource such as an uploaded deck.
func (b *Builder) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := b.client.GetBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return data, nil
}

// FixturePath resolves name against the fixtures directory.
func (b *Builder) FixturePath(name string) string {
	if filepath.IsAbs(name) || b.fixturesDir == "" {
		return name
	}
	return filepath.Join(b.fixturesDir, name)
}
