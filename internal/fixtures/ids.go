package fixtures

import "fmt"

// ProjectID returns the canonical id of project n.
func ProjectID(n int) string { return fmt.Sprintf("proj%d", n) }

// ProjectName returns the default name of project n.
func ProjectName(n int) string { return fmt.Sprintf("This is project %d", n) }

// SubjectID returns the canonical id of subject n.
func SubjectID(n int) string { return fmt.Sprintf("subj%d", n) }

// SubjectName returns the default name of subject n.
func SubjectName(n int) string { return fmt.Sprintf("Subject %d", n) }

// SkillID returns the id of skill k in subject s. Skills outside the first
// subject carry a Subj suffix so the same k can be reused per subject.
func SkillID(k, s int) string {
	if s > 1 {
		return fmt.Sprintf("skill%dSubj%d", k, s)
	}
	return fmt.Sprintf("skill%d", k)
}

// SkillName returns the default name of skill k in subject s.
func SkillName(k, s int) string {
	if s > 1 {
		return fmt.Sprintf("Very Great Skill %d Subj%d", k, s)
	}
	return fmt.Sprintf("Very Great Skill %d", k)
}

// GroupID returns the canonical id of skills group g.
func GroupID(g int) string { return fmt.Sprintf("group%d", g) }

// GroupName returns the default name of group g in subject s.
func GroupName(g, s int) string { return fmt.Sprintf("Awesome Group %d Subj%d", g, s) }

// BadgeID returns the canonical id of badge b.
func BadgeID(b int) string { return fmt.Sprintf("badge%d", b) }

// BadgeName returns the default name of badge b.
func BadgeName(b int) string { return fmt.Sprintf("Badge %d", b) }

// QuizID returns the canonical id of quiz or survey q.
func QuizID(q int) string { return fmt.Sprintf("quiz%d", q) }

// QuizName returns the default name of quiz q.
func QuizName(q int) string { return fmt.Sprintf("This is quiz %d", q) }

// SurveyName returns the default name of survey q.
func SurveyName(q int) string { return fmt.Sprintf("This is survey %d", q) }

// QuestionText returns the default text of question n.
func QuestionText(n int) string { return fmt.Sprintf("This is a question # %d", n) }

func quizDescription(q int) string { return fmt.Sprintf("What a cool quiz #%d! Thank you for taking it!", q) }
func surveyDescription(q int) string {
	return fmt.Sprintf("What a cool survey #%d! Thank you for taking it!", q)
}

// PathItem is one end of a learning-path edge: a skill or a badge.
type PathItem struct {
	Num     int
	Subject int
	Badge   bool
}

// SkillItem refers to skill n of subject 1.
func SkillItem(n int) PathItem { return PathItem{Num: n, Subject: 1} }

// SubjectSkillItem refers to skill n of subject s.
func SubjectSkillItem(n, s int) PathItem { return PathItem{Num: n, Subject: s} }

// BadgeItem refers to badge n.
func BadgeItem(n int) PathItem { return PathItem{Num: n, Badge: true} }

// ID resolves the item to its backend id.
func (p PathItem) ID() string {
	if p.Badge {
		return BadgeID(p.Num)
	}
	s := p.Subject
	if s == 0 {
		s = 1
	}
	return SkillID(p.Num, s)
}
