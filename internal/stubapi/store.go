package stubapi

import (
	"sort"
	"sync"
	"time"
)

// Project is the stub's view of a SkillTree project.
type Project struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Owner     string `json:"-"`
}

// Subject belongs to a project.
type Subject struct {
	ProjectID   string `json:"projectId"`
	SubjectID   string `json:"subjectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HelpURL     string `json:"helpUrl,omitempty"`
}

// Skill covers plain skills, skills groups and imported catalog skills.
type Skill struct {
	ProjectID              string `json:"projectId"`
	SubjectID              string `json:"subjectId"`
	SkillID                string `json:"skillId"`
	Name                   string `json:"name"`
	Type                   string `json:"type"`
	Enabled                bool   `json:"enabled"`
	GroupID                string `json:"groupId,omitempty"`
	PointIncrement         int    `json:"pointIncrement"`
	NumPerformToCompletion int    `json:"numPerformToCompletion"`
	Version                int    `json:"version"`
	Description            string `json:"description,omitempty"`
	SelfReportingType      string `json:"selfReportingType,omitempty"`
	QuizID                 string `json:"quizId,omitempty"`
	SharedToCatalog        bool   `json:"sharedToCatalog"`
	CopiedFromProjectID    string `json:"copiedFromProjectId,omitempty"`
	ReadOnly               bool   `json:"readOnly"`
	TotalPoints            int    `json:"totalPoints"`
}

// Badge groups skills.
type Badge struct {
	ProjectID string   `json:"projectId"`
	BadgeID   string   `json:"badgeId"`
	Name      string   `json:"name"`
	IconClass string   `json:"iconClass,omitempty"`
	Enabled   bool     `json:"enabled"`
	Skills    []string `json:"skills"`
}

// Answer is one option of a question.
type Answer struct {
	ID        int    `json:"id"`
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is part of a quiz or survey.
type Question struct {
	ID           int       `json:"id"`
	Question     string    `json:"question"`
	QuestionType string    `json:"questionType"`
	Answers      []*Answer `json:"answers"`
}

// Quiz is a quiz or survey definition.
type Quiz struct {
	QuizID      string      `json:"quizId"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Questions   []*Question `json:"questions"`
}

// Attempt is one user's run through a quiz.
type Attempt struct {
	ID        int            `json:"id"`
	QuizID    string         `json:"quizId"`
	User      string         `json:"-"`
	Selected  map[int]string `json:"-"`
	Completed bool           `json:"completed"`
	Passed    bool           `json:"passed"`
	Started   time.Time      `json:"started"`
}

// Slides holds slide-deck attributes for a skill or quiz.
type Slides struct {
	URL          string `json:"url,omitempty"`
	Width        int    `json:"width,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
	FileName     string `json:"fileName,omitempty"`
}

// Event is a reported skill occurrence.
type Event struct {
	ProjectID string
	SkillID   string
	UserID    string
	Timestamp time.Time
}

// User is an account known to the stub.
type User struct {
	Email    string
	Password string
	Roles    map[string]bool
}

// Prerequisite is one learning-path edge: From must be done before To.
type Prerequisite struct {
	ProjectID string `json:"projectId"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
}

type store struct {
	mu sync.Mutex

	projects      map[string]*Project
	subjects      map[string]map[string]*Subject
	skills        map[string]map[string]*Skill
	badges        map[string]map[string]*Badge
	quizzes       map[string]*Quiz
	attempts      map[int]*Attempt
	slides        map[string]*Slides
	attachments   map[string][]byte
	users         map[string]*User
	sessions      map[string]string
	events        []Event
	prerequisites []Prerequisite
	projectAdmins map[string]map[string]bool

	nextID int
}

func newStore() *store {
	return &store{
		projects:      map[string]*Project{},
		subjects:      map[string]map[string]*Subject{},
		skills:        map[string]map[string]*Skill{},
		badges:        map[string]map[string]*Badge{},
		quizzes:       map[string]*Quiz{},
		attempts:      map[int]*Attempt{},
		slides:        map[string]*Slides{},
		attachments:   map[string][]byte{},
		users:         map[string]*User{},
		sessions:      map[string]string{},
		projectAdmins: map[string]map[string]bool{},
	}
}

func (s *store) id() int {
	s.nextID++
	return s.nextID
}

func (s *store) projectSkills(projectID string) map[string]*Skill {
	m, ok := s.skills[projectID]
	if !ok {
		m = map[string]*Skill{}
		s.skills[projectID] = m
	}
	return m
}

func (s *store) projectSubjects(projectID string) map[string]*Subject {
	m, ok := s.subjects[projectID]
	if !ok {
		m = map[string]*Subject{}
		s.subjects[projectID] = m
	}
	return m
}

func (s *store) projectBadges(projectID string) map[string]*Badge {
	m, ok := s.badges[projectID]
	if !ok {
		m = map[string]*Badge{}
		s.badges[projectID] = m
	}
	return m
}

// skillNameTaken reports whether another skill of the project already uses
// name. Skill names are unique per project.
func (s *store) skillNameTaken(projectID, skillID, name string) bool {
	for id, sk := range s.skills[projectID] {
		if id != skillID && sk.Name == name {
			return true
		}
	}
	return false
}

func (s *store) sortedSkills(projectID, subjectID string) []*Skill {
	out := []*Skill{}
	for _, sk := range s.skills[projectID] {
		if sk.SubjectID == subjectID {
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out
}

func slidesKey(kind, a, b string) string {
	return kind + "/" + a + "/" + b
}
