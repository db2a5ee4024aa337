// Package stubapi is an in-memory stand-in for the SkillTree REST
// endpoints the fixture layer talks to. It backs the offline tests of the
// fixture client and builders and can be served standalone for developing
// suites without a backend.
package stubapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "SESSION"
	xsrfCookie    = "XSRF-TOKEN"

	RoleRoot         = "ROLE_SUPER_DUPER_USER"
	RoleProjectAdmin = "ROLE_PROJECT_ADMIN"
	RoleSupervisor   = "ROLE_SUPERVISOR"
)

// Options configures a stub server.
type Options struct {
	// Users maps email to password; RootUsers get ROLE_SUPER_DUPER_USER.
	Users     map[string]string
	RootUsers []string
}

// DefaultOptions seeds the accounts the harness defaults expect.
func DefaultOptions() Options {
	return Options{
		Users: map[string]string{
			"root@skills.org":   "password",
			"skills@skills.org": "password",
			"user0":             "password",
		},
		RootUsers: []string{"root@skills.org"},
	}
}

// Server is the stub API.
type Server struct {
	st     *store
	router *gin.Engine
}

// New builds a stub with the given accounts.
func New(opts Options) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{st: newStore(), router: gin.New()}
	for email, pass := range opts.Users {
		s.st.users[email] = &User{Email: email, Password: pass, Roles: map[string]bool{}}
	}
	for _, email := range opts.RootUsers {
		if u, ok := s.st.users[email]; ok {
			u.Roles[RoleRoot] = true
		}
	}
	s.routes()
	return s
}

// Handler exposes the gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), s.session)

	r.GET("/public/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"oAuthOnly": false, "needToBootstrap": false})
	})
	r.POST("/performLogin", s.handleLogin)
	r.POST("/logout", s.handleLogout)
	r.PUT("/createAccount", s.handleCreateAccount(false))
	r.PUT("/createRootAccount", s.handleCreateAccount(true))

	app := r.Group("/app", s.requireAuth)
	app.POST("/projects/:projectId", s.handleSaveProject)
	app.GET("/userInfo", s.handleUserInfo)

	admin := r.Group("/admin", s.requireAuth)
	admin.GET("/projects/:projectId", s.handleGetProject)
	admin.POST("/projects/:projectId/subjects/:subjectId", s.handleSaveSubject)
	admin.GET("/projects/:projectId/subjects/:subjectId/skills", s.handleListSkills)
	admin.POST("/projects/:projectId/subjects/:subjectId/skills/:skillId", s.handleSaveSkill)
	admin.POST("/projects/:projectId/subjects/:subjectId/groups/:groupId/skills/:skillId", s.handleSaveSkill)
	admin.POST("/projects/:projectId/subjects/:subjectId/import", s.handleImport)
	admin.GET("/projects/:projectId/skills/:skillId", s.handleGetSkill)
	admin.POST("/projects/:projectId/skills/:skillId/export", s.handleExport)
	admin.POST("/projects/:projectId/skills/:skillId/slides", s.handleSaveSlides("skill"))
	admin.GET("/projects/:projectId/skills/:skillId/slides", s.handleGetSlides("skill"))
	admin.GET("/projects/:projectId/catalog/exported", s.handleListExported)
	admin.POST("/projects/:projectId/catalog/finalize", s.handleFinalize)
	admin.POST("/projects/:projectId/badges/:badgeId", s.handleSaveBadge)
	admin.GET("/projects/:projectId/badges/:badgeId", s.handleGetBadge)
	admin.POST("/projects/:projectId/badge/:badgeId/skills/:skillId", s.handleAssignBadgeSkill)
	admin.POST("/projects/:projectId/users/:userId/roles/:roleName", s.handleAddProjectRole)
	admin.POST("/projects/:projectId/:skillId/prerequisite/:prereqProjectId/:prereqSkillId", s.handleAddPrerequisite)
	admin.POST("/quiz-definitions/:quizId", s.handleSaveQuiz)
	admin.POST("/quiz-definitions/:quizId/create-question", s.handleCreateQuestion)
	admin.GET("/quiz-definitions/:quizId/questions", s.handleListQuestions)
	admin.POST("/quiz-definitions/:quizId/slides", s.handleSaveSlides("quiz"))
	admin.GET("/quiz-definitions/:quizId/slides", s.handleGetSlides("quiz"))

	api := r.Group("/api", s.requireAuth)
	api.POST("/projects/:projectId/skills/:skillId", s.handleReportSkill)
	api.GET("/download/:attachmentId", s.handleDownload)
	api.GET("/quizzes/:quizId", s.handleGetQuizForRun)
	api.POST("/quizzes/:quizId/attempt", s.handleStartAttempt)
	api.POST("/quizzes/:quizId/attempt/:attemptId/answers/:answerId", s.handleAnswer)
	api.POST("/quizzes/:quizId/attempt/:attemptId/complete", s.handleCompleteAttempt)

	root := r.Group("/root", s.requireAuth, s.requireRole(RoleRoot))
	root.PUT("/users/:userId/roles/:roleName", s.handleAddRootRole)
}

// session resolves the session cookie into the current user, if any.
func (s *Server) session(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err == nil && token != "" {
		s.st.mu.Lock()
		user, ok := s.st.sessions[token]
		s.st.mu.Unlock()
		if ok {
			c.Set("user", user)
		}
	}
	c.Next()
}

func (s *Server) requireAuth(c *gin.Context) {
	if currentUser(c) == "" {
		fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	c.Next()
}

func (s *Server) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.st.mu.Lock()
		u := s.st.users[currentUser(c)]
		allowed := u != nil && u.Roles[role]
		s.st.mu.Unlock()
		if !allowed {
			fail(c, http.StatusForbidden, "AccessDenied", fmt.Sprintf("%s required", role))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString("user")
}

func fail(c *gin.Context, status int, code, explanation string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":     false,
		"errorCode":   code,
		"explanation": explanation,
	})
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// bindBody decodes a JSON object while keeping unknown keys.
func bindBody(c *gin.Context) (map[string]any, bool) {
	body := map[string]any{}
	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "BadParam", "invalid JSON body: "+err.Error())
		return nil, false
	}
	return body, true
}

func str(m map[string]any, key, def string) string {
	switch v := m[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return def
}

func intVal(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolVal(m map[string]any, key string, def bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (s *Server) isProjectAdmin(user, projectID string) bool {
	if u := s.st.users[user]; u != nil && u.Roles[RoleRoot] {
		return true
	}
	return s.st.projectAdmins[projectID][user]
}

// projectFor loads the project named in the path and checks the caller may
// administer it. Must be called with the store lock held.
func (s *Server) projectFor(c *gin.Context) (*Project, bool) {
	projectID := c.Param("projectId")
	p, found := s.st.projects[projectID]
	if !found {
		fail(c, http.StatusNotFound, "ProjectNotFound", fmt.Sprintf("project [%s] does not exist", projectID))
		return nil, false
	}
	if !s.isProjectAdmin(currentUser(c), projectID) {
		fail(c, http.StatusForbidden, "AccessDenied", fmt.Sprintf("not an admin of project [%s]", projectID))
		return nil, false
	}
	return p, true
}

// Events returns a copy of all reported skill events.
func (s *Server) Events() []Event {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	out := make([]Event, len(s.st.events))
	copy(out, s.st.events)
	return out
}

// Skill returns a copy of a stored skill.
func (s *Server) Skill(projectID, skillID string) (Skill, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	sk, found := s.st.skills[projectID][skillID]
	if !found {
		return Skill{}, false
	}
	return *sk, true
}

// Prerequisites returns the learning-path edges of a project.
func (s *Server) Prerequisites(projectID string) []Prerequisite {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	out := []Prerequisite{}
	for _, p := range s.st.prerequisites {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out
}

// UserRoles returns the global roles of a user, sorted.
func (s *Server) UserRoles(email string) []string {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u := s.st.users[email]
	if u == nil {
		return nil
	}
	roles := []string{}
	for r := range u.Roles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
