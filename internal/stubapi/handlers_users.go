package stubapi

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

func (s *Server) startSession(c *gin.Context, email string) {
	token := newToken()
	s.st.sessions[token] = email
	c.SetCookie(sessionCookie, token, 0, "/", "", false, true)
	c.SetCookie(xsrfCookie, newToken(), 0, "/", "", false, false)
}

func (s *Server) handleLogin(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, exists := s.st.users[email]
	if !exists || u.Password != password {
		fail(c, http.StatusUnauthorized, "BadCredentials", "Bad credentials")
		return
	}
	s.startSession(c, email)
	ok(c)
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.st.mu.Lock()
		delete(s.st.sessions, token)
		s.st.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(xsrfCookie, "", -1, "/", "", false, false)
	ok(c)
}

type accountBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (s *Server) handleCreateAccount(root bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body accountBody
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "BadParam", "invalid account body: "+err.Error())
			return
		}
		if body.Email == "" || body.Password == "" {
			fail(c, http.StatusBadRequest, "BadParam", "email and password are required")
			return
		}

		s.st.mu.Lock()
		defer s.st.mu.Unlock()
		if root {
			for _, u := range s.st.users {
				if u.Roles[RoleRoot] {
					fail(c, http.StatusForbidden, "AccessDenied", "a root account already exists")
					return
				}
			}
		}
		if _, exists := s.st.users[body.Email]; exists {
			fail(c, http.StatusConflict, "UserAlreadyExists", fmt.Sprintf("user [%s] already exists", body.Email))
			return
		}
		u := &User{Email: body.Email, Password: body.Password, Roles: map[string]bool{}}
		if root {
			u.Roles[RoleRoot] = true
		}
		s.st.users[body.Email] = u
		s.startSession(c, body.Email)
		ok(c)
	}
}

func (s *Server) handleUserInfo(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	user := currentUser(c)
	roles := []string{}
	if u := s.st.users[user]; u != nil {
		for r := range u.Roles {
			roles = append(roles, r)
		}
	}
	sort.Strings(roles)
	c.JSON(http.StatusOK, gin.H{"userId": user, "roles": roles})
}

func (s *Server) handleAddRootRole(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	userID, role := c.Param("userId"), c.Param("roleName")
	u, exists := s.st.users[userID]
	if !exists {
		fail(c, http.StatusNotFound, "UserNotFound", fmt.Sprintf("user [%s] does not exist", userID))
		return
	}
	switch role {
	case RoleRoot, RoleSupervisor:
	default:
		fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("role [%s] cannot be granted here", role))
		return
	}
	u.Roles[role] = true
	ok(c)
}

func (s *Server) handleAddProjectRole(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	userID, role := c.Param("userId"), c.Param("roleName")
	if _, exists := s.st.users[userID]; !exists {
		fail(c, http.StatusNotFound, "UserNotFound", fmt.Sprintf("user [%s] does not exist", userID))
		return
	}
	if role != RoleProjectAdmin {
		fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("role [%s] cannot be granted on a project", role))
		return
	}
	admins := s.st.projectAdmins[p.ProjectID]
	if admins == nil {
		admins = map[string]bool{}
		s.st.projectAdmins[p.ProjectID] = admins
	}
	admins[userID] = true
	ok(c)
}
