package stubapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	skillTypeSkill = "Skill"
	skillTypeGroup = "SkillsGroup"
)

func (s *Server) handleSaveProject(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	pathID := c.Param("projectId")
	newID := str(body, "projectId", pathID)
	name := str(body, "name", "")
	if name == "" {
		fail(c, http.StatusBadRequest, "BadParam", "project name is required")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	user := currentUser(c)
	for id, p := range s.st.projects {
		if id != pathID && strings.EqualFold(p.Name, name) {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("project with name [%s] already exists", name))
			return
		}
	}

	if existing, found := s.st.projects[pathID]; found {
		if !s.isProjectAdmin(user, pathID) {
			fail(c, http.StatusForbidden, "AccessDenied", fmt.Sprintf("not an admin of project [%s]", pathID))
			return
		}
		existing.Name = name
		if newID != pathID {
			if _, taken := s.st.projects[newID]; taken {
				fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("project id [%s] already exists", newID))
				return
			}
			existing.ProjectID = newID
			s.st.projects[newID] = existing
			delete(s.st.projects, pathID)
			s.st.projectAdmins[newID] = s.st.projectAdmins[pathID]
			delete(s.st.projectAdmins, pathID)
		}
		ok(c)
		return
	}

	if _, taken := s.st.projects[newID]; taken {
		fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("project id [%s] already exists", newID))
		return
	}
	s.st.projects[newID] = &Project{ProjectID: newID, Name: name, Owner: user}
	s.st.projectAdmins[newID] = map[string]bool{user: true}
	ok(c)
}

func (s *Server) handleGetProject(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSaveSubject(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	subjectID := c.Param("subjectId")
	name := str(body, "name", "")
	if name == "" {
		fail(c, http.StatusBadRequest, "BadParam", "subject name is required")
		return
	}
	subjects := s.st.projectSubjects(p.ProjectID)
	for id, other := range subjects {
		if id != subjectID && strings.EqualFold(other.Name, name) {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("subject with name [%s] already exists", name))
			return
		}
	}
	subj, exists := subjects[subjectID]
	if !exists {
		subj = &Subject{ProjectID: p.ProjectID, SubjectID: subjectID}
		subjects[subjectID] = subj
	}
	subj.Name = name
	subj.Description = str(body, "description", subj.Description)
	subj.HelpURL = str(body, "helpUrl", subj.HelpURL)
	ok(c)
}

func (s *Server) handleListSkills(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	subjectID := c.Param("subjectId")
	if _, exists := s.st.subjects[p.ProjectID][subjectID]; !exists {
		fail(c, http.StatusNotFound, "SubjectNotFound", fmt.Sprintf("subject [%s] does not exist", subjectID))
		return
	}
	c.JSON(http.StatusOK, s.st.sortedSkills(p.ProjectID, subjectID))
}

// handleSaveSkill serves both plain and grouped skill saves; the group
// route carries a groupId path parameter.
func (s *Server) handleSaveSkill(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	subjectID := c.Param("subjectId")
	if _, exists := s.st.subjects[p.ProjectID][subjectID]; !exists {
		fail(c, http.StatusNotFound, "SubjectNotFound", fmt.Sprintf("subject [%s] does not exist", subjectID))
		return
	}

	skills := s.st.projectSkills(p.ProjectID)
	groupID := c.Param("groupId")
	if groupID != "" {
		group, exists := skills[groupID]
		if !exists || group.Type != skillTypeGroup {
			fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("group [%s] does not exist", groupID))
			return
		}
	}

	skillID := c.Param("skillId")
	name := str(body, "name", "")
	if name == "" {
		fail(c, http.StatusBadRequest, "BadParam", "skill name is required")
		return
	}
	if s.st.skillNameTaken(p.ProjectID, skillID, name) {
		fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("skill with name [%s] already exists", name))
		return
	}

	sk, exists := skills[skillID]
	if exists && sk.SubjectID != subjectID {
		fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("skill id [%s] already exists in subject [%s]", skillID, sk.SubjectID))
		return
	}
	if exists && sk.ReadOnly {
		fail(c, http.StatusBadRequest, "ReadOnlySkill", fmt.Sprintf("skill [%s] was imported and is read-only", skillID))
		return
	}
	if !exists {
		skillType := str(body, "type", skillTypeSkill)
		sk = &Skill{
			ProjectID: p.ProjectID,
			SubjectID: subjectID,
			SkillID:   skillID,
			Type:      skillType,
			Enabled:   skillType != skillTypeGroup,
		}
		skills[skillID] = sk
	}

	sk.Name = name
	sk.GroupID = groupID
	sk.Enabled = boolVal(body, "enabled", sk.Enabled)
	sk.PointIncrement = intVal(body, "pointIncrement", sk.PointIncrement)
	sk.NumPerformToCompletion = intVal(body, "numPerformToCompletion", sk.NumPerformToCompletion)
	sk.Version = intVal(body, "version", sk.Version)
	sk.Description = str(body, "description", sk.Description)
	sk.SelfReportingType = str(body, "selfReportingType", sk.SelfReportingType)
	sk.QuizID = str(body, "quizId", sk.QuizID)
	sk.TotalPoints = sk.PointIncrement * sk.NumPerformToCompletion

	if newID := str(body, "skillId", skillID); newID != skillID {
		if _, taken := skills[newID]; taken {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("skill id [%s] already exists", newID))
			return
		}
		sk.SkillID = newID
		skills[newID] = sk
		delete(skills, skillID)
	}
	ok(c)
}

func (s *Server) handleGetSkill(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	skillID := c.Param("skillId")
	sk, exists := s.st.skills[p.ProjectID][skillID]
	if !exists {
		fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill [%s] does not exist", skillID))
		return
	}
	c.JSON(http.StatusOK, sk)
}

func (s *Server) handleSaveBadge(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	badgeID := c.Param("badgeId")
	name := str(body, "name", "")
	if name == "" {
		fail(c, http.StatusBadRequest, "BadParam", "badge name is required")
		return
	}
	badges := s.st.projectBadges(p.ProjectID)
	for id, other := range badges {
		if id != badgeID && strings.EqualFold(other.Name, name) {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("badge with name [%s] already exists", name))
			return
		}
	}
	b, exists := badges[badgeID]
	if !exists {
		b = &Badge{ProjectID: p.ProjectID, BadgeID: badgeID, Skills: []string{}}
		badges[badgeID] = b
	}
	b.Name = name
	b.IconClass = str(body, "iconClass", b.IconClass)
	enabled := boolVal(body, "enabled", b.Enabled)
	if enabled && !b.Enabled && len(b.Skills) == 0 {
		fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("badge [%s] must have at least one skill before it is enabled", badgeID))
		return
	}
	b.Enabled = enabled
	ok(c)
}

func (s *Server) handleGetBadge(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	badgeID := c.Param("badgeId")
	b, exists := s.st.badges[p.ProjectID][badgeID]
	if !exists {
		fail(c, http.StatusNotFound, "BadgeNotFound", fmt.Sprintf("badge [%s] does not exist", badgeID))
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleAssignBadgeSkill(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	badgeID, skillID := c.Param("badgeId"), c.Param("skillId")
	b, exists := s.st.badges[p.ProjectID][badgeID]
	if !exists {
		fail(c, http.StatusNotFound, "BadgeNotFound", fmt.Sprintf("badge [%s] does not exist", badgeID))
		return
	}
	if _, exists := s.st.skills[p.ProjectID][skillID]; !exists {
		fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill [%s] does not exist", skillID))
		return
	}
	for _, id := range b.Skills {
		if id == skillID {
			ok(c)
			return
		}
	}
	b.Skills = append(b.Skills, skillID)
	ok(c)
}

func (s *Server) handleExport(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	skillID := c.Param("skillId")
	sk, exists := s.st.skills[p.ProjectID][skillID]
	if !exists {
		fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill [%s] does not exist", skillID))
		return
	}
	if sk.Type == skillTypeGroup {
		fail(c, http.StatusBadRequest, "BadParam", "skills groups cannot be exported")
		return
	}
	if sk.ReadOnly {
		fail(c, http.StatusBadRequest, "BadParam", "imported skills cannot be exported")
		return
	}
	if sk.SharedToCatalog {
		fail(c, http.StatusBadRequest, "SkillAlreadyInCatalog", fmt.Sprintf("skill [%s] is already exported to the catalog", skillID))
		return
	}
	sk.SharedToCatalog = true
	ok(c)
}

func (s *Server) handleListExported(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	out := []*Skill{}
	for _, sk := range s.st.skills[p.ProjectID] {
		if sk.SharedToCatalog {
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out), "totalCount": len(out)})
}

type catalogRef struct {
	ProjectID string `json:"projectId"`
	SkillID   string `json:"skillId"`
}

func (s *Server) handleImport(c *gin.Context) {
	var refs []catalogRef
	if err := c.ShouldBindJSON(&refs); err != nil {
		fail(c, http.StatusBadRequest, "BadParam", "invalid import body: "+err.Error())
		return
	}
	if len(refs) == 0 {
		fail(c, http.StatusBadRequest, "BadParam", "nothing to import")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	subjectID := c.Param("subjectId")
	if _, exists := s.st.subjects[p.ProjectID][subjectID]; !exists {
		fail(c, http.StatusNotFound, "SubjectNotFound", fmt.Sprintf("subject [%s] does not exist", subjectID))
		return
	}

	dst := s.st.projectSkills(p.ProjectID)
	for _, ref := range refs {
		if ref.ProjectID == p.ProjectID {
			fail(c, http.StatusBadRequest, "BadParam", "cannot import a skill into its own project")
			return
		}
		src, exists := s.st.skills[ref.ProjectID][ref.SkillID]
		if !exists || !src.SharedToCatalog {
			fail(c, http.StatusBadRequest, "SkillNotInCatalog", fmt.Sprintf("skill [%s] of project [%s] is not in the catalog", ref.SkillID, ref.ProjectID))
			return
		}
		if _, taken := dst[ref.SkillID]; taken {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("skill id [%s] already exists", ref.SkillID))
			return
		}
		if s.st.skillNameTaken(p.ProjectID, ref.SkillID, src.Name) {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("skill with name [%s] already exists", src.Name))
			return
		}
	}
	for _, ref := range refs {
		src := s.st.skills[ref.ProjectID][ref.SkillID]
		cp := *src
		cp.ProjectID = p.ProjectID
		cp.SubjectID = subjectID
		cp.GroupID = ""
		cp.SharedToCatalog = false
		cp.CopiedFromProjectID = ref.ProjectID
		cp.ReadOnly = true
		cp.Enabled = false
		dst[ref.SkillID] = &cp
	}
	ok(c)
}

func (s *Server) handleFinalize(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	for _, sk := range s.st.skills[p.ProjectID] {
		if sk.ReadOnly && !sk.Enabled {
			sk.Enabled = true
		}
	}
	ok(c)
}

func (s *Server) handleAddPrerequisite(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	p, found := s.projectFor(c)
	if !found {
		return
	}
	toID, fromID := c.Param("skillId"), c.Param("prereqSkillId")
	if c.Param("prereqProjectId") != p.ProjectID {
		fail(c, http.StatusBadRequest, "BadParam", "cross-project learning paths are not supported")
		return
	}
	if toID == fromID {
		fail(c, http.StatusBadRequest, "LearningPathViolation", "an item cannot depend on itself")
		return
	}
	for _, id := range []string{toID, fromID} {
		_, isSkill := s.st.skills[p.ProjectID][id]
		_, isBadge := s.st.badges[p.ProjectID][id]
		if !isSkill && !isBadge {
			fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill or badge [%s] does not exist", id))
			return
		}
	}
	for _, e := range s.st.prerequisites {
		if e.ProjectID != p.ProjectID {
			continue
		}
		if e.FromID == fromID && e.ToID == toID {
			fail(c, http.StatusConflict, "LearningPathViolation", fmt.Sprintf("[%s] already depends on [%s]", toID, fromID))
			return
		}
	}
	if s.reachableOnPath(p.ProjectID, toID, fromID) {
		fail(c, http.StatusBadRequest, "LearningPathViolation", fmt.Sprintf("adding [%s] -> [%s] would create a circular learning path", fromID, toID))
		return
	}
	s.st.prerequisites = append(s.st.prerequisites, Prerequisite{ProjectID: p.ProjectID, FromID: fromID, ToID: toID})
	ok(c)
}

// reachableOnPath reports whether to can be reached from from by following
// existing learning-path edges.
func (s *Server) reachableOnPath(projectID, from, to string) bool {
	seen := map[string]bool{}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range s.st.prerequisites {
			if e.ProjectID == projectID && e.FromID == cur {
				queue = append(queue, e.ToID)
			}
		}
	}
	return false
}

func (s *Server) handleReportSkill(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	projectID, skillID := c.Param("projectId"), c.Param("skillId")
	sk, exists := s.st.skills[projectID][skillID]
	if !exists {
		fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill [%s] does not exist", skillID))
		return
	}
	if !sk.Enabled {
		fail(c, http.StatusBadRequest, "SkillDisabled", fmt.Sprintf("skill [%s] is disabled", skillID))
		return
	}

	userID := str(body, "userId", currentUser(c))
	ts := time.Now()
	if ms, isNum := body["timestamp"].(float64); isNum {
		ts = time.UnixMilli(int64(ms))
	}

	done := 0
	for _, e := range s.st.events {
		if e.ProjectID == projectID && e.SkillID == skillID && e.UserID == userID {
			done++
		}
	}
	applied := sk.NumPerformToCompletion <= 0 || done < sk.NumPerformToCompletion
	if applied {
		s.st.events = append(s.st.events, Event{ProjectID: projectID, SkillID: skillID, UserID: userID, Timestamp: ts})
	}

	points := 0
	explanation := "Skill event was not applied, the skill was already completed"
	if applied {
		points = sk.PointIncrement
		explanation = "Skill event was applied"
	}
	c.JSON(http.StatusOK, gin.H{
		"skillApplied": applied,
		"pointsEarned": points,
		"skillId":      skillID,
		"explanation":  explanation,
	})
}
