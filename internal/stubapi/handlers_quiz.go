package stubapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	QuizTypeQuiz   = "Quiz"
	QuizTypeSurvey = "Survey"

	QuestionSingleChoice   = "SingleChoice"
	QuestionMultipleChoice = "MultipleChoice"
	QuestionTextInput      = "TextInput"
	QuestionRating         = "Rating"
)

func (s *Server) handleSaveQuiz(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	quizID := c.Param("quizId")
	name := str(body, "name", "")
	if name == "" {
		fail(c, http.StatusBadRequest, "BadParam", "quiz name is required")
		return
	}
	quizType := str(body, "type", QuizTypeQuiz)
	if quizType != QuizTypeQuiz && quizType != QuizTypeSurvey {
		fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("unknown quiz type [%s]", quizType))
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for id, q := range s.st.quizzes {
		if id != quizID && q.Name == name {
			fail(c, http.StatusConflict, "ConstraintViolation", fmt.Sprintf("quiz with name [%s] already exists", name))
			return
		}
	}
	q, exists := s.st.quizzes[quizID]
	if !exists {
		q = &Quiz{QuizID: quizID, Type: quizType, Questions: []*Question{}}
		s.st.quizzes[quizID] = q
	} else if q.Type != quizType {
		fail(c, http.StatusBadRequest, "BadParam", "quiz type cannot change")
		return
	}
	q.Name = name
	q.Description = str(body, "description", q.Description)
	ok(c)
}

type answerBody struct {
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
}

type questionBody struct {
	Question     string       `json:"question"`
	QuestionType string       `json:"questionType"`
	Answers      []answerBody `json:"answers"`
}

func validateQuestion(quizType string, q questionBody) error {
	if q.Question == "" {
		return fmt.Errorf("question text is required")
	}
	correct := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	switch q.QuestionType {
	case QuestionSingleChoice, QuestionMultipleChoice:
		if len(q.Answers) < 2 {
			return fmt.Errorf("Must have at least 2 answers")
		}
		if quizType != QuizTypeQuiz {
			return nil
		}
		if q.QuestionType == QuestionSingleChoice && correct != 1 {
			return fmt.Errorf("SingleChoice question must have exactly 1 correct answer")
		}
		if q.QuestionType == QuestionMultipleChoice && correct < 2 {
			return fmt.Errorf("MultipleChoice question must have at least 2 correct answers")
		}
	case QuestionTextInput:
	case QuestionRating:
		if quizType != QuizTypeSurvey {
			return fmt.Errorf("Rating questions are only allowed in surveys")
		}
		if len(q.Answers) < 3 || len(q.Answers) > 10 {
			return fmt.Errorf("Rating question must have between 3 and 10 answers")
		}
	default:
		return fmt.Errorf("unknown question type [%s]", q.QuestionType)
	}
	return nil
}

func (s *Server) handleCreateQuestion(c *gin.Context) {
	var body questionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "BadParam", "invalid question body: "+err.Error())
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	quizID := c.Param("quizId")
	quiz, exists := s.st.quizzes[quizID]
	if !exists {
		fail(c, http.StatusNotFound, "QuizNotFound", fmt.Sprintf("quiz [%s] does not exist", quizID))
		return
	}
	if err := validateQuestion(quiz.Type, body); err != nil {
		fail(c, http.StatusBadRequest, "BadParam", err.Error())
		return
	}

	q := &Question{ID: s.st.id(), Question: body.Question, QuestionType: body.QuestionType}
	answers := body.Answers
	if body.QuestionType == QuestionTextInput && len(answers) == 0 {
		answers = []answerBody{{}}
	}
	for _, a := range answers {
		q.Answers = append(q.Answers, &Answer{ID: s.st.id(), Answer: a.Answer, IsCorrect: a.IsCorrect})
	}
	quiz.Questions = append(quiz.Questions, q)
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleListQuestions(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	quizID := c.Param("quizId")
	quiz, exists := s.st.quizzes[quizID]
	if !exists {
		fail(c, http.StatusNotFound, "QuizNotFound", fmt.Sprintf("quiz [%s] does not exist", quizID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizType": quiz.Type, "questions": quiz.Questions})
}

// slidesTarget resolves the owner of a slides request; kind is "skill" or
// "quiz". Must be called with the store lock held.
func (s *Server) slidesTarget(c *gin.Context, kind string) (string, bool) {
	if kind == "quiz" {
		quizID := c.Param("quizId")
		if _, exists := s.st.quizzes[quizID]; !exists {
			fail(c, http.StatusNotFound, "QuizNotFound", fmt.Sprintf("quiz [%s] does not exist", quizID))
			return "", false
		}
		return slidesKey(kind, quizID, ""), true
	}
	p, found := s.projectFor(c)
	if !found {
		return "", false
	}
	skillID := c.Param("skillId")
	if _, exists := s.st.skills[p.ProjectID][skillID]; !exists {
		fail(c, http.StatusNotFound, "SkillNotFound", fmt.Sprintf("skill [%s] does not exist", skillID))
		return "", false
	}
	return slidesKey(kind, p.ProjectID, skillID), true
}

func (s *Server) handleSaveSlides(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var content []byte
		fileName := ""
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				fail(c, http.StatusBadRequest, "BadParam", "unreadable upload: "+err.Error())
				return
			}
			content, err = io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				fail(c, http.StatusBadRequest, "BadParam", "unreadable upload: "+err.Error())
				return
			}
			fileName = fh.Filename
		}
		url := c.PostForm("url")
		if (content == nil) == (url == "") {
			fail(c, http.StatusBadRequest, "BadParam", "exactly one of file or url must be supplied")
			return
		}
		width := 0
		if w := c.PostForm("width"); w != "" {
			n, err := strconv.Atoi(w)
			if err != nil || n <= 0 {
				fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("invalid width [%s]", w))
				return
			}
			width = n
		}

		s.st.mu.Lock()
		defer s.st.mu.Unlock()
		key, found := s.slidesTarget(c, kind)
		if !found {
			return
		}
		slides := &Slides{URL: url, Width: width}
		if content != nil {
			id := newToken()
			s.st.attachments[id] = content
			slides.AttachmentID = id
			slides.FileName = fileName
			slides.URL = "/api/download/" + id
		}
		s.st.slides[key] = slides
		c.JSON(http.StatusOK, gin.H{"success": true, "url": slides.URL})
	}
}

func (s *Server) handleGetSlides(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.st.mu.Lock()
		defer s.st.mu.Unlock()
		key, found := s.slidesTarget(c, kind)
		if !found {
			return
		}
		slides, exists := s.st.slides[key]
		if !exists {
			c.JSON(http.StatusOK, Slides{})
			return
		}
		c.JSON(http.StatusOK, slides)
	}
}

func (s *Server) handleDownload(c *gin.Context) {
	s.st.mu.Lock()
	content, exists := s.st.attachments[c.Param("attachmentId")]
	s.st.mu.Unlock()
	if !exists {
		fail(c, http.StatusNotFound, "AttachmentNotFound", "attachment does not exist")
		return
	}
	c.Data(http.StatusOK, "application/pdf", content)
}

type runAnswer struct {
	ID           int    `json:"id"`
	AnswerOption string `json:"answerOption"`
}

type runQuestion struct {
	ID            int         `json:"id"`
	Question      string      `json:"question"`
	QuestionType  string      `json:"questionType"`
	AnswerOptions []runAnswer `json:"answerOptions"`
}

// handleGetQuizForRun returns the quiz without revealing correct answers.
func (s *Server) handleGetQuizForRun(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	quizID := c.Param("quizId")
	quiz, exists := s.st.quizzes[quizID]
	if !exists {
		fail(c, http.StatusNotFound, "QuizNotFound", fmt.Sprintf("quiz [%s] does not exist", quizID))
		return
	}
	questions := make([]runQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		rq := runQuestion{ID: q.ID, Question: q.Question, QuestionType: q.QuestionType, AnswerOptions: []runAnswer{}}
		for _, a := range q.Answers {
			rq.AnswerOptions = append(rq.AnswerOptions, runAnswer{ID: a.ID, AnswerOption: a.Answer})
		}
		questions = append(questions, rq)
	}
	c.JSON(http.StatusOK, gin.H{
		"quizId":    quiz.QuizID,
		"name":      quiz.Name,
		"quizType":  quiz.Type,
		"questions": questions,
	})
}

func (s *Server) handleStartAttempt(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	quizID := c.Param("quizId")
	quiz, exists := s.st.quizzes[quizID]
	if !exists {
		fail(c, http.StatusNotFound, "QuizNotFound", fmt.Sprintf("quiz [%s] does not exist", quizID))
		return
	}
	if len(quiz.Questions) == 0 {
		fail(c, http.StatusBadRequest, "BadParam", fmt.Sprintf("quiz [%s] has no questions", quizID))
		return
	}
	user := currentUser(c)
	for _, a := range s.st.attempts {
		if a.QuizID == quizID && a.User == user && !a.Completed {
			c.JSON(http.StatusOK, a)
			return
		}
	}
	a := &Attempt{ID: s.st.id(), QuizID: quizID, User: user, Selected: map[int]string{}, Started: time.Now()}
	s.st.attempts[a.ID] = a
	c.JSON(http.StatusOK, a)
}

// attemptFor loads the attempt in the path for the current user. Must be
// called with the store lock held.
func (s *Server) attemptFor(c *gin.Context) (*Attempt, *Quiz, bool) {
	attemptID, err := strconv.Atoi(c.Param("attemptId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "BadParam", "invalid attempt id")
		return nil, nil, false
	}
	a, exists := s.st.attempts[attemptID]
	if !exists || a.QuizID != c.Param("quizId") || a.User != currentUser(c) {
		fail(c, http.StatusNotFound, "AttemptNotFound", fmt.Sprintf("attempt [%d] does not exist", attemptID))
		return nil, nil, false
	}
	if a.Completed {
		fail(c, http.StatusBadRequest, "AttemptCompleted", fmt.Sprintf("attempt [%d] is already completed", attemptID))
		return nil, nil, false
	}
	return a, s.st.quizzes[a.QuizID], true
}

func (s *Server) handleAnswer(c *gin.Context) {
	body, valid := bindBody(c)
	if !valid {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	a, quiz, found := s.attemptFor(c)
	if !found {
		return
	}
	answerID, err := strconv.Atoi(c.Param("answerId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "BadParam", "invalid answer id")
		return
	}
	var question *Question
	for _, q := range quiz.Questions {
		for _, opt := range q.Answers {
			if opt.ID == answerID {
				question = q
			}
		}
	}
	if question == nil {
		fail(c, http.StatusNotFound, "AnswerNotFound", fmt.Sprintf("answer [%d] does not exist", answerID))
		return
	}

	selected := boolVal(body, "isSelected", true)
	if !selected {
		delete(a.Selected, answerID)
		ok(c)
		return
	}
	if question.QuestionType == QuestionSingleChoice || question.QuestionType == QuestionRating {
		for _, opt := range question.Answers {
			delete(a.Selected, opt.ID)
		}
	}
	a.Selected[answerID] = str(body, "answerText", "")
	ok(c)
}

func (s *Server) handleCompleteAttempt(c *gin.Context) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	a, quiz, found := s.attemptFor(c)
	if !found {
		return
	}

	wrong := 0
	needsGrading := false
	for _, q := range quiz.Questions {
		if q.QuestionType == QuestionTextInput {
			if a.Selected[q.Answers[0].ID] == "" {
				wrong++
			} else if quiz.Type == QuizTypeQuiz {
				needsGrading = true
			}
			continue
		}
		if quiz.Type == QuizTypeSurvey {
			answered := false
			for _, opt := range q.Answers {
				if _, sel := a.Selected[opt.ID]; sel {
					answered = true
				}
			}
			if !answered {
				wrong++
			}
			continue
		}
		for _, opt := range q.Answers {
			if _, sel := a.Selected[opt.ID]; sel != opt.IsCorrect {
				wrong++
				break
			}
		}
	}

	a.Completed = true
	a.Passed = wrong == 0 && !needsGrading
	c.JSON(http.StatusOK, gin.H{
		"passed":                a.Passed,
		"needsGrading":          needsGrading,
		"numQuestionsGotWrong":  wrong,
		"numCorrect":            len(quiz.Questions) - wrong,
		"associatedSkillResult": nil,
	})
}
