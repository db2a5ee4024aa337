package fixtures

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ErrTooFewAnswers is returned before any request when a choice question
// has fewer than two answers.
var ErrTooFewAnswers = errors.New("Must have at least 2 answers")

// Question types.
const (
	SingleChoice   = "SingleChoice"
	MultipleChoice = "MultipleChoice"
	TextInput      = "TextInput"
	Rating         = "Rating"
)

// Answer is one answer option of a question definition.
type Answer struct {
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a question definition as stored by the backend.
type Question struct {
	ID           int    `json:"id"`
	Question     string `json:"question"`
	QuestionType string `json:"questionType"`
	Answers      []struct {
		ID        int    `json:"id"`
		Answer    string `json:"answer"`
		IsCorrect bool   `json:"isCorrect"`
	} `json:"answers"`
}

// CreateQuizDef creates quiz{n}.
func (b *Builder) CreateQuizDef(ctx context.Context, n int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"quizId":      QuizID(n),
		"name":        QuizName(n),
		"type":        "Quiz",
		"description": quizDescription(n),
	}, overrides)
	return b.post(ctx, "create quiz", "/admin/quiz-definitions/"+idFrom(body, "quizId", QuizID(n)), body)
}

// CreateSurveyDef creates quiz{n} as a survey.
func (b *Builder) CreateSurveyDef(ctx context.Context, n int, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"quizId":      QuizID(n),
		"name":        SurveyName(n),
		"type":        "Survey",
		"description": surveyDescription(n),
	}, overrides)
	return b.post(ctx, "create survey", "/admin/quiz-definitions/"+idFrom(body, "quizId", QuizID(n)), body)
}

// CreateQuizQuestionDef adds single-choice question n with three answers,
// the first correct.
func (b *Builder) CreateQuizQuestionDef(ctx context.Context, quiz, n int, overrides Overrides) error {
	return b.createQuestion(ctx, quiz, n, SingleChoice, []Answer{
		{Answer: "First Answer", IsCorrect: true},
		{Answer: "Second Answer"},
		{Answer: "Third Answer"},
	}, overrides)
}

// CreateQuizMultipleChoiceQuestionDef adds multiple-choice question n with
// four answers, the first and third correct.
func (b *Builder) CreateQuizMultipleChoiceQuestionDef(ctx context.Context, quiz, n int, overrides Overrides) error {
	return b.createQuestion(ctx, quiz, n, MultipleChoice, []Answer{
		{Answer: "First Answer", IsCorrect: true},
		{Answer: "Second Answer"},
		{Answer: "Third Answer", IsCorrect: true},
		{Answer: "Fourth Answer"},
	}, overrides)
}

// CreateSurveyMultipleChoiceQuestionDef adds multiple-choice question n
// with four answers and no correct ones.
func (b *Builder) CreateSurveyMultipleChoiceQuestionDef(ctx context.Context, quiz, n int, overrides Overrides) error {
	return b.createQuestion(ctx, quiz, n, MultipleChoice, []Answer{
		{Answer: "First Answer"},
		{Answer: "Second Answer"},
		{Answer: "Third Answer"},
		{Answer: "Fourth Answer"},
	}, overrides)
}

// CreateTextInputQuestionDef adds free-text question n.
func (b *Builder) CreateTextInputQuestionDef(ctx context.Context, quiz, n int, overrides Overrides) error {
	return b.createQuestion(ctx, quiz, n, TextInput, []Answer{}, overrides)
}

// CreateRatingQuestionDef adds a five-star rating question n. Surveys only.
func (b *Builder) CreateRatingQuestionDef(ctx context.Context, quiz, n int, overrides Overrides) error {
	answers := make([]Answer, 0, 5)
	for i := 1; i <= 5; i++ {
		answers = append(answers, Answer{Answer: strconv.Itoa(i)})
	}
	return b.createQuestion(ctx, quiz, n, Rating, answers, overrides)
}

func (b *Builder) createQuestion(ctx context.Context, quiz, n int, questionType string, answers []Answer, overrides Overrides) error {
	body := merge(map[string]interface{}{
		"question":     QuestionText(n),
		"questionType": questionType,
		"answers":      answers,
	}, overrides)

	qt, _ := body["questionType"].(string)
	if qt == SingleChoice || qt == MultipleChoice {
		if countAnswers(body["answers"]) < 2 {
			return fmt.Errorf("create question %d of %s: %w", n, QuizID(quiz), ErrTooFewAnswers)
		}
	}
	return b.post(ctx, "create question", fmt.Sprintf("/admin/quiz-definitions/%s/create-question", QuizID(quiz)), body)
}

func countAnswers(v interface{}) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return 0
	}
	return rv.Len()
}

// GetQuestions lists the question definitions of quiz{n}.
func (b *Builder) GetQuestions(ctx context.Context, quiz int) ([]Question, error) {
	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := b.client.Get(ctx, fmt.Sprintf("/admin/quiz-definitions/%s/questions", QuizID(quiz)), &out); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	return out.Questions, nil
}

// CreateQuizSkill creates skill k of subj{s} completed by passing quiz{q}.
func (b *Builder) CreateQuizSkill(ctx context.Context, p, s, k, quiz int, overrides Overrides) error {
	return b.CreateSkill(ctx, p, s, k, merge(map[string]interface{}{
		"selfReportingType":      "Quiz",
		"quizId":                 QuizID(quiz),
		"numPerformToCompletion": 1,
	}, overrides))
}
