// Package quiz takes quizzes and surveys over the API, the way a learner
// would, so suites can assert on results without clicking through every
// question.
package quiz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/client"
	"github.com/skilltree/skilltree-e2e/internal/fixtures"
)

// Selection is the answer given to one question. SelectedIndex holds
// 0-based answer option positions; Text answers a text-input question.
type Selection struct {
	SelectedIndex []int
	Text          string
}

// Run describes one attempt.
type Run struct {
	QuizNum int
	// User runs the attempt; empty keeps the client's current session.
	User     string
	Password string
	// Answers are applied to questions in order; questions beyond the
	// list are left unanswered.
	Answers []Selection
	// NoComplete leaves the attempt open after answering.
	NoComplete bool
}

// Result is the graded outcome of a completed attempt.
type Result struct {
	AttemptID            int  `json:"-"`
	Passed               bool `json:"passed"`
	NeedsGrading         bool `json:"needsGrading"`
	NumQuestionsGotWrong int  `json:"numQuestionsGotWrong"`
	NumCorrect           int  `json:"numCorrect"`
	Completed            bool `json:"-"`
}

type answerOption struct {
	ID           int    `json:"id"`
	AnswerOption string `json:"answerOption"`
}

type question struct {
	ID            int            `json:"id"`
	Question      string         `json:"question"`
	QuestionType  string         `json:"questionType"`
	AnswerOptions []answerOption `json:"answerOptions"`
}

type quizInfo struct {
	QuizID    string     `json:"quizId"`
	QuizType  string     `json:"quizType"`
	Questions []question `json:"questions"`
}

// Runner takes quizzes through a fixture client.
type Runner struct {
	client *client.Client
	log    zerolog.Logger
}

func NewRunner(c *client.Client, log zerolog.Logger) *Runner {
	return &Runner{client: c, log: log.With().Str("component", "quiz").Logger()}
}

// Run starts (or resumes) an attempt, answers each question per
// run.Answers and completes it unless run.NoComplete is set.
func (r *Runner) Run(ctx context.Context, run Run) (*Result, error) {
	quizID := fixtures.QuizID(run.QuizNum)
	if run.User != "" && run.User != r.client.CurrentUser() {
		if err := r.client.Login(ctx, run.User, run.Password); err != nil {
			return nil, fmt.Errorf("run %s as %s: %w", quizID, run.User, err)
		}
	}

	var info quizInfo
	if err := r.client.Get(ctx, "/api/quizzes/"+quizID, &info); err != nil {
		return nil, fmt.Errorf("load %s: %w", quizID, err)
	}
	if len(run.Answers) > len(info.Questions) {
		return nil, fmt.Errorf("run %s: %d answers given for %d questions", quizID, len(run.Answers), len(info.Questions))
	}

	var attempt struct {
		ID int `json:"id"`
	}
	if err := r.client.Post(ctx, fmt.Sprintf("/api/quizzes/%s/attempt", quizID), nil, &attempt); err != nil {
		return nil, fmt.Errorf("start attempt on %s: %w", quizID, err)
	}
	base := fmt.Sprintf("/api/quizzes/%s/attempt/%d", quizID, attempt.ID)

	for qi, sel := range run.Answers {
		q := info.Questions[qi]
		if err := r.answer(ctx, base, q, qi, sel); err != nil {
			return nil, fmt.Errorf("%s question %d: %w", quizID, qi+1, err)
		}
	}

	if run.NoComplete {
		return &Result{AttemptID: attempt.ID}, nil
	}
	var res Result
	if err := r.client.Post(ctx, base+"/complete", nil, &res); err != nil {
		return nil, fmt.Errorf("complete attempt on %s: %w", quizID, err)
	}
	res.AttemptID = attempt.ID
	res.Completed = true
	r.log.Info().
		Str("quiz", quizID).
		Str("user", r.client.CurrentUser()).
		Bool("passed", res.Passed).
		Int("wrong", res.NumQuestionsGotWrong).
		Msg("quiz attempt completed")
	return &res, nil
}

func (r *Runner) answer(ctx context.Context, base string, q question, qi int, sel Selection) error {
	if q.QuestionType == fixtures.TextInput {
		if len(q.AnswerOptions) == 0 {
			return fmt.Errorf("text input question has no answer slot")
		}
		if sel.Text == "" {
			return nil
		}
		return r.client.Post(ctx, fmt.Sprintf("%s/answers/%d", base, q.AnswerOptions[0].ID),
			map[string]interface{}{"isSelected": true, "answerText": sel.Text}, nil)
	}

	for _, idx := range sel.SelectedIndex {
		if idx < 0 || idx >= len(q.AnswerOptions) {
			return fmt.Errorf("answer index %d out of range (%d options)", idx, len(q.AnswerOptions))
		}
		if err := r.client.Post(ctx, fmt.Sprintf("%s/answers/%d", base, q.AnswerOptions[idx].ID),
			map[string]interface{}{"isSelected": true}, nil); err != nil {
			return err
		}
	}
	return nil
}
