package dto

import (
	"time"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/handler/helper"
	"github.com/yourusername/nurseprep-api/internal/service"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// Правильный ответ в DTO не включается: клиент узнает его только после
// отправки своего ответа.
type QuestionResponse struct {
	QuestionID string                  `json:"question_id"`
	Text       string                  `json:"question_text"`
	Options    []helper.QuestionOption `json:"options"`
	Difficulty string                  `json:"difficulty,omitempty"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) *QuestionResponse {
	if q == nil {
		return nil
	}
	return &QuestionResponse{
		QuestionID: q.QuestionID,
		Text:       q.Text,
		Options:    helper.ConvertOptionsToObjects(q),
		Difficulty: q.Difficulty,
	}
}

// SessionResponse представляет состояние тестовой сессии для клиента
type SessionResponse struct {
	SessionID       string            `json:"session_id"`
	Phase           string            `json:"phase"`
	Question        *QuestionResponse `json:"question"`
	SelectedAnswer  string            `json:"selected_answer,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	TotalQuestions  int               `json:"total_questions"`
	CorrectAnswers  int               `json:"correct_answers"`
	Score           int               `json:"score"`
	StartTime       time.Time         `json:"start_time"`
	NextAvailableAt time.Time         `json:"next_available_at,omitempty"`
}

// NewSessionResponse создает DTO состояния сессии
func NewSessionResponse(s *service.SessionSnapshot) *SessionResponse {
	return &SessionResponse{
		SessionID:       s.ID,
		Phase:           string(s.Phase),
		Question:        NewQuestionResponse(s.Question),
		SelectedAnswer:  s.SelectedAnswer,
		Explanation:     s.Explanation,
		TotalQuestions:  s.TotalQuestions,
		CorrectAnswers:  s.CorrectAnswers,
		Score:           s.Score,
		StartTime:       s.StartTime,
		NextAvailableAt: s.NextAvailableAt,
	}
}

// SubmitResponse представляет результат отправки ответа. Правильный ответ
// раскрывается здесь — после того как выбор уже зафиксирован.
type SubmitResponse struct {
	IsCorrect      bool   `json:"is_correct"`
	CorrectAnswer  string `json:"correct_answer"`
	TotalQuestions int    `json:"total_questions"`
	CorrectAnswers int    `json:"correct_answers"`
	Score          int    `json:"score"`
}

// NewSubmitResponse создает DTO результата отправки ответа
func NewSubmitResponse(o *service.SubmitOutcome) *SubmitResponse {
	return &SubmitResponse{
		IsCorrect:      o.IsCorrect,
		CorrectAnswer:  o.CorrectAnswer,
		TotalQuestions: o.TotalQuestions,
		CorrectAnswers: o.CorrectAnswers,
		Score:          o.Score,
	}
}

// TestResultResponse представляет сводку завершенного теста
type TestResultResponse struct {
	ID                uint      `json:"id"`
	QuestionsAnswered int       `json:"questions_answered"`
	CorrectAnswers    int       `json:"correct_answers"`
	PercentageScore   int       `json:"percentage_score"`
	TimeSpentSec      int       `json:"time_spent_sec"`
	TestDate          time.Time `json:"test_date"`
}

// NewTestResultResponse создает DTO сводки теста
func NewTestResultResponse(r *entity.TestResult) *TestResultResponse {
	return &TestResultResponse{
		ID:                r.ID,
		QuestionsAnswered: r.QuestionsAnswered,
		CorrectAnswers:    r.CorrectAnswers,
		PercentageScore:   r.PercentageScore,
		TimeSpentSec:      r.TimeSpentSec,
		TestDate:          r.TestDate,
	}
}

// NewListTestResultResponse создает DTO списка сводок
func NewListTestResultResponse(results []entity.TestResult) []*TestResultResponse {
	out := make([]*TestResultResponse, 0, len(results))
	for i := range results {
		out = append(out, NewTestResultResponse(&results[i]))
	}
	return out
}
