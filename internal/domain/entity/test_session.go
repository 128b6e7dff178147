package entity

import (
	"math"
	"sync"
	"time"
)

// SessionPhase — фаза конечного автомата тестовой сессии
type SessionPhase string

const (
	PhaseAnswering     SessionPhase = "answering"
	PhaseSubmitting    SessionPhase = "submitting"
	PhaseShowingResult SessionPhase = "showing_result"
	PhaseAdvancing     SessionPhase = "advancing"
	PhaseFinishing     SessionPhase = "finishing"
)

// TestSession хранит состояние одной активной тестовой сессии. Живет только
// в памяти процесса: при завершении теста сохраняется итоговая сводка
// (TestResult), сама сессия структурно не персистится.
//
// Все поля защищены Mu. Фазы взаимно исключают друг друга: повторный
// submit/advance/finish отклоняется, пока предыдущий переход не завершен.
type TestSession struct {
	ID        string
	UserID    uint
	UserEmail string

	Phase           SessionPhase
	CurrentQuestion *Question
	SelectedAnswer  string
	Explanation     string

	TotalQuestions int
	CorrectAnswers int

	StartTime time.Time
	// Кнопка "Next" заблокирована до этого момента после показа результата
	NextAvailableAt time.Time
	LastActivity    time.Time

	// Отмена активного опроса объяснения; nil, если опрос не запущен
	PollCancel func()

	Mu sync.Mutex
}

// NewTestSession создает сессию в фазе Answering с первым вопросом
func NewTestSession(id string, userID uint, email string, first *Question, now time.Time) *TestSession {
	return &TestSession{
		ID:              id,
		UserID:          userID,
		UserEmail:       email,
		Phase:           PhaseAnswering,
		CurrentQuestion: first,
		StartTime:       now,
		LastActivity:    now,
	}
}

// Score возвращает текущий процент правильных ответов (0 при пустой сессии)
func (s *TestSession) Score() int {
	if s.TotalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100))
}

// CancelPoll отменяет активный опрос объяснения, если он запущен.
// Вызывается под Mu.
func (s *TestSession) CancelPoll() {
	if s.PollCancel != nil {
		s.PollCancel()
		s.PollCancel = nil
	}
}
