package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/nurseprep-api/internal/client"
	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// QuestionProvider определяет интерфейс поставщика вопросов,
// необходимый SessionService
type QuestionProvider interface {
	Initial() *entity.Question
	NextOrFallback() *entity.Question
}

// ExplanationSource определяет интерфейс чтения готовых объяснений
type ExplanationSource interface {
	Peek(sessionID string) (string, error)
}

// AnswerNotifier определяет интерфейс исходящего вебхука событий ответов
type AnswerNotifier interface {
	Notify(ctx context.Context, n client.AnswerNotification) error
}

// SessionConfig содержит настройки конечного автомата сессии
type SessionConfig struct {
	// Интервал опроса кеша объяснений
	PollInterval time.Duration
	// Потолок попыток опроса; по достижении показывается заглушка
	MaxPollAttempts int
	// Кулдаун кнопки "Next" после показа результата
	NextCooldown time.Duration
	// TTL неактивной сессии в реестре
	SessionTTL time.Duration
	// Текст заглушки при достижении потолка опроса
	PendingExplanation string
}

// SessionConfigFromTest собирает SessionConfig из секции конфигурации
func SessionConfigFromTest(cfg config.TestConfig) SessionConfig {
	return SessionConfig{
		PollInterval:       cfg.PollInterval(),
		MaxPollAttempts:    cfg.MaxPollAttempts,
		NextCooldown:       cfg.NextCooldown(),
		SessionTTL:         cfg.SessionTTL(),
		PendingExplanation: cfg.PendingExplanation,
	}
}

// SessionSnapshot — согласованная копия состояния сессии для отдачи клиенту
type SessionSnapshot struct {
	ID              string
	Phase           entity.SessionPhase
	Question        *entity.Question
	SelectedAnswer  string
	Explanation     string
	TotalQuestions  int
	CorrectAnswers  int
	Score           int
	StartTime       time.Time
	NextAvailableAt time.Time
}

// SubmitOutcome — результат отправки ответа
type SubmitOutcome struct {
	IsCorrect      bool
	CorrectAnswer  string
	TotalQuestions int
	CorrectAnswers int
	Score          int
}

// SessionService реализует конечный автомат тестовой сессии:
// Answering → Submitting → ShowingResult → (Advancing | Finishing).
// Сессии живут только в памяти; при завершении сохраняется сводка.
// Защита от повторного входа — фазы под мьютексом сессии, а не булевы
// флаги: сервис работает в многопоточной среде.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*entity.TestSession

	resultRepo   repository.ResultRepository
	userRepo     repository.UserRepository
	questions    QuestionProvider
	explanations ExplanationSource
	notifier     AnswerNotifier

	cfg     SessionConfig
	rootCtx context.Context
}

// NewSessionService создает сервис тестовых сессий. rootCtx управляет
// жизненным циклом всех фоновых опросов: его отмена при остановке
// процесса гасит каждый активный опрос.
func NewSessionService(
	rootCtx context.Context,
	resultRepo repository.ResultRepository,
	userRepo repository.UserRepository,
	questions QuestionProvider,
	explanations ExplanationSource,
	notifier AnswerNotifier,
	cfg SessionConfig,
) *SessionService {
	return &SessionService{
		sessions:     make(map[string]*entity.TestSession),
		resultRepo:   resultRepo,
		userRepo:     userRepo,
		questions:    questions,
		explanations: explanations,
		notifier:     notifier,
		cfg:          cfg,
		rootCtx:      rootCtx,
	}
}

// Start создает новую сессию со стартовым вопросом в фазе Answering
func (s *SessionService) Start(userID uint, email string) *entity.TestSession {
	session := entity.NewTestSession(uuid.NewString(), userID, email, s.questions.Initial(), time.Now())

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Printf("[SessionService] Сессия %s начата для пользователя #%d", session.ID, userID)
	return session
}

// Snapshot возвращает согласованную копию состояния сессии
func (s *SessionService) Snapshot(sessionID string) (*SessionSnapshot, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()
	return &SessionSnapshot{
		ID:              session.ID,
		Phase:           session.Phase,
		Question:        session.CurrentQuestion,
		SelectedAnswer:  session.SelectedAnswer,
		Explanation:     session.Explanation,
		TotalQuestions:  session.TotalQuestions,
		CorrectAnswers:  session.CorrectAnswers,
		Score:           session.Score(),
		StartTime:       session.StartTime,
		NextAvailableAt: session.NextAvailableAt,
	}, nil
}

// Submit обрабатывает отправку ответа. Правильность вычисляется локально
// сравнением с известным правильным вариантом; внешний вебхук уведомляется
// асинхронно, его сбой логируется и не влияет на переход.
func (s *SessionService) Submit(sessionID, selected string) (*SubmitOutcome, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Mu.Lock()
	if session.Phase != entity.PhaseAnswering {
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: submit is not allowed in phase %q", apperrors.ErrConflict, session.Phase)
	}
	question := session.CurrentQuestion
	if selected == "" || question == nil || !question.IsValidOption(selected) {
		// Без выбранного варианта отправка — no-op: состояние не меняется,
		// сетевые вызовы не выполняются
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: a selected option is required", apperrors.ErrValidation)
	}
	session.Phase = entity.PhaseSubmitting
	session.SelectedAnswer = selected
	correct := question.IsCorrect(selected)
	session.Mu.Unlock()

	event := &entity.AnswerEvent{
		SessionID:      sessionID,
		UserID:         session.UserID,
		QuestionID:     question.QuestionID,
		QuestionText:   question.Text,
		SelectedAnswer: selected,
		CorrectAnswer:  question.CorrectAnswer,
		IsCorrect:      correct,
	}
	if err := s.resultRepo.SaveAnswerEvent(event); err != nil {
		// Деградация: без сохраненного ответа генератор объяснений
		// не сможет построить текст, опрос завершится заглушкой
		log.Printf("[SessionService] Ошибка сохранения ответа сессии %s: %v", sessionID, err)
	}

	go s.notifyAnswer(session, question, selected, correct)

	session.Mu.Lock()
	session.TotalQuestions++
	if correct {
		session.CorrectAnswers++
	}
	now := time.Now()
	session.Phase = entity.PhaseShowingResult
	session.NextAvailableAt = now.Add(s.cfg.NextCooldown)
	session.LastActivity = now

	session.CancelPoll()
	pollCtx, cancel := context.WithCancel(s.rootCtx)
	session.PollCancel = cancel

	outcome := &SubmitOutcome{
		IsCorrect:      correct,
		CorrectAnswer:  question.CorrectAnswer,
		TotalQuestions: session.TotalQuestions,
		CorrectAnswers: session.CorrectAnswers,
		Score:          session.Score(),
	}
	session.Mu.Unlock()

	go s.pollExplanation(pollCtx, session)

	return outcome, nil
}

// Advance переводит сессию к следующему вопросу. Отклоняется, пока не
// истек кулдаун после показа результата и пока идет другой переход.
// Протокол — одиночный запрос с подменным вопросом при сбое: учащийся
// никогда не остается заблокированным.
func (s *SessionService) Advance(sessionID string) (*entity.Question, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Mu.Lock()
	if session.Phase != entity.PhaseShowingResult {
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: advance is not allowed in phase %q", apperrors.ErrConflict, session.Phase)
	}
	if time.Now().Before(session.NextAvailableAt) {
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: next question is still cooling down", apperrors.ErrConflict)
	}
	session.Phase = entity.PhaseAdvancing
	// Переход к следующему вопросу гасит оставшийся опрос объяснения
	session.CancelPoll()
	session.SelectedAnswer = ""
	session.Explanation = ""
	session.Mu.Unlock()

	question := s.questions.NextOrFallback()

	session.Mu.Lock()
	session.CurrentQuestion = question
	session.Phase = entity.PhaseAnswering
	session.LastActivity = time.Now()
	session.Mu.Unlock()

	return question, nil
}

// Finish завершает сессию: сохраняет сводку, обновляет пожизненные счетчики
// профиля и удаляет сессию из реестра. Сбой персистентности логируется, но
// завершение все равно успешно — результат best-effort, навигация не
// блокируется.
func (s *SessionService) Finish(sessionID string) (*entity.TestResult, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Mu.Lock()
	switch session.Phase {
	case entity.PhaseFinishing:
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: finish is already in progress", apperrors.ErrConflict)
	case entity.PhaseSubmitting, entity.PhaseAdvancing:
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: another transition is in progress", apperrors.ErrConflict)
	}
	if session.TotalQuestions == 0 {
		// Завершение без единого ответа — no-op: сводка не создается
		session.Mu.Unlock()
		return nil, fmt.Errorf("%w: at least one answered question is required", apperrors.ErrValidation)
	}
	session.Phase = entity.PhaseFinishing
	session.CancelPoll()

	total := session.TotalQuestions
	correct := session.CorrectAnswers
	score := session.Score()
	start := session.StartTime
	userID := session.UserID
	email := session.UserEmail
	session.Mu.Unlock()

	result := &entity.TestResult{
		UserID:            userID,
		UserEmail:         email,
		QuestionsAnswered: total,
		CorrectAnswers:    correct,
		PercentageScore:   score,
		TimeSpentSec:      int(time.Since(start).Seconds()),
		TestDate:          time.Now(),
	}

	if err := s.resultRepo.SaveResult(result); err != nil {
		log.Printf("[SessionService] Ошибка сохранения результата сессии %s: %v", sessionID, err)
	}
	if err := s.userRepo.ApplyTestOutcome(userID, total, score); err != nil {
		log.Printf("[SessionService] Ошибка обновления счетчиков пользователя #%d: %v", userID, err)
	}

	s.remove(sessionID)
	log.Printf("[SessionService] Сессия %s завершена: %d/%d (%d%%)", sessionID, correct, total, score)
	return result, nil
}

// RunCleanup периодически удаляет неактивные сессии из реестра.
// Завершается при отмене ctx.
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireIdleSessions()
		case <-ctx.Done():
			log.Println("[SessionService] Завершение работы горутины очистки сессий")
			return
		}
	}
}

// pollExplanation опрашивает кеш объяснений с фиксированным интервалом до
// потолка попыток. Значение появляется либо после фоновой генерации, либо
// после записи вебхука. Отмена ctx (advance/finish/остановка процесса)
// гасит опрос — таймер не переживает породившую его сессию.
func (s *SessionService) pollExplanation(ctx context.Context, session *entity.TestSession) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ticker.C:
			attempts++

			val, err := s.explanations.Peek(session.ID)
			if err != nil {
				log.Printf("[SessionService] Ошибка опроса объяснения для сессии %s: %v", session.ID, err)
			}
			if val != "" {
				session.Mu.Lock()
				if session.Phase == entity.PhaseShowingResult {
					session.Explanation = val
				}
				session.Mu.Unlock()
				return
			}

			if attempts >= s.cfg.MaxPollAttempts {
				session.Mu.Lock()
				if session.Phase == entity.PhaseShowingResult && session.Explanation == "" {
					session.Explanation = s.cfg.PendingExplanation
				}
				session.Mu.Unlock()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// notifyAnswer отправляет событие ответа во внешний вебхук.
// Не-2xx и сетевые сбои логируются и не повторяются.
func (s *SessionService) notifyAnswer(session *entity.TestSession, question *entity.Question, selected string, correct bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := s.notifier.Notify(ctx, client.AnswerNotification{
		SessionID:      session.ID,
		UserEmail:      session.UserEmail,
		QuestionID:     question.QuestionID,
		SelectedAnswer: selected,
		CorrectAnswer:  question.CorrectAnswer,
		IsCorrect:      correct,
		Difficulty:     question.Difficulty,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("[SessionService] Ошибка отправки события ответа для сессии %s: %v", session.ID, err)
	}
}

func (s *SessionService) get(sessionID string) (*entity.TestSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrSessionExpired
	}
	return session, nil
}

func (s *SessionService) remove(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *SessionService) expireIdleSessions() {
	cutoff := time.Now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	var expired []*entity.TestSession
	for id, session := range s.sessions {
		session.Mu.Lock()
		idle := session.LastActivity.Before(cutoff)
		session.Mu.Unlock()
		if idle {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Mu.Lock()
		session.CancelPoll()
		session.Mu.Unlock()
		log.Printf("[SessionService] Сессия %s удалена по неактивности", session.ID)
	}
}
