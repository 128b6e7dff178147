package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nurseprep-api/internal/client"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// ============================================================================
// Моки для сервисов тестовых сессий
// Переиспользуются остальными тестами пакета
// ============================================================================

// MockResultRepository реализует repository.ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) SaveResult(result *entity.TestResult) error {
	args := m.Called(result)
	return args.Error(0)
}

func (m *MockResultRepository) GetUserResults(userID uint, limit, offset int) ([]entity.TestResult, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TestResult), args.Error(1)
}

func (m *MockResultRepository) SaveAnswerEvent(event *entity.AnswerEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockResultRepository) GetSessionAnswers(sessionID string) ([]entity.AnswerEvent, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AnswerEvent), args.Error(1)
}

func (m *MockResultRepository) GetLatestSessionAnswer(sessionID string) (*entity.AnswerEvent, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AnswerEvent), args.Error(1)
}

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoogleSub(sub string) (*entity.User, error) {
	args := m.Called(sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) ApplyTestOutcome(userID uint, questionsAnswered int, percentageScore int) error {
	args := m.Called(userID, questionsAnswered, percentageScore)
	return args.Error(0)
}

// MockQuestionProvider реализует QuestionProvider
type MockQuestionProvider struct {
	mock.Mock
}

func (m *MockQuestionProvider) Initial() *entity.Question {
	args := m.Called()
	return args.Get(0).(*entity.Question)
}

func (m *MockQuestionProvider) NextOrFallback() *entity.Question {
	args := m.Called()
	return args.Get(0).(*entity.Question)
}

// MockExplanationSource реализует ExplanationSource
type MockExplanationSource struct {
	mock.Mock
}

func (m *MockExplanationSource) Peek(sessionID string) (string, error) {
	args := m.Called(sessionID)
	return args.String(0), args.Error(1)
}

// MockAnswerNotifier реализует AnswerNotifier
type MockAnswerNotifier struct {
	mock.Mock
}

func (m *MockAnswerNotifier) Notify(ctx context.Context, n client.AnswerNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// ============================================================================
// Хелперы
// ============================================================================

func sampleQuestion(id string) *entity.Question {
	return &entity.Question{
		QuestionID:    id,
		Text:          "Which structure is the primary pacemaker of the heart?",
		OptionA:       "AV node",
		OptionB:       "SA node",
		OptionC:       "Bundle of His",
		OptionD:       "Purkinje fibers",
		CorrectAnswer: "B",
		Difficulty:    "easy",
	}
}

type sessionServiceMocks struct {
	resultRepo   *MockResultRepository
	userRepo     *MockUserRepository
	questions    *MockQuestionProvider
	explanations *MockExplanationSource
	notifier     *MockAnswerNotifier
}

func createTestSessionService(t *testing.T, cfg SessionConfig) (*SessionService, *sessionServiceMocks) {
	t.Helper()

	mocks := &sessionServiceMocks{
		resultRepo:   new(MockResultRepository),
		userRepo:     new(MockUserRepository),
		questions:    new(MockQuestionProvider),
		explanations: new(MockExplanationSource),
		notifier:     new(MockAnswerNotifier),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := NewSessionService(ctx, mocks.resultRepo, mocks.userRepo, mocks.questions, mocks.explanations, mocks.notifier, cfg)
	return svc, mocks
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		PollInterval:       10 * time.Millisecond,
		MaxPollAttempts:    3,
		NextCooldown:       0,
		SessionTTL:         time.Hour,
		PendingExplanation: "AI explanation is being generated. Please wait a moment.",
	}
}

// ============================================================================
// Тесты конечного автомата сессии
// ============================================================================

func TestSessionService_Start(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-initial"))

	// Act
	session := svc.Start(1, "nurse@example.com")

	// Assert
	require.NotEmpty(t, session.ID, "Сессия должна получить идентификатор")
	snapshot, err := svc.Snapshot(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseAnswering, snapshot.Phase)
	assert.Equal(t, "q-initial", snapshot.Question.QuestionID)
	assert.Equal(t, 0, snapshot.TotalQuestions)
}

func TestSessionService_Snapshot_UnknownSession(t *testing.T) {
	// Arrange
	svc, _ := createTestSessionService(t, defaultSessionConfig())

	// Act
	_, err := svc.Snapshot("missing")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestSessionService_Submit_CorrectAnswer(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.AnythingOfType("*entity.AnswerEvent")).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.AnythingOfType("client.AnswerNotification")).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.AnythingOfType("string")).Return("", nil).Maybe()

	session := svc.Start(1, "nurse@example.com")

	// Act
	outcome, err := svc.Submit(session.ID, "B")

	// Assert
	require.NoError(t, err)
	assert.True(t, outcome.IsCorrect)
	assert.Equal(t, "B", outcome.CorrectAnswer, "Правильный ответ раскрывается после отправки")
	assert.Equal(t, 1, outcome.TotalQuestions)
	assert.Equal(t, 1, outcome.CorrectAnswers)
	assert.Equal(t, 100, outcome.Score)

	snapshot, err := svc.Snapshot(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseShowingResult, snapshot.Phase)
	assert.Equal(t, "B", snapshot.SelectedAnswer)
}

func TestSessionService_Submit_IncorrectAnswer(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil).Maybe()

	session := svc.Start(1, "nurse@example.com")

	// Act
	outcome, err := svc.Submit(session.ID, "A")

	// Assert
	require.NoError(t, err)
	assert.False(t, outcome.IsCorrect)
	assert.Equal(t, 1, outcome.TotalQuestions)
	assert.Equal(t, 0, outcome.CorrectAnswers)
	assert.Equal(t, 0, outcome.Score)
}

func TestSessionService_Submit_WithoutSelection_IsNoOp(t *testing.T) {
	// Arrange: отправка без выбранного варианта не меняет состояние
	// и не выполняет сетевых вызовов
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))

	session := svc.Start(1, "nurse@example.com")

	// Act
	_, err := svc.Submit(session.ID, "")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	snapshot, snapErr := svc.Snapshot(session.ID)
	require.NoError(t, snapErr)
	assert.Equal(t, entity.PhaseAnswering, snapshot.Phase, "Фаза не должна измениться")
	assert.Equal(t, 0, snapshot.TotalQuestions, "Счетчики не должны измениться")
	mocks.resultRepo.AssertNotCalled(t, "SaveAnswerEvent", mock.Anything)
	mocks.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSessionService_Submit_InvalidOption(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))

	session := svc.Start(1, "nurse@example.com")

	// Act
	_, err := svc.Submit(session.ID, "Z")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSessionService_Submit_DoubleSubmit_Rejected(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil).Maybe()

	session := svc.Start(1, "nurse@example.com")
	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Act: повторная отправка в фазе ShowingResult
	_, err = svc.Submit(session.ID, "A")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	snapshot, snapErr := svc.Snapshot(session.ID)
	require.NoError(t, snapErr)
	assert.Equal(t, 1, snapshot.TotalQuestions, "Повторная отправка не должна менять счетчики")
}

func TestSessionService_Advance_DuringCooldown_Rejected(t *testing.T) {
	// Arrange: кулдаун еще не истек
	cfg := defaultSessionConfig()
	cfg.NextCooldown = time.Hour
	svc, mocks := createTestSessionService(t, cfg)
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil).Maybe()

	session := svc.Start(1, "nurse@example.com")
	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Act
	_, err = svc.Advance(session.ID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mocks.questions.AssertNotCalled(t, "NextOrFallback")
}

func TestSessionService_Advance_BeforeSubmit_Rejected(t *testing.T) {
	// Arrange: переход без показанного результата
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))

	session := svc.Start(1, "nurse@example.com")

	// Act
	_, err := svc.Advance(session.ID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSessionService_Advance_AfterCooldown(t *testing.T) {
	// Arrange
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.questions.On("NextOrFallback").Return(sampleQuestion("q-2"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil).Maybe()

	session := svc.Start(1, "nurse@example.com")
	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Act
	question, err := svc.Advance(session.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "q-2", question.QuestionID)

	snapshot, snapErr := svc.Snapshot(session.ID)
	require.NoError(t, snapErr)
	assert.Equal(t, entity.PhaseAnswering, snapshot.Phase)
	assert.Empty(t, snapshot.SelectedAnswer, "Выбранный ответ должен сброситься")
	assert.Empty(t, snapshot.Explanation, "Объяснение должно сброситься")
	assert.Equal(t, 1, snapshot.TotalQuestions, "Счетчики сохраняются между вопросами")
}

func TestSessionService_Finish_WithoutAnswers_IsNoOp(t *testing.T) {
	// Arrange: завершение без единого ответа не создает сводку
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))

	session := svc.Start(1, "nurse@example.com")

	// Act
	_, err := svc.Finish(session.ID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mocks.resultRepo.AssertNotCalled(t, "SaveResult", mock.Anything)
	mocks.userRepo.AssertNotCalled(t, "ApplyTestOutcome", mock.Anything, mock.Anything, mock.Anything)

	// Сессия продолжает жить
	_, snapErr := svc.Snapshot(session.ID)
	assert.NoError(t, snapErr)
}

func TestSessionService_Finish_SavesResultAndUpdatesProfile(t *testing.T) {
	// Arrange: 2 правильных из 3 → 67%
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.questions.On("NextOrFallback").Return(sampleQuestion("q-next"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("done", nil).Maybe()

	var saved *entity.TestResult
	mocks.resultRepo.On("SaveResult", mock.AnythingOfType("*entity.TestResult")).Run(func(args mock.Arguments) {
		saved = args.Get(0).(*entity.TestResult)
	}).Return(nil)
	mocks.userRepo.On("ApplyTestOutcome", uint(1), 3, 67).Return(nil)

	session := svc.Start(1, "nurse@example.com")

	answers := []string{"B", "B", "A"}
	for i, ans := range answers {
		_, err := svc.Submit(session.ID, ans)
		require.NoError(t, err, "Отправка ответа #%d", i+1)
		if i < len(answers)-1 {
			_, err = svc.Advance(session.ID)
			require.NoError(t, err, "Переход после ответа #%d", i+1)
		}
	}

	// Act
	result, err := svc.Finish(session.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.QuestionsAnswered)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 67, result.PercentageScore, "2/3 должно округляться до 67")
	require.NotNil(t, saved)
	assert.Equal(t, uint(1), saved.UserID)
	mocks.userRepo.AssertExpectations(t)

	// Сессия удалена из реестра
	_, snapErr := svc.Snapshot(session.ID)
	assert.ErrorIs(t, snapErr, apperrors.ErrSessionExpired)
}

func TestSessionService_Finish_PersistenceFailure_StillSucceeds(t *testing.T) {
	// Arrange: сбой сохранения сводки не блокирует завершение
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil).Maybe()
	mocks.resultRepo.On("SaveResult", mock.Anything).Return(assert.AnError)
	mocks.userRepo.On("ApplyTestOutcome", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	session := svc.Start(1, "nurse@example.com")
	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Act
	result, err := svc.Finish(session.ID)

	// Assert
	require.NoError(t, err, "Сбой персистентности не должен возвращаться клиенту")
	assert.Equal(t, 100, result.PercentageScore)
}

// ============================================================================
// Тесты опроса объяснений
// ============================================================================

func TestSessionService_PollExplanation_ValueAppears(t *testing.T) {
	// Arrange: объяснение появляется в кеше со второй попытки
	svc, mocks := createTestSessionService(t, defaultSessionConfig())
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	session := svc.Start(1, "nurse@example.com")
	mocks.explanations.On("Peek", session.ID).Return("", nil).Once()
	mocks.explanations.On("Peek", session.ID).Return("The SA node sets the rhythm.", nil)

	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Assert: опрос подхватывает значение
	assert.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(session.ID)
		return err == nil && snapshot.Explanation == "The SA node sets the rhythm."
	}, time.Second, 5*time.Millisecond, "Объяснение должно появиться в состоянии сессии")
}

func TestSessionService_PollExplanation_CeilingFallsBackToPending(t *testing.T) {
	// Arrange: кеш так и не наполняется, опрос упирается в потолок попыток
	cfg := defaultSessionConfig()
	cfg.MaxPollAttempts = 2
	svc, mocks := createTestSessionService(t, cfg)
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))
	mocks.resultRepo.On("SaveAnswerEvent", mock.Anything).Return(nil)
	mocks.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	mocks.explanations.On("Peek", mock.Anything).Return("", nil)

	session := svc.Start(1, "nurse@example.com")
	_, err := svc.Submit(session.ID, "B")
	require.NoError(t, err)

	// Assert
	assert.Eventually(t, func() bool {
		snapshot, err := svc.Snapshot(session.ID)
		return err == nil && snapshot.Explanation == cfg.PendingExplanation
	}, time.Second, 5*time.Millisecond, "По достижении потолка должна показаться заглушка")
}

// ============================================================================
// Тесты очистки сессий
// ============================================================================

func TestSessionService_ExpireIdleSessions(t *testing.T) {
	// Arrange: TTL нулевой, любая сессия считается неактивной
	cfg := defaultSessionConfig()
	cfg.SessionTTL = 0
	svc, mocks := createTestSessionService(t, cfg)
	mocks.questions.On("Initial").Return(sampleQuestion("q-1"))

	session := svc.Start(1, "nurse@example.com")

	// Act
	svc.expireIdleSessions()

	// Assert
	_, err := svc.Snapshot(session.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
}
