package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// SaveResult сохраняет итоговую сводку завершенного теста
func (r *ResultRepo) SaveResult(result *entity.TestResult) error {
	return r.db.Create(result).Error
}

// GetUserResults возвращает результаты пользователя, новые первыми
func (r *ResultRepo) GetUserResults(userID uint, limit, offset int) ([]entity.TestResult, error) {
	var results []entity.TestResult
	err := r.db.Where("user_id = ?", userID).
		Order("test_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	return results, err
}

// SaveAnswerEvent сохраняет событие ответа
func (r *ResultRepo) SaveAnswerEvent(event *entity.AnswerEvent) error {
	return r.db.Create(event).Error
}

// GetSessionAnswers возвращает все ответы сессии в порядке отправки
func (r *ResultRepo) GetSessionAnswers(sessionID string) ([]entity.AnswerEvent, error) {
	var answers []entity.AnswerEvent
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&answers).Error
	return answers, err
}

// GetLatestSessionAnswer возвращает последний ответ сессии.
// Нужен генератору объяснений: объяснение строится по последнему
// отвеченному вопросу, ключ — идентификатор сессии.
func (r *ResultRepo) GetLatestSessionAnswer(sessionID string) (*entity.AnswerEvent, error) {
	var answer entity.AnswerEvent
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}
