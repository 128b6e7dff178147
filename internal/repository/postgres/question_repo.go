package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create добавляет вопрос в очередь
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetLatest возвращает последний произведенный пайплайном вопрос.
// Очередь неупорядочена относительно "предыдущего" вопроса: повторы и
// пропуски — ожидаемое поведение коллаборатора, не ошибка.
func (r *QuestionRepo) GetLatest() (*entity.Question, error) {
	var question entity.Question
	err := r.db.Order("created_at DESC").First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByQuestionID возвращает вопрос по внешнему идентификатору
func (r *QuestionRepo) GetByQuestionID(questionID string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Where("question_id = ?", questionID).
		Order("created_at DESC").
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// List возвращает вопросы очереди, новые первыми, с пагинацией
func (r *QuestionRepo) List(limit, offset int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&questions).Error
	return questions, err
}
