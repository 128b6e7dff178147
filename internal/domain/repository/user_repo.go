package repository

import (
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с профилями пользователей
type UserRepository interface {
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByGoogleSub(sub string) (*entity.User, error)
	Create(user *entity.User) error
	Update(user *entity.User) error

	// ApplyTestOutcome атомарно увеличивает пожизненный счетчик отвеченных
	// вопросов и поднимает best_score до percentageScore, если тот выше.
	ApplyTestOutcome(userID uint, questionsAnswered int, percentageScore int) error
}
