package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByGoogleSub возвращает пользователя по идентификатору Google (sub)
func (r *UserRepo) GetByGoogleSub(sub string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("google_sub = ?", sub).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create создает нового пользователя
func (r *UserRepo) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

// Update сохраняет изменения профиля
func (r *UserRepo) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

// ApplyTestOutcome обновляет пожизненные счетчики одним запросом.
// best_score поднимается только вверх: GREATEST(best_score, новый процент).
func (r *UserRepo) ApplyTestOutcome(userID uint, questionsAnswered int, percentageScore int) error {
	return r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_questions_answered": gorm.Expr("total_questions_answered + ?", questionsAnswered),
			"best_score":               gorm.Expr("GREATEST(best_score, ?)", percentageScore),
		}).Error
}
