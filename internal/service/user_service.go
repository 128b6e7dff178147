package service

import (
	"errors"
	"log"
	"time"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// UserService предоставляет методы для работы с профилями пользователей
type UserService struct {
	userRepo  repository.UserRepository
	trialDays int
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, trialDays int) *UserService {
	if trialDays <= 0 {
		trialDays = 7
	}
	return &UserService{
		userRepo:  userRepo,
		trialDays: trialDays,
	}
}

// GetProfile возвращает профиль пользователя по ID. Статус подписки
// отдается с учетом истечения триала, запись в БД не меняется.
func (s *UserService) GetProfile(id uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	user.SubscriptionStatus = user.EffectiveSubscriptionStatus(time.Now())
	return user, nil
}

// GetOrCreateByGoogle возвращает профиль по идентификатору Google,
// лениво создавая его при первом входе с триальными значениями по
// умолчанию. Гонка параллельных первых входов разрешается повторным
// чтением после неудачной вставки.
func (s *UserService) GetOrCreateByGoogle(googleSub, email, fullName string) (*entity.User, error) {
	user, err := s.userRepo.GetByGoogleSub(googleSub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, s.trialDays)
	user = &entity.User{
		GoogleSub:           googleSub,
		Email:               email,
		FullName:            fullName,
		RegistrationDate:    now,
		SubscriptionStatus:  entity.SubscriptionTrial,
		SubscriptionEndDate: &trialEnd,
	}

	if err := s.userRepo.Create(user); err != nil {
		// Параллельный первый вход мог создать запись раньше нас
		existing, getErr := s.userRepo.GetByGoogleSub(googleSub)
		if getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	log.Printf("[UserService] Создан профиль %s с триалом до %s", email, trialEnd.Format("2006-01-02"))
	return user, nil
}
