package dto

import (
	"time"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
)

// UserResponse представляет профиль пользователя в формате для клиента
type UserResponse struct {
	ID                     uint       `json:"id"`
	Email                  string     `json:"email"`
	FullName               string     `json:"full_name"`
	RegistrationDate       time.Time  `json:"registration_date"`
	SubscriptionStatus     string     `json:"subscription_status"`
	SubscriptionEndDate    *time.Time `json:"subscription_end_date,omitempty"`
	TotalQuestionsAnswered int64      `json:"total_questions_answered"`
	BestScore              int        `json:"best_score"`
}

// NewUserResponse создает DTO профиля
func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:                     u.ID,
		Email:                  u.Email,
		FullName:               u.FullName,
		RegistrationDate:       u.RegistrationDate,
		SubscriptionStatus:     u.SubscriptionStatus,
		SubscriptionEndDate:    u.SubscriptionEndDate,
		TotalQuestionsAnswered: u.TotalQuestionsAnswered,
		BestScore:              u.BestScore,
	}
}

// AuthResponse представляет результат входа
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}
