package entity

import (
	"time"
)

// Статусы подписки пользователя
const (
	SubscriptionTrial   = "trial"
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// User представляет профиль пользователя. Создается лениво при первом
// обращении после аутентификации через Google OAuth.
type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	GoogleSub           string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Email               string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	FullName            string     `gorm:"size:100;not null;default:''" json:"full_name"`
	RegistrationDate    time.Time  `gorm:"type:date" json:"registration_date"`
	SubscriptionStatus  string     `gorm:"size:20;not null;default:'trial'" json:"subscription_status"` // trial, active, expired
	SubscriptionEndDate *time.Time `gorm:"type:date" json:"subscription_end_date,omitempty"`

	// Пожизненные счетчики, обновляются после каждого завершенного теста
	TotalQuestionsAnswered int64 `gorm:"not null;default:0" json:"total_questions_answered"`
	BestScore              int   `gorm:"not null;default:0" json:"best_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// EffectiveSubscriptionStatus возвращает статус с учетом окончания триала.
// Запись в БД при этом не изменяется: фактическое состояние active/expired
// синхронизируется вебхуком платежного провайдера вне этого кода.
func (u *User) EffectiveSubscriptionStatus(now time.Time) string {
	if u.SubscriptionStatus == SubscriptionTrial && u.SubscriptionEndDate != nil && now.After(*u.SubscriptionEndDate) {
		return SubscriptionExpired
	}
	return u.SubscriptionStatus
}
