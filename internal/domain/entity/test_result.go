package entity

import (
	"time"
)

// TestResult представляет итоговую сводку одного завершенного теста.
// Создается один раз при завершении и никогда не обновляется.
type TestResult struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	UserEmail         string    `gorm:"size:100;not null;index" json:"user_email"`
	QuestionsAnswered int       `gorm:"not null;default:0" json:"questions_answered"`
	CorrectAnswers    int       `gorm:"not null;default:0" json:"correct_answers"`
	PercentageScore   int       `gorm:"not null;default:0" json:"percentage_score"`
	TimeSpentSec      int       `gorm:"not null;default:0" json:"time_spent"`
	TestDate          time.Time `gorm:"not null;index" json:"test_date"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (TestResult) TableName() string {
	return "test_results"
}
