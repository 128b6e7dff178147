package entity

import (
	"time"
)

// AnswerEvent представляет один отправленный ответ в рамках тестовой сессии.
// Создается один раз при отправке и никогда не изменяется. Текст вопроса и
// оба варианта (выбранный/правильный) сохраняются, т.к. они нужны генератору
// объяснений после того, как сам вопрос уже заменен следующим.
type AnswerEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      string    `gorm:"size:64;not null;index" json:"session_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	QuestionID     string    `gorm:"size:64;not null" json:"question_id"`
	QuestionText   string    `gorm:"type:text;not null" json:"question_text"`
	SelectedAnswer string    `gorm:"size:1;not null" json:"selected_answer"`
	CorrectAnswer  string    `gorm:"size:1;not null" json:"correct_answer"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AnswerEvent) TableName() string {
	return "answer_events"
}
