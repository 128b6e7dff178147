package entity

import (
	"strings"
	"time"
)

// Метки вариантов ответа. Каждый вопрос NCLEX-формата имеет ровно четыре варианта.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question представляет вопрос экзамена. Вопросы поступают асинхронно от
// внешнего пайплайна автоматизации и после получения не изменяются.
type Question struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID string `gorm:"size:64;not null;index" json:"question_id"`
	Text       string `gorm:"size:2000;not null" json:"question_text"`
	OptionA    string `gorm:"size:500;not null" json:"option_a"`
	OptionB    string `gorm:"size:500;not null" json:"option_b"`
	OptionC    string `gorm:"size:500;not null" json:"option_c"`
	OptionD    string `gorm:"size:500;not null" json:"option_d"`
	// Скрыто от клиента: правильность вычисляется только на сервере
	CorrectAnswer string    `gorm:"size:1;not null" json:"-"`
	Difficulty    string    `gorm:"size:20;not null;default:''" json:"difficulty,omitempty"` // Easy, Medium, Hard
	Explanation   string    `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным.
// Сравнение выполняется локально и никогда не доверяется внешнему источнику.
func (q *Question) IsCorrect(selected string) bool {
	return normalizeOption(selected) == normalizeOption(q.CorrectAnswer)
}

// IsValidOption проверяет, что выбранный вариант — одна из четырех меток
func (q *Question) IsValidOption(selected string) bool {
	s := normalizeOption(selected)
	for _, label := range OptionLabels {
		if s == label {
			return true
		}
	}
	return false
}

// OptionText возвращает текст варианта по метке, пустую строку для неизвестной метки
func (q *Question) OptionText(label string) string {
	switch normalizeOption(label) {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

func normalizeOption(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
