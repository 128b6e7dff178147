package helper

import (
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ConvertOptionsToObjects преобразует четыре варианта вопроса в массив
// объектов с меткой и текстом. Порядок меток фиксирован: A, B, C, D.
func ConvertOptionsToObjects(q *entity.Question) []QuestionOption {
	converted := make([]QuestionOption, 0, len(entity.OptionLabels))
	for _, label := range entity.OptionLabels {
		text := q.OptionText(label)
		if text == "" {
			text = "(пустой вариант)"
		}
		converted = append(converted, QuestionOption{Label: label, Text: text})
	}
	return converted
}
