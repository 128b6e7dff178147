package service

import (
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/domain/repository"
)

// ResultService предоставляет доступ к истории завершенных тестов
type ResultService struct {
	resultRepo repository.ResultRepository
}

// NewResultService создает новый сервис результатов
func NewResultService(resultRepo repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// GetUserResults возвращает историю тестов пользователя, новые первыми
func (s *ResultService) GetUserResults(userID uint, limit, offset int) ([]entity.TestResult, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.resultRepo.GetUserResults(userID, limit, offset)
}
