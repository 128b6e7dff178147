package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторная отправка
	// ответа, пока первая еще обрабатывается).
	ErrConflict = errors.New("resource state conflict")

	// ErrSessionExpired используется, когда тестовая сессия не найдена в реестре
	// (истекла по TTL или процесс был перезапущен).
	ErrSessionExpired = errors.New("test session expired")
)
