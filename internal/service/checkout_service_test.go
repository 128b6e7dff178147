package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nurseprep-api/internal/config"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

func stripeTestConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:          "sk_test_123",
		PriceCents:         2999,
		Currency:           "usd",
		ProductName:        "NursePrep Premium",
		ProductDescription: "Unlimited NCLEX practice questions with AI explanations",
	}
}

func TestCheckoutService_BuildParams(t *testing.T) {
	// Arrange
	svc := NewCheckoutService(stripeTestConfig())

	// Act
	params := svc.buildParams(7, "nurse@example.com", "https://app.example.com")

	// Assert
	assert.Equal(t, "subscription", *params.Mode, "Checkout должен оформлять подписку, а не разовый платеж")
	assert.Equal(t, "nurse@example.com", *params.CustomerEmail)

	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(2999), *item.PriceData.UnitAmount)
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, "month", *item.PriceData.Recurring.Interval, "Подписка месячная")
	assert.Equal(t, "NursePrep Premium", *item.PriceData.ProductData.Name)

	assert.Equal(t, "https://app.example.com/dashboard?upgrade=success", *params.SuccessURL)
	assert.Equal(t, "https://app.example.com/dashboard?upgrade=cancelled", *params.CancelURL)

	// Метаданные связывают платеж с профилем
	assert.Equal(t, "7", params.Metadata["userId"])
	assert.Equal(t, "nurse@example.com", params.Metadata["userEmail"])
}

func TestCheckoutService_CreateSession_Validation(t *testing.T) {
	svc := NewCheckoutService(stripeTestConfig())

	_, err := svc.CreateSession(0, "", "https://app.example.com")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCheckoutService_CreateSession_MissingKey(t *testing.T) {
	// Arrange
	cfg := stripeTestConfig()
	cfg.SecretKey = ""
	svc := NewCheckoutService(cfg)

	// Act
	_, err := svc.CreateSession(7, "nurse@example.com", "https://app.example.com")

	// Assert
	assert.Error(t, err, "Без ключа Stripe оформление должно завершаться ошибкой")
}
