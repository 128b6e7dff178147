package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/yourusername/nurseprep-api/internal/config"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// CheckoutService создает Stripe checkout-сессии для оформления подписки.
// Цена задается inline через price_data, отдельный Price в Stripe не нужен.
type CheckoutService struct {
	cfg config.StripeConfig
}

// NewCheckoutService создает сервис оформления подписки и настраивает
// глобальный ключ Stripe
func NewCheckoutService(cfg config.StripeConfig) *CheckoutService {
	stripe.Key = cfg.SecretKey
	return &CheckoutService{cfg: cfg}
}

// CreateSession создает checkout-сессию подписки. origin — источник запроса,
// на который строятся URL возврата.
func (s *CheckoutService) CreateSession(userID uint, userEmail, origin string) (string, error) {
	if s.cfg.SecretKey == "" {
		return "", fmt.Errorf("stripe secret key is not configured")
	}
	if strings.TrimSpace(userEmail) == "" || userID == 0 {
		return "", fmt.Errorf("%w: userEmail and userId are required", apperrors.ErrValidation)
	}

	params := s.buildParams(userID, userEmail, origin)
	sess, err := session.New(params)
	if err != nil {
		log.Printf("[CheckoutService] Ошибка создания checkout-сессии для %s: %v", userEmail, err)
		return "", err
	}

	log.Printf("[CheckoutService] Checkout-сессия %s создана для %s", sess.ID, userEmail)
	return sess.ID, nil
}

// buildParams собирает параметры checkout-сессии: месячная подписка с
// inline-ценой, идентификаторы пользователя в метаданных, возврат на
// дашборд с маркером исхода оплаты
func (s *CheckoutService) buildParams(userID uint, userEmail, origin string) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(userEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(s.cfg.ProductName),
						Description: stripe.String(s.cfg.ProductDescription),
					},
					UnitAmount: stripe.Int64(s.cfg.PriceCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(origin + "/dashboard?upgrade=success"),
		CancelURL:  stripe.String(origin + "/dashboard?upgrade=cancelled"),
		Metadata: map[string]string{
			"userId":    fmt.Sprintf("%d", userID),
			"userEmail": userEmail,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}
}
