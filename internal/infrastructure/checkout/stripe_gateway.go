package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/usecase/payment"
)

var ErrNotConfigured = errors.New("stripe: платёжный шлюз не настроен")

// StripeGateway реализация payment.Gateway поверх Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway без секретного ключа создание сессий возвращает ErrNotConfigured.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = &client.API{}
		g.api.Init(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Title),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"amount": req.Amount,
			"error":  err.Error(),
		}).Error("stripe: не удалось создать сессию оплаты")
		return nil, fmt.Errorf("stripe: создание сессии: %w", err)
	}
	return &payment.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook проверяет подпись заголовка Stripe-Signature.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: проверка подписи: %w", err)
	}

	result := &payment.Event{ID: event.ID, Type: string(event.Type)}
	if event.Type != stripe.EventType(payment.EventCheckoutCompleted) || event.Data == nil {
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("stripe: разбор сессии: %w", err)
	}
	result.SessionID = session.ID
	result.Metadata = session.Metadata
	return result, nil
}
