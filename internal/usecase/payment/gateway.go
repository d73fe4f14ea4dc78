package payment

import "context"

// EventCheckoutCompleted событие успешной оплаты сессии.
const EventCheckoutCompleted = "checkout.session.completed"

const (
	MetadataOrderID = "order_id"
	MetadataBuyerID = "buyer_id"
)

type CheckoutRequest struct {
	Amount     int64
	Currency   string
	Title      string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event проверенное событие платёжного шлюза.
type Event struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}

// Gateway платёжный шлюз. ParseWebhook проверяет подпись.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// URLs адреса возврата после оплаты.
type URLs struct {
	SuccessURL string
	CancelURL  string
}
