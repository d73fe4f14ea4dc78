package checkout

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/ignatzorin/market-backend/internal/usecase/payment"
)

const testSecret = "whsec_test_secret"

func signedHeader(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"metadata": {"order_id": "0b6f1c1e-3a54-4a4f-9a57-5a8f7f0f1a11", "buyer_id": "u1"}
		}}
	}`)

	event, err := g.ParseWebhook(payload, signedHeader(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, payment.EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_test_1", event.SessionID)
	assert.Equal(t, "0b6f1c1e-3a54-4a4f-9a57-5a8f7f0f1a11", event.Metadata[payment.MetadataOrderID])
}

func TestParseWebhook_OtherEventKeepsType(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	event, err := g.ParseWebhook(payload, signedHeader(payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Empty(t, event.Metadata)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed"}`)

	_, err := g.ParseWebhook(payload, signedHeader(payload, "whsec_other"))
	assert.Error(t, err)

	_, err = NewStripeGateway("", "").ParseWebhook(payload, "t=1,v1=00")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateCheckoutSession_NotConfigured(t *testing.T) {
	_, err := NewStripeGateway("", testSecret).CreateCheckoutSession(context.Background(), payment.CheckoutRequest{Amount: 500})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
