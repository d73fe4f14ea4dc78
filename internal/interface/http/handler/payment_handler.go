package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/payment"
)

// maxWebhookBody ограничение Stripe на размер события.
const maxWebhookBody = 65536

type PaymentHandler struct {
	webhookUC *payment.HandleWebhookUseCase
}

func NewPaymentHandler(webhookUC *payment.HandleWebhookUseCase) *PaymentHandler {
	return &PaymentHandler{webhookUC: webhookUC}
}

// Webhook POST /api/payments/webhook. Подпись проверяется по сырому телу запроса.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать тело вебхука"))
		return
	}

	result, err := h.webhookUC.Execute(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"result": result})
}
