package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/conversation"
)

type ConversationHandler struct {
	getOrCreateUC  *conversation.GetOrCreateConversationUseCase
	listMyUC       *conversation.ListMyConversationsUseCase
	listMessagesUC *conversation.ListMessagesUseCase
	sendMessageUC  *conversation.SendMessageUseCase
	respondOfferUC *conversation.RespondOfferUseCase
}

func NewConversationHandler(
	getOrCreateUC *conversation.GetOrCreateConversationUseCase,
	listMyUC *conversation.ListMyConversationsUseCase,
	listMessagesUC *conversation.ListMessagesUseCase,
	sendMessageUC *conversation.SendMessageUseCase,
	respondOfferUC *conversation.RespondOfferUseCase,
) *ConversationHandler {
	return &ConversationHandler{
		getOrCreateUC:  getOrCreateUC,
		listMyUC:       listMyUC,
		listMessagesUC: listMessagesUC,
		sendMessageUC:  sendMessageUC,
		respondOfferUC: respondOfferUC,
	}
}

// GetOrCreate POST /api/conversations: повторный вызов с теми же участниками возвращает ту же беседу.
func (h *ConversationHandler) GetOrCreate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id обязателен")
		return
	}
	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "некорректный user_id")
		return
	}
	listingID, err := dto.ParseOptionalUUID(req.ListingID)
	if err != nil {
		response.BadRequest(c, "некорректный listing_id")
		return
	}
	jobID, err := dto.ParseOptionalUUID(req.JobID)
	if err != nil {
		response.BadRequest(c, "некорректный job_id")
		return
	}

	conv, err := h.getOrCreateUC.Execute(c.Request.Context(), actor, conversation.GetOrCreateInput{
		OtherUserID: otherID,
		ListingID:   listingID,
		JobID:       jobID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToConversationResponse(conv))
}

func (h *ConversationHandler) ListMyConversations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	convs, err := h.listMyUC.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToConversationResponses(convs))
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	conversationID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	msgs, err := h.listMessagesUC.Execute(c.Request.Context(), actor, conversationID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToMessageResponses(msgs))
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	conversationID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные сообщения")
		return
	}

	input := conversation.SendMessageInput{Content: req.Content}
	if req.Offer != nil {
		jobID, err := uuid.Parse(req.Offer.JobID)
		if err != nil {
			response.BadRequest(c, "некорректный job_id оффера")
			return
		}
		input.Offer = &conversation.OfferInput{JobID: jobID, Amount: req.Offer.Amount}
	}

	msg, err := h.sendMessageUC.Execute(c.Request.Context(), actor, conversationID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToMessageResponse(msg))
}

// AcceptOffer POST /api/messages/:id/offer/accept
func (h *ConversationHandler) AcceptOffer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	messageID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	msg, j, err := h.respondOfferUC.Accept(c.Request.Context(), actor, messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.OfferAcceptedResponse{Message: dto.ToMessageResponse(msg), Job: dto.ToJobResponse(j)})
}

// RejectOffer POST /api/messages/:id/offer/reject
func (h *ConversationHandler) RejectOffer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	messageID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	msg, err := h.respondOfferUC.Reject(c.Request.Context(), actor, messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToMessageResponse(msg))
}
