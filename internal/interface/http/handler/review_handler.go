package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/review"
)

type ReviewHandler struct {
	submitUC *review.SubmitReviewUseCase
}

func NewReviewHandler(submitUC *review.SubmitReviewUseCase) *ReviewHandler {
	return &ReviewHandler{submitUC: submitUC}
}

// SubmitReview POST /api/reviews: указывается ровно одно из job_id и order_id.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные отзыва")
		return
	}

	jobID, err := dto.ParseOptionalUUID(req.JobID)
	if err != nil {
		response.BadRequest(c, "некорректный job_id")
		return
	}
	orderID, err := dto.ParseOptionalUUID(req.OrderID)
	if err != nil {
		response.BadRequest(c, "некорректный order_id")
		return
	}
	if (jobID == nil) == (orderID == nil) {
		response.BadRequest(c, "укажите либо job_id, либо order_id")
		return
	}

	input := review.SubmitReviewInput{Rating: req.Rating, Comment: req.Comment}
	if jobID != nil {
		input.ParentKind, input.ParentID = entity.ReviewParentJob, *jobID
	} else {
		input.ParentKind, input.ParentID = entity.ReviewParentOrder, *orderID
	}

	rv, err := h.submitUC.Execute(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToReviewResponse(rv))
}
