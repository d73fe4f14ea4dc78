package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/profile"
	"github.com/ignatzorin/market-backend/internal/usecase/review"
)

type ProfileHandler struct {
	getMeUC         *profile.GetMeUseCase
	updateMeUC      *profile.UpdateMeUseCase
	chooseRoleUC    *profile.ChooseRoleUseCase
	getPublicUC     *profile.GetPublicProfileUseCase
	listUserReviews *review.ListUserReviewsUseCase
}

func NewProfileHandler(
	getMeUC *profile.GetMeUseCase,
	updateMeUC *profile.UpdateMeUseCase,
	chooseRoleUC *profile.ChooseRoleUseCase,
	getPublicUC *profile.GetPublicProfileUseCase,
	listUserReviews *review.ListUserReviewsUseCase,
) *ProfileHandler {
	return &ProfileHandler{
		getMeUC:         getMeUC,
		updateMeUC:      updateMeUC,
		chooseRoleUC:    chooseRoleUC,
		getPublicUC:     getPublicUC,
		listUserReviews: listUserReviews,
	}
}

func (h *ProfileHandler) GetMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	p, err := h.getMeUC.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(p))
}

func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные профиля")
		return
	}

	p, err := h.updateMeUC.Execute(c.Request.Context(), actor, profile.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		Skills:      req.Skills,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(p))
}

// ChooseRole PUT /api/profile/role
func (h *ProfileHandler) ChooseRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.ChooseRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "роль обязательна")
		return
	}

	p, err := h.chooseRoleUC.Execute(c.Request.Context(), actor, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(p))
}

// GetUser GET /api/users/:id
func (h *ProfileHandler) GetUser(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	pub, err := h.getPublicUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PublicProfileResponse{
		ProfileResponse: dto.ToProfileResponse(pub.Profile),
		Rating:          dto.ToRatingResponse(pub.Rating),
	})
}

// ListUserReviews GET /api/users/:id/reviews
func (h *ProfileHandler) ListUserReviews(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	limit, offset := pageParams(c)

	result, err := h.listUserReviews.Execute(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToUserReviewsResponse(result))
}
