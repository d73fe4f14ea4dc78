package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/http/middleware"
	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/listing"
)

type ListingHandler struct {
	createUC   *listing.CreateListingUseCase
	updateUC   *listing.UpdateListingUseCase
	getUC      *listing.GetListingUseCase
	listUC     *listing.ListListingsUseCase
	listMyUC   *listing.ListMyListingsUseCase
	moderateUC *listing.ModerateListingUseCase
	deleteUC   *listing.DeleteListingUseCase
}

func NewListingHandler(
	createUC *listing.CreateListingUseCase,
	updateUC *listing.UpdateListingUseCase,
	getUC *listing.GetListingUseCase,
	listUC *listing.ListListingsUseCase,
	listMyUC *listing.ListMyListingsUseCase,
	moderateUC *listing.ModerateListingUseCase,
	deleteUC *listing.DeleteListingUseCase,
) *ListingHandler {
	return &ListingHandler{
		createUC:   createUC,
		updateUC:   updateUC,
		getUC:      getUC,
		listUC:     listUC,
		listMyUC:   listMyUC,
		moderateUC: moderateUC,
		deleteUC:   deleteUC,
	}
}

func listingInput(req dto.ListingRequest) listing.ListingInput {
	return listing.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Metadata:    req.Metadata(),
		PreviewURL:  req.PreviewURL,
	}
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные объявления")
		return
	}

	l, err := h.createUC.Execute(c.Request.Context(), actor, listingInput(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToListingResponse(l))
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные объявления")
		return
	}

	l, err := h.updateUC.Execute(c.Request.Context(), actor, id, listingInput(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToListingResponse(l))
}

// GetListing скрытые объявления видны только продавцу и администратору.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	l, err := h.getUC.Execute(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToListingResponse(l))
}

// ListListings GET /api/listings?category=&search=&limit=&offset=
func (h *ListingHandler) ListListings(c *gin.Context) {
	limit, offset := pageParams(c)
	listings, total, err := h.listUC.Execute(c.Request.Context(), repository.ListingFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToListingResponses(listings), total, limit, offset)
}

func (h *ListingHandler) ListMyListings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, offset := pageParams(c)
	listings, total, err := h.listMyUC.Execute(c.Request.Context(), actor, repository.ListingFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToListingResponses(listings), total, limit, offset)
}

// ModerateListing PUT /api/admin/listings/:id/status
func (h *ListingHandler) ModerateListing(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ModerateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "статус обязателен")
		return
	}

	l, err := h.moderateUC.Execute(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToListingResponse(l))
}

// DeleteListing объявление с заказами архивируется вместо удаления.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	archived, err := h.deleteUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.DeleteListingResponse{ID: id, Archived: archived})
}
