package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/job"
	"github.com/ignatzorin/market-backend/internal/usecase/payment"
)

// JobUseCases набор сценариев заданий и откликов.
type JobUseCases struct {
	Create         *job.CreateJobUseCase
	Get            *job.GetJobUseCase
	List           *job.ListJobsUseCase
	ListMine       *job.ListMyJobsUseCase
	Cancel         *job.CancelJobUseCase
	PlaceBid       *job.PlaceBidUseCase
	ListBids       *job.ListBidsUseCase
	ListMyBids     *job.ListMyBidsUseCase
	AcceptBid      *job.AcceptBidUseCase
	SubmitDelivery *job.SubmitJobDeliveryUseCase
	ReviewDelivery *job.ReviewJobDeliveryUseCase
	HireCheckout   *payment.CreateHireCheckoutUseCase
}

type JobHandler struct {
	uc JobUseCases
}

func NewJobHandler(uc JobUseCases) *JobHandler {
	return &JobHandler{uc: uc}
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные задания")
		return
	}

	j, err := h.uc.Create.Execute(c.Request.Context(), actor, job.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToJobResponse(j))
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	j, err := h.uc.Get.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(j))
}

// ListJobs GET /api/jobs?status=&search=&budget_min=&budget_max=
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, offset := pageParams(c)
	jobs, total, err := h.uc.List.Execute(c.Request.Context(), repository.JobFilter{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		BudgetMin: parseInt64Query(c, "budget_min"),
		BudgetMax: parseInt64Query(c, "budget_max"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToJobResponses(jobs), total, limit, offset)
}

// ListMyJobs GET /api/my/jobs?as=worker
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, offset := pageParams(c)
	jobs, total, err := h.uc.ListMine.Execute(c.Request.Context(), actor, c.Query("as") == "worker", limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToJobResponses(jobs), total, limit, offset)
}

func (h *JobHandler) CancelJob(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	j, err := h.uc.Cancel.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(j))
}

func (h *JobHandler) PlaceBid(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные отклика")
		return
	}

	bid, err := h.uc.PlaceBid.Execute(c.Request.Context(), actor, job.PlaceBidInput{
		JobID:        jobID,
		Amount:       req.Amount,
		DeliveryTime: req.DeliveryTime,
		Proposal:     req.Proposal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToBidResponse(bid))
}

// ListBids отклики видит автор задания, остальные только свой.
func (h *JobHandler) ListBids(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	bids, err := h.uc.ListBids.Execute(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBidResponses(bids))
}

func (h *JobHandler) ListMyBids(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	bids, err := h.uc.ListMyBids.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToBidResponses(bids))
}

// AcceptBid POST /api/jobs/:id/bids/:bidId/accept
func (h *JobHandler) AcceptBid(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	bidID, ok := paramUUID(c, "bidId")
	if !ok {
		return
	}

	j, bid, err := h.uc.AcceptBid.Execute(c.Request.Context(), actor, jobID, bidID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.AcceptBidResponse{Job: dto.ToJobResponse(j), Bid: dto.ToBidResponse(bid)})
}

func (h *JobHandler) SubmitDelivery(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.JobDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "ссылка на результат обязательна")
		return
	}

	j, err := h.uc.SubmitDelivery.Execute(c.Request.Context(), actor, jobID, job.SubmitJobDeliveryInput{URL: req.URL, Note: req.Note})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(j))
}

// ReviewDelivery POST /api/jobs/:id/delivery/review {approve, reason}
func (h *JobHandler) ReviewDelivery(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ReviewJobDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные проверки")
		return
	}

	j, err := h.uc.ReviewDelivery.Execute(c.Request.Context(), actor, jobID, job.ReviewJobDeliveryInput{Approve: req.Approve, Reason: req.Reason})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(j))
}

// HireCheckout POST /api/jobs/:id/hire-checkout {bid_id}
func (h *JobHandler) HireCheckout(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	jobID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.HireCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "bid_id обязателен")
		return
	}
	bidID, err := uuid.Parse(req.BidID)
	if err != nil {
		response.BadRequest(c, "некорректный bid_id")
		return
	}

	result, err := h.uc.HireCheckout.Execute(c.Request.Context(), actor, jobID, bidID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CheckoutResponse{Order: dto.ToOrderResponse(result.Order), CheckoutURL: result.CheckoutURL})
}
