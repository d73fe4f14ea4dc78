package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/order"
	"github.com/ignatzorin/market-backend/internal/usecase/payment"
)

type OrderHandler struct {
	createOrderUC    *order.CreateOrderUseCase
	getOrderUC       *order.GetOrderUseCase
	listMyOrdersUC   *order.ListMyOrdersUseCase
	checkoutUC       *payment.CreateOrderCheckoutUseCase
	submitDeliveryUC *order.SubmitDeliveryUseCase
	approveUC        *order.ApproveOrderUseCase
	requestChangesUC *order.RequestChangesUseCase
	cancelUC         *order.CancelOrderUseCase
}

func NewOrderHandler(
	createOrderUC *order.CreateOrderUseCase,
	getOrderUC *order.GetOrderUseCase,
	listMyOrdersUC *order.ListMyOrdersUseCase,
	checkoutUC *payment.CreateOrderCheckoutUseCase,
	submitDeliveryUC *order.SubmitDeliveryUseCase,
	approveUC *order.ApproveOrderUseCase,
	requestChangesUC *order.RequestChangesUseCase,
	cancelUC *order.CancelOrderUseCase,
) *OrderHandler {
	return &OrderHandler{
		createOrderUC:    createOrderUC,
		getOrderUC:       getOrderUC,
		listMyOrdersUC:   listMyOrdersUC,
		checkoutUC:       checkoutUC,
		submitDeliveryUC: submitDeliveryUC,
		approveUC:        approveUC,
		requestChangesUC: requestChangesUC,
		cancelUC:         cancelUC,
	}
}

// CreateOrder заказ по объявлению с выбранными доп. опциями.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.BadRequest(c, "некорректный listing_id")
		return
	}

	created, err := h.createOrderUC.Execute(c.Request.Context(), actor, order.CreateOrderInput{
		ListingID:    listingID,
		AddOnIDs:     req.AddOnIDs,
		Requirements: req.Requirements,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToOrderResponse(created))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	o, err := h.getOrderUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// ListMyOrders GET /api/my/orders?side=buyer|seller&status=
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, offset := pageParams(c)
	orders, total, err := h.listMyOrdersUC.Execute(c.Request.Context(), actor, repository.OrderFilter{
		Side:   c.Query("side"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToOrderResponses(orders), total, limit, offset)
}

// Checkout POST /api/orders/:id/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.checkoutUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CheckoutResponse{Order: dto.ToOrderResponse(result.Order), CheckoutURL: result.CheckoutURL})
}

func (h *OrderHandler) SubmitDelivery(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "описание результата обязательно")
		return
	}

	o, err := h.submitDeliveryUC.Execute(c.Request.Context(), actor, orderID, order.SubmitDeliveryInput{
		Content: req.Content,
		FileURL: req.FileURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

func (h *OrderHandler) Approve(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	o, err := h.approveUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

func (h *OrderHandler) RequestChanges(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.RequestChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "опишите, что нужно доработать")
		return
	}

	o, err := h.requestChangesUC.Execute(c.Request.Context(), actor, orderID, req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	// причина необязательна, пустое тело допустимо
	var req dto.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	o, err := h.cancelUC.Execute(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}
