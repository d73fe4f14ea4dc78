package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/wallet"
)

type WalletHandler struct {
	getUC      *wallet.GetWalletUseCase
	depositUC  *wallet.MoveFundsUseCase
	withdrawUC *wallet.MoveFundsUseCase
	listTxUC   *wallet.ListTransactionsUseCase
}

func NewWalletHandler(getUC *wallet.GetWalletUseCase, depositUC, withdrawUC *wallet.MoveFundsUseCase, listTxUC *wallet.ListTransactionsUseCase) *WalletHandler {
	return &WalletHandler{getUC: getUC, depositUC: depositUC, withdrawUC: withdrawUC, listTxUC: listTxUC}
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	w, err := h.getUC.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToWalletResponse(w))
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	h.move(c, h.depositUC)
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.move(c, h.withdrawUC)
}

func (h *WalletHandler) move(c *gin.Context, uc *wallet.MoveFundsUseCase) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "сумма обязательна")
		return
	}

	result, err := uc.Execute(c.Request.Context(), actor, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.WalletOperationResponse{
		Wallet:      dto.ToWalletResponse(result.Wallet),
		Transaction: dto.ToTransactionResponse(result.Transaction),
	})
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, offset := pageParams(c)
	txs, err := h.listTxUC.Execute(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToTransactionResponses(txs))
}
