package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/domain/repository"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
)

type GetWalletUseCase struct {
	walletRepo repository.WalletRepository
}

func NewGetWalletUseCase(walletRepo repository.WalletRepository) *GetWalletUseCase {
	return &GetWalletUseCase{walletRepo: walletRepo}
}

func (uc *GetWalletUseCase) Execute(ctx context.Context, actor entity.Actor) (*entity.Wallet, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	w, err := uc.walletRepo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Database(err, "не удалось получить кошелёк")
	}
	return w, nil
}

type OperationResult struct {
	Wallet      *entity.Wallet
	Transaction *entity.Transaction
}

// MoveFundsUseCase пополнение или вывод под блокировкой строки кошелька.
type MoveFundsUseCase struct {
	tx         repository.Transactor
	walletRepo repository.WalletRepository
	notifier   invalidation.Notifier
	op         func(w *entity.Wallet, amount int64) (*entity.Transaction, error)
}

func NewDepositUseCase(tx repository.Transactor, walletRepo repository.WalletRepository, notifier invalidation.Notifier) *MoveFundsUseCase {
	return &MoveFundsUseCase{tx: tx, walletRepo: walletRepo, notifier: notifier, op: (*entity.Wallet).Deposit}
}

// NewWithdrawUseCase вывод замораживает сумму до ручной выплаты.
func NewWithdrawUseCase(tx repository.Transactor, walletRepo repository.WalletRepository, notifier invalidation.Notifier) *MoveFundsUseCase {
	return &MoveFundsUseCase{tx: tx, walletRepo: walletRepo, notifier: notifier, op: (*entity.Wallet).Withdraw}
}

func (uc *MoveFundsUseCase) Execute(ctx context.Context, actor entity.Actor, amount int64) (*OperationResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	var result OperationResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := uc.walletRepo.GetForUpdate(ctx, actor.UserID)
		if err != nil {
			return apperror.Database(err, "не удалось заблокировать кошелёк")
		}
		t, err := uc.op(w, amount)
		if err != nil {
			return err
		}
		if err := uc.walletRepo.Save(ctx, w); err != nil {
			return apperror.Database(err, "не удалось сохранить кошелёк")
		}
		if err := uc.walletRepo.AddTransaction(ctx, t); err != nil {
			return apperror.Database(err, "не удалось записать операцию")
		}
		result = OperationResult{Wallet: w, Transaction: t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": actor.UserID,
		"type":    result.Transaction.Type,
		"amount":  result.Transaction.Amount,
	}).Info("wallet: операция проведена")
	uc.notifier.Notify(ctx, invalidation.Signal{
		Entity:   "wallet",
		EntityID: actor.UserID,
		Action:   string(result.Transaction.Type),
		Paths:    []string{"/api/wallet"},
		UserIDs:  []uuid.UUID{actor.UserID},
	})
	return &result, nil
}

type ListTransactionsUseCase struct {
	walletRepo repository.WalletRepository
}

func NewListTransactionsUseCase(walletRepo repository.WalletRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{walletRepo: walletRepo}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Transaction, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	items, err := uc.walletRepo.ListTransactions(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, apperror.Database(err, "не удалось получить операции")
	}
	return items, nil
}
