package wallet_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/testutil/memstore"
	"github.com/ignatzorin/market-backend/internal/usecase/wallet"
)

func TestGetWallet_EmptyByDefault(t *testing.T) {
	store := memstore.New()
	actor := entity.Actor{UserID: uuid.New()}

	w, err := wallet.NewGetWalletUseCase(store.WalletRepo()).Execute(context.Background(), actor)
	require.NoError(t, err)
	assert.Zero(t, w.Balance)
	assert.Equal(t, "JPY", w.Currency)
}

func TestDepositAndWithdraw(t *testing.T) {
	store := memstore.New()
	rec := &memstore.Recorder{}
	actor := entity.Actor{UserID: uuid.New()}
	ctx := context.Background()
	deposit := wallet.NewDepositUseCase(store, store.WalletRepo(), rec)
	withdraw := wallet.NewWithdrawUseCase(store, store.WalletRepo(), rec)

	_, err := deposit.Execute(ctx, actor, 0)
	assert.True(t, apperror.IsValidation(err))

	res, err := deposit.Execute(ctx, actor, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), res.Wallet.Balance)
	assert.Equal(t, entity.TransactionCompleted, res.Transaction.Status)

	res, err = withdraw.Execute(ctx, actor, 4000)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), store.Wallets[actor.UserID].Frozen)
	assert.Equal(t, int64(6000), res.Wallet.Available())
	assert.Equal(t, entity.TransactionPending, res.Transaction.Status)

	_, err = withdraw.Execute(ctx, actor, 6001)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFund)
	assert.Equal(t, int64(4000), store.Wallets[actor.UserID].Frozen)

	txs, err := wallet.NewListTransactionsUseCase(store.WalletRepo()).Execute(ctx, actor, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, entity.TransactionWithdrawal, txs[0].Type)
	assert.Equal(t, []string{"deposit", "withdrawal"}, rec.Actions())
}
