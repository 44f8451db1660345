package runtimeuser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	th "github.com/L5dxb/near-evm/pkg/testhelpers"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
	"github.com/L5dxb/near-evm/pkg/user/runtimeuser"
)

func newUser(t *testing.T, id types.AccountID) *runtimeuser.RuntimeUser {
	u, err := runtimeuser.New(th.NewTestNode(t), th.SignerFor(id))
	require.NoError(t, err)
	return u
}

func requireSuccess(t *testing.T) func(out *types.FinalExecutionOutcome, err error) *types.FinalExecutionOutcome {
	return func(out *types.FinalExecutionOutcome, err error) *types.FinalExecutionOutcome {
		require.NoError(t, err)
		require.NoError(t, out.Err())
		require.True(t, out.Status.IsSuccess(), out.Status.String())
		return out
	}
}

func TestSyncAndAsyncAgree(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	u := newUser(t, th.AliceAccount)
	client := user.NewClient(u)
	async := user.NewAsyncClient(u.Async())

	requireSuccess(t)(client.SendMoney(ctx, th.AliceAccount, th.BobAccount, types.NewBalance(100)))

	syncBalance, err := client.ViewBalance(ctx, th.BobAccount)
	require.NoError(t, err)
	asyncBalance, err := async.ViewBalance(ctx, th.BobAccount).Await(ctx)
	require.NoError(t, err)
	assert.True(t, syncBalance.Equals(asyncBalance))
	assert.Equal(t, th.DefaultBalance.Add(types.NewBalance(100)).String(), syncBalance.String())

	blk, err := u.GetBlock(ctx, 500)
	require.NoError(t, err)
	assert.Nil(t, blk)
	blk, err = u.Async().GetBlock(ctx, 500).Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, blk)

	// both clients continue the same nonce sequence
	requireSuccess(t)(async.SendMoney(ctx, th.AliceAccount, th.BobAccount, types.NewBalance(1)).Await(ctx))
	nonce, err := client.GetAccessKeyNonceForSigner(ctx, th.AliceAccount)
	require.NoError(t, err)
	assert.Equal(t, types.Nonce(2), nonce)
}

func TestAccountManagement(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	u := newUser(t, th.AliceAccount)
	client := user.NewClient(u)

	sub := types.AccountID("sub.alice.near")
	subSigner := th.SignerFor(sub)
	requireSuccess(t)(client.CreateAccount(ctx, th.AliceAccount, sub, subSigner.PublicKey(), types.NewBalance(5000)))

	balance, err := client.ViewBalance(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "5000", balance.String())

	// act as the new account from here on
	u.SetSigner(subSigner)
	extra := th.SignerFor("extra")
	requireSuccess(t)(client.AddKey(ctx, sub, extra.PublicKey(), types.NewFullAccessKey()))
	rotated := th.SignerFor("rotated")
	requireSuccess(t)(client.SwapKey(ctx, sub, extra.PublicKey(), rotated.PublicKey(), types.NewFullAccessKey()))

	_, err = u.GetAccessKey(ctx, sub, extra.PublicKey())
	assert.ErrorIs(t, err, user.ErrNotFound)
	key, err := u.GetAccessKey(ctx, sub, rotated.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, types.Nonce(0), key.Nonce)

	requireSuccess(t)(client.DeleteKey(ctx, sub, rotated.PublicKey()))
	nonce, err := client.GetAccessKeyNonceForSigner(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, types.Nonce(3), nonce)

	requireSuccess(t)(client.Stake(ctx, sub, subSigner.PublicKey(), types.NewBalance(1000)))
	acc, err := u.ViewAccount(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Locked.String())
	requireSuccess(t)(client.Stake(ctx, sub, subSigner.PublicKey(), types.ZeroBalance()))

	// alice may not delete an account she does not control
	u.SetSigner(th.SignerFor(th.AliceAccount))
	out, err := client.DeleteAccount(ctx, th.AliceAccount, sub)
	require.NoError(t, err)
	assert.Equal(t, types.FinalFailure, out.Status.Kind)
	assert.Equal(t, "ActorNoPermission", out.Status.Failure.Kind)

	// the account can delete itself
	u.SetSigner(subSigner)
	requireSuccess(t)(client.DeleteAccount(ctx, sub, sub))
	_, err = u.ViewAccount(ctx, sub)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestContractDeployAndCall(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	u := newUser(t, th.AliceAccount)
	client := user.NewClient(u)

	requireSuccess(t)(client.DeployContract(ctx, th.AliceAccount, []byte("kv contract")))
	out := requireSuccess(t)(client.FunctionCall(ctx, th.AliceAccount, th.AliceAccount, "set_value",
		[]byte(`{"key":"k","value":"v"}`), 100_000_000_000_000, types.ZeroBalance()))
	assert.Equal(t, []string{"set k"}, out.Logs())

	state, err := u.ViewState(ctx, th.AliceAccount, nil)
	require.NoError(t, err)
	require.Len(t, state.Values, 1)
	assert.Equal(t, "v", string(state.Values[0].Value))

	// a failed call is an outcome, not an error
	out, err = client.FunctionCall(ctx, th.AliceAccount, th.AliceAccount, "missing", []byte(`{}`), 100_000_000_000_000, types.ZeroBalance())
	require.NoError(t, err)
	assert.Equal(t, types.FinalFailure, out.Status.Kind)
	assert.Error(t, out.Err())

	txOutcome, err := u.GetTransactionResult(ctx, out.TransactionHash)
	require.NoError(t, err)
	assert.Equal(t, th.AliceAccount, txOutcome.ExecutorID)
}

func TestAddReceipt(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	u := newUser(t, th.AliceAccount)
	var injector user.ReceiptInjector = u

	require.NoError(t, injector.AddReceipt(ctx, &types.Receipt{
		PredecessorID: "remote.near",
		ReceiverID:    th.AliceAccount,
		SignerID:      "remote.near",
		Actions:       []types.Action{&types.TransferAction{Deposit: types.NewBalance(11)}},
	}))
	balance, err := user.NewClient(u).ViewBalance(ctx, th.AliceAccount)
	require.NoError(t, err)
	assert.Equal(t, th.DefaultBalance.Add(types.NewBalance(11)).String(), balance.String())

	err = injector.AddReceipt(ctx, &types.Receipt{PredecessorID: "remote.near", ReceiverID: th.AliceAccount})
	assert.Equal(t, user.KindRejected, user.KindOf(err))
}
