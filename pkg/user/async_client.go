package user

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/metrics"
	"github.com/L5dxb/near-evm/pkg/types"
)

// AsyncClient is Client over an AsyncUser. Every operation returns at once; the signer is
// captured when the operation is issued and the operation runs to completion even if the
// caller stops waiting.
type AsyncClient struct {
	user    AsyncUser
	builder *txBuilder
}

func NewAsyncClient(u AsyncUser, opts ...Option) *AsyncClient {
	o := buildOptions(opts)
	return &AsyncClient{
		user: u,
		builder: &txBuilder{
			nonces: o.nonces,
			bestBlockHash: func(ctx context.Context) (types.CryptoHash, error) {
				return u.GetBestBlockHash(ctx).Await(ctx)
			},
			accessKey: func(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) {
				return u.GetAccessKey(ctx, accountID, pk).Await(ctx)
			},
			finalResult: func(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error) {
				return u.GetTransactionFinalResult(ctx, hash).Await(ctx)
			},
		},
	}
}

func (c *AsyncClient) User() AsyncUser {
	return c.user
}

func (c *AsyncClient) SignAndCommitActions(ctx context.Context, signerID, receiverID types.AccountID, actions []types.Action) *Future[*types.FinalExecutionOutcome] {
	if len(actions) == 0 {
		return Ready[*types.FinalExecutionOutcome](nil, ErrNoActions)
	}
	signer := c.user.Signer()
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.FinalExecutionOutcome, error) {
		stx, release, err := c.builder.build(ctx, signer, signerID, receiverID, actions)
		if err != nil {
			return nil, err
		}
		defer release()

		sw := metrics.TxCommitDuration.Start(ctx)
		outcome, err := c.user.CommitTransaction(ctx, stx).Await(ctx)
		sw.Stop(ctx)

		c.builder.submitted(ctx, stx, err)
		if err != nil {
			return nil, err
		}
		return outcome, nil
	})
}

func (c *AsyncClient) SignAndSubmitActions(ctx context.Context, signerID, receiverID types.AccountID, actions []types.Action) *Future[types.CryptoHash] {
	if len(actions) == 0 {
		return Ready(types.EmptyHash, ErrNoActions)
	}
	signer := c.user.Signer()
	ctx = context.WithoutCancel(ctx)
	return Go(func() (types.CryptoHash, error) {
		stx, release, err := c.builder.build(ctx, signer, signerID, receiverID, actions)
		if err != nil {
			return types.EmptyHash, err
		}
		defer release()

		hash, err := c.user.AddTransaction(ctx, stx).Await(ctx)
		c.builder.submitted(ctx, stx, err)
		if err != nil {
			return types.EmptyHash, err
		}
		return hash, nil
	})
}

func (c *AsyncClient) commit(ctx context.Context, signerID types.AccountID, p actionPlan) *Future[*types.FinalExecutionOutcome] {
	return c.SignAndCommitActions(ctx, signerID, p.receiverID, p.actions)
}

func (c *AsyncClient) SendMoney(ctx context.Context, signerID, receiverID types.AccountID, amount types.Balance) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, sendMoneyPlan(receiverID, amount))
}

func (c *AsyncClient) DeployContract(ctx context.Context, signerID types.AccountID, code []byte) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, deployContractPlan(signerID, code))
}

func (c *AsyncClient) FunctionCall(ctx context.Context, signerID, contractID types.AccountID, method string, args []byte, gas types.Gas, deposit types.Balance) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, functionCallPlan(contractID, method, args, gas, deposit))
}

func (c *AsyncClient) CreateAccount(ctx context.Context, signerID, newAccountID types.AccountID, pk crypto.PublicKey, amount types.Balance) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, createAccountPlan(newAccountID, pk, amount))
}

func (c *AsyncClient) AddKey(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey, key types.AccessKey) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, addKeyPlan(signerID, pk, key))
}

func (c *AsyncClient) DeleteKey(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, deleteKeyPlan(signerID, pk))
}

func (c *AsyncClient) SwapKey(ctx context.Context, signerID types.AccountID, oldPK, newPK crypto.PublicKey, key types.AccessKey) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, swapKeyPlan(signerID, oldPK, newPK, key))
}

func (c *AsyncClient) DeleteAccount(ctx context.Context, signerID, receiverID types.AccountID) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, deleteAccountPlan(signerID, receiverID))
}

func (c *AsyncClient) Stake(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey, amount types.Balance) *Future[*types.FinalExecutionOutcome] {
	return c.commit(ctx, signerID, stakePlan(signerID, pk, amount))
}

// ViewBalance derives from ViewAccount without blocking the caller.
func (c *AsyncClient) ViewBalance(ctx context.Context, accountID types.AccountID) *Future[types.Balance] {
	return Then(c.user.ViewAccount(ctx, accountID), func(acc *types.AccountView) (types.Balance, error) {
		return acc.Amount, nil
	})
}

func (c *AsyncClient) GetAccessKeyNonceForSigner(ctx context.Context, accountID types.AccountID) *Future[types.Nonce] {
	signer := c.user.Signer()
	if signer == nil {
		return Ready[types.Nonce](0, &Error{Kind: KindSigning, Op: "access key nonce", Err: errNoSigner})
	}
	return Then(c.user.GetAccessKey(ctx, accountID, signer.PublicKey()), func(key *types.AccessKeyView) (types.Nonce, error) {
		return key.Nonce, nil
	})
}
