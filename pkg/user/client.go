package user

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/metrics"
	"github.com/L5dxb/near-evm/pkg/types"
)

var log = logging.Logger("user")

type options struct {
	nonces *NonceLocker
}

// Option configures a Client or an AsyncClient.
type Option func(*options)

// WithNonceLocker shares nonce serialization between clients that submit with the same keys.
func WithNonceLocker(nonces *NonceLocker) Option {
	return func(o *options) {
		o.nonces = nonces
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.nonces == nil {
		o.nonces = NewNonceLocker()
	}
	return o
}

// Client builds, signs and commits transactions through a User.
type Client struct {
	user    User
	builder *txBuilder
}

func NewClient(u User, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{
		user: u,
		builder: &txBuilder{
			nonces:        o.nonces,
			bestBlockHash: u.GetBestBlockHash,
			accessKey:     u.GetAccessKey,
			finalResult:   u.GetTransactionFinalResult,
		},
	}
}

// User returns the underlying transport.
func (c *Client) User() User {
	return c.user
}

// SignAndCommitActions signs actions as one transaction from signerID to receiverID with the
// next nonce of the current signer's key and blocks until the final outcome is known.
// Actions execute in the given order. A failed execution is reported in the outcome status,
// not as an error.
func (c *Client) SignAndCommitActions(ctx context.Context, signerID, receiverID types.AccountID, actions []types.Action) (*types.FinalExecutionOutcome, error) {
	stx, release, err := c.builder.build(ctx, c.user.Signer(), signerID, receiverID, actions)
	if err != nil {
		return nil, err
	}
	defer release()

	sw := metrics.TxCommitDuration.Start(ctx)
	outcome, err := c.user.CommitTransaction(ctx, stx)
	sw.Stop(ctx)

	c.builder.submitted(ctx, stx, err)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// SignAndSubmitActions is SignAndCommitActions without waiting for execution. It returns the
// transaction hash once the node has accepted the transaction.
func (c *Client) SignAndSubmitActions(ctx context.Context, signerID, receiverID types.AccountID, actions []types.Action) (types.CryptoHash, error) {
	stx, release, err := c.builder.build(ctx, c.user.Signer(), signerID, receiverID, actions)
	if err != nil {
		return types.EmptyHash, err
	}
	defer release()

	hash, err := c.user.AddTransaction(ctx, stx)
	c.builder.submitted(ctx, stx, err)
	if err != nil {
		return types.EmptyHash, err
	}
	return hash, nil
}

func (c *Client) commit(ctx context.Context, signerID types.AccountID, p actionPlan) (*types.FinalExecutionOutcome, error) {
	return c.SignAndCommitActions(ctx, signerID, p.receiverID, p.actions)
}

func (c *Client) SendMoney(ctx context.Context, signerID, receiverID types.AccountID, amount types.Balance) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, sendMoneyPlan(receiverID, amount))
}

// DeployContract deploys code to the signer's own account.
func (c *Client) DeployContract(ctx context.Context, signerID types.AccountID, code []byte) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, deployContractPlan(signerID, code))
}

// FunctionCall calls method on contractID with exactly the given gas and deposit.
func (c *Client) FunctionCall(ctx context.Context, signerID, contractID types.AccountID, method string, args []byte, gas types.Gas, deposit types.Balance) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, functionCallPlan(contractID, method, args, gas, deposit))
}

// CreateAccount creates newAccountID funded with amount and controlled by pk.
func (c *Client) CreateAccount(ctx context.Context, signerID, newAccountID types.AccountID, pk crypto.PublicKey, amount types.Balance) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, createAccountPlan(newAccountID, pk, amount))
}

func (c *Client) AddKey(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey, key types.AccessKey) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, addKeyPlan(signerID, pk, key))
}

func (c *Client) DeleteKey(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, deleteKeyPlan(signerID, pk))
}

// SwapKey deletes oldPK and adds newPK with key in one transaction.
func (c *Client) SwapKey(ctx context.Context, signerID types.AccountID, oldPK, newPK crypto.PublicKey, key types.AccessKey) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, swapKeyPlan(signerID, oldPK, newPK, key))
}

// DeleteAccount deletes receiverID, its balance goes to signerID.
func (c *Client) DeleteAccount(ctx context.Context, signerID, receiverID types.AccountID) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, deleteAccountPlan(signerID, receiverID))
}

func (c *Client) Stake(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey, amount types.Balance) (*types.FinalExecutionOutcome, error) {
	return c.commit(ctx, signerID, stakePlan(signerID, pk, amount))
}

// ViewBalance returns the liquid balance of accountID.
func (c *Client) ViewBalance(ctx context.Context, accountID types.AccountID) (types.Balance, error) {
	acc, err := c.user.ViewAccount(ctx, accountID)
	if err != nil {
		return types.Balance{}, err
	}
	return acc.Amount, nil
}

// GetAccessKeyNonceForSigner returns the chain nonce of accountID's key held by the current
// signer.
func (c *Client) GetAccessKeyNonceForSigner(ctx context.Context, accountID types.AccountID) (types.Nonce, error) {
	signer := c.user.Signer()
	if signer == nil {
		return 0, &Error{Kind: KindSigning, Op: "access key nonce", Err: errNoSigner}
	}
	key, err := c.user.GetAccessKey(ctx, accountID, signer.PublicKey())
	if err != nil {
		return 0, err
	}
	return key.Nonce, nil
}
