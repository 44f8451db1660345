package evmcall

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
)

// Harness deploys and calls EVM contracts held by the EVM account, signing as signerID.
type Harness struct {
	client   *user.Client
	signerID types.AccountID
	evmID    types.AccountID
}

func NewHarness(client *user.Client, signerID, evmID types.AccountID) *Harness {
	return &Harness{client: client, signerID: signerID, evmID: evmID}
}

// DeployEVM deploys the EVM contract itself to the signer's account.
func (h *Harness) DeployEVM(ctx context.Context, code []byte) (*types.FinalExecutionOutcome, error) {
	return h.client.DeployContract(ctx, h.signerID, code)
}

// DeployCode stores bytecode in the EVM under contract.
func (h *Harness) DeployCode(ctx context.Context, contract string, bytecode []byte) (*types.FinalExecutionOutcome, error) {
	args, err := DeployPayload(contract, bytecode)
	if err != nil {
		return nil, err
	}
	return h.client.FunctionCall(ctx, h.signerID, h.evmID, DeployCodeMethod, args, CallGas, types.ZeroBalance())
}

// RunCommand runs ABI encoded input against contract.
func (h *Harness) RunCommand(ctx context.Context, contract string, input []byte) (*types.FinalExecutionOutcome, error) {
	args, err := RunPayload(contract, input)
	if err != nil {
		return nil, err
	}
	return h.client.FunctionCall(ctx, h.signerID, h.evmID, RunCommandMethod, args, CallGas, types.ZeroBalance())
}

// Call packs args for m, runs it against contract and unpacks the return values.
func (h *Harness) Call(ctx context.Context, contract string, m *Method, args ...interface{}) ([]interface{}, error) {
	input, err := m.Pack(args...)
	if err != nil {
		return nil, err
	}
	out, err := h.RunCommand(ctx, contract, input)
	if err != nil {
		return nil, err
	}
	data, err := DecodeResult(out)
	if err != nil {
		return nil, err
	}
	return m.Unpack(data)
}
