package evmcall_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/pkg/evmcall"
	"github.com/L5dxb/near-evm/pkg/localnode"
	th "github.com/L5dxb/near-evm/pkg/testhelpers"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
	"github.com/L5dxb/near-evm/pkg/user/runtimeuser"
)

const counterABI = `[
	{"type":"function","name":"increment","inputs":[{"name":"by","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getCount","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

func mustMethod(t *testing.T, name string) *evmcall.Method {
	m, err := evmcall.ParseMethod(counterABI, name)
	require.NoError(t, err)
	return m
}

// counterEVM stands in for the EVM contract: deployed bytecode is kept per address and
// every contract is a counter.
func counterEVM(t *testing.T) localnode.RuntimeFunc {
	increment := mustMethod(t, "increment")
	getCount := mustMethod(t, "getCount")

	return func(_ context.Context, call *localnode.CallContext, storage localnode.Storage) (*localnode.CallResult, error) {
		fail := func(msg string) (*localnode.CallResult, error) {
			return nil, &types.ExecutionError{Kind: "FunctionCallError", Message: msg}
		}
		switch call.Method {
		case evmcall.DeployCodeMethod:
			var args evmcall.DeployArgs
			if err := json.Unmarshal(call.Args, &args); err != nil {
				return fail(err.Error())
			}
			if err := storage.Set([]byte("code/"+args.ContractAddress), []byte(args.Bytecode)); err != nil {
				return nil, err
			}
			return &localnode.CallResult{Logs: []string{"deployed " + args.ContractAddress}}, nil
		case evmcall.RunCommandMethod:
			var args evmcall.RunArgs
			if err := json.Unmarshal(call.Args, &args); err != nil {
				return fail(err.Error())
			}
			if _, ok, err := storage.Get([]byte("code/" + args.ContractAddress)); err != nil || !ok {
				return fail("no code at " + args.ContractAddress)
			}
			input, err := hex.DecodeString(args.EncodedInput)
			if err != nil || len(input) < 4 {
				return fail("bad input")
			}
			key := []byte("count/" + args.ContractAddress)
			count := new(big.Int)
			if v, ok, err := storage.Get(key); err != nil {
				return nil, err
			} else if ok {
				count.SetBytes(v)
			}

			var out []byte
			switch {
			case bytes.Equal(input[:4], increment.Selector()):
				by := new(big.Int).SetBytes(input[4:])
				count.Add(count, by)
				if err := storage.Set(key, count.Bytes()); err != nil {
					return nil, err
				}
			case bytes.Equal(input[:4], getCount.Selector()):
				if out, err = getCount.PackOutput(count); err != nil {
					return nil, err
				}
			default:
				return fail("unknown selector")
			}
			return &localnode.CallResult{Value: []byte(`"` + hex.EncodeToString(out) + `"`)}, nil
		}
		return nil, &types.ExecutionError{Kind: "MethodNotFound", Message: call.Method}
	}
}

func newHarness(t *testing.T) *evmcall.Harness {
	n := th.NewTestNode(t, func(cfg *localnode.Config) {
		cfg.Runtime = counterEVM(t)
	})
	u, err := runtimeuser.New(n, th.SignerFor(th.AliceAccount))
	require.NoError(t, err)
	return evmcall.NewHarness(user.NewClient(u), th.AliceAccount, th.AliceAccount)
}

func TestDeployAndCall(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	h := newHarness(t)

	out, err := h.DeployEVM(ctx, []byte("evm"))
	require.NoError(t, err)
	require.True(t, out.Status.IsSuccess(), out.Status.String())

	out, err = h.DeployCode(ctx, "counter", []byte{0x60, 0x80, 0x60, 0x40})
	require.NoError(t, err)
	require.True(t, out.Status.IsSuccess(), out.Status.String())
	assert.Equal(t, []string{"deployed counter"}, out.Logs())

	vals, err := h.Call(ctx, "counter", mustMethod(t, "getCount"))
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, int64(0), vals[0].(*big.Int).Int64())

	input, err := mustMethod(t, "increment").Pack(big.NewInt(5))
	require.NoError(t, err)
	out, err = h.RunCommand(ctx, "counter", input)
	require.NoError(t, err)
	require.True(t, out.Status.IsSuccess(), out.Status.String())

	vals, err = h.Call(ctx, "counter", mustMethod(t, "getCount"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), vals[0].(*big.Int).Int64())
}

func TestCallWithoutCode(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	h := newHarness(t)
	_, err := h.DeployEVM(ctx, []byte("evm"))
	require.NoError(t, err)

	_, err = h.Call(ctx, "missing", mustMethod(t, "getCount"))
	require.Error(t, err)
	var execErr *types.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "FunctionCallError", execErr.Kind)
}

func TestPayloads(t *testing.T) {
	tf.UnitTest(t)

	deploy, err := evmcall.DeployPayload("cryptozombies", []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.JSONEq(t, `{"contract_address":"cryptozombies","bytecode":"dead"}`, string(deploy))

	run, err := evmcall.RunPayload("cryptozombies", []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.JSONEq(t, `{"contract_address":"cryptozombies","encoded_input":"0102"}`, string(run))
}

func TestDecodeResult(t *testing.T) {
	tf.UnitTest(t)

	data, err := evmcall.DecodeResult(&types.FinalExecutionOutcome{
		Status: types.FinalExecutionStatus{Kind: types.FinalSuccessValue, SuccessValue: []byte(`"00ff"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, data)

	_, err = evmcall.DecodeResult(&types.FinalExecutionOutcome{
		Status: types.FinalExecutionStatus{Kind: types.FinalSuccessValue},
	})
	assert.ErrorIs(t, err, evmcall.ErrNoResult)

	_, err = evmcall.DecodeResult(&types.FinalExecutionOutcome{
		Status: types.FinalExecutionStatus{Kind: types.FinalStarted},
	})
	assert.Error(t, err)

	_, err = evmcall.DecodeResult(nil)
	assert.ErrorIs(t, err, evmcall.ErrNoResult)
}

func TestSenderToAddress(t *testing.T) {
	tf.UnitTest(t)

	a := evmcall.SenderToAddress("alice.near")
	assert.Equal(t, a, evmcall.SenderToAddress("alice.near"))
	assert.NotEqual(t, a, evmcall.SenderToAddress("bob.near"))
	assert.Len(t, a.Bytes(), 20)
}

func TestParseMethodUnknown(t *testing.T) {
	tf.UnitTest(t)

	_, err := evmcall.ParseMethod(counterABI, "reset")
	assert.Error(t, err)
	_, err = evmcall.ParseMethod("not json", "getCount")
	assert.Error(t, err)
}
