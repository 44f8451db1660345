package localnode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// Storage is the key value store of the contract being called.
type Storage interface {
	Get(key []byte) ([]byte, bool, error)
	Set(key, value []byte) error
	Remove(key []byte) error
}

// CallContext describes one function call.
type CallContext struct {
	ReceiptID       types.CryptoHash
	ContractID      types.AccountID
	PredecessorID   types.AccountID
	SignerID        types.AccountID
	SignerPublicKey crypto.PublicKey
	BlockHeight     types.BlockHeight
	Code            []byte
	Method          string
	Args            []byte
	Gas             types.Gas
	Deposit         types.Balance
	// Balance is the contract's balance including Deposit.
	Balance types.Balance
}

type CallResult struct {
	Value   []byte
	Logs    []string
	GasUsed types.Gas
}

// ContractRuntime executes function calls. A returned *types.ExecutionError is reported as
// is, any other error as a FunctionCallError. Storage writes of a failed call are discarded.
type ContractRuntime interface {
	Call(ctx context.Context, call *CallContext, storage Storage) (*CallResult, error)
}

// RuntimeFunc adapts a function to ContractRuntime.
type RuntimeFunc func(ctx context.Context, call *CallContext, storage Storage) (*CallResult, error)

func (f RuntimeFunc) Call(ctx context.Context, call *CallContext, storage Storage) (*CallResult, error) {
	return f(ctx, call, storage)
}

const functionCallBaseGas types.Gas = 2_319_861_500_000

// NoopRuntime accepts every call and returns no value.
type NoopRuntime struct{}

func (NoopRuntime) Call(_ context.Context, call *CallContext, _ Storage) (*CallResult, error) {
	return &CallResult{GasUsed: minGas(functionCallBaseGas, call.Gas)}, nil
}

func minGas(a, b types.Gas) types.Gas {
	if a < b {
		return a
	}
	return b
}

// KeyValueRuntime gives every contract a string key value store:
//
//	set_value    {"key": k, "value": v}  stores v under k
//	get_value    {"key": k}              returns v as a JSON string, or null
//	remove_value {"key": k}              deletes k
type KeyValueRuntime struct{}

type kvArgs struct {
	Key   string  `json:"key"`
	Value *string `json:"value,omitempty"`
}

func (KeyValueRuntime) Call(_ context.Context, call *CallContext, storage Storage) (*CallResult, error) {
	var args kvArgs
	if err := json.Unmarshal(call.Args, &args); err != nil {
		return nil, &types.ExecutionError{Kind: "FunctionCallError", Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	res := &CallResult{GasUsed: minGas(functionCallBaseGas, call.Gas)}
	switch call.Method {
	case "set_value":
		if args.Value == nil {
			return nil, &types.ExecutionError{Kind: "FunctionCallError", Message: "missing value"}
		}
		if err := storage.Set([]byte(args.Key), []byte(*args.Value)); err != nil {
			return nil, err
		}
		res.Logs = append(res.Logs, fmt.Sprintf("set %s", args.Key))
	case "get_value":
		v, ok, err := storage.Get([]byte(args.Key))
		if err != nil {
			return nil, err
		}
		if ok {
			s := string(v)
			res.Value, err = json.Marshal(&s)
		} else {
			res.Value, err = json.Marshal(nil)
		}
		if err != nil {
			return nil, err
		}
	case "remove_value":
		if err := storage.Remove([]byte(args.Key)); err != nil {
			return nil, err
		}
		res.Logs = append(res.Logs, fmt.Sprintf("removed %s", args.Key))
	default:
		return nil, &types.ExecutionError{Kind: "MethodNotFound", Message: call.Method}
	}
	return res, nil
}
