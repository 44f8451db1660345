// Package evmcall drives an EVM contract embedded in an account chain contract: deploying
// bytecode to it and running ABI encoded calls through it.
package evmcall

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/L5dxb/near-evm/pkg/types"
)

const (
	// DeployCodeMethod stores EVM bytecode under a contract address.
	DeployCodeMethod = "deploy_code"
	// RunCommandMethod runs ABI encoded input against a deployed contract.
	RunCommandMethod = "run_command"

	CallGas types.Gas = 1_000_000_000
)

var ErrNoResult = errors.New("call returned no value")

// DeployArgs are the arguments of deploy_code.
type DeployArgs struct {
	ContractAddress string `json:"contract_address"`
	// Bytecode is hex encoded.
	Bytecode string `json:"bytecode"`
}

// RunArgs are the arguments of run_command.
type RunArgs struct {
	ContractAddress string `json:"contract_address"`
	// EncodedInput is the hex encoded ABI call.
	EncodedInput string `json:"encoded_input"`
}

func DeployPayload(contract string, bytecode []byte) ([]byte, error) {
	return json.Marshal(&DeployArgs{ContractAddress: contract, Bytecode: hex.EncodeToString(bytecode)})
}

func RunPayload(contract string, input []byte) ([]byte, error) {
	return json.Marshal(&RunArgs{ContractAddress: contract, EncodedInput: hex.EncodeToString(input)})
}

// DecodeResult extracts the EVM return data of a successful call. The contract returns it as
// a JSON string of hex digits, so the surrounding quotes are dropped before decoding.
func DecodeResult(out *types.FinalExecutionOutcome) ([]byte, error) {
	if out == nil {
		return nil, ErrNoResult
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	if !out.Status.IsSuccess() {
		return nil, fmt.Errorf("call not finished: %s", out.Status)
	}
	v := out.Status.SuccessValue
	if len(v) < 2 {
		return nil, ErrNoResult
	}
	data, err := hex.DecodeString(string(v[1 : len(v)-1]))
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return data, nil
}

// SenderToAddress is the EVM address of an account: the last 20 bytes of the keccak256 of
// its id.
func SenderToAddress(id types.AccountID) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(id))[12:])
}
