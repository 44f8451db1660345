package evmcall

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Method is one function of a contract ABI.
type Method struct {
	contract abi.ABI
	name     string
}

// ParseMethod looks up name in a JSON ABI definition.
func ParseMethod(abiJSON, name string) (*Method, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	if _, ok := parsed.Methods[name]; !ok {
		return nil, fmt.Errorf("abi has no method %q", name)
	}
	return &Method{contract: parsed, name: name}, nil
}

func (m *Method) Name() string {
	return m.name
}

// Pack encodes a call: selector followed by the arguments.
func (m *Method) Pack(args ...interface{}) ([]byte, error) {
	return m.contract.Pack(m.name, args...)
}

// Unpack decodes the return data of the method.
func (m *Method) Unpack(data []byte) ([]interface{}, error) {
	return m.contract.Unpack(m.name, data)
}

// PackOutput encodes return values the way the contract would.
func (m *Method) PackOutput(values ...interface{}) ([]byte, error) {
	return m.contract.Methods[m.name].Outputs.Pack(values...)
}

// Selector returns the four byte method id.
func (m *Method) Selector() []byte {
	return m.contract.Methods[m.name].ID
}
