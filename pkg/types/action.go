package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/L5dxb/near-evm/pkg/crypto"
)

// ActionKind tags an Action on the wire.
type ActionKind uint8

const (
	ActionCreateAccount ActionKind = iota
	ActionDeployContract
	ActionFunctionCall
	ActionTransfer
	ActionStake
	ActionAddKey
	ActionDeleteKey
	ActionDeleteAccount
)

var actionKindNames = map[ActionKind]string{
	ActionCreateAccount:  "CreateAccount",
	ActionDeployContract: "DeployContract",
	ActionFunctionCall:   "FunctionCall",
	ActionTransfer:       "Transfer",
	ActionStake:          "Stake",
	ActionAddKey:         "AddKey",
	ActionDeleteKey:      "DeleteKey",
	ActionDeleteAccount:  "DeleteAccount",
}

func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// Action is one state mutation inside a transaction or receipt. The set of implementations
// is closed.
type Action interface {
	Kind() ActionKind
	isAction()
}

type CreateAccountAction struct {
	_ struct{} `cbor:",toarray"`
}

type DeployContractAction struct {
	_    struct{} `cbor:",toarray"`
	Code []byte
}

type FunctionCallAction struct {
	_          struct{} `cbor:",toarray"`
	MethodName string
	Args       []byte
	Gas        Gas
	Deposit    Balance
}

type TransferAction struct {
	_       struct{} `cbor:",toarray"`
	Deposit Balance
}

type StakeAction struct {
	_         struct{} `cbor:",toarray"`
	Stake     Balance
	PublicKey crypto.PublicKey
}

type AddKeyAction struct {
	_         struct{} `cbor:",toarray"`
	PublicKey crypto.PublicKey
	AccessKey AccessKey
}

type DeleteKeyAction struct {
	_         struct{} `cbor:",toarray"`
	PublicKey crypto.PublicKey
}

type DeleteAccountAction struct {
	_             struct{} `cbor:",toarray"`
	BeneficiaryID AccountID
}

func (*CreateAccountAction) Kind() ActionKind  { return ActionCreateAccount }
func (*DeployContractAction) Kind() ActionKind { return ActionDeployContract }
func (*FunctionCallAction) Kind() ActionKind   { return ActionFunctionCall }
func (*TransferAction) Kind() ActionKind       { return ActionTransfer }
func (*StakeAction) Kind() ActionKind          { return ActionStake }
func (*AddKeyAction) Kind() ActionKind         { return ActionAddKey }
func (*DeleteKeyAction) Kind() ActionKind      { return ActionDeleteKey }
func (*DeleteAccountAction) Kind() ActionKind  { return ActionDeleteAccount }

func (*CreateAccountAction) isAction()  {}
func (*DeployContractAction) isAction() {}
func (*FunctionCallAction) isAction()   {}
func (*TransferAction) isAction()       {}
func (*StakeAction) isAction()          {}
func (*AddKeyAction) isAction()         {}
func (*DeleteKeyAction) isAction()      {}
func (*DeleteAccountAction) isAction()  {}

// Deposit returns the tokens an action attaches to the receiver.
func Deposit(a Action) Balance {
	switch v := a.(type) {
	case *TransferAction:
		return v.Deposit
	case *FunctionCallAction:
		return v.Deposit
	default:
		return ZeroBalance()
	}
}

// TotalDeposit sums Deposit over actions.
func TotalDeposit(actions []Action) Balance {
	total := ZeroBalance()
	for _, a := range actions {
		total = total.Add(Deposit(a))
	}
	return total
}

type actionEnvelope struct {
	_    struct{} `cbor:",toarray"`
	Kind ActionKind
	Body cbor.RawMessage
}

func newAction(kind ActionKind) (Action, error) {
	switch kind {
	case ActionCreateAccount:
		return &CreateAccountAction{}, nil
	case ActionDeployContract:
		return &DeployContractAction{}, nil
	case ActionFunctionCall:
		return &FunctionCallAction{}, nil
	case ActionTransfer:
		return &TransferAction{}, nil
	case ActionStake:
		return &StakeAction{}, nil
	case ActionAddKey:
		return &AddKeyAction{}, nil
	case ActionDeleteKey:
		return &DeleteKeyAction{}, nil
	case ActionDeleteAccount:
		return &DeleteAccountAction{}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %d", uint8(kind))
	}
}

func encodeActions(actions []Action) ([]actionEnvelope, error) {
	out := make([]actionEnvelope, 0, len(actions))
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("action %d is nil", i)
		}
		body, err := encMode.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode action %d (%s): %w", i, a.Kind(), err)
		}
		out = append(out, actionEnvelope{Kind: a.Kind(), Body: body})
	}
	return out, nil
}

func decodeActions(envs []actionEnvelope) ([]Action, error) {
	out := make([]Action, 0, len(envs))
	for i, env := range envs {
		a, err := newAction(env.Kind)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		if err := decMode.Unmarshal(env.Body, a); err != nil {
			return nil, fmt.Errorf("decode action %d (%s): %w", i, env.Kind, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// ActionList is the CBOR form of an ordered action sequence.
type ActionList []Action

func (l ActionList) MarshalCBOR() ([]byte, error) {
	envs, err := encodeActions(l)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(envs)
}

func (l *ActionList) UnmarshalCBOR(data []byte) error {
	var envs []actionEnvelope
	if err := decMode.Unmarshal(data, &envs); err != nil {
		return err
	}
	actions, err := decodeActions(envs)
	if err != nil {
		return err
	}
	*l = actions
	return nil
}
