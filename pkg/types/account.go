package types

import (
	"fmt"
	"regexp"

	"github.com/L5dxb/near-evm/pkg/crypto"
)

const (
	MinAccountIDLen = 2
	MaxAccountIDLen = 64
)

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// AccountID is a human readable account name such as "alice.near".
type AccountID string

// ParseAccountID validates s as an account id.
func ParseAccountID(s string) (AccountID, error) {
	id := AccountID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the length bounds and that the id is made of lowercase alphanumeric parts
// separated by single '-', '_' or '.'.
func (id AccountID) Validate() error {
	if len(id) < MinAccountIDLen || len(id) > MaxAccountIDLen {
		return fmt.Errorf("account id %q: length must be between %d and %d", string(id), MinAccountIDLen, MaxAccountIDLen)
	}
	if !accountIDPattern.MatchString(string(id)) {
		return fmt.Errorf("account id %q: invalid characters or separators", string(id))
	}
	return nil
}

func (id AccountID) String() string {
	return string(id)
}

// Account is the stored state of an account.
type Account struct {
	_            struct{} `cbor:",toarray"`
	Amount       Balance
	Locked       Balance
	CodeHash     CryptoHash
	StorageUsage uint64
}

// FunctionCallPermission restricts a key to calling methods of one contract.
// A nil Allowance means unlimited, an empty MethodNames allows every method.
type FunctionCallPermission struct {
	_           struct{} `cbor:",toarray"`
	Allowance   *Balance
	ReceiverID  AccountID
	MethodNames []string
}

// AllowsMethod reports whether the permission covers method.
func (p *FunctionCallPermission) AllowsMethod(method string) bool {
	if len(p.MethodNames) == 0 {
		return true
	}
	for _, m := range p.MethodNames {
		if m == method {
			return true
		}
	}
	return false
}

// AccessKeyPermission is either full access (FunctionCall == nil) or function call restricted.
type AccessKeyPermission struct {
	_            struct{} `cbor:",toarray"`
	FunctionCall *FunctionCallPermission `json:",omitempty"`
}

// FullAccess returns the unrestricted permission.
func FullAccess() AccessKeyPermission {
	return AccessKeyPermission{}
}

// FunctionCallAccess returns a permission limited to calling methods on receiver.
func FunctionCallAccess(receiver AccountID, allowance *Balance, methods ...string) AccessKeyPermission {
	return AccessKeyPermission{FunctionCall: &FunctionCallPermission{
		Allowance:   allowance,
		ReceiverID:  receiver,
		MethodNames: methods,
	}}
}

func (p AccessKeyPermission) IsFullAccess() bool {
	return p.FunctionCall == nil
}

func (p AccessKeyPermission) String() string {
	if p.IsFullAccess() {
		return "FullAccess"
	}
	return fmt.Sprintf("FunctionCall(%s, %v)", p.FunctionCall.ReceiverID, p.FunctionCall.MethodNames)
}

// AccessKey binds a public key to an account. Nonce is the last nonce used with the key.
type AccessKey struct {
	_          struct{} `cbor:",toarray"`
	Nonce      Nonce
	Permission AccessKeyPermission
}

// NewFullAccessKey returns a full access key with a zero nonce.
func NewFullAccessKey() AccessKey {
	return AccessKey{Permission: FullAccess()}
}

// AccessKeyInfo pairs a key with its public key, as listed by a view.
type AccessKeyInfo struct {
	PublicKey crypto.PublicKey
	AccessKey AccessKey
}
