package types

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
)

type (
	// Gas is an amount of prepaid execution budget.
	Gas uint64
	// Nonce is the per access key replay counter.
	Nonce uint64
	// BlockHeight is the index of a block in the chain, genesis is 0.
	BlockHeight uint64
)

// Balance is a non-negative token amount in the smallest denomination.
// The zero value is a zero balance.
type Balance struct {
	big.Int
}

func NewBalance(v uint64) Balance {
	return Balance{Int: big.NewIntUnsigned(v)}
}

func ZeroBalance() Balance {
	return Balance{Int: big.Zero()}
}

// ParseBalance parses a base 10 amount.
func ParseBalance(s string) (Balance, error) {
	v, err := big.FromString(s)
	if err != nil {
		return Balance{}, fmt.Errorf("parse balance %q: %w", s, err)
	}
	if v.Sign() < 0 {
		return Balance{}, fmt.Errorf("negative balance %q", s)
	}
	return Balance{Int: v}, nil
}

func MustParseBalance(s string) Balance {
	b, err := ParseBalance(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Balance) value() big.Int {
	if b.Int.Nil() {
		return big.Zero()
	}
	return b.Int
}

func (b Balance) Add(o Balance) Balance {
	return Balance{Int: big.Add(b.value(), o.value())}
}

// Sub returns b-o. Callers check Cmp first, the result is never clamped.
func (b Balance) Sub(o Balance) Balance {
	return Balance{Int: big.Sub(b.value(), o.value())}
}

func (b Balance) Cmp(o Balance) int {
	return big.Cmp(b.value(), o.value())
}

func (b Balance) Equals(o Balance) bool {
	return b.Cmp(o) == 0
}

func (b Balance) IsZero() bool {
	return b.value().Sign() == 0
}

func (b Balance) IsNegative() bool {
	return b.value().Sign() < 0
}

func (b Balance) String() string {
	return b.value().String()
}

func (b Balance) MarshalCBOR() ([]byte, error) {
	v := b.value()
	raw, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(raw)
}

func (b *Balance) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := big.FromBytes(raw)
	if err != nil {
		return err
	}
	b.Int = v
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Balance) UnmarshalText(text []byte) error {
	parsed, err := ParseBalance(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
