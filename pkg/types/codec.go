package types

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// transaction hashes are taken over this encoding, it must stay canonical
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal encodes v with the deterministic CBOR encoding used for hashing and storage.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR produced by Marshal.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
