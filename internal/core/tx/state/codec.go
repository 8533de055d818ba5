// Package state defines the data carried by each ledger entry kind and the
// LedgerView interface the transaction engine operates on. Entries are
// serialized with a canonical CBOR encoding so that identical logical state
// always produces identical bytes.
package state

import (
	"github.com/ugorji/go/codec"
)

// cborHandle is the shared encoding configuration. Canonical ordering keeps
// serialization deterministic across processes.
var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

func marshal(v any) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, cborHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

func unmarshal(data []byte, v any) error {
	dec := codec.NewDecoderBytes(data, cborHandle)
	return dec.Decode(v)
}
