// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/reconcile/iblt"
)

// The protocol exchanges one message per round trip. Transport is external;
// these types fix the wire schema.

// SendSketch carries one ladder level from responder to requester.
type SendSketch struct {
	Level  int           `cbor:"1,keyasint"`
	Sketch *iblt.Counted `cbor:"2,keyasint"`
}

// SendHashes carries a party's full surrogate list during a full exchange.
type SendHashes struct {
	Hashes []uint64 `cbor:"1,keyasint"`
}

// RequestItems asks the peer for the items behind surrogates this side
// lacks.
type RequestItems struct {
	Hashes []uint64 `cbor:"1,keyasint"`
}

// SendItems carries the requested items.
type SendItems[T any] struct {
	Items []T `cbor:"1,keyasint"`
}

// EncodeMessage serializes a protocol message.
func EncodeMessage(msg any) ([]byte, error) {
	return cbor.Marshal(msg)
}

// DecodeMessage deserializes into the expected message type.
func DecodeMessage(data []byte, msg any) error {
	return cbor.Unmarshal(data, msg)
}
