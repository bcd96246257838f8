// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// msgpack.go — the default fallback: MessagePack payloads decoded into
// generic values.

package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack decodes MessagePack payloads. Integers widen to int64 or uint64
// and floats to float64 regardless of their packed width; maps decode as
// map[string]any.
type MsgPack struct{}

// Decode implements Codec.
func (MsgPack) Decode(data []byte) (any, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return v, nil
}

// Name returns "msgpack".
func (MsgPack) Name() string { return "msgpack" }
