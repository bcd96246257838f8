// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// codec.go — the fallback decoder contract for values the optimized path
// does not special-case (the delegated tag). Payloads come from peers, so
// only the decoding half is needed.

// Package codec provides the generic fallback codecs for delegated values.
package codec

import (
	"errors"
	"fmt"
)

// Codec turns a delegated payload into a generic Go value.
type Codec interface {
	// Decode returns the single value held in data.
	Decode(data []byte) (any, error)
	// Name returns the codec identifier used for diagnostics.
	Name() string
}

// ErrTrailingData is returned when a payload holds more than one value.
var ErrTrailingData = errors.New("codec: trailing data after value")

// Decode runs c over data and labels any failure with the codec name and
// payload size.
func Decode(c Codec, data []byte) (any, error) {
	v, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s decode (%d bytes): %w", c.Name(), len(data), err)
	}
	return v, nil
}

// Default is the codec used when a Config leaves Fallback unset.
var Default Codec = MsgPack{}
