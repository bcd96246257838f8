// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// json.go — JSON fallback for peers that delegate values as text documents.
// Numbers stay json.Number so 64-bit ids survive intact.

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON decodes a single JSON document.
type JSON struct{}

// Decode implements Codec.
func (JSON) Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

// Name returns "json".
func (JSON) Name() string { return "json" }
