// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is Core Deterministic Encoding: sorted map keys, shortest
// integer forms, no indefinite lengths.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// time.Time values are written as RFC 3339 text with nanoseconds so
	// traces stay readable in diagnostic notation.
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Decoding into any yields map[string]any rather than
		// map[any]any, so results can be handed to encoding/json.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder writes a sequence of CBOR items.
type Encoder = cbor.Encoder

// NewEncoder returns a deterministic encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
