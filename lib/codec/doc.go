// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the platform's single CBOR configuration.
//
// Dispatch traces and other on-disk records are CBOR; configuration
// files and CLI output are JSON, YAML or TOML. Every package that
// writes CBOR goes through this package so encodings agree byte for
// byte. The encoder uses Core Deterministic Encoding (RFC 8949 §4.2),
// which is what lets two traces of the same simulation be compared by
// digest:
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// Stream form, for feeding records to a hash or a file one at a time:
//
//	encoder := codec.NewEncoder(hasher)
//
// Types that only ever travel as CBOR carry `cbor` struct tags. Types
// that are also printed as JSON carry `json` tags only; fxamacker/cbor
// falls back to them.
package codec
