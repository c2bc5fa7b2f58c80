// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace records the order in which an engine dispatches tasks
// and stores it for later comparison.
//
// A [Recorder] plugs into an engine as its [engine.Recorder]. Running
// the same simulation twice must produce the same records; [Digest]
// reduces a record list to a BLAKE3 hash so that two runs can be
// compared without keeping both in memory, and [Compare] finds the
// first record where they part ways.
//
// Trace files are a small binary header followed by the CBOR-encoded
// trace, optionally compressed:
//
//	offset  size  field
//	0       4     magic "APTR"
//	4       1     format version (1)
//	5       1     compression tag (0 none, 1 lz4, 2 zstd)
//	6       8     uncompressed payload length, little-endian
//	14      ...   payload
//
// Files are written atomically: readers see the old file or the new
// one, never a partial write.
package trace
