// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/agentplatform/lib/codec"
)

const (
	formatVersion = 1
	headerSize    = 14

	// maxPayloadSize bounds the allocation made from an untrusted
	// header.
	maxPayloadSize = 1 << 30
)

var magic = [4]byte{'A', 'P', 'T', 'R'}

var (
	// ErrNotTrace is returned when a file does not start with the
	// trace magic.
	ErrNotTrace = errors.New("not a trace file")

	// ErrVersion is returned for a trace written by an unknown format
	// version.
	ErrVersion = errors.New("unsupported trace format version")
)

// Marshal encodes trace into the file format, compressed with c.
func Marshal(trace *Trace, c Compression) ([]byte, error) {
	payload, err := codec.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("encoding trace: %w", err)
	}
	body, used, err := compress(payload, c)
	if err != nil {
		return nil, err
	}

	data := make([]byte, headerSize, headerSize+len(body))
	copy(data[0:4], magic[:])
	data[4] = formatVersion
	data[5] = byte(used)
	binary.LittleEndian.PutUint64(data[6:14], uint64(len(payload)))
	return append(data, body...), nil
}

// Unmarshal decodes the file format.
func Unmarshal(data []byte) (*Trace, error) {
	payload, err := Payload(data)
	if err != nil {
		return nil, err
	}
	var trace Trace
	if err := codec.Unmarshal(payload, &trace); err != nil {
		return nil, fmt.Errorf("decoding trace: %w", err)
	}
	return &trace, nil
}

// Payload validates the header and returns the decompressed CBOR
// payload, for tools that want to inspect it without decoding.
func Payload(data []byte) ([]byte, error) {
	if len(data) < headerSize || !bytes.Equal(data[0:4], magic[:]) {
		return nil, ErrNotTrace
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}
	size := binary.LittleEndian.Uint64(data[6:14])
	if size > maxPayloadSize {
		return nil, fmt.Errorf("trace payload of %d bytes exceeds limit", size)
	}
	return decompress(data[headerSize:], Compression(data[5]), int(size))
}

// WriteFile atomically writes trace to path. The file is written to a
// temporary name in the same directory, synced, and renamed into
// place. The parent directory must exist.
func WriteFile(path string, trace *Trace, c Compression) error {
	data, err := Marshal(trace, c)
	if err != nil {
		return err
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary trace file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary trace file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary trace file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary trace file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming trace file into place: %w", err)
	}

	// Make the rename itself durable.
	if directory, err := os.Open(filepath.Dir(path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}

// ReadFile reads a trace file. A missing file yields an error wrapping
// os.ErrNotExist.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	trace, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trace, nil
}
