// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a trace payload is compressed. Values are
// stored in the file header; changing them breaks existing files.
type Compression uint8

const (
	// CompressionNone stores the CBOR payload as is.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression. Fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level. Traces are highly
	// repetitive, so this is usually the smallest.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "lz4" or "zstd". The empty string
// means zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown trace compression %q (want none, lz4 or zstd)", name)
	}
}

// errIncompressible is returned by a compressor whose output would not
// be smaller than its input. The payload is then stored uncompressed.
var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("trace: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("trace: zstd decoder initialization failed: " + err.Error())
	}
}

// compress applies c to data. It returns the compression actually
// used, which falls back to CompressionNone when compressing would not
// save space.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		compressed []byte
		err        error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported trace compression %d", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, c, nil
}

// decompress reverses compress. size is the uncompressed length from
// the file header and is checked exactly.
func decompress(data []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, header says %d", len(data), size)
		}
		return data, nil
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported trace compression %d", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}
