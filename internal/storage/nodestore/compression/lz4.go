package compression

import (
	"encoding/binary"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// NoCompressor is a pass-through compressor.
type NoCompressor struct{}

// Name returns the name of the compressor.
func (c *NoCompressor) Name() string {
	return "none"
}

// Compress returns a copy of the data unchanged.
func (c *NoCompressor) Compress(data []byte, level int) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Decompress returns a copy of the data unchanged.
func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// MaxCompressedSize returns the same size since no compression is performed.
func (c *NoCompressor) MaxCompressedSize(uncompressedSize int) int {
	return uncompressedSize
}

// LZ4Compressor implements LZ4 block compression.
type LZ4Compressor struct{}

// Name returns the name of the compressor.
func (c *LZ4Compressor) Name() string {
	return "lz4"
}

// lz4HeaderSize is the length prefix recording the uncompressed size.
// The block format itself does not carry it.
const lz4HeaderSize = 4

// Compress compresses data using LZ4. The output carries the uncompressed
// size so Decompress can allocate exactly.
func (c *LZ4Compressor) Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	compressed := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(compressed[:lz4HeaderSize], uint32(len(data)))
	n, err := lz4.CompressBlock(data, compressed[lz4HeaderSize:], nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compression failed")
	}
	if n == 0 {
		// CompressBlock reports incompressible input as a zero-length
		// block. Callers store such data uncompressed.
		return nil, errors.New("lz4: data is not compressible")
	}

	return compressed[:lz4HeaderSize+n], nil
}

// Decompress decompresses LZ4 data produced by Compress.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	if len(data) < lz4HeaderSize {
		return nil, errors.Errorf("lz4 data truncated: %d bytes", len(data))
	}

	size := binary.BigEndian.Uint32(data[:lz4HeaderSize])
	decompressed := make([]byte, size)
	n, err := lz4.UncompressBlock(data[lz4HeaderSize:], decompressed)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompression failed")
	}
	if n != int(size) {
		return nil, errors.Errorf("lz4 size mismatch: header %d, block %d", size, n)
	}
	return decompressed, nil
}

// MaxCompressedSize returns the LZ4 worst-case size for the given input size.
func (c *LZ4Compressor) MaxCompressedSize(uncompressedSize int) int {
	return lz4HeaderSize + lz4.CompressBlockBound(uncompressedSize)
}
