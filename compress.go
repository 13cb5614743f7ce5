package rosbag

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Decompressor turns compressed chunk bytes into the uncompressed
// concatenation of MessageData/Connection records. uncompressedSize is
// the Chunk's declared Size field, used to preallocate the output.
type Decompressor func(data []byte, uncompressedSize int) ([]byte, error)

// Compressor turns the uncompressed contents of a chunk into bytes ready
// to store in a Chunk record's data section.
type Compressor func(data []byte) ([]byte, error)

// DecompressorTable maps a compression name to the function that
// decodes it. Both the Reader and DefaultDecompressors treat this as an
// injectable dependency (spec §1: compression codecs are external
// collaborators), so a caller can add or override entries freely.
type DecompressorTable map[string]Decompressor

// CompressorTable maps a compression name to the function that encodes
// it, used by the Composer's chunk-creation helper.
type CompressorTable map[string]Compressor

// DefaultDecompressors returns a table supporting "none" (passthrough)
// and "lz4" (github.com/pierrec/lz4/v4). "bz2" decodes via the standard
// library's compress/bzip2 reader — the pack carries no bzip2 library at
// all, and the stdlib package covers decoding, so there is nothing to
// prefer over it for this one direction.
func DefaultDecompressors() DecompressorTable {
	return DecompressorTable{
		CompressionNone: decompressNone,
		CompressionLZ4:  decompressLZ4,
		CompressionBZ2:  decompressBZ2,
	}
}

// DefaultCompressors returns a table supporting "none" and "lz4". There
// is no bzip2 *encoder* available anywhere in the corpus or the standard
// library, so composing a bz2 chunk fails with ErrUnsupportedCompression
// — the same limitation go-rosbag's own writer and linear iterator have.
func DefaultCompressors() CompressorTable {
	return CompressorTable{
		CompressionNone: compressNone,
		CompressionLZ4:  compressLZ4,
	}
}

func decompressNone(data []byte, uncompressedSize int) ([]byte, error) {
	if len(data) != uncompressedSize {
		return nil, fmt.Errorf("uncompressed chunk size mismatch: declared %d, got %d", uncompressedSize, len(data))
	}
	return data, nil
}

func compressNone(data []byte) ([]byte, error) {
	return data, nil
}

func decompressLZ4(data []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, uncompressedSize)
	r := lz4.NewReader(bytes.NewReader(data))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, ErrDecompress{Compression: CompressionLZ4, Err: err}
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressBZ2(data []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, uncompressedSize)
	r := bzip2.NewReader(bytes.NewReader(data))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, ErrDecompress{Compression: CompressionBZ2, Err: err}
	}
	return out, nil
}

// Decompress looks up c.Compression in table and applies it to c.Data.
func Decompress(c *Chunk, table DecompressorTable) ([]byte, error) {
	fn, ok := table[c.Compression]
	if !ok {
		return nil, ErrUnsupportedCompression{Compression: c.Compression}
	}
	return fn(c.Data, int(c.Size))
}
