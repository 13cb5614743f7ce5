package rosbag

import (
	"errors"
	"fmt"
)

// Sentinel errors corresponding to the error kinds in spec §7 that carry
// no interesting payload.
var (
	// ErrBadMagic indicates a source does not begin with the ROS bag magic
	// string.
	ErrBadMagic = errors.New("bad magic")
	// ErrTruncated indicates a buffer ended before a length-prefixed
	// field could be read.
	ErrTruncated = errors.New("truncated")
	// ErrMalformed indicates a header field was missing its '=' separator.
	ErrMalformed = errors.New("malformed header field")
	// ErrMissingOp indicates a record's header had no "op" field.
	ErrMissingOp = errors.New("missing op field")
	// ErrUnexpectedEOF indicates a short read while reading a record.
	ErrUnexpectedEOF = errors.New("unexpected EOF reading record")
	// ErrEmptyHeader indicates a header field block composed to zero
	// bytes.
	ErrEmptyHeader = errors.New("empty header")
	// ErrNoType indicates a connection had no "type" field, so its
	// message definition could not be keyed by datatype.
	ErrNoType = errors.New("connection has no type")
	// ErrUnseekableSource indicates an operation required random access
	// that the supplied source does not support.
	ErrUnseekableSource = errors.New("source does not support random access")
	// ErrUnindexedBag indicates a bag's BagHeader.IndexPos is zero.
	ErrUnindexedBag = errors.New("unindexed bag")
)

// ErrCorrupt indicates a length prefix would overrun its containing
// buffer.
type ErrCorrupt struct {
	Offset int64
	Reason string
}

func (e ErrCorrupt) Error() string {
	return fmt.Sprintf("corrupt record at offset %d: %s", e.Offset, e.Reason)
}

// ErrOpcodeMismatch indicates a record was parsed as one kind but its
// header declared a different opcode.
type ErrOpcodeMismatch struct {
	Want OpCode
	Got  OpCode
}

func (e ErrOpcodeMismatch) Error() string {
	return fmt.Sprintf("opcode mismatch: want %s, got %s", e.Want, e.Got)
}

// ErrUnexpectedOpcode indicates a record kind was encountered somewhere
// it is not permitted, such as a non-Connection record in the connection
// section or a non-Chunk record at a ChunkInfo's chunk position.
type ErrUnexpectedOpcode struct {
	Want OpCode
	Got  OpCode
}

func (e ErrUnexpectedOpcode) Error() string {
	return fmt.Sprintf("unexpected opcode: want %s, got %s", e.Want, e.Got)
}

// ErrCorruptIndex indicates an IndexData record's data section was not
// exactly count × 12 bytes, where count is its header's count field.
type ErrCorruptIndex struct {
	Count        uint32
	DataLength   int
	WantedLength int
}

func (e ErrCorruptIndex) Error() string {
	return fmt.Sprintf("corrupt index data: count=%d implies %d bytes, got %d",
		e.Count, e.WantedLength, e.DataLength)
}

// ErrCorruptChunkInfo indicates a ChunkInfo record's data section was not
// an exact multiple of the 8-byte entry size.
type ErrCorruptChunkInfo struct {
	DataLength int
}

func (e ErrCorruptChunkInfo) Error() string {
	return fmt.Sprintf("corrupt chunk info: data length %d is not a multiple of 8", e.DataLength)
}

// ErrHeaderKeyNotFound indicates a required header field was absent.
type ErrHeaderKeyNotFound struct {
	Key string
}

func (e ErrHeaderKeyNotFound) Error() string {
	return fmt.Sprintf("header key not found: %s", e.Key)
}

// ErrTopicTypeConflict indicates two connections declared the same topic
// with different message types.
type ErrTopicTypeConflict struct {
	Topic string
	TypeA string
	TypeB string
}

func (e ErrTopicTypeConflict) Error() string {
	return fmt.Sprintf("topic %q has conflicting types %q and %q", e.Topic, e.TypeA, e.TypeB)
}

// ErrUnsupportedCompression indicates a chunk or compressor table named
// a compression scheme with no registered decompress/compress function.
type ErrUnsupportedCompression struct {
	Compression string
}

func (e ErrUnsupportedCompression) Error() string {
	return fmt.Sprintf("unsupported compression: %s", e.Compression)
}

// ErrDecompress wraps a failure from a decompressor function.
type ErrDecompress struct {
	Compression string
	Err         error
}

func (e ErrDecompress) Error() string {
	return fmt.Sprintf("decompress %s: %s", e.Compression, e.Err)
}

func (e ErrDecompress) Unwrap() error {
	return e.Err
}
