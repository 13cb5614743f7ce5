package rosbag

import (
	"errors"
	"fmt"
	"io"
)

// RawRecord is a record's header fields and data section, with the
// opcode already pulled out of the header for convenience. It is the
// common currency between the generic record framing in this file and
// the record-kind-specific Parse*/Compose* functions in parse.go and
// compose.go.
type RawRecord struct {
	Op     OpCode
	Fields []Field
	Data   []byte
}

// ReadRecord reads one complete record from r: a 4-byte header length, a
// header-field block, a 4-byte data length, and a data section (spec
// §4.2-§4.3). It returns io.EOF, unwrapped, only when r is exhausted
// before any byte of a new record is read; a short read partway through
// a record is reported as ErrUnexpectedEOF.
func ReadRecord(r io.Reader) (RawRecord, error) {
	headerLen, err := readLengthPrefix(r, false)
	if err != nil {
		return RawRecord{}, err
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return RawRecord{}, fmt.Errorf("%w: reading header of length %d: %s", ErrUnexpectedEOF, headerLen, err)
	}
	fields, err := ExtractFields(header)
	if err != nil {
		return RawRecord{}, err
	}
	opValue, ok := FindField(fields, "op")
	if !ok {
		return RawRecord{}, ErrMissingOp
	}
	if len(opValue) != 1 {
		return RawRecord{}, ErrMalformed
	}
	op := OpCode(opValue[0])

	dataLen, err := readLengthPrefix(r, true)
	if err != nil {
		return RawRecord{}, err
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return RawRecord{}, fmt.Errorf("%w: reading data of length %d: %s", ErrUnexpectedEOF, dataLen, err)
	}

	return RawRecord{Op: op, Fields: fields, Data: data}, nil
}

// readLengthPrefix reads a 4-byte little-endian length. When eofOk is
// false, an EOF at the very first byte is returned unwrapped so callers
// scanning a sequence of records can detect its end; any other failure,
// or an EOF mid-prefix, becomes ErrUnexpectedEOF.
func readLengthPrefix(r io.Reader, eofOk bool) (uint32, error) {
	var buf [4]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if !eofOk && n == 0 && errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w: reading length prefix: %s", ErrUnexpectedEOF, err)
	}
	return getU32(buf[:]), nil
}

// WriteRecord composes a header from fields and writes the complete
// record — header length, header, data length, data — to w. It returns
// the total number of bytes written.
func WriteRecord(w io.Writer, fields []Field, data []byte) (int, error) {
	header, err := ComposeHeader(fields)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	var lenBuf [4]byte
	putU32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return 0, fmt.Errorf("writing data length: %w", err)
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return 0, fmt.Errorf("writing data: %w", err)
		}
	}
	return len(header) + 4 + len(data), nil
}

// opField returns the (name, value) field pair for an opcode, the
// canonical last entry of every record-kind header composed in
// compose.go.
func opField(op OpCode) Field {
	return Field{Name: "op", Value: []byte{byte(op)}}
}
