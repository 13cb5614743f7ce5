package rosbag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Reader parses a bag from a Source (spec §4.5). It performs no eager
// reads beyond the magic string at construction time: the header,
// connections/chunk-infos, and chunk contents are each fetched on
// demand.
type Reader struct {
	src  Source
	size int64

	decompressors DecompressorTable
	lenient       bool
	warn          func(format string, args ...any)
}

// ReaderOption configures a Reader at construction time, in the
// functional-options style used throughout this package's writer-side
// configuration.
type ReaderOption func(*Reader)

// WithDecompressors overrides the table Reader.ReadChunk uses to
// decompress chunk contents. Defaults to DefaultDecompressors.
func WithDecompressors(table DecompressorTable) ReaderOption {
	return func(r *Reader) { r.decompressors = table }
}

// WithLenient controls whether ReadChunk tolerates and skips malformed
// IndexData records inside a chunk's index-data run, logging each one
// through the Reader's warn function instead of failing outright (spec
// §4.5's failure policy).
func WithLenient(lenient bool) ReaderOption {
	return func(r *Reader) { r.lenient = lenient }
}

// WithWarnFunc sets the callback used to report skipped records in
// lenient mode. Defaults to a no-op.
func WithWarnFunc(fn func(format string, args ...any)) ReaderOption {
	return func(r *Reader) { r.warn = fn }
}

// Open validates the magic string at the start of src and returns a
// Reader over it.
func Open(src Source, opts ...ReaderOption) (*Reader, error) {
	size, err := src.Size()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	magic := make([]byte, len(Magic))
	n, err := src.ReadAt(magic, 0)
	if !bytes.Equal(magic[:n], Magic[:n]) {
		return nil, ErrBadMagic
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading magic: %s", ErrUnexpectedEOF, err)
	}
	r := &Reader{
		src:           src,
		size:          size,
		decompressors: DefaultDecompressors(),
		warn:          func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ReadHeader reads and parses the BagHeader record from its fixed
// position (spec §4.5 step 2): a bagHeaderPaddedSize-byte prefetch
// window starting immediately after the magic string. The window is
// large enough to hold the header fields and data-length prefix; the
// padded data itself carries no information and is never read.
func (r *Reader) ReadHeader() (*BagHeader, error) {
	window := make([]byte, bagHeaderPaddedSize)
	n, err := r.src.ReadAt(window, int64(len(Magic)))
	if err != nil && !(errors.Is(err, io.EOF) && n == len(window)) {
		return nil, fmt.Errorf("%w: reading bag header window: %s", ErrUnexpectedEOF, err)
	}
	headerLen := int(getU32(window))
	if 4+headerLen > len(window) {
		return nil, ErrCorrupt{Offset: int64(len(Magic)), Reason: "bag header length overruns prefetch window"}
	}
	fields, err := ExtractFields(window[4 : 4+headerLen])
	if err != nil {
		return nil, err
	}
	op, err := opFromFields(fields)
	if err != nil {
		return nil, err
	}
	return ParseBagHeader(RawRecord{Op: op, Fields: fields})
}

// ReadConnectionsAndChunkInfos reads header.ConnCount Connection records
// followed by header.ChunkCount ChunkInfo records, starting at
// header.IndexPos (spec §4.5 step 3). Chunk-infos are returned in file
// order; connections are returned in an order-preserving table keyed by
// connection ID.
func (r *Reader) ReadConnectionsAndChunkInfos(header *BagHeader) (*ConnectionTable, []*ChunkInfo, error) {
	offset := int64(header.IndexPos)

	connections := NewConnectionTable()
	for i := uint32(0); i < header.ConnCount; i++ {
		rec, n, err := r.readRecordAt(offset)
		if err != nil {
			return nil, nil, fmt.Errorf("reading connection %d/%d at offset %d: %w", i+1, header.ConnCount, offset, err)
		}
		if rec.Op != OpConnection {
			return nil, nil, ErrUnexpectedOpcode{Want: OpConnection, Got: rec.Op}
		}
		conn, err := ParseConnection(rec)
		if err != nil {
			return nil, nil, err
		}
		connections.Add(conn)
		offset += n
	}

	chunkInfos := make([]*ChunkInfo, 0, header.ChunkCount)
	for i := uint32(0); i < header.ChunkCount; i++ {
		rec, n, err := r.readRecordAt(offset)
		if err != nil {
			return nil, nil, fmt.Errorf("reading chunk info %d/%d at offset %d: %w", i+1, header.ChunkCount, offset, err)
		}
		if rec.Op != OpChunkInfo {
			return nil, nil, ErrUnexpectedOpcode{Want: OpChunkInfo, Got: rec.Op}
		}
		ci, err := ParseChunkInfo(rec)
		if err != nil {
			return nil, nil, err
		}
		chunkInfos = append(chunkInfos, ci)
		offset += n
	}

	return connections, chunkInfos, nil
}

// ReadIndex is a convenience that runs ReadHeader followed by
// ReadConnectionsAndChunkInfos and assembles the result into a BagIndex.
func (r *Reader) ReadIndex() (*BagIndex, error) {
	header, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}
	if header.IndexPos == 0 {
		return nil, ErrUnindexedBag
	}
	connections, chunkInfos, err := r.ReadConnectionsAndChunkInfos(header)
	if err != nil {
		return nil, err
	}
	return &BagIndex{Header: *header, Connections: connections, ChunkInfos: chunkInfos}, nil
}

// ReadChunk seeks to ci.ChunkPos, reads and decompresses the Chunk
// record there using r's decompressor table, then reads the IndexData
// records immediately following it — stopping as soon as a
// non-IndexData opcode is encountered, which per spec §4.5 marks either
// the next chunk or the start of the connection section. The returned
// Chunk's Data is the decompressed message/connection byte stream, not
// the on-disk compressed bytes.
func (r *Reader) ReadChunk(ci *ChunkInfo) (*Chunk, []*IndexData, error) {
	offset := int64(ci.ChunkPos)
	rec, n, err := r.readRecordAt(offset)
	if err != nil {
		return nil, nil, fmt.Errorf("reading chunk at offset %d: %w", offset, err)
	}
	if rec.Op != OpChunk {
		return nil, nil, ErrUnexpectedOpcode{Want: OpChunk, Got: rec.Op}
	}
	chunk, err := ParseChunk(rec)
	if err != nil {
		return nil, nil, err
	}
	decompressed, err := Decompress(chunk, r.decompressors)
	if err != nil {
		return nil, nil, err
	}
	chunk.Data = decompressed
	offset += n

	var indexData []*IndexData
	for {
		idxRec, m, err := r.readRecordAt(offset)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("reading index data at offset %d: %w", offset, err)
		}
		if idxRec.Op != OpIndexData {
			break
		}
		idx, err := ParseIndexData(idxRec)
		if err != nil {
			if r.lenient {
				r.warn("skipping malformed index data at offset %d: %s", offset, err)
				offset += m
				continue
			}
			return nil, nil, err
		}
		indexData = append(indexData, idx)
		offset += m
	}

	return chunk, indexData, nil
}

// readRecordAt reads one full record starting at offset, returning the
// record and the number of bytes it occupied on disk.
func (r *Reader) readRecordAt(offset int64) (RawRecord, int64, error) {
	if offset >= r.size {
		return RawRecord{}, 0, io.EOF
	}
	var lenBuf [4]byte
	if _, err := r.src.ReadAt(lenBuf[:], offset); err != nil {
		return RawRecord{}, 0, fmt.Errorf("%w: header length at offset %d: %s", ErrUnexpectedEOF, offset, err)
	}
	headerLen := int64(getU32(lenBuf[:]))
	header := make([]byte, headerLen)
	if headerLen > 0 {
		if _, err := r.src.ReadAt(header, offset+4); err != nil {
			return RawRecord{}, 0, fmt.Errorf("%w: header at offset %d: %s", ErrUnexpectedEOF, offset+4, err)
		}
	}
	fields, err := ExtractFields(header)
	if err != nil {
		return RawRecord{}, 0, err
	}
	op, err := opFromFields(fields)
	if err != nil {
		return RawRecord{}, 0, err
	}

	dataLenOffset := offset + 4 + headerLen
	var dataLenBuf [4]byte
	if _, err := r.src.ReadAt(dataLenBuf[:], dataLenOffset); err != nil {
		return RawRecord{}, 0, fmt.Errorf("%w: data length at offset %d: %s", ErrUnexpectedEOF, dataLenOffset, err)
	}
	dataLen := int64(getU32(dataLenBuf[:]))
	data := make([]byte, dataLen)
	if dataLen > 0 {
		if _, err := r.src.ReadAt(data, dataLenOffset+4); err != nil {
			return RawRecord{}, 0, fmt.Errorf("%w: data at offset %d: %s", ErrUnexpectedEOF, dataLenOffset+4, err)
		}
	}
	total := 4 + headerLen + 4 + dataLen
	return RawRecord{Op: op, Fields: fields, Data: data}, total, nil
}

// opFromFields extracts and validates the "op" field common to every
// record header.
func opFromFields(fields []Field) (OpCode, error) {
	v, ok := FindField(fields, "op")
	if !ok {
		return OpError, ErrMissingOp
	}
	if len(v) != 1 {
		return OpError, ErrMalformed
	}
	return OpCode(v[0]), nil
}
