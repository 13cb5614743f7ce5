package rosbag

import (
	"bytes"
	"sort"
)

// ComposeBagHeader serializes a BagHeader record, padded with ASCII
// spaces so the complete record (both length prefixes, header fields,
// and padding) is always exactly bagHeaderRecordSize (4104) bytes,
// regardless of the magnitude of the field values (spec §4.3, §8
// property 4). Padding is not meaningful on read and is normalized here
// rather than preserved, per spec §9.
func ComposeBagHeader(h BagHeader) ([]byte, error) {
	indexPos := make([]byte, 8)
	putU64(indexPos, h.IndexPos)
	connCount := make([]byte, 4)
	putU32(connCount, h.ConnCount)
	chunkCount := make([]byte, 4)
	putU32(chunkCount, h.ChunkCount)

	fields := []Field{
		{Name: "index_pos", Value: indexPos},
		{Name: "conn_count", Value: connCount},
		{Name: "chunk_count", Value: chunkCount},
		opField(OpBagHeader),
	}

	fieldBytes := ComposeFields(fields)
	paddingLen := bagHeaderPaddedSize - len(fieldBytes)
	if paddingLen < 0 {
		// Header fields alone exceed the padded budget; still produce a
		// structurally valid (if larger than usual) record rather than
		// silently truncating data the caller asked to be written.
		paddingLen = 0
	}
	padding := bytes.Repeat([]byte{' '}, paddingLen)

	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, padding); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeConnection serializes a Connection record (spec §4.3).
func ComposeConnection(c *Connection) ([]byte, error) {
	connID := make([]byte, 4)
	putU32(connID, c.Conn)

	fields := []Field{
		{Name: "conn", Value: connID},
		{Name: "topic", Value: []byte(c.Topic)},
		opField(OpConnection),
	}

	dataFields := []Field{
		{Name: "topic", Value: []byte(c.Data.Topic)},
		{Name: "type", Value: []byte(c.Data.Type)},
		{Name: "md5sum", Value: []byte(c.Data.MD5Sum)},
		{Name: "message_definition", Value: c.Data.MessageDefinition},
	}
	if c.Data.CallerID != nil {
		dataFields = append(dataFields, Field{Name: "callerid", Value: []byte(*c.Data.CallerID)})
	}
	if c.Data.Latching != nil {
		v := []byte("0")
		if *c.Data.Latching {
			v = []byte("1")
		}
		dataFields = append(dataFields, Field{Name: "latching", Value: v})
	}
	data := ComposeFields(dataFields)

	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeMessage serializes a MessageData record (spec §4.3).
func ComposeMessage(m *Message) ([]byte, error) {
	conn := make([]byte, 4)
	putU32(conn, m.Conn)
	t := make([]byte, 8)
	putTime(t, m.Time)

	fields := []Field{
		{Name: "conn", Value: conn},
		{Name: "time", Value: t},
		opField(OpMessageData),
	}
	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, m.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeChunk serializes a Chunk record. c.Data is expected to already
// be compressed according to c.Compression; ComposeChunk does not
// compress on the caller's behalf (see CreateChunk for that).
func ComposeChunk(c *Chunk) ([]byte, error) {
	size := make([]byte, 4)
	putU32(size, c.Size)

	fields := []Field{
		{Name: "compression", Value: []byte(c.Compression)},
		{Name: "size", Value: size},
		opField(OpChunk),
	}
	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, c.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeIndexData serializes an IndexData record (spec §4.3), always at
// version 1.
func ComposeIndexData(idx *IndexData) ([]byte, error) {
	ver := make([]byte, 4)
	putU32(ver, 1)
	conn := make([]byte, 4)
	putU32(conn, idx.Conn)
	count := make([]byte, 4)
	putU32(count, idx.Count)

	fields := []Field{
		{Name: "ver", Value: ver},
		{Name: "conn", Value: conn},
		{Name: "count", Value: count},
		opField(OpIndexData),
	}

	data := make([]byte, 12*len(idx.Data))
	offset := 0
	for _, entry := range idx.Data {
		offset += putTime(data[offset:], entry.Time)
		offset += putU32(data[offset:], entry.Offset)
	}

	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComposeChunkInfo serializes a ChunkInfo record (spec §4.3), always at
// version 1. Connection entries are emitted in ascending connection-ID
// order for deterministic output, since ChunkInfo.Data is a map.
func ComposeChunkInfo(ci *ChunkInfo) ([]byte, error) {
	ver := make([]byte, 4)
	putU32(ver, 1)
	chunkPos := make([]byte, 8)
	putU64(chunkPos, ci.ChunkPos)
	startTime := make([]byte, 8)
	putTime(startTime, ci.StartTime)
	endTime := make([]byte, 8)
	putTime(endTime, ci.EndTime)
	count := make([]byte, 4)
	putU32(count, ci.Count)

	fields := []Field{
		{Name: "ver", Value: ver},
		{Name: "chunk_pos", Value: chunkPos},
		{Name: "start_time", Value: startTime},
		{Name: "end_time", Value: endTime},
		{Name: "count", Value: count},
		opField(OpChunkInfo),
	}

	connIDs := sortedConnIDs(ci.Data)
	data := make([]byte, 8*len(connIDs))
	offset := 0
	for _, id := range connIDs {
		offset += putU32(data[offset:], id)
		offset += putU32(data[offset:], ci.Data[id])
	}

	var buf bytes.Buffer
	if _, err := WriteRecord(&buf, fields, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedConnIDs(m map[uint32]uint32) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
