package rosbag

import "fmt"

// requireOp fails with ErrOpcodeMismatch unless got equals want.
func requireOp(want, got OpCode) error {
	if want != got {
		return ErrOpcodeMismatch{Want: want, Got: got}
	}
	return nil
}

func requiredU32(fields []Field, name string) (uint32, error) {
	v, ok := FindField(fields, name)
	if !ok {
		return 0, ErrHeaderKeyNotFound{Key: name}
	}
	if len(v) != 4 {
		return 0, ErrCorrupt{Reason: fmt.Sprintf("field %q is %d bytes, want 4", name, len(v))}
	}
	return getU32(v), nil
}

func requiredU64(fields []Field, name string) (uint64, error) {
	v, ok := FindField(fields, name)
	if !ok {
		return 0, ErrHeaderKeyNotFound{Key: name}
	}
	if len(v) != 8 {
		return 0, ErrCorrupt{Reason: fmt.Sprintf("field %q is %d bytes, want 8", name, len(v))}
	}
	return getU64(v), nil
}

func requiredTime(fields []Field, name string) (Time, error) {
	v, ok := FindField(fields, name)
	if !ok {
		return Time{}, ErrHeaderKeyNotFound{Key: name}
	}
	if len(v) != 8 {
		return Time{}, ErrCorrupt{Reason: fmt.Sprintf("field %q is %d bytes, want 8", name, len(v))}
	}
	return getTime(v), nil
}

func requiredString(fields []Field, name string) (string, error) {
	v, ok := FindField(fields, name)
	if !ok {
		return "", ErrHeaderKeyNotFound{Key: name}
	}
	return string(v), nil
}

// ParseBagHeader decodes a BagHeader record (opcode 3, spec §3.2). The
// data section is discarded padding.
func ParseBagHeader(r RawRecord) (*BagHeader, error) {
	if err := requireOp(OpBagHeader, r.Op); err != nil {
		return nil, err
	}
	indexPos, err := requiredU64(r.Fields, "index_pos")
	if err != nil {
		return nil, err
	}
	connCount, err := requiredU32(r.Fields, "conn_count")
	if err != nil {
		return nil, err
	}
	chunkCount, err := requiredU32(r.Fields, "chunk_count")
	if err != nil {
		return nil, err
	}
	return &BagHeader{IndexPos: indexPos, ConnCount: connCount, ChunkCount: chunkCount}, nil
}

// ParseConnection decodes a Connection record (opcode 7, spec §3.2). Its
// data section is itself a header-field block carrying the connection
// header.
func ParseConnection(r RawRecord) (*Connection, error) {
	if err := requireOp(OpConnection, r.Op); err != nil {
		return nil, err
	}
	conn, err := requiredU32(r.Fields, "conn")
	if err != nil {
		return nil, err
	}
	topic, err := requiredString(r.Fields, "topic")
	if err != nil {
		return nil, err
	}

	data, err := ExtractFields(r.Data)
	if err != nil {
		return nil, err
	}
	dataType, err := requiredString(data, "type")
	if err != nil {
		return nil, err
	}
	md5sum, err := requiredString(data, "md5sum")
	if err != nil {
		return nil, err
	}
	msgDef, ok := FindField(data, "message_definition")
	if !ok {
		return nil, ErrHeaderKeyNotFound{Key: "message_definition"}
	}
	dataTopic, _ := FindField(data, "topic")

	var callerID *string
	if v, ok := FindField(data, "callerid"); ok {
		s := string(v)
		callerID = &s
	}
	var latching *bool
	if v, ok := FindField(data, "latching"); ok {
		b := len(v) == 1 && v[0] == '1'
		latching = &b
	}

	return &Connection{
		Conn:  conn,
		Topic: topic,
		Data: ConnectionHeader{
			Topic:             string(dataTopic),
			Type:              dataType,
			MD5Sum:            md5sum,
			MessageDefinition: append([]byte(nil), msgDef...),
			CallerID:          callerID,
			Latching:          latching,
		},
	}, nil
}

// ParseMessage decodes a MessageData record (opcode 2, spec §3.2). The
// data section is the opaque message payload, sliced directly from r.Data.
func ParseMessage(r RawRecord) (*Message, error) {
	if err := requireOp(OpMessageData, r.Op); err != nil {
		return nil, err
	}
	conn, err := requiredU32(r.Fields, "conn")
	if err != nil {
		return nil, err
	}
	t, err := requiredTime(r.Fields, "time")
	if err != nil {
		return nil, err
	}
	return &Message{Conn: conn, Time: t, Data: r.Data}, nil
}

// ParseChunk decodes a Chunk record (opcode 5, spec §3.2). The data
// section is left compressed; call Decompress to obtain the uncompressed
// concatenation of MessageData/Connection records.
func ParseChunk(r RawRecord) (*Chunk, error) {
	if err := requireOp(OpChunk, r.Op); err != nil {
		return nil, err
	}
	compression, err := requiredString(r.Fields, "compression")
	if err != nil {
		return nil, err
	}
	size, err := requiredU32(r.Fields, "size")
	if err != nil {
		return nil, err
	}
	return &Chunk{Compression: compression, Size: size, Data: r.Data}, nil
}

// ParseIndexData decodes an IndexData record (opcode 4, spec §3.2). The
// data section must be exactly count*12 bytes, or ErrCorruptIndex is
// returned.
func ParseIndexData(r RawRecord) (*IndexData, error) {
	if err := requireOp(OpIndexData, r.Op); err != nil {
		return nil, err
	}
	// ver is required to be present but its value is not otherwise
	// validated: readers are expected to tolerate future minor revisions
	// of the index data layout as long as the 12-byte entry shape holds.
	if _, err := requiredU32(r.Fields, "ver"); err != nil {
		return nil, err
	}
	conn, err := requiredU32(r.Fields, "conn")
	if err != nil {
		return nil, err
	}
	count, err := requiredU32(r.Fields, "count")
	if err != nil {
		return nil, err
	}
	wantLen := int(count) * 12
	if len(r.Data) != wantLen {
		return nil, ErrCorruptIndex{Count: count, DataLength: len(r.Data), WantedLength: wantLen}
	}
	entries := make([]MessageIndexEntry, count)
	offset := 0
	for i := range entries {
		entries[i] = MessageIndexEntry{
			Time:   getTime(r.Data[offset:]),
			Offset: getU32(r.Data[offset+8:]),
		}
		offset += 12
	}
	return &IndexData{Conn: conn, Count: count, Data: entries}, nil
}

// ParseChunkInfo decodes a ChunkInfo record (opcode 6, spec §3.2). The
// data section must be a whole multiple of 8 bytes, or
// ErrCorruptChunkInfo is returned.
func ParseChunkInfo(r RawRecord) (*ChunkInfo, error) {
	if err := requireOp(OpChunkInfo, r.Op); err != nil {
		return nil, err
	}
	if _, err := requiredU32(r.Fields, "ver"); err != nil {
		return nil, err
	}
	chunkPos, err := requiredU64(r.Fields, "chunk_pos")
	if err != nil {
		return nil, err
	}
	startTime, err := requiredTime(r.Fields, "start_time")
	if err != nil {
		return nil, err
	}
	endTime, err := requiredTime(r.Fields, "end_time")
	if err != nil {
		return nil, err
	}
	count, err := requiredU32(r.Fields, "count")
	if err != nil {
		return nil, err
	}
	if len(r.Data)%8 != 0 {
		return nil, ErrCorruptChunkInfo{DataLength: len(r.Data)}
	}
	data := make(map[uint32]uint32, len(r.Data)/8)
	for offset := 0; offset < len(r.Data); offset += 8 {
		connID := getU32(r.Data[offset:])
		msgCount := getU32(r.Data[offset+4:])
		data[connID] = msgCount
	}
	return &ChunkInfo{
		ChunkPos:  chunkPos,
		StartTime: startTime,
		EndTime:   endTime,
		Count:     count,
		Data:      data,
	}, nil
}
