package rosbag

import "bytes"

// memSource adapts a byte slice to Source for tests that need random
// access without touching a real file.
type memSource struct {
	data []byte
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memSource) Size() (int64, error) {
	return int64(len(m.data)), nil
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func testConnection(id uint32, topic, typ string) *Connection {
	return &Connection{
		Conn:  id,
		Topic: topic,
		Data: ConnectionHeader{
			Topic:             topic,
			Type:              typ,
			MD5Sum:            "abc123",
			MessageDefinition: []byte("string data\n"),
		},
	}
}

func testMessage(conn uint32, sec, nsec uint32, data []byte) *Message {
	return &Message{Conn: conn, Time: Time{Sec: sec, Nsec: nsec}, Data: data}
}

// buildBag composes a minimal well-formed bag: one chunk containing the
// given messages, followed by the given connections' section and the
// chunk-info sections, with index_pos correctly patched.
func buildBag(connections []*Connection, messages []*Message) ([]byte, error) {
	chunk, indexData, err := CreateChunk(messages)
	if err != nil {
		return nil, err
	}
	chunkBytes, err := ComposeChunk(chunk)
	if err != nil {
		return nil, err
	}
	var chunkSection bytes.Buffer
	chunkSection.Write(chunkBytes)
	for _, idx := range indexData {
		b, err := ComposeIndexData(idx)
		if err != nil {
			return nil, err
		}
		chunkSection.Write(b)
	}

	chunkInfo := chunkInfoFromIndexData(uint64(len(Magic))+bagHeaderRecordSize, indexData)
	return assembleBag(chunkSection.Bytes(), connections, []*ChunkInfo{chunkInfo})
}
